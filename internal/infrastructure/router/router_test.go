package router

import (
	"context"
	"strings"
	"testing"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/infrastructure/safety"
	"github.com/doeshing/opsentry/internal/ports"
)

type stubHandler struct {
	output string
	err    string
	panics bool
}

func (h *stubHandler) Execute(ctx context.Context, subAction string, params domain.ParamValues, convCtx *domain.ConversationContext) domain.HandlerResult {
	if h.panics {
		panic("handler blew up")
	}
	return domain.HandlerResult{Output: h.output, Err: h.err}
}

func testRouter(t *testing.T, handlers map[domain.CommandType]ports.DomainHandler, cfg domain.ExecutionSettings) *Router {
	t.Helper()
	guard, err := safety.LoadPatterns("")
	if err != nil {
		t.Fatalf("load patterns: %v", err)
	}
	return New(handlers, cfg, guard, nil)
}

func statusCmd() *domain.CandidateCommand {
	return &domain.CandidateCommand{
		Type:      domain.CommandStatus,
		SubAction: "show",
		Preview:   "status show",
	}
}

func TestDispatchSuccess(t *testing.T) {
	r := testRouter(t, map[domain.CommandType]ports.DomainHandler{
		domain.CommandStatus: &stubHandler{output: "all green"},
	}, domain.ExecutionSettings{})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Output != "all green" {
		t.Fatalf("output = %q", result.Output)
	}
	if result.ExitCode != domain.ExitCodeOK {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, domain.ExitCodeOK)
	}
	if result.CommandEcho != "status show" {
		t.Fatalf("command echo = %q", result.CommandEcho)
	}
}

func TestDispatchDeniedFamily(t *testing.T) {
	r := testRouter(t, map[domain.CommandType]ports.DomainHandler{
		domain.CommandStatus: &stubHandler{},
	}, domain.ExecutionSettings{DeniedCommands: []string{"status"}})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if result.Success {
		t.Fatal("denied family must not execute")
	}
	if result.ExitCode != domain.ExitCodeDisallowed {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, domain.ExitCodeDisallowed)
	}
}

func TestDispatchOutsideAllowList(t *testing.T) {
	r := testRouter(t, nil, domain.ExecutionSettings{AllowedCommands: []string{"auth"}})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if result.Success || result.ExitCode != domain.ExitCodeDisallowed {
		t.Fatalf("expected disallowed, got success=%v exit=%d", result.Success, result.ExitCode)
	}
}

func TestDispatchDestructiveGuard(t *testing.T) {
	r := testRouter(t, map[domain.CommandType]ports.DomainHandler{
		domain.CommandConfig: &stubHandler{output: "should never run"},
	}, domain.ExecutionSettings{})

	cmd := &domain.CandidateCommand{
		Type:      domain.CommandConfig,
		SubAction: "set",
		Preview:   "config set --key cleanup --value rm -rf /data",
	}
	result := r.Dispatch(context.Background(), cmd, domain.SafetyVerdict{}, nil)
	if result.Success {
		t.Fatal("destructive preview must be rejected before the handler runs")
	}
	if result.ExitCode != domain.ExitCodeDisallowed {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, domain.ExitCodeDisallowed)
	}
	if !strings.Contains(result.Error, "destructive pattern rejected") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestDispatchNoHandler(t *testing.T) {
	r := testRouter(t, nil, domain.ExecutionSettings{})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if result.Success || result.ExitCode != domain.ExitCodeNoHandler {
		t.Fatalf("expected no-handler failure, got success=%v exit=%d", result.Success, result.ExitCode)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	r := testRouter(t, map[domain.CommandType]ports.DomainHandler{
		domain.CommandStatus: &stubHandler{panics: true},
	}, domain.ExecutionSettings{})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if result.Success {
		t.Fatal("panicking handler must report failure")
	}
	if result.ExitCode != domain.ExitCodeHandlerErr {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, domain.ExitCodeHandlerErr)
	}
	if !strings.Contains(result.Error, "handler failure") {
		t.Fatalf("error = %q", result.Error)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	r := testRouter(t, map[domain.CommandType]ports.DomainHandler{
		domain.CommandStatus: &stubHandler{err: "backend unreachable"},
	}, domain.ExecutionSettings{})

	result := r.Dispatch(context.Background(), statusCmd(), domain.SafetyVerdict{}, nil)
	if result.Success {
		t.Fatal("handler error must fail the result")
	}
	if result.Error != "backend unreachable" {
		t.Fatalf("error = %q", result.Error)
	}
	if result.ExitCode != domain.ExitCodeHandlerErr {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, domain.ExitCodeHandlerErr)
	}
}
