// Package router dispatches validated commands to their domain handlers.
// It enforces an allow/deny list and re-checks the rendered command against
// the destructive patterns, independent of the safety validator.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/infrastructure/safety"
	"github.com/doeshing/opsentry/internal/ports"
)

// DefaultAllowList names the dispatchable command families.
var DefaultAllowList = []string{"auth", "threat", "network", "behavior", "intel", "config", "help", "status"}

// Router implements ports.ExecutionRouter.
type Router struct {
	handlers map[domain.CommandType]ports.DomainHandler
	allow    map[domain.CommandType]bool
	deny     map[domain.CommandType]bool
	guard    *safety.PatternSet
	timeout  time.Duration
	logger   ports.Logger
}

// New builds a router. guard is the destructive-pattern set used as the
// final defense-in-depth check; timeout bounds each handler call.
func New(handlers map[domain.CommandType]ports.DomainHandler, cfg domain.ExecutionSettings, guard *safety.PatternSet, logger ports.Logger) *Router {
	allowed := cfg.AllowedCommands
	if len(allowed) == 0 {
		allowed = DefaultAllowList
	}
	allow := make(map[domain.CommandType]bool, len(allowed))
	for _, name := range allowed {
		allow[domain.CommandType(name)] = true
	}
	deny := make(map[domain.CommandType]bool, len(cfg.DeniedCommands))
	for _, name := range cfg.DeniedCommands {
		deny[domain.CommandType(name)] = true
	}

	timeout := time.Duration(cfg.HandlerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Router{
		handlers: handlers,
		allow:    allow,
		deny:     deny,
		guard:    guard,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch implements ports.ExecutionRouter. Failures come back as failed
// results with exit-code metadata, never as errors or panics.
func (r *Router) Dispatch(ctx context.Context, cmd *domain.CandidateCommand, verdict domain.SafetyVerdict, convCtx *domain.ConversationContext) domain.ExecutionResult {
	if !r.allow[cmd.Type] || r.deny[cmd.Type] {
		return failed(cmd, domain.ExitCodeDisallowed, fmt.Sprintf("command family %q is not allowed", cmd.Type))
	}

	if r.guard != nil {
		if risks, level := r.guard.Match(cmd.Preview); level.AtLeast(domain.SafetyCritical) {
			return failed(cmd, domain.ExitCodeDisallowed, fmt.Sprintf("destructive pattern rejected: %s", risks[0]))
		}
	}

	handler, ok := r.handlers[cmd.Type]
	if !ok {
		return failed(cmd, domain.ExitCodeNoHandler, fmt.Sprintf("no handler registered for %q", cmd.Type))
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result := r.safeExecute(callCtx, handler, cmd, convCtx)
	elapsed := time.Since(start).Milliseconds()

	out := domain.ExecutionResult{
		Success:     result.Err == "",
		Output:      result.Output,
		Error:       result.Err,
		DurationMS:  elapsed,
		CommandEcho: cmd.Preview,
		Warnings:    result.Warnings,
		Suggestions: result.Suggestions,
	}
	if !out.Success {
		out.ExitCode = domain.ExitCodeHandlerErr
	}
	if r.logger != nil {
		r.logger.Info("command dispatched", map[string]interface{}{
			"command":     cmd.Preview,
			"success":     out.Success,
			"duration_ms": elapsed,
		})
	}
	return out
}

// safeExecute converts a handler panic into a failed result.
func (r *Router) safeExecute(ctx context.Context, handler ports.DomainHandler, cmd *domain.CandidateCommand, convCtx *domain.ConversationContext) (result domain.HandlerResult) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.logger != nil {
				r.logger.Error("handler panic", nil, map[string]interface{}{
					"command":   cmd.Preview,
					"recovered": rec,
				})
			}
			result = domain.HandlerResult{Err: fmt.Sprintf("handler failure: %v", rec)}
		}
	}()
	return handler.Execute(ctx, cmd.SubAction, cmd.Parameters, convCtx)
}

func failed(cmd *domain.CandidateCommand, exitCode int, reason string) domain.ExecutionResult {
	return domain.ExecutionResult{
		Success:     false,
		Error:       reason,
		CommandEcho: cmd.Preview,
		ExitCode:    exitCode,
	}
}

var _ ports.ExecutionRouter = (*Router)(nil)
