package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/doeshing/opsentry/internal/domain"
)

func TestRegistryCoversEveryFamily(t *testing.T) {
	registry := Registry()
	for _, family := range []domain.CommandType{
		domain.CommandAuth, domain.CommandThreat, domain.CommandNetwork,
		domain.CommandBehavior, domain.CommandIntel, domain.CommandConfig,
		domain.CommandHelp, domain.CommandStatus,
	} {
		if _, ok := registry[family]; !ok {
			t.Fatalf("no handler registered for %q", family)
		}
	}
}

func TestThreatScanOutput(t *testing.T) {
	h := Registry()[domain.CommandThreat]
	result := h.Execute(context.Background(), "scan", domain.ParamValues{
		"targets":   {"10.0.0.0/8"},
		"scan-type": {"deep"},
	}, nil)
	if result.Err != "" {
		t.Fatalf("unexpected error: %s", result.Err)
	}
	if !strings.Contains(result.Output, "10.0.0.0/8") || !strings.Contains(result.Output, "deep") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestThreatUnknownActionFails(t *testing.T) {
	h := Registry()[domain.CommandThreat]
	result := h.Execute(context.Background(), "explode", nil, nil)
	if result.Err == "" {
		t.Fatal("unknown sub-action must report an error")
	}
}

func TestConfigRejectsUnresolvedKey(t *testing.T) {
	h := Registry()[domain.CommandConfig]
	result := h.Execute(context.Background(), "set", domain.ParamValues{
		"key":   {"_unresolved"},
		"value": {"x"},
	}, nil)
	if result.Err == "" {
		t.Fatal("placeholder keys must not be applied")
	}
}

func TestIntelRequiresIndicator(t *testing.T) {
	h := Registry()[domain.CommandIntel]
	if result := h.Execute(context.Background(), "query", domain.ParamValues{}, nil); result.Err == "" {
		t.Fatal("intel queries need at least one indicator")
	}
}

func TestStatusIncludesSessionCounter(t *testing.T) {
	h := Registry()[domain.CommandStatus]
	convCtx := domain.NewConversationContext(domain.SessionState{ID: "s1", TotalInteractions: 4})
	result := h.Execute(context.Background(), "show", domain.ParamValues{}, convCtx)
	if !strings.Contains(result.Output, "session interactions: 4") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestHelpTextListsFamilies(t *testing.T) {
	text := HelpText()
	for _, family := range []string{"threat", "network", "behavior", "intel", "auth", "config", "status"} {
		if !strings.Contains(text, family) {
			t.Fatalf("help text missing %q:\n%s", family, text)
		}
	}
}
