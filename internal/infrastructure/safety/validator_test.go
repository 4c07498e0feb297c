package safety

import (
	"strings"
	"testing"

	"github.com/doeshing/opsentry/internal/domain"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	patterns, err := LoadPatterns("")
	if err != nil {
		t.Fatalf("load patterns: %v", err)
	}
	return New(patterns, domain.SafetySettings{}, nil)
}

func scanCommand(targets []string, scanType string) *domain.CandidateCommand {
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandThreat,
		SubAction:  "scan",
		BaseSafety: domain.SafetyMedium,
		Parameters: domain.ParamValues{
			"targets":   targets,
			"scan-type": {scanType},
		},
	}
	cmd.Preview = "threat scan --targets " + strings.Join(targets, ",") + " --scan-type " + scanType
	return cmd
}

func TestDeepScanElevatesAndRequiresConfirmation(t *testing.T) {
	v := testValidator(t)
	verdict := v.Validate(scanCommand([]string{"10.0.0.0/8"}, "deep"), nil)

	if verdict.Level != domain.SafetyHigh {
		t.Fatalf("level = %s, want high (one-step elevation over medium base)", verdict.Level)
	}
	if !verdict.RequiresConfirmation {
		t.Fatal("deep scan of a broad range must require confirmation")
	}
	foundBroad := false
	for _, r := range verdict.Risks {
		if strings.Contains(r, "Broad CIDR range") {
			foundBroad = true
		}
	}
	if !foundBroad {
		t.Fatalf("expected a broad CIDR risk, got %v", verdict.Risks)
	}
	if len(verdict.Mitigations) == 0 {
		t.Fatal("risky verdicts must carry mitigations")
	}
}

func TestSafetyMonotonicWithScope(t *testing.T) {
	v := testValidator(t)
	narrow := v.Validate(scanCommand([]string{"10.0.0.0/28"}, "quick"), nil)
	broad := v.Validate(scanCommand([]string{"10.0.0.0/8"}, "quick"), nil)

	if broad.Level.Score() < narrow.Level.Score() {
		t.Fatalf("broader scope lowered the level: %s < %s", broad.Level, narrow.Level)
	}
	if len(broad.Risks) < len(narrow.Risks) {
		t.Fatalf("broader scope lost risks: %v vs %v", broad.Risks, narrow.Risks)
	}
}

func TestCriticalAlwaysRequiresConfirmation(t *testing.T) {
	v := testValidator(t)
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandConfig,
		SubAction:  "set",
		BaseSafety: domain.SafetyLow,
		Parameters: domain.ParamValues{},
		Preview:    "config set --key cleanup --value rm -rf /tmp",
	}

	verdict := v.Validate(cmd, nil)
	if verdict.Level != domain.SafetyCritical {
		t.Fatalf("level = %s, want critical from the destructive pattern", verdict.Level)
	}
	if !verdict.RequiresConfirmation {
		t.Fatal("critical verdicts must always require confirmation")
	}
	if verdict.Impact != domain.ImpactHigh {
		t.Fatalf("impact = %s, want high", verdict.Impact)
	}
}

func TestElevationIsOneStepAndCapped(t *testing.T) {
	v := testValidator(t)
	cmd := scanCommand([]string{"8.8.8.8"}, "deep")
	cmd.BaseSafety = domain.SafetyCritical
	cmd.Preview = "threat scan --targets 8.8.8.8 --scan-type deep"

	verdict := v.Validate(cmd, nil)
	if verdict.Level != domain.SafetyCritical {
		t.Fatalf("level = %s, elevation must cap at critical", verdict.Level)
	}
}

func TestExternalTargetsElevate(t *testing.T) {
	v := testValidator(t)
	private := v.Validate(scanCommand([]string{"192.168.1.1"}, "quick"), nil)
	public := v.Validate(scanCommand([]string{"8.8.8.8"}, "quick"), nil)

	if private.Level != domain.SafetyMedium {
		t.Fatalf("private quick scan level = %s, want medium", private.Level)
	}
	if public.Level != domain.SafetyHigh {
		t.Fatalf("public scan level = %s, want high", public.Level)
	}
}

func TestRiskMergeDedupesAndPrioritizes(t *testing.T) {
	merged := mergeRisks([]string{
		"External targets: scanning addresses outside private ranges",
		"Destructive: filesystem format",
		"External targets: scanning addresses outside private ranges",
		"Privilege elevation requested",
	})
	if len(merged) != 3 {
		t.Fatalf("expected 3 unique risks, got %v", merged)
	}
	if !strings.Contains(merged[0], "Destructive") {
		t.Fatalf("destructive risks sort first, got %v", merged)
	}
	if !strings.Contains(merged[1], "Privilege") {
		t.Fatalf("privilege risks sort second, got %v", merged)
	}
}

func TestSensitiveDataDetected(t *testing.T) {
	v := testValidator(t)
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandConfig,
		SubAction:  "set",
		BaseSafety: domain.SafetyLow,
		Parameters: domain.ParamValues{"key": {"api_key"}, "value": {"api_key=abc123"}},
		Preview:    "config set --key api_key --value api_key=abc123",
	}
	verdict := v.Validate(cmd, nil)
	found := false
	for _, r := range verdict.Risks {
		if strings.Contains(r, "API key") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an inline API key risk, got %v", verdict.Risks)
	}
}

func TestUnauthenticatedSensitiveFamilyRequiresConfirmation(t *testing.T) {
	v := testValidator(t)
	convCtx := domain.NewConversationContext(domain.SessionState{
		ID:   "s1",
		Auth: domain.AuthStatusUnauthenticated,
	})
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandIntel,
		SubAction:  "query",
		BaseSafety: domain.SafetyLow,
		Parameters: domain.ParamValues{"indicator": {"203.0.113.9"}, "source": {"local"}},
		Preview:    "intel query --indicator 203.0.113.9 --source local",
	}
	verdict := v.Validate(cmd, convCtx)
	if !verdict.RequiresConfirmation {
		t.Fatal("unauthenticated sensitive-family commands must require confirmation")
	}
	found := false
	for _, r := range verdict.Risks {
		if strings.Contains(r, "Unauthenticated") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unauthenticated-session risk, got %v", verdict.Risks)
	}
}

func TestReconnaissanceSequenceFlagged(t *testing.T) {
	v := testValidator(t)
	convCtx := domain.NewConversationContext(domain.SessionState{ID: "s1", Auth: domain.AuthStatusAuthenticated})
	for _, it := range []domain.IntentType{domain.IntentShowStatus, domain.IntentScanThreats, domain.IntentScanNetwork} {
		convCtx.RecentIntents.Push(domain.Intent{Type: it})
	}
	verdict := v.Validate(scanCommand([]string{"192.168.0.10"}, "quick"), convCtx)
	found := false
	for _, r := range verdict.Risks {
		if strings.Contains(r, "Reconnaissance pattern") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a reconnaissance risk, got %v", verdict.Risks)
	}
}

func TestAlwaysConfirmRiskyPreference(t *testing.T) {
	v := testValidator(t)
	convCtx := domain.NewConversationContext(domain.SessionState{
		ID:          "s1",
		Auth:        domain.AuthStatusAuthenticated,
		Preferences: domain.Preferences{AlwaysConfirmRisky: true},
	})
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandBehavior,
		SubAction:  "monitor",
		BaseSafety: domain.SafetyLow,
		Parameters: domain.ParamValues{"window": {"15m"}},
		Preview:    "behavior monitor --window 15m",
	}
	verdict := v.Validate(cmd, convCtx)
	if !verdict.RequiresConfirmation {
		t.Fatal("always_confirm_risky must force confirmation for non-safe commands")
	}
}

func TestValidationFailureFallsBackConservatively(t *testing.T) {
	// A nil pattern set makes the first analyzer panic; the verdict must
	// collapse to the conservative fallback instead of propagating.
	v := New(nil, domain.SafetySettings{}, nil)
	verdict := v.Validate(scanCommand([]string{"10.0.0.1"}, "quick"), nil)

	if verdict.Level != domain.SafetyCritical {
		t.Fatalf("level = %s, want critical fallback", verdict.Level)
	}
	if !verdict.RequiresConfirmation {
		t.Fatal("fallback verdict must require confirmation")
	}
	if verdict.Impact != domain.ImpactHigh {
		t.Fatalf("impact = %s, want high", verdict.Impact)
	}
}

func TestSafeStatusCommandPassesClean(t *testing.T) {
	v := testValidator(t)
	cmd := &domain.CandidateCommand{
		Type:       domain.CommandStatus,
		SubAction:  "show",
		BaseSafety: domain.SafetySafe,
		Parameters: domain.ParamValues{},
		Preview:    "status show",
	}
	verdict := v.Validate(cmd, nil)
	if verdict.Level != domain.SafetySafe {
		t.Fatalf("level = %s, want safe", verdict.Level)
	}
	if verdict.RequiresConfirmation {
		t.Fatal("safe status command must not require confirmation")
	}
	if len(verdict.Risks) != 0 {
		t.Fatalf("expected no risks, got %v", verdict.Risks)
	}
	if verdict.Impact != domain.ImpactNone {
		t.Fatalf("impact = %s, want none", verdict.Impact)
	}
}
