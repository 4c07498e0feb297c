package conversation

import (
	"fmt"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
)

const (
	welcomeResponse = "Welcome to opsentry. Describe what you want to do in plain language, or say \"help\" to see the command families."

	apologyResponse = "Sorry, something went wrong while handling that. Please try again, or say \"help\" if the problem persists."

	cancelledResponse = "Command execution cancelled. The pending command was discarded."

	expiredResponse = "Command execution cancelled: the confirmation timed out."

	noPendingResponse = "No command is pending confirmation."

	clearedResponse = "Session history cleared. Your conversation context starts fresh."
)

// templateResponse answers intents with no synthesis rule.
func templateResponse(intent domain.IntentType) string {
	switch intent {
	case domain.IntentShowHelp:
		return "I can scan for threats, map your network, block indicators, monitor behavior, query intelligence, and change configuration. Tell me what you need, e.g. \"scan 192.168.1.0/24 for threats\"."
	default:
		return "I understood the request but have no command mapped for it. Say \"help\" to see what I can do."
	}
}

// clarificationResponse handles low-confidence intents.
func clarificationResponse(parsed domain.ParseResult) string {
	if parsed.ClarificationPrompt != "" {
		return parsed.ClarificationPrompt
	}
	return fmt.Sprintf("I think you want %s, but I am not sure. Could you rephrase with more detail?",
		strings.ReplaceAll(string(parsed.Intent.Type), "_", " "))
}

// confirmationNeededResponse tells the user a risky command is parked.
func confirmationNeededResponse(cmd *domain.CandidateCommand, verdict domain.SafetyVerdict) string {
	return fmt.Sprintf("This %s command is rated %s and needs your confirmation before it runs. Reply yes to proceed or no to cancel.",
		cmd.Type, verdict.Level)
}

// executionResponse reports a dispatch outcome. The intent selects flavor
// text for successful runs; failures share one shape.
func executionResponse(intent domain.IntentType, cmd *domain.CandidateCommand, exec domain.ExecutionResult) string {
	if !exec.Success {
		return fmt.Sprintf("The command could not be executed: %s", exec.Error)
	}

	var lead string
	switch intent {
	case domain.IntentScanThreats:
		lead = "Threat scan started."
	case domain.IntentScanNetwork:
		lead = "Network scan started."
	case domain.IntentBlockThreat:
		lead = "Block applied."
	case domain.IntentMonitorBehavior:
		lead = "Monitoring armed."
	case domain.IntentQueryIntel:
		lead = "Intelligence lookup complete."
	case domain.IntentAuthenticate, domain.IntentLogout:
		lead = "Done."
	case domain.IntentShowStatus:
		lead = "Here is the current status."
	default:
		lead = "Command executed."
	}
	if exec.Output == "" {
		return lead
	}
	return lead + "\n" + exec.Output
}

// RenderConfirmationPrompt is a pure function of (command, verdict): header,
// rendered command, safety level, bulleted risks, description, yes/no
// request. The format is stable and snapshot-testable.
func RenderConfirmationPrompt(cmd *domain.CandidateCommand, verdict domain.SafetyVerdict) string {
	var b strings.Builder
	b.WriteString("Confirmation required\n")
	fmt.Fprintf(&b, "  Command:  %s\n", verdict.Preview)
	fmt.Fprintf(&b, "  Safety:   %s\n", verdict.Level)
	fmt.Fprintf(&b, "  Impact:   %s\n", verdict.Impact)
	fmt.Fprintf(&b, "  Runtime:  %s\n", formatDuration(cmd.EstimatedDurationMS))
	if len(verdict.Risks) > 0 {
		b.WriteString("  Risks:\n")
		for _, risk := range verdict.Risks {
			fmt.Fprintf(&b, "    - %s\n", risk)
		}
	}
	if cmd.Description != "" {
		fmt.Fprintf(&b, "  %s\n", cmd.Description)
	}
	b.WriteString("Run this command? (yes/no)")
	return b.String()
}

func formatDuration(ms int64) string {
	switch {
	case ms < 0:
		return "runs until stopped"
	case ms < 1000:
		return fmt.Sprintf("~%dms", ms)
	default:
		return fmt.Sprintf("~%ds", ms/1000)
	}
}
