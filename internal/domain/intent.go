// Package domain defines core business entities and value objects for opsentry.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures: intents extracted from user text,
// candidate commands, safety verdicts, and per-session conversation state.
package domain

// IntentType classifies the purpose of a user utterance.
type IntentType string

const (
	IntentScanThreats     IntentType = "scan_threats"
	IntentScanNetwork     IntentType = "scan_network"
	IntentBlockThreat     IntentType = "block_threat"
	IntentShowStatus      IntentType = "show_status"
	IntentAuthenticate    IntentType = "authenticate"
	IntentLogout          IntentType = "logout"
	IntentMonitorBehavior IntentType = "monitor_behavior"
	IntentQueryIntel      IntentType = "query_intel"
	IntentUpdateConfig    IntentType = "update_config"
	IntentShowHelp        IntentType = "show_help"
	IntentClearSession    IntentType = "clear_session"
	IntentUnknown         IntentType = "unknown"
)

// Confidence grades how certain the parser is about an intent classification.
type Confidence string

const (
	ConfidenceVeryLow  Confidence = "very_low"
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

var confidenceScores = map[Confidence]int{
	ConfidenceVeryLow:  0,
	ConfidenceLow:      1,
	ConfidenceMedium:   2,
	ConfidenceHigh:     3,
	ConfidenceVeryHigh: 4,
}

// AtLeast reports whether c is at or above the given confidence grade.
func (c Confidence) AtLeast(min Confidence) bool {
	return confidenceScores[c] >= confidenceScores[min]
}

// Intent is the classified purpose of one user turn. Immutable.
type Intent struct {
	Type       IntentType
	Confidence Confidence
}

// Entity is a typed value extracted from raw text (e.g. ip_address, severity).
type Entity struct {
	Type  string
	Value string
}

// ParseResult is the output of the intent parser boundary.
type ParseResult struct {
	Intent              Intent
	Entities            []Entity
	OriginalText        string
	ClarificationPrompt string
}
