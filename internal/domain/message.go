package domain

import "time"

// MessageRole identifies who produced a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one entry in a session's conversation history. System messages
// carry audit events (collaborator failures, confirmation outcomes).
type Message struct {
	ID            string
	SessionID     string
	Role          MessageRole
	Content       string
	CorrelationID string
	CreatedAt     time.Time
}

// ConversationResult is what one turn (or one confirmation) hands back to
// the surrounding CLI/UI shell.
type ConversationResult struct {
	SessionID            string
	Response             string
	Command              *CandidateCommand
	Verdict              *SafetyVerdict
	Suggestions          []string
	RequiresConfirmation bool
	ConfirmationPrompt   string
	Execution            *ExecutionResult
}
