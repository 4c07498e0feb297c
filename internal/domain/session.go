package domain

import "time"

// Ring capacities for conversation context.
const (
	RecentIntentsCap  = 5
	RecentEntitiesCap = 10
	RecentCommandsCap = 5
)

// AuthStatus marks whether the session's user has authenticated.
type AuthStatus string

const (
	AuthStatusAuthenticated   AuthStatus = "authenticated"
	AuthStatusUnauthenticated AuthStatus = "unauthenticated"
)

// Preferences captures per-user toggles honored across turns.
type Preferences struct {
	VerboseOutput        bool   `json:"verbose_output" yaml:"verbose_output"`
	AlwaysConfirmRisky   bool   `json:"always_confirm_risky" yaml:"always_confirm_risky"`
	PreferredOutputStyle string `json:"preferred_output_style" yaml:"preferred_output_style"`
}

// SessionState lives for the duration of one conversation and is persisted
// by the context store.
type SessionState struct {
	ID                string
	UserID            string
	Auth              AuthStatus
	LastActivity      time.Time
	CurrentTopic      string
	ActiveCommandType CommandType
	Preferences       Preferences
	TotalInteractions int
}

// ConversationContext is the bounded cross-turn memory of a session. Ring
// buffers cap memory; TotalInteractions only ever grows.
type ConversationContext struct {
	Session        SessionState
	RecentIntents  *Ring[Intent]
	RecentEntities *Ring[Entity]
	RecentCommands *Ring[CandidateCommand]
}

// NewConversationContext builds an empty context around a session.
func NewConversationContext(session SessionState) *ConversationContext {
	return &ConversationContext{
		Session:        session,
		RecentIntents:  NewRing[Intent](RecentIntentsCap),
		RecentEntities: NewRing[Entity](RecentEntitiesCap),
		RecentCommands: NewRing[CandidateCommand](RecentCommandsCap),
	}
}

// LastEntityOfType scans recent entities newest-first for the given type.
func (c *ConversationContext) LastEntityOfType(entityType string) (Entity, bool) {
	items := c.RecentEntities.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Type == entityType {
			return items[i], true
		}
	}
	return Entity{}, false
}

// LastCommandOfType scans recent commands newest-first for the given family.
func (c *ConversationContext) LastCommandOfType(t CommandType) (CandidateCommand, bool) {
	items := c.RecentCommands.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Type == t {
			return items[i], true
		}
	}
	return CandidateCommand{}, false
}

// PendingConfirmation is a command parked awaiting explicit yes/no. A
// session owns at most one live instance; it is destroyed on confirm,
// cancel, or timeout expiry.
type PendingConfirmation struct {
	Command       CandidateCommand
	Verdict       SafetyVerdict
	CreatedAt     time.Time
	Timeout       time.Duration
	CorrelationID string
}

// ConfirmationOutcome records how a pending confirmation was resolved.
type ConfirmationOutcome string

const (
	OutcomeConfirmed ConfirmationOutcome = "confirmed"
	OutcomeCancelled ConfirmationOutcome = "cancelled"
	OutcomeExpired   ConfirmationOutcome = "expired"
)
