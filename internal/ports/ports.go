// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters. The intent parser, context store, and domain handlers
// are true external collaborators; the synthesizer, safety service, router,
// and confirmation controller are internal stages exposed as ports so the
// orchestrator depends on abstractions only.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/opsentry/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// IntentParser converts raw text plus prior context into an intent and
// entity list. Identical text+context must yield the same intent type;
// confidence may vary.
type IntentParser interface {
	Parse(ctx context.Context, text string, convCtx *domain.ConversationContext) (domain.ParseResult, error)
}

// ContextStore persists sessions, conversation context, and message history.
// GetContext returns (nil, nil) for an unknown session.
type ContextStore interface {
	// CreateSession registers a new session; empty sessionID means the
	// store assigns one.
	CreateSession(ctx context.Context, sessionID, userID string) (domain.SessionState, error)
	GetContext(ctx context.Context, sessionID string) (*domain.ConversationContext, error)
	UpdateContext(ctx context.Context, convCtx *domain.ConversationContext) error
	AddMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]domain.SessionState, error)
}

// Synthesizer maps an intent, its entities, and the raw text onto a
// candidate command. The bool is false when the intent has no registered
// rule (help/unknown intents bypass synthesis).
type Synthesizer interface {
	Synthesize(intent domain.Intent, entities []domain.Entity, rawText string, convCtx *domain.ConversationContext) (*domain.CandidateCommand, bool)
}

// SafetyService evaluates a candidate command. It never returns an error
// for expected inputs; internal failure collapses to the most conservative
// verdict instead of propagating.
type SafetyService interface {
	Validate(cmd *domain.CandidateCommand, convCtx *domain.ConversationContext) domain.SafetyVerdict
}

// ExecutionRouter dispatches a confirmed or non-risky command to its domain
// handler. Disallowed commands come back as failed results, never errors.
type ExecutionRouter interface {
	Dispatch(ctx context.Context, cmd *domain.CandidateCommand, verdict domain.SafetyVerdict, convCtx *domain.ConversationContext) domain.ExecutionResult
}

// DomainHandler executes one command family. Implementations must not
// panic and report failures through HandlerResult.Err.
type DomainHandler interface {
	Execute(ctx context.Context, subAction string, params domain.ParamValues, convCtx *domain.ConversationContext) domain.HandlerResult
}

// ConfirmationController owns the per-session pending-confirmation slots
// and their expiry timers.
type ConfirmationController interface {
	// Arm parks a command awaiting yes/no, replacing any previous pending
	// confirmation for the session.
	Arm(sessionID string, pending domain.PendingConfirmation)
	// Resolve settles the pending slot. ok is false when nothing was
	// pending (including after expiry already fired).
	Resolve(sessionID string, confirmed bool) (pending domain.PendingConfirmation, outcome domain.ConfirmationOutcome, ok bool)
	// Pending peeks at the live slot without consuming it.
	Pending(sessionID string) (domain.PendingConfirmation, bool)
	// SetExpiryHook registers the callback invoked when a timeout fires.
	SetExpiryHook(func(sessionID string, pending domain.PendingConfirmation))
	// Timeout reports the configured expiry duration.
	Timeout() time.Duration
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
