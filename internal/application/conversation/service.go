// Package conversation orchestrates the per-turn pipeline: parse →
// synthesize → validate → confirm-or-execute → persist. Each session is a
// single logical actor; turns for the same session run to completion before
// the next is accepted.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// DefaultCollaboratorTimeout bounds calls to external collaborators so a
// turn always reaches a response in bounded time.
const DefaultCollaboratorTimeout = 10 * time.Second

// Service drives the conversation lifecycle end-to-end.
type Service struct {
	Store         ports.ContextStore
	Parser        ports.IntentParser
	Synthesizer   ports.Synthesizer
	Safety        ports.SafetyService
	Router        ports.ExecutionRouter
	Confirmations ports.ConfirmationController
	Logger        ports.Logger

	// CollaboratorTimeout overrides DefaultCollaboratorTimeout when set.
	CollaboratorTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

func (s *Service) deps() error {
	if s.Store == nil || s.Parser == nil || s.Synthesizer == nil ||
		s.Safety == nil || s.Router == nil || s.Confirmations == nil || s.Logger == nil {
		return errors.New("conversation.Service dependencies not satisfied")
	}
	return nil
}

// sessionLock returns the mutex serializing one session's turns.
func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]*sync.Mutex)
	}
	lock, ok := s.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessions[sessionID] = lock
	}
	return lock
}

func (s *Service) timeout() time.Duration {
	if s.CollaboratorTimeout > 0 {
		return s.CollaboratorTimeout
	}
	return DefaultCollaboratorTimeout
}

// ProcessInput handles one user turn. It never returns an error for
// collaborator failures: those degrade to an apology response with the
// failure recorded as a system message.
func (s *Service) ProcessInput(ctx context.Context, sessionID, text, userID string) (domain.ConversationResult, error) {
	if err := s.deps(); err != nil {
		return domain.ConversationResult{}, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	correlationID := uuid.NewString()
	convCtx, err := s.ensureSession(ctx, sessionID, userID, correlationID)
	if err != nil {
		return s.apologize(ctx, sessionID, correlationID, "context store", err), nil
	}

	s.addMessage(ctx, sessionID, domain.RoleUser, text, correlationID)

	parsed, err := s.Parser.Parse(ctx, text, convCtx)
	if err != nil {
		return s.apologize(ctx, sessionID, correlationID, "intent parser", err), nil
	}

	s.Logger.Debug("intent parsed", map[string]interface{}{
		"session":     sessionID,
		"correlation": correlationID,
		"intent":      string(parsed.Intent.Type),
		"confidence":  string(parsed.Intent.Confidence),
		"entities":    len(parsed.Entities),
	})

	convCtx.RecentIntents.Push(parsed.Intent)
	for _, entity := range parsed.Entities {
		convCtx.RecentEntities.Push(entity)
	}

	result := domain.ConversationResult{SessionID: sessionID}
	result.Suggestions = suggestionsFor(parsed.Intent.Type, convCtx)

	switch {
	case parsed.Intent.Type == domain.IntentClearSession:
		if err := s.Store.ClearMessages(ctx, sessionID); err != nil {
			return s.apologize(ctx, sessionID, correlationID, "context store", err), nil
		}
		result.Response = clearedResponse

	case !parsed.Intent.Confidence.AtLeast(domain.ConfidenceMedium):
		result.Response = clarificationResponse(parsed)

	default:
		cmd, ok := s.Synthesizer.Synthesize(parsed.Intent, parsed.Entities, text, convCtx)
		if !ok {
			// No rule for this intent: help and other non-actionable
			// intents answer from templates alone.
			result.Response = templateResponse(parsed.Intent.Type)
		} else {
			s.runCommand(ctx, convCtx, parsed, cmd, correlationID, &result)
		}
	}

	s.finishTurn(ctx, convCtx, result.Response, correlationID)
	return result, nil
}

// runCommand validates a synthesized command and either parks it for
// confirmation or dispatches it.
func (s *Service) runCommand(ctx context.Context, convCtx *domain.ConversationContext, parsed domain.ParseResult, cmd *domain.CandidateCommand, correlationID string, result *domain.ConversationResult) {
	verdict := s.Safety.Validate(cmd, convCtx)

	convCtx.RecentCommands.Push(*cmd)
	convCtx.Session.ActiveCommandType = cmd.Type
	convCtx.Session.CurrentTopic = string(parsed.Intent.Type)

	result.Command = cmd
	result.Verdict = &verdict

	if verdict.RequiresConfirmation {
		pending := domain.PendingConfirmation{
			Command:       *cmd,
			Verdict:       verdict,
			CreatedAt:     time.Now().UTC(),
			Timeout:       s.Confirmations.Timeout(),
			CorrelationID: correlationID,
		}
		s.Confirmations.Arm(convCtx.Session.ID, pending)
		result.RequiresConfirmation = true
		result.ConfirmationPrompt = RenderConfirmationPrompt(cmd, verdict)
		result.Response = confirmationNeededResponse(cmd, verdict)
		return
	}

	execution := s.Router.Dispatch(ctx, cmd, verdict, convCtx)
	result.Execution = &execution
	result.Response = executionResponse(parsed.Intent.Type, cmd, execution)
}

// ConfirmCommand settles the session's pending confirmation. A call after
// the timeout fired behaves exactly as if nothing had ever been pending.
func (s *Service) ConfirmCommand(ctx context.Context, sessionID string, confirmed bool) (domain.ConversationResult, error) {
	if err := s.deps(); err != nil {
		return domain.ConversationResult{}, err
	}
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	result := domain.ConversationResult{SessionID: sessionID}

	pending, outcome, ok := s.Confirmations.Resolve(sessionID, confirmed)
	if !ok {
		result.Response = noPendingResponse
		return result, nil
	}

	convCtx, err := s.Store.GetContext(ctx, sessionID)
	if err != nil || convCtx == nil {
		if err == nil {
			err = domain.ErrSessionNotFound
		}
		return s.apologize(ctx, sessionID, pending.CorrelationID, "context store", err), nil
	}

	if outcome == domain.OutcomeCancelled {
		result.Response = cancelledResponse
		s.addMessage(ctx, sessionID, domain.RoleSystem,
			fmt.Sprintf("Confirmation %s for: %s", outcome, pending.Command.Preview), pending.CorrelationID)
		s.finishTurn(ctx, convCtx, result.Response, pending.CorrelationID)
		return result, nil
	}

	// Confirmed: safety is re-assessed against the current context before
	// dispatch.
	verdict := s.Safety.Validate(&pending.Command, convCtx)
	execution := s.Router.Dispatch(ctx, &pending.Command, verdict, convCtx)

	result.Command = &pending.Command
	result.Verdict = &verdict
	result.Execution = &execution
	result.Response = executionResponse("", &pending.Command, execution)

	s.addMessage(ctx, sessionID, domain.RoleSystem,
		fmt.Sprintf("Confirmation %s for: %s", outcome, pending.Command.Preview), pending.CorrelationID)
	s.finishTurn(ctx, convCtx, result.Response, pending.CorrelationID)
	return result, nil
}

// HandleExpiry is wired as the confirmation controller's expiry hook. The
// expired state is cleared by the controller; this only records the audit
// notice.
func (s *Service) HandleExpiry(sessionID string, pending domain.PendingConfirmation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
	defer cancel()
	s.addMessage(ctx, sessionID, domain.RoleSystem,
		fmt.Sprintf("Confirmation %s for: %s", domain.OutcomeExpired, pending.Command.Preview), pending.CorrelationID)
	s.addMessage(ctx, sessionID, domain.RoleAssistant, expiredResponse, pending.CorrelationID)
}

// GetHistory returns the session's message history, oldest first.
func (s *Service) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if err := s.deps(); err != nil {
		return nil, err
	}
	return s.Store.Messages(ctx, sessionID, limit)
}

// ClearHistory removes the session's message history.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.deps(); err != nil {
		return err
	}
	return s.Store.ClearMessages(ctx, sessionID)
}

// ensureSession loads the context or creates the session with a welcome
// message when it is new.
func (s *Service) ensureSession(ctx context.Context, sessionID, userID, correlationID string) (*domain.ConversationContext, error) {
	convCtx, err := s.Store.GetContext(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if convCtx != nil {
		return convCtx, nil
	}
	session, err := s.Store.CreateSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	s.addMessage(ctx, session.ID, domain.RoleAssistant, welcomeResponse, correlationID)
	return domain.NewConversationContext(session), nil
}

// finishTurn persists context updates and the assistant message. Failures
// here are logged, not surfaced: the user already has a response.
func (s *Service) finishTurn(ctx context.Context, convCtx *domain.ConversationContext, response, correlationID string) {
	convCtx.Session.LastActivity = time.Now().UTC()
	convCtx.Session.TotalInteractions++
	if err := s.Store.UpdateContext(ctx, convCtx); err != nil {
		s.Logger.Warn("context update failed", map[string]interface{}{
			"session":     convCtx.Session.ID,
			"correlation": correlationID,
			"error":       err.Error(),
		})
	}
	s.addMessage(ctx, convCtx.Session.ID, domain.RoleAssistant, response, correlationID)
}

func (s *Service) addMessage(ctx context.Context, sessionID string, role domain.MessageRole, content, correlationID string) {
	_, err := s.Store.AddMessage(ctx, domain.Message{
		SessionID:     sessionID,
		Role:          role,
		Content:       content,
		CorrelationID: correlationID,
	})
	if err != nil {
		s.Logger.Warn("message append failed", map[string]interface{}{
			"session":     sessionID,
			"correlation": correlationID,
			"error":       err.Error(),
		})
	}
}

// apologize is the collaborator-failure path: the turn still responds, and
// the failure is recorded for audit.
func (s *Service) apologize(ctx context.Context, sessionID, correlationID, stage string, err error) domain.ConversationResult {
	s.Logger.Error("collaborator failure", err, map[string]interface{}{
		"session":     sessionID,
		"correlation": correlationID,
		"stage":       stage,
	})
	s.addMessage(ctx, sessionID, domain.RoleSystem,
		fmt.Sprintf("%s failure [%s]: %v", stage, correlationID, err), correlationID)
	return domain.ConversationResult{
		SessionID:   sessionID,
		Response:    apologyResponse,
		Suggestions: []string{"help"},
	}
}
