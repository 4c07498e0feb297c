package store

import (
	"encoding/json"
	"time"

	"github.com/doeshing/opsentry/internal/domain"
)

// contextSnapshot is the persisted form of a conversation context. Ring
// contents serialize as plain arrays and are rebuilt with their fixed
// capacities on load.
type contextSnapshot struct {
	Session        sessionRecord             `json:"session"`
	RecentIntents  []domain.Intent           `json:"recent_intents"`
	RecentEntities []domain.Entity           `json:"recent_entities"`
	RecentCommands []domain.CandidateCommand `json:"recent_commands"`
}

type sessionRecord struct {
	ID                string             `json:"id"`
	UserID            string             `json:"user_id,omitempty"`
	Auth              domain.AuthStatus  `json:"auth"`
	LastActivity      time.Time          `json:"last_activity"`
	CurrentTopic      string             `json:"current_topic,omitempty"`
	ActiveCommandType domain.CommandType `json:"active_command_type,omitempty"`
	Preferences       domain.Preferences `json:"preferences"`
	TotalInteractions int                `json:"total_interactions"`
}

func snapshotFrom(convCtx *domain.ConversationContext) contextSnapshot {
	return contextSnapshot{
		Session:        sessionRecordFrom(convCtx.Session),
		RecentIntents:  convCtx.RecentIntents.Items(),
		RecentEntities: convCtx.RecentEntities.Items(),
		RecentCommands: convCtx.RecentCommands.Items(),
	}
}

func sessionRecordFrom(s domain.SessionState) sessionRecord {
	return sessionRecord{
		ID:                s.ID,
		UserID:            s.UserID,
		Auth:              s.Auth,
		LastActivity:      s.LastActivity,
		CurrentTopic:      s.CurrentTopic,
		ActiveCommandType: s.ActiveCommandType,
		Preferences:       s.Preferences,
		TotalInteractions: s.TotalInteractions,
	}
}

func (s contextSnapshot) toContext() *domain.ConversationContext {
	return &domain.ConversationContext{
		Session:        s.Session.toState(),
		RecentIntents:  domain.RingFrom(domain.RecentIntentsCap, s.RecentIntents),
		RecentEntities: domain.RingFrom(domain.RecentEntitiesCap, s.RecentEntities),
		RecentCommands: domain.RingFrom(domain.RecentCommandsCap, s.RecentCommands),
	}
}

func (r sessionRecord) toState() domain.SessionState {
	return domain.SessionState{
		ID:                r.ID,
		UserID:            r.UserID,
		Auth:              r.Auth,
		LastActivity:      r.LastActivity,
		CurrentTopic:      r.CurrentTopic,
		ActiveCommandType: r.ActiveCommandType,
		Preferences:       r.Preferences,
		TotalInteractions: r.TotalInteractions,
	}
}

func marshalSnapshot(convCtx *domain.ConversationContext) ([]byte, error) {
	return json.Marshal(snapshotFrom(convCtx))
}

func unmarshalSnapshot(data []byte) (*domain.ConversationContext, error) {
	var snap contextSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap.toContext(), nil
}
