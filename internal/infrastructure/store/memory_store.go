package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// MemoryStore is the in-process ContextStore. It backs tests and serves as
// the degraded mode when SQLite cannot open. Snapshot round-tripping is
// shared with the SQLite store so both behave identically.
type MemoryStore struct {
	mu       sync.Mutex
	contexts map[string][]byte
	messages map[string][]domain.Message
	order    []string
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contexts: make(map[string][]byte),
		messages: make(map[string][]domain.Message),
	}
}

// CreateSession implements ports.ContextStore.
func (m *MemoryStore) CreateSession(_ context.Context, sessionID, userID string) (domain.SessionState, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := domain.SessionState{
		ID:           sessionID,
		UserID:       userID,
		Auth:         domain.AuthStatusUnauthenticated,
		LastActivity: time.Now().UTC(),
	}
	data, err := marshalSnapshot(domain.NewConversationContext(session))
	if err != nil {
		return domain.SessionState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[session.ID] = data
	m.order = append(m.order, session.ID)
	return session, nil
}

// GetContext implements ports.ContextStore; (nil, nil) when unknown.
func (m *MemoryStore) GetContext(_ context.Context, sessionID string) (*domain.ConversationContext, error) {
	m.mu.Lock()
	data, ok := m.contexts[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return unmarshalSnapshot(data)
}

// UpdateContext implements ports.ContextStore.
func (m *MemoryStore) UpdateContext(_ context.Context, convCtx *domain.ConversationContext) error {
	data, err := marshalSnapshot(convCtx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[convCtx.Session.ID] = data
	return nil
}

// AddMessage implements ports.ContextStore.
func (m *MemoryStore) AddMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return msg, nil
}

// Messages implements ports.ContextStore, chronological order.
func (m *MemoryStore) Messages(_ context.Context, sessionID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.Message(nil), msgs...), nil
}

// ClearMessages implements ports.ContextStore.
func (m *MemoryStore) ClearMessages(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, sessionID)
	return nil
}

// ListSessions implements ports.ContextStore, creation order.
func (m *MemoryStore) ListSessions(_ context.Context) ([]domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := make([]domain.SessionState, 0, len(m.order))
	for _, id := range m.order {
		data, ok := m.contexts[id]
		if !ok {
			continue
		}
		convCtx, err := unmarshalSnapshot(data)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, convCtx.Session)
	}
	return sessions, nil
}

var _ ports.ContextStore = (*MemoryStore)(nil)
