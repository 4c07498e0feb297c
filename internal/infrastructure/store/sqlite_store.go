// Package store persists sessions, conversation context, and message
// history. The SQLite store is the production backend; MemoryStore backs
// tests and serves as the degraded mode when the database cannot open.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/pkg/filesystem"
	"github.com/doeshing/opsentry/internal/ports"
)

// SQLiteStore persists conversation state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// DefaultPath is where the store lives unless configured otherwise.
func DefaultPath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".opsentry", "sessions.db")
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		created_at TEXT,
		last_activity TEXT,
		total_interactions INTEGER
	);
	CREATE TABLE IF NOT EXISTS contexts (
		session_id TEXT PRIMARY KEY,
		snapshot TEXT,
		updated_at TEXT
	);
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		role TEXT,
		content TEXT,
		correlation_id TEXT,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);`)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession implements ports.ContextStore.
func (s *SQLiteStore) CreateSession(ctx context.Context, sessionID, userID string) (domain.SessionState, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := time.Now().UTC()
	session := domain.SessionState{
		ID:           sessionID,
		UserID:       userID,
		Auth:         domain.AuthStatusUnauthenticated,
		LastActivity: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, last_activity, total_interactions) VALUES (?, ?, ?, ?, 0)`,
		session.ID, session.UserID, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return domain.SessionState{}, err
	}

	convCtx := domain.NewConversationContext(session)
	if err := s.writeContextLocked(ctx, convCtx); err != nil {
		return domain.SessionState{}, err
	}
	return session, nil
}

// GetContext implements ports.ContextStore; (nil, nil) when unknown.
func (s *SQLiteStore) GetContext(ctx context.Context, sessionID string) (*domain.ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM contexts WHERE session_id = ?`, sessionID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalSnapshot([]byte(snapshot))
}

// UpdateContext implements ports.ContextStore.
func (s *SQLiteStore) UpdateContext(ctx context.Context, convCtx *domain.ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeContextLocked(ctx, convCtx)
}

func (s *SQLiteStore) writeContextLocked(ctx context.Context, convCtx *domain.ConversationContext) error {
	data, err := marshalSnapshot(convCtx)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO contexts (session_id, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		convCtx.Session.ID, string(data), now); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ?, total_interactions = ? WHERE id = ?`,
		convCtx.Session.LastActivity.UTC().Format(time.RFC3339),
		convCtx.Session.TotalInteractions,
		convCtx.Session.ID)
	return err
}

// AddMessage implements ports.ContextStore, assigning ID and timestamp when
// absent.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, correlation_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.CorrelationID,
		msg.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// Messages implements ports.ContextStore, newest last.
func (s *SQLiteStore) Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `SELECT id, role, content, correlation_id, created_at FROM messages
		WHERE session_id = ? ORDER BY created_at DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role, created string
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.CorrelationID, &created); err != nil {
			return nil, err
		}
		msg.SessionID = sessionID
		msg.Role = domain.MessageRole(role)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			msg.CreatedAt = t
		}
		messages = append(messages, msg)
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, rows.Err()
}

// ClearMessages implements ports.ContextStore.
func (s *SQLiteStore) ClearMessages(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	return err
}

// ListSessions implements ports.ContextStore, most recent activity first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, last_activity, total_interactions FROM sessions ORDER BY last_activity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.SessionState
	for rows.Next() {
		var session domain.SessionState
		var userID sql.NullString
		var lastActivity string
		if err := rows.Scan(&session.ID, &userID, &lastActivity, &session.TotalInteractions); err != nil {
			return nil, err
		}
		session.UserID = userID.String
		if t, err := time.Parse(time.RFC3339, lastActivity); err == nil {
			session.LastActivity = t
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

var _ ports.ContextStore = (*SQLiteStore)(nil)
