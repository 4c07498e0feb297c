package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

func testStores(t *testing.T) map[string]ports.ContextStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]ports.ContextStore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestSessionLifecycle(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			missing, err := s.GetContext(ctx, "no-such-session")
			require.NoError(t, err)
			assert.Nil(t, missing, "unknown sessions return nil, not an error")

			session, err := s.CreateSession(ctx, "s1", "alice")
			require.NoError(t, err)
			assert.Equal(t, "s1", session.ID)
			assert.Equal(t, domain.AuthStatusUnauthenticated, session.Auth)

			convCtx, err := s.GetContext(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, convCtx)
			assert.Equal(t, "alice", convCtx.Session.UserID)
			assert.Equal(t, 0, convCtx.RecentIntents.Len())
		})
	}
}

func TestCreateSessionGeneratesID(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			session, err := s.CreateSession(context.Background(), "", "")
			require.NoError(t, err)
			assert.NotEmpty(t, session.ID)
		})
	}
}

func TestContextRoundTripKeepsRingBounds(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			session, err := s.CreateSession(ctx, "s1", "alice")
			require.NoError(t, err)

			convCtx := domain.NewConversationContext(session)
			convCtx.Session.Auth = domain.AuthStatusAuthenticated
			convCtx.Session.CurrentTopic = "threat"
			convCtx.Session.Preferences.VerboseOutput = true
			convCtx.Session.TotalInteractions = 12
			for i := 0; i < 9; i++ {
				convCtx.RecentIntents.Push(domain.Intent{Type: domain.IntentScanThreats})
				convCtx.RecentCommands.Push(domain.CandidateCommand{
					Type:    domain.CommandThreat,
					Preview: fmt.Sprintf("threat scan --targets 10.0.0.%d", i),
				})
			}
			for i := 0; i < 15; i++ {
				convCtx.RecentEntities.Push(domain.Entity{Type: "ip_address", Value: fmt.Sprintf("10.0.0.%d", i)})
			}
			require.NoError(t, s.UpdateContext(ctx, convCtx))

			loaded, err := s.GetContext(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, loaded)

			assert.Equal(t, domain.AuthStatusAuthenticated, loaded.Session.Auth)
			assert.Equal(t, "threat", loaded.Session.CurrentTopic)
			assert.True(t, loaded.Session.Preferences.VerboseOutput)
			assert.Equal(t, 12, loaded.Session.TotalInteractions)

			assert.Equal(t, domain.RecentIntentsCap, loaded.RecentIntents.Len())
			assert.Equal(t, domain.RecentEntitiesCap, loaded.RecentEntities.Len())
			assert.Equal(t, domain.RecentCommandsCap, loaded.RecentCommands.Len())

			last, ok := loaded.RecentCommands.Last()
			require.True(t, ok)
			assert.Equal(t, "threat scan --targets 10.0.0.8", last.Preview, "newest entries survive the reload")
		})
	}
}

func TestMessagesOrderLimitAndClear(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.CreateSession(ctx, "s1", "")
			require.NoError(t, err)

			base := time.Now().UTC()
			for i := 0; i < 5; i++ {
				_, err := s.AddMessage(ctx, domain.Message{
					SessionID: "s1",
					Role:      domain.RoleUser,
					Content:   fmt.Sprintf("message %d", i),
					CreatedAt: base.Add(time.Duration(i) * time.Second),
				})
				require.NoError(t, err)
			}

			all, err := s.Messages(ctx, "s1", 0)
			require.NoError(t, err)
			require.Len(t, all, 5)
			assert.Equal(t, "message 0", all[0].Content, "chronological order, oldest first")
			assert.Equal(t, "message 4", all[4].Content)

			recent, err := s.Messages(ctx, "s1", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "message 3", recent[0].Content, "limit keeps the newest messages")
			assert.Equal(t, "message 4", recent[1].Content)

			require.NoError(t, s.ClearMessages(ctx, "s1"))
			cleared, err := s.Messages(ctx, "s1", 0)
			require.NoError(t, err)
			assert.Empty(t, cleared)
		})
	}
}

func TestMessageGetsIDAndTimestamp(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.CreateSession(ctx, "s1", "")
			require.NoError(t, err)

			msg, err := s.AddMessage(ctx, domain.Message{SessionID: "s1", Role: domain.RoleAssistant, Content: "hello"})
			require.NoError(t, err)
			assert.NotEmpty(t, msg.ID)
			assert.False(t, msg.CreatedAt.IsZero())
		})
	}
}

func TestListSessions(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.CreateSession(ctx, "s1", "alice")
			require.NoError(t, err)
			_, err = s.CreateSession(ctx, "s2", "bob")
			require.NoError(t, err)

			sessions, err := s.ListSessions(ctx)
			require.NoError(t, err)
			require.Len(t, sessions, 2)

			ids := map[string]bool{}
			for _, session := range sessions {
				ids[session.ID] = true
			}
			assert.True(t, ids["s1"] && ids["s2"])
		})
	}
}
