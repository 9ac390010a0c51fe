package checkpoint

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// newTestStore spins up a disposable Postgres container (or connects to
// CI_CHECKPOINT_DATABASE_URL when set) and returns a PostgresStore with
// migrations already applied. The container is terminated on test cleanup.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	if os.Getenv("CHECKPOINT_POSTGRES_TESTS") == "" {
		t.Skip("set CHECKPOINT_POSTGRES_TESTS=1 to run checkpoint store integration tests against a real Postgres")
	}
	ctx := context.Background()

	cfg := Config{
		Host:            "localhost",
		User:            "test",
		Password:        "test",
		Database:        "test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}

	if external := os.Getenv("CI_CHECKPOINT_DATABASE_URL"); external != "" {
		store, err := NewPostgresStore(ctx, cfg)
		require.NoError(t, err)
		t.Cleanup(store.Close)
		return store
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	cfg.Port = mappedPort.Int()
	cfg.Host, err = pgContainer.Host(ctx)
	require.NoError(t, err)

	store, err := NewPostgresStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := &conversation.State{
		ThreadID:       "conv-abc",
		ContactID:      "contact-abc",
		ConversationID: "conv-abc",
		Messages: []conversation.Message{
			{Role: conversation.RoleCustomer, Content: "hola, soy dueño de un restaurante", Timestamp: time.Now().UTC()},
			{Role: conversation.RoleAgent, AgentName: conversation.AgentDiscovery, Content: "¡Hola! Cuéntame más.", Timestamp: time.Now().UTC()},
		},
		ExtractedData: conversation.ExtractedData{
			BusinessType: "restaurante",
			Name:         "Diego",
		},
		LeadScore: 6,
		ScoreHistory: []conversation.ScoreEvent{
			{Score: 6, PreviousScore: 0, Timestamp: time.Now().UTC(), Reason: "business_type + name identified"},
		},
		CurrentAgent:    conversation.AgentQualification,
		RoutingAttempts: 1,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	require.NoError(t, store.Save(ctx, state))

	loaded, ok, err := store.Load(ctx, "conv-abc")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, state.ContactID, loaded.ContactID)
	assert.Equal(t, state.LeadScore, loaded.LeadScore)
	assert.Equal(t, state.ExtractedData, loaded.ExtractedData)
	assert.Equal(t, state.CurrentAgent, loaded.CurrentAgent)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, state.Messages[1].Content, loaded.Messages[1].Content)
	require.Len(t, loaded.ScoreHistory, 1)

	// Saving again overwrites in place and bumps version, it does not
	// create a second row.
	state.LeadScore = 8
	require.NoError(t, store.Save(ctx, state))
	reloaded, ok, err := store.Load(ctx, "conv-abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8, reloaded.LeadScore)
}

func TestPostgresStoreLoadMissing(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.Load(context.Background(), "conv-does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}
