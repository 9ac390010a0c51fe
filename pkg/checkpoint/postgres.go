package checkpoint

import (
	"context"
	stdsql "database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql, used only by the migrator

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresStore is the jackc/pgx/v5-backed Store. Conversation state is
// persisted as a single row per thread ID, with the message list, extracted
// fields, and score history stored as JSONB columns rather than normalized
// tables — the whole document is always read and written as a unit, so
// there is no join to avoid.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool against cfg, applies any pending
// embedded migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("checkpoint: parse pool config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("checkpoint: ping: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("checkpoint: migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports whether the connection pool can reach the database, for use
// by the webhook server's readiness check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// runMigrations applies embedded SQL migrations using golang-migrate. It
// opens its own short-lived database/sql handle via the pgx stdlib driver
// rather than borrowing a pgxpool connection, since golang-migrate's
// postgres driver expects a *sql.DB.
func runMigrations(cfg Config) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found — binary may be built incorrectly")
	}

	db, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration handle: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return false, fmt.Errorf("read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && len(name) > 4 && name[len(name)-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}

// checkpointRow mirrors the checkpoints table for scanning.
type checkpointRow struct {
	threadID         string
	contactID        string
	conversationID   string
	locationID       string
	messages         []byte
	extractedData    []byte
	leadScore        int
	scoreHistory     []byte
	currentAgent     string
	nextAgent        string
	agentTask        string
	routingAttempts  int
	needsRerouting   bool
	needsEscalation  bool
	escalationReason string
	shouldEnd        bool
	lastSentMessage  string
	messageSent      bool
	version          int
	createdAt        time.Time
	updatedAt        time.Time
}

const selectColumns = `thread_id, contact_id, conversation_id, location_id, messages, extracted_data,
	lead_score, score_history, current_agent, next_agent, agent_task, routing_attempts,
	needs_rerouting, needs_escalation, escalation_reason, should_end, last_sent_message,
	message_sent, version, created_at, updated_at`

// Load returns the checkpointed state for threadID, or (nil, false, nil) if
// none has been saved yet.
func (s *PostgresStore) Load(ctx context.Context, threadID string) (*conversation.State, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM checkpoints WHERE thread_id = $1`, threadID)

	var r checkpointRow
	err := row.Scan(
		&r.threadID, &r.contactID, &r.conversationID, &r.locationID, &r.messages, &r.extractedData,
		&r.leadScore, &r.scoreHistory, &r.currentAgent, &r.nextAgent, &r.agentTask, &r.routingAttempts,
		&r.needsRerouting, &r.needsEscalation, &r.escalationReason, &r.shouldEnd, &r.lastSentMessage,
		&r.messageSent, &r.version, &r.createdAt, &r.updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checkpoint: load %s: %w", threadID, err)
	}

	state, err := r.toState()
	if err != nil {
		return nil, false, fmt.Errorf("checkpoint: decode %s: %w", threadID, err)
	}
	return state, true, nil
}

// Save upserts state, overwriting any prior checkpoint for the same thread
// ID and bumping its version.
func (s *PostgresStore) Save(ctx context.Context, state *conversation.State) error {
	row, err := fromState(state)
	if err != nil {
		return fmt.Errorf("checkpoint: encode %s: %w", state.ThreadID, err)
	}

	const stmt = `
INSERT INTO checkpoints (
	thread_id, contact_id, conversation_id, location_id, messages, extracted_data,
	lead_score, score_history, current_agent, next_agent, agent_task, routing_attempts,
	needs_rerouting, needs_escalation, escalation_reason, should_end, last_sent_message,
	message_sent, version, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
)
ON CONFLICT (thread_id) DO UPDATE SET
	contact_id = EXCLUDED.contact_id,
	conversation_id = EXCLUDED.conversation_id,
	location_id = EXCLUDED.location_id,
	messages = EXCLUDED.messages,
	extracted_data = EXCLUDED.extracted_data,
	lead_score = EXCLUDED.lead_score,
	score_history = EXCLUDED.score_history,
	current_agent = EXCLUDED.current_agent,
	next_agent = EXCLUDED.next_agent,
	agent_task = EXCLUDED.agent_task,
	routing_attempts = EXCLUDED.routing_attempts,
	needs_rerouting = EXCLUDED.needs_rerouting,
	needs_escalation = EXCLUDED.needs_escalation,
	escalation_reason = EXCLUDED.escalation_reason,
	should_end = EXCLUDED.should_end,
	last_sent_message = EXCLUDED.last_sent_message,
	message_sent = EXCLUDED.message_sent,
	version = checkpoints.version + 1,
	updated_at = EXCLUDED.updated_at
`
	_, err = s.pool.Exec(ctx, stmt,
		row.threadID, row.contactID, row.conversationID, row.locationID, row.messages, row.extractedData,
		row.leadScore, row.scoreHistory, row.currentAgent, row.nextAgent, row.agentTask, row.routingAttempts,
		row.needsRerouting, row.needsEscalation, row.escalationReason, row.shouldEnd, row.lastSentMessage,
		row.messageSent, row.version, row.createdAt, row.updatedAt,
	)
	if err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", state.ThreadID, err)
	}
	return nil
}

func fromState(s *conversation.State) (checkpointRow, error) {
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return checkpointRow{}, err
	}
	extracted, err := json.Marshal(s.ExtractedData)
	if err != nil {
		return checkpointRow{}, err
	}
	history, err := json.Marshal(s.ScoreHistory)
	if err != nil {
		return checkpointRow{}, err
	}

	now := s.UpdatedAt
	created := s.CreatedAt
	if created.IsZero() {
		created = now
	}

	return checkpointRow{
		threadID:         s.ThreadID,
		contactID:        s.ContactID,
		conversationID:   s.ConversationID,
		locationID:       s.LocationID,
		messages:         messages,
		extractedData:    extracted,
		leadScore:        s.LeadScore,
		scoreHistory:     history,
		currentAgent:     string(s.CurrentAgent),
		nextAgent:        string(s.NextAgent),
		agentTask:        s.AgentTask,
		routingAttempts:  s.RoutingAttempts,
		needsRerouting:   s.NeedsRerouting,
		needsEscalation:  s.NeedsEscalation,
		escalationReason: string(s.EscalationReason),
		shouldEnd:        s.ShouldEnd,
		lastSentMessage:  s.LastSentMessage,
		messageSent:      s.MessageSent,
		version:          s.Version,
		createdAt:        created,
		updatedAt:        now,
	}, nil
}

func (r checkpointRow) toState() (*conversation.State, error) {
	var messages []conversation.Message
	if err := json.Unmarshal(r.messages, &messages); err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}
	var extracted conversation.ExtractedData
	if err := json.Unmarshal(r.extractedData, &extracted); err != nil {
		return nil, fmt.Errorf("extracted_data: %w", err)
	}
	var history []conversation.ScoreEvent
	if err := json.Unmarshal(r.scoreHistory, &history); err != nil {
		return nil, fmt.Errorf("score_history: %w", err)
	}

	return &conversation.State{
		ThreadID:         r.threadID,
		ContactID:        r.contactID,
		ConversationID:   r.conversationID,
		LocationID:       r.locationID,
		Messages:         messages,
		ExtractedData:    extracted,
		LeadScore:        r.leadScore,
		ScoreHistory:     history,
		CurrentAgent:     conversation.AgentRole(r.currentAgent),
		NextAgent:        conversation.AgentRole(r.nextAgent),
		AgentTask:        r.agentTask,
		RoutingAttempts:  r.routingAttempts,
		NeedsRerouting:   r.needsRerouting,
		NeedsEscalation:  r.needsEscalation,
		EscalationReason: conversation.EscalationReason(r.escalationReason),
		ShouldEnd:        r.shouldEnd,
		LastSentMessage:  r.lastSentMessage,
		MessageSent:      r.messageSent,
		Version:          r.version,
		CreatedAt:        r.createdAt,
		UpdatedAt:        r.updatedAt,
	}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
