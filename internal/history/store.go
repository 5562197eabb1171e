package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/blueprint"
	"github.com/atelierhq/atelier/internal/builder"
)

// ErrNotFound means no build record exists for the id.
var ErrNotFound = errors.New("build not found")

const recordTimeout = 5 * time.Second

// Store provides persistence for builds and session events. It satisfies
// the orchestrator's Recorder.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Event appends one timeline entry for the session.
func (s *Store) Event(sessionID string, stage builder.Stage, event, detail string) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin event: %w", err)
	}
	if err := insertEvent(ctx, tx, sessionID, string(stage), event, detail); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

// Completed inserts the build record with one row per created agent.
func (s *Store) Completed(build builder.CompletedBuild) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	buildID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin completed build: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO builds(build_id, session_id, created_at, requirements, reasoning, pattern, blueprint_id, coordinator_id)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		buildID, build.SessionID, createdAt, build.Requirements, build.Reasoning, string(build.Request.Pattern),
		build.Result.BlueprintID, build.Result.CoordinatorID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert build: %w", err)
	}

	if err := insertAgent(ctx, tx, buildID, build.Request.Coordinator, build.Result.CoordinatorID); err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, spec := range build.Request.Specialists {
		remoteID := ""
		if i < len(build.Result.SpecialistIDs) {
			remoteID = build.Result.SpecialistIDs[i]
		}
		if err := insertAgent(ctx, tx, buildID, spec, remoteID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completed build: %w", err)
	}
	return nil
}

func insertAgent(ctx context.Context, tx *sql.Tx, buildID string, spec blueprint.AgentSpec, remoteID string) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal agent spec: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO build_agents(build_id, agent_index, role, name, filename, remote_id, spec_json)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		buildID, spec.Index, string(spec.Role), spec.Name, spec.Filename, remoteID, string(specJSON)); err != nil {
		return fmt.Errorf("insert build agent: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, sessionID, stage, event, detail string) error {
	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM session_events WHERE session_id=?`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("read event seq: %w", err)
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO session_events(session_id, seq, ts, stage, event, detail) VALUES(?, ?, ?, ?, ?, ?)`,
		sessionID, seq+1, ts, stage, event, nullableString(detail)); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// BuildSummary is one row of the build list.
type BuildSummary struct {
	BuildID       string `json:"build_id"`
	SessionID     string `json:"session_id"`
	CreatedAt     string `json:"created_at"`
	Requirements  string `json:"requirements"`
	Pattern       string `json:"pattern"`
	BlueprintID   string `json:"blueprint_id"`
	CoordinatorID string `json:"coordinator_id"`
	AgentCount    int    `json:"agent_count"`
}

// BuildAgent is one persisted agent of a build.
type BuildAgent struct {
	Index    int                 `json:"index"`
	Role     string              `json:"role"`
	Name     string              `json:"name"`
	Filename string              `json:"filename"`
	RemoteID string              `json:"remote_id"`
	Spec     blueprint.AgentSpec `json:"spec"`
}

// Build is a persisted build with its agents.
type Build struct {
	BuildSummary
	Reasoning string       `json:"reasoning"`
	Agents    []BuildAgent `json:"agents"`
}

// SessionEvent is one timeline entry of a session.
type SessionEvent struct {
	Seq    int    `json:"seq"`
	TS     string `json:"ts"`
	Stage  string `json:"stage"`
	Event  string `json:"event"`
	Detail string `json:"detail,omitempty"`
}

// ListBuilds returns build summaries, newest first. limit <= 0 returns
// everything.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]BuildSummary, error) {
	q := `SELECT b.build_id, b.session_id, b.created_at, b.requirements, b.pattern, b.blueprint_id, b.coordinator_id,
		(SELECT COUNT(*) FROM build_agents a WHERE a.build_id = b.build_id)
		FROM builds b ORDER BY b.created_at DESC, b.build_id DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BuildSummary
	for rows.Next() {
		var b BuildSummary
		if err := rows.Scan(&b.BuildID, &b.SessionID, &b.CreatedAt, &b.Requirements, &b.Pattern, &b.BlueprintID, &b.CoordinatorID, &b.AgentCount); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}

// GetBuild returns one build with its agents ordered by index.
func (s *Store) GetBuild(ctx context.Context, buildID string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT build_id, session_id, created_at, requirements, reasoning, pattern, blueprint_id, coordinator_id
		FROM builds WHERE build_id=?`, buildID)
	var b Build
	if err := row.Scan(&b.BuildID, &b.SessionID, &b.CreatedAt, &b.Requirements, &b.Reasoning, &b.Pattern, &b.BlueprintID, &b.CoordinatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Build{}, fmt.Errorf("%w: %s", ErrNotFound, buildID)
		}
		return Build{}, fmt.Errorf("read build: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT agent_index, role, name, filename, remote_id, spec_json
		FROM build_agents WHERE build_id=? ORDER BY agent_index`, buildID)
	if err != nil {
		return Build{}, fmt.Errorf("list build agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a BuildAgent
		var specJSON string
		if err := rows.Scan(&a.Index, &a.Role, &a.Name, &a.Filename, &a.RemoteID, &specJSON); err != nil {
			return Build{}, fmt.Errorf("scan build agent: %w", err)
		}
		if err := json.Unmarshal([]byte(specJSON), &a.Spec); err != nil {
			return Build{}, fmt.Errorf("decode agent spec: %w", err)
		}
		b.Agents = append(b.Agents, a)
	}
	if err := rows.Err(); err != nil {
		return Build{}, fmt.Errorf("iterate build agents: %w", err)
	}
	b.AgentCount = len(b.Agents)
	return b, nil
}

// SessionEvents returns the session's timeline in order.
func (s *Store) SessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, ts, stage, event, COALESCE(detail, '')
		FROM session_events WHERE session_id=? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionEvent
	for rows.Next() {
		var ev SessionEvent
		if err := rows.Scan(&ev.Seq, &ev.TS, &ev.Stage, &ev.Event, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
