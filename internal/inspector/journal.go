package inspector

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial schema
// 1 - index on entries(session_id, kind)
const currentSchemaVersion = 1

// ErrNotAttached is returned by operations that need a store before the
// journal has been attached with store.WithDevtool.
var ErrNotAttached = errors.New("inspector: journal is not attached to a store")

// ErrNoState is returned by TravelTo when no state was recorded at seq.
var ErrNoState = errors.New("inspector: no recorded state")

// Journal is a store.DevtoolHook that records into SQLite.
//
// Hook methods cannot return errors. A failed write is logged and kept;
// Err returns the first one.
//
// Thread-safety: hook methods run on the store's goroutine. Reads (Entries,
// Sessions) are safe from any goroutine.
type Journal struct {
	db     *sql.DB
	ids    IDGenerator
	logger *slog.Logger

	mu      sync.Mutex
	store   *store.Store
	session string
	clock   *Clock
	err     error
}

var _ store.DevtoolHook = (*Journal)(nil)

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) { j.logger = logger }
}

// WithIDGenerator sets the session ID source. Default: UUIDv7Generator
func WithIDGenerator(ids IDGenerator) Option {
	return func(j *Journal) { j.ids = ids }
}

// Open creates or opens a journal database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{db: db, ids: UUIDv7Generator{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Session returns the current session ID, or "" before Init.
func (j *Journal) Session() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.session
}

// Err returns the first write failure, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Init starts a new session for s and records its initial state.
func (j *Journal) Init(s *store.Store) {
	session := j.ids.Generate()

	j.mu.Lock()
	j.store = s
	j.session = session
	j.clock = &Clock{}
	j.mu.Unlock()

	_, err := j.db.ExecContext(context.Background(),
		`INSERT INTO sessions (id, version, strict) VALUES (?, ?, ?)`,
		session, ir.Version, s.Strict(),
	)
	if err != nil {
		j.fail(fmt.Errorf("write session: %w", err))
		return
	}
	j.logger.Debug("journal session started", "session", session)
	j.record(KindInit, "@@INIT", nil, s.State(), "")
}

// Mutation records a commit and the state after it.
func (j *Journal) Mutation(m store.Mutation, state *reactive.Object) {
	j.record(KindMutation, m.Type, m.Payload, state, "")
}

// ActionError records a rejected action.
func (j *Journal) ActionError(typ string, err error) {
	j.record(KindActionError, typ, nil, nil, err.Error())
}

func (j *Journal) record(kind Kind, typ string, payload any, state *reactive.Object, errText string) {
	j.mu.Lock()
	session, clock, s := j.session, j.clock, j.store
	j.mu.Unlock()
	if s == nil {
		j.fail(ErrNotAttached)
		return
	}

	payloadJSON, err := ir.MarshalCanonical(ir.FromAny(payload))
	if err != nil {
		j.fail(fmt.Errorf("encode payload for %s: %w", typ, err))
		return
	}

	var stateJSON, digest, errCol sql.NullString
	if state != nil {
		var snapshot ir.Value
		var convErr error
		s.Runtime().Untracked(func() {
			snapshot, convErr = ir.FromGo(state)
		})
		if convErr != nil {
			j.fail(fmt.Errorf("encode state after %s: %w", typ, convErr))
			return
		}
		canonical, err := ir.MarshalCanonical(snapshot)
		if err != nil {
			j.fail(fmt.Errorf("encode state after %s: %w", typ, err))
			return
		}
		stateJSON = sql.NullString{String: string(canonical), Valid: true}
		digest = sql.NullString{String: ir.MustStateDigest(snapshot), Valid: true}
	}
	if errText != "" {
		errCol = sql.NullString{String: errText, Valid: true}
	}

	seq := clock.Next()
	_, err = j.db.ExecContext(context.Background(), `
		INSERT INTO entries
		(session_id, seq, kind, type, payload, state, state_digest, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session, seq, string(kind), typ, string(payloadJSON), stateJSON, digest, errCol,
	)
	if err != nil {
		j.fail(fmt.Errorf("write entry %d: %w", seq, err))
		return
	}
	j.logger.Debug("journal entry", "seq", seq, "kind", string(kind), "type", typ)
}

func (j *Journal) fail(err error) {
	j.logger.Error("journal write failed", "error", err)
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err == nil {
		j.err = err
	}
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_entries_session_kind
			ON entries(session_id, kind)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
