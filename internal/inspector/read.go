package inspector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stately/internal/ir"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindInit        Kind = "init"
	KindMutation    Kind = "mutation"
	KindActionError Kind = "action_error"
)

// Entry is one journal row.
type Entry struct {
	Session string   `json:"session"`
	Seq     int64    `json:"seq"`
	Kind    Kind     `json:"kind"`
	Type    string   `json:"type"`
	Payload ir.Value `json:"payload"`
	State   ir.Value `json:"state,omitempty"`
	Digest  string   `json:"state_digest,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Strict  bool   `json:"strict"`
	Entries int    `json:"entries"`
}

// Sessions lists every recorded session, ordered by ID. UUIDv7 IDs sort by
// start time.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.version, s.strict, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Version, &info.Strict, &info.Entries); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Entries returns the entries of session ordered by seq. An empty session
// means the journal's current one.
//
// Returns an empty slice (not nil) when nothing was recorded.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	if session == "" {
		session = j.Session()
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, kind, type, payload, state, state_digest, error
		FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                     Entry
		kind, payload         string
		state, digest, errCol sql.NullString
	)
	if err := rows.Scan(&e.Session, &e.Seq, &kind, &e.Type, &payload, &state, &digest, &errCol); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Kind = Kind(kind)

	v, err := ir.Parse([]byte(payload))
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d payload: %w", e.Seq, err)
	}
	e.Payload = v

	if state.Valid {
		v, err := ir.Parse([]byte(state.String))
		if err != nil {
			return Entry{}, fmt.Errorf("entry %d state: %w", e.Seq, err)
		}
		e.State = v
	}
	e.Digest = digest.String
	e.Error = errCol.String
	return e, nil
}

// TravelTo replaces the attached store's state with the state recorded at
// seq in the current session. It goes through ReplaceState, so strict mode
// does not flag it and no mutation is recorded.
func (j *Journal) TravelTo(ctx context.Context, seq int64) error {
	j.mu.Lock()
	s, session := j.store, j.session
	j.mu.Unlock()
	if s == nil {
		return ErrNotAttached
	}

	var state sql.NullString
	err := j.db.QueryRowContext(ctx, `
		SELECT state FROM entries WHERE session_id = ? AND seq = ?
	`, session, seq).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !state.Valid) {
		return fmt.Errorf("%w at seq %d", ErrNoState, seq)
	}
	if err != nil {
		return fmt.Errorf("travel to %d: %w", seq, err)
	}

	v, err := ir.Parse([]byte(state.String))
	if err != nil {
		return fmt.Errorf("travel to %d: %w", seq, err)
	}
	s.ReplaceState(ir.ToGo(v))
	j.logger.Debug("journal travel", "seq", seq)
	return nil
}
