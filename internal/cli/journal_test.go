package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/blueprint"
	"github.com/roach88/stately/internal/inspector"
	"github.com/roach88/stately/internal/testutil"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// recordJournal writes one session of counter.yaml into a new database.
func recordJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stately.db")
	j, err := inspector.Open(path,
		inspector.WithIDGenerator(testutil.NewSequenceIDs("")),
		inspector.WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)

	bp, err := blueprint.LoadFile("testdata/counter.yaml")
	require.NoError(t, err)
	s, err := blueprint.Build(reactive.NewRuntime(), bp,
		store.WithDevtool(j),
		store.WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)

	s.Commit("inc", 2)
	s.Commit("cart/add", "pear")
	_, err = s.Dispatch(context.Background(), "bump", nil).Await(context.Background())
	require.NoError(t, err)
	require.NoError(t, j.Err())
	require.NoError(t, j.Close())
	return path
}

func TestJournal_Sessions(t *testing.T) {
	db := recordJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), db)
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "session-0001")
	assert.Contains(t, out, "true")
}

func TestJournal_SessionsJSON(t *testing.T) {
	db := recordJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "json"}), db)
	require.NoError(t, err)

	_, data := decodeResponse(t, out)
	var sessions []inspector.SessionInfo
	require.NoError(t, json.Unmarshal(data, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "session-0001", sessions[0].ID)
	assert.True(t, sessions[0].Strict)
	assert.Equal(t, 4, sessions[0].Entries)
}

func TestJournal_Entries(t *testing.T) {
	db := recordJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), db, "--session", "session-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "@@INIT")
	assert.Contains(t, out, "cart/add")
	assert.Contains(t, out, `"pear"`)
}

func TestJournal_EntriesJSON(t *testing.T) {
	db := recordJournal(t)

	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "json"}), db, "--session", "session-0001")
	require.NoError(t, err)

	_, data := decodeResponse(t, out)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "init", entries[0]["kind"])
	assert.Equal(t, "inc", entries[1]["type"])
	assert.Equal(t, float64(2), entries[1]["payload"])
	assert.Equal(t, map[string]any{"count": float64(3), "cart": map[string]any{"items": []any{"pear"}}}, entries[3]["state"])
}

func TestJournal_UnknownSession(t *testing.T) {
	db := recordJournal(t)

	_, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestJournal_MissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	out, err := execute(t, NewJournalCommand(&RootOptions{Format: "text"}), missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")
	assert.NoFileExists(t, missing)
}
