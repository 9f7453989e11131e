package inspector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/internal/testutil"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

func counterRoot() *store.RawModule {
	return &store.RawModule{
		State: map[string]any{"count": 0, "tags": []any{}},
		Mutations: map[string]store.MutationHandler{
			"add": func(state *reactive.Object, payload any) {
				by, _ := reactive.ToInt(payload.(map[string]any)["by"])
				state.Set("count", state.Int("count")+by)
			},
			"tag": func(state *reactive.Object, payload any) {
				state.List("tags").Append(payload)
			},
		},
		Actions: map[string]store.Action{
			"explode": {Handler: func(*store.ActionContext, any) (any, error) {
				return nil, errors.New("boom")
			}},
		},
	}
}

func openTestJournal(t *testing.T, path string) *Journal {
	t.Helper()
	j, err := Open(path,
		WithIDGenerator(testutil.NewSequenceIDs("")),
		WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func attach(t *testing.T, j *Journal, opts ...store.Option) *store.Store {
	t.Helper()
	opts = append([]store.Option{
		store.WithDevtool(j),
		store.WithLogger(testutil.DiscardLogger()),
		store.WithReporter(&testutil.Recorder{}),
	}, opts...)
	s, err := store.New(reactive.NewRuntime(), counterRoot(), opts...)
	require.NoError(t, err)
	return s
}

func TestJournal_RecordsSession(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t, filepath.Join(t.TempDir(), "journal.db"))
	s := attach(t, j, store.WithStrict(true))

	s.Commit("add", map[string]any{"by": 2})
	s.Commit("tag", "red")
	_, err := s.Dispatch(ctx, "explode", nil).Await(ctx)
	require.EqualError(t, err, "boom")
	require.NoError(t, j.Err())

	assert.Equal(t, "session-0001", j.Session())

	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, KindInit, entries[0].Kind)
	assert.Equal(t, "@@INIT", entries[0].Type)
	assert.Equal(t, ir.Object{"count": ir.Int(0), "tags": ir.Array{}}, entries[0].State)
	assert.Equal(t, ir.MustStateDigest(entries[0].State), entries[0].Digest)

	assert.Equal(t, KindMutation, entries[1].Kind)
	assert.Equal(t, "add", entries[1].Type)
	assert.Equal(t, ir.Object{"by": ir.Int(2)}, entries[1].Payload)
	assert.Equal(t, ir.Object{"count": ir.Int(2), "tags": ir.Array{}}, entries[1].State)

	assert.Equal(t, ir.String("red"), entries[2].Payload)
	assert.Equal(t, ir.Object{"count": ir.Int(2), "tags": ir.Array{ir.String("red")}}, entries[2].State)

	assert.Equal(t, KindActionError, entries[3].Kind)
	assert.Equal(t, "explode", entries[3].Type)
	assert.Equal(t, "boom", entries[3].Error)
	assert.Nil(t, entries[3].State)
	assert.Empty(t, entries[3].Digest)

	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, SessionInfo{ID: "session-0001", Version: ir.Version, Strict: true, Entries: 4}, sessions[0])
}

func TestJournal_TravelTo(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t, filepath.Join(t.TempDir(), "journal.db"))
	rec := &testutil.Recorder{}
	s := attach(t, j, store.WithStrict(true), store.WithReporter(rec))

	s.Commit("add", map[string]any{"by": 5})
	s.Commit("tag", "a")
	s.Commit("tag", "b")

	require.NoError(t, j.TravelTo(ctx, 2))
	assert.Equal(t, map[string]any{"count": 5, "tags": []any{}}, s.State().Snapshot())

	require.NoError(t, j.TravelTo(ctx, 4))
	assert.Equal(t, map[string]any{"count": 5, "tags": []any{"a", "b"}}, s.State().Snapshot())

	// Travel is not a mutation.
	entries, err := j.Entries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Zero(t, rec.Count(store.ErrCodeStrictMode))

	// Commits continue from the restored state.
	s.Commit("add", map[string]any{"by": 1})
	assert.Equal(t, 6, s.State().Int("count"))
}

func TestJournal_TravelToErrors(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t, filepath.Join(t.TempDir(), "journal.db"))

	assert.ErrorIs(t, j.TravelTo(ctx, 1), ErrNotAttached)

	s := attach(t, j)
	_, _ = s.Dispatch(ctx, "explode", nil).Await(ctx)

	assert.ErrorIs(t, j.TravelTo(ctx, 99), ErrNoState)
	assert.ErrorIs(t, j.TravelTo(ctx, 2), ErrNoState)
}

func TestJournal_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path, WithIDGenerator(testutil.NewSequenceIDs("a")), WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	s := attach(t, first)
	s.Commit("tag", "x")
	require.NoError(t, first.Close())

	second := openTestJournal(t, path)
	sessions, err := second.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "a-0001", sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Entries)

	entries, err := second.Entries(ctx, "a-0001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "tag", entries[1].Type)

	var version int
	require.NoError(t, second.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestJournal_EmptySession(t *testing.T) {
	j := openTestJournal(t, filepath.Join(t.TempDir(), "journal.db"))
	entries, err := j.Entries(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestJournal_SessionPerStore(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t, filepath.Join(t.TempDir(), "journal.db"))

	attach(t, j)
	attach(t, j)

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "session-0001", sessions[0].ID)
	assert.Equal(t, "session-0002", sessions[1].ID)
	assert.Equal(t, "session-0002", j.Session())
}
