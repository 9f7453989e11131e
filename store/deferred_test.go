package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferred_SettlesOnce(t *testing.T) {
	d := NewDeferred()
	assert.True(t, d.Resolve(1))
	assert.False(t, d.Resolve(2))
	assert.False(t, d.Reject(errors.New("late")))

	v, err, settled := d.Result()
	assert.True(t, settled)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDeferred_ThenAfterSettle(t *testing.T) {
	d := Rejected(errors.New("boom"))

	var got error
	d.Then(func(_ any, err error) { got = err })
	assert.EqualError(t, got, "boom")
}

func TestDeferred_AwaitAcrossGoroutines(t *testing.T) {
	d := NewDeferred()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Resolve("done")
	}()

	v, err := d.Await(context.Background())
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestDeferred_AwaitContextDone(t *testing.T) {
	d := NewDeferred()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDeferred_Nil(t *testing.T) {
	var d *Deferred
	v, err := d.Await(context.Background())
	assert.Nil(t, v)
	assert.NoError(t, err)

	select {
	case <-d.Done():
	default:
		t.Fatal("nil Deferred should report done")
	}

	called := false
	d.Then(func(v any, err error) {
		called = true
		assert.Nil(t, v)
		assert.NoError(t, err)
	})
	assert.True(t, called)
	assert.False(t, d.Resolve(1))
	assert.False(t, d.Reject(assert.AnError))
}

func TestAll(t *testing.T) {
	v, err, settled := All().Result()
	require.True(t, settled)
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)

	v, err, _ = All(Resolved(1), nil, Resolved("x")).Result()
	require.NoError(t, err)
	assert.Equal(t, []any{1, nil, "x"}, v)
}

func TestToDeferred(t *testing.T) {
	pending := NewDeferred()
	assert.Same(t, pending, toDeferred(pending, nil))

	_, err, _ := toDeferred("ignored", errors.New("boom")).Result()
	assert.EqualError(t, err, "boom")

	v, err, settled := toDeferred(7, nil).Result()
	assert.True(t, settled)
	assert.NoError(t, err)
	assert.Equal(t, 7, v)

	var nilDeferred *Deferred
	v, _, settled = toDeferred(nilDeferred, nil).Result()
	assert.True(t, settled)
	assert.Nil(t, v)
}
