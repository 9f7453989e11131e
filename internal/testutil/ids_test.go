package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stately/store"
)

func TestSequenceIDs(t *testing.T) {
	g := NewSequenceIDs("")
	assert.Equal(t, "session-0001", g.Generate())
	assert.Equal(t, "session-0002", g.Generate())

	named := NewSequenceIDs("run")
	assert.Equal(t, "run-0001", named.Generate())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Report(&store.Error{Code: store.ErrCodeUnknownType})
	r.Report(&store.Error{Code: store.ErrCodeConfig})
	r.Report(&store.Error{Code: store.ErrCodeUnknownType})

	assert.Equal(t, 3, r.Count(""))
	assert.Equal(t, 2, r.Count(store.ErrCodeUnknownType))
	assert.Len(t, r.Errors(), 3)
}
