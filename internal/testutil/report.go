package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/stately/store"
)

// Recorder is a store.Reporter that keeps every report.
type Recorder struct {
	mu   sync.Mutex
	errs []*store.Error
}

// Report implements store.Reporter.
func (r *Recorder) Report(err *store.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns a copy of what was reported so far.
func (r *Recorder) Errors() []*store.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*store.Error(nil), r.errs...)
}

// Count returns how many reports carried code. An empty code counts all.
func (r *Recorder) Count(code store.ErrorCode) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code == "" {
		return len(r.errs)
	}
	n := 0
	for _, e := range r.errs {
		if e.Code == code {
			n++
		}
	}
	return n
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
