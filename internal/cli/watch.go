package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/blueprint"
	"github.com/roach88/stately/internal/hotreload"
	"github.com/roach88/stately/internal/inspector"
	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Journal  string
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <blueprint>",
		Short: "Build a store and hot-update it when the blueprint changes",
		Long: `Build a store from a blueprint, then hot-update its handlers every
time the file is saved. State is kept across reloads. A blueprint that
fails to load or compile is reported and the store is left unchanged.

With --journal, the store is attached to an inspector journal and every
mutation is recorded to the given SQLite database.

Press Ctrl-C to stop.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record mutations to this SQLite database")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before a change is reloaded")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()

	bp, err := blueprint.LoadFile(path)
	if err != nil {
		return failBlueprint(formatter, path, err)
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if opts.Journal != "" {
		j, err := inspector.Open(opts.Journal, inspector.WithLogger(logger))
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		storeOpts = append(storeOpts, store.WithDevtool(j))
	}

	s, err := blueprint.Build(reactive.NewRuntime(), bp, storeOpts...)
	if err != nil {
		return failBlueprint(formatter, path, err)
	}

	w, err := hotreload.New(path, hotreload.WithDebounce(opts.Debounce), hotreload.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch blueprint", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		w.Stop()
		return WrapExitError(ExitCommandError, "failed to watch blueprint", err)
	}
	defer w.Stop()

	if err := printState(formatter, "loaded", s); err != nil {
		return err
	}
	formatter.Printf("Watching %s. Press Ctrl-C to stop.\n", path)

	serveUpdates(ctx, s, w.Updates(), formatter)
	logger.Debug("watch stopped")
	return nil
}

// serveUpdates applies reloaded blueprints to s until updates is closed or
// ctx is done. Failed reloads are reported and skipped.
func serveUpdates(ctx context.Context, s *store.Store, updates <-chan hotreload.Update, f *OutputFormatter) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := hotreload.Apply(s, u); err != nil {
				code, _ := classify(err)
				_ = f.Error(code, err.Error(), map[string]string{"path": u.Path})
				continue
			}
			if err := printState(f, "reloaded", s); err != nil {
				_ = f.Error(ErrCodeStore, err.Error(), nil)
			}
		}
	}
}

// StateReport is the JSON form of a load or reload event.
type StateReport struct {
	Event     string   `json:"event"`
	Mutations []string `json:"mutations"`
	Actions   []string `json:"actions"`
	State     ir.Value `json:"state"`
}

func printState(f *OutputFormatter, event string, s *store.Store) error {
	var state ir.Value
	var err error
	s.Runtime().Untracked(func() {
		state, err = ir.FromGo(s.State())
	})
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	report := StateReport{
		Event:     event,
		Mutations: s.MutationTypes(),
		Actions:   s.ActionTypes(),
		State:     state,
	}
	if f.JSON() {
		return f.Success(report)
	}
	canonical, err := ir.MarshalCanonical(state)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	f.Printf("%s: %d mutation(s), %d action(s)\n", event, len(report.Mutations), len(report.Actions))
	f.Printf("  state: %s\n", canonical)
	return nil
}
