package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/inspector"
	"github.com/roach88/stately/internal/ir"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Session string
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <db>",
		Short: "Show sessions recorded by the inspector",
		Long: `List the sessions in a journal database, or the entries of one
session with --session.

Examples:
  stately journal ./stately.db
  stately journal ./stately.db --session 01927c3e-...
  stately journal ./stately.db --session 01927c3e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "show the entries of this session")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Open would create a fresh database.
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("journal not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	j, err := inspector.Open(path, inspector.WithLogger(opts.logger()))
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			opts.logger().Error("error closing journal", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if opts.Session == "" {
		sessions, err := j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read sessions", err)
		}
		if formatter.JSON() {
			return formatter.Success(sessions)
		}
		printSessions(formatter, sessions)
		return nil
	}

	entries, err := j.Entries(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}
	if len(entries) == 0 {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("session %q has no entries", opts.Session), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("unknown session %s", opts.Session))
	}
	if formatter.JSON() {
		return formatter.Success(entries)
	}
	return printEntries(formatter, entries)
}

func printSessions(f *OutputFormatter, sessions []inspector.SessionInfo) {
	if len(sessions) == 0 {
		f.Printf("No sessions recorded.\n")
		return
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tVERSION\tSTRICT\tENTRIES")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\n", s.ID, s.Version, s.Strict, s.Entries)
	}
	_ = tw.Flush()
}

func printEntries(f *OutputFormatter, entries []inspector.Entry) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tTYPE\tPAYLOAD\tRESULT")
	for _, e := range entries {
		payload, err := ir.MarshalCanonical(e.Payload)
		if err != nil {
			return fmt.Errorf("entry %d: %w", e.Seq, err)
		}
		outcome := e.Digest
		if e.Error != "" {
			outcome = "error: " + e.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.Kind, e.Type, payload, outcome)
	}
	return tw.Flush()
}
