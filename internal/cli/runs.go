package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reactionlab/kinfer/internal/report"
	"github.com/reactionlab/kinfer/internal/runlog"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions

	Ledger string
	Limit  int
	RunID  string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded inference runs",
		Long: `List runs recorded in the ledger, newest first, or show one run in
full with --run.

Example:
  kinfer runs --ledger runs.db
  kinfer runs --ledger runs.db --run 6f1c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "SQLite run-ledger path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run by ID")
	cmd.MarkFlagRequired("ledger")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	store, err := runlog.Open(opts.Ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run ledger", err)
	}
	defer store.Close()

	w := cmd.OutOrStdout()

	if opts.RunID != "" {
		entry, err := store.Get(cmd.Context(), opts.RunID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to load run", err)
		}
		return emitEntry(w, opts.Format, entry)
	}

	entries, err := store.List(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}
	return emitEntries(w, opts.Format, entries)
}

func emitEntries(w io.Writer, format string, entries []runlog.Entry) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}
	table := &report.Table{
		Headers: []string{"run", "mode", "model", "seed", "warnings", "created"},
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{
			e.RunID,
			e.Mode,
			e.ModelName,
			fmt.Sprintf("%d", e.Seed),
			fmt.Sprintf("%d", len(e.Warnings)),
			e.CreatedAt,
		})
	}
	report.RenderTable(w, table)
	return nil
}

func emitEntry(w io.Writer, format string, entry *runlog.Entry) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	fmt.Fprintf(w, "run %s  mode=%s  model=%s  seed=%d\n", entry.RunID, entry.Mode, entry.ModelName, entry.Seed)
	fmt.Fprintf(w, "code hash: %s\n", entry.CodeHash)
	fmt.Fprintf(w, "cache hit: %t\n", entry.CacheHit)
	fmt.Fprintf(w, "created:   %s\n", entry.CreatedAt)
	for _, warning := range entry.Warnings {
		fmt.Fprintf(w, "WARNING: %s\n", warning)
	}

	var summary report.Table
	if entry.Summary != "" && entry.Summary != "null" {
		if err := json.Unmarshal([]byte(entry.Summary), &summary); err == nil && len(summary.Rows) > 0 {
			report.RenderTable(w, &summary)
		}
	}
	fmt.Fprintf(w, "Runtime (min): %.4f\n", entry.RuntimeMin)
	return nil
}
