// Package cli is the kinfer command line front end.
//
// Subcommands map one-to-one onto the inference drivers (mcmc, vi, map)
// plus the run ledger (runs). Analysis settings come from an optional CUE
// file, overridable by flags; priors may additionally be supplied from a
// YAML file.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the kinfer CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kinfer",
		Short: "Bayesian reaction-order estimation",
		Long: `kinfer estimates reaction-order kinetic parameters from experimental
pressure/rate data by Bayesian inference: MCMC sampling, variational
approximation, or MAP optimization.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMCMCCommand(opts))
	cmd.AddCommand(NewVICommand(opts))
	cmd.AddCommand(NewMAPCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
