package cli

import (
	"github.com/spf13/cobra"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/infer"
)

// MAPOptions holds flags for the map command.
type MAPOptions struct {
	inferOptions

	InitRandom bool
	Seed       int64
}

// NewMAPCommand creates the map command.
func NewMAPCommand(rootOpts *RootOptions) *cobra.Command {
	return newMAPCommand(rootOpts, nil)
}

func newMAPCommand(rootOpts *RootOptions, eng engine.Engine) *cobra.Command {
	opts := &MAPOptions{inferOptions: inferOptions{RootOptions: rootOpts, Engine: eng}}

	cmd := &cobra.Command{
		Use:   "map [data-file]",
		Short: "Estimate reaction order by MAP optimization",
		Long: `Run penalized optimization for a posterior-mode point estimate of the
reaction-order parameters.

Example:
  kinfer map data.xlsx`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMAP(cmd, opts, args)
		},
	}

	addInferFlags(cmd, &opts.inferOptions)
	cmd.Flags().BoolVar(&opts.InitRandom, "init-random", false, "random instead of fixed initialization")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 generates one and records it)")

	return cmd
}

func runMAP(cmd *cobra.Command, opts *MAPOptions, args []string) error {
	dataPath, analysis, priors, err := opts.resolveInputs(args)
	if err != nil {
		return err
	}

	cfg := infer.DefaultOptimizeConfig()
	cfg.Priors = priors
	if name := opts.modelName(analysis); name != "" {
		cfg.ModelName = name
	}
	if analysis != nil && analysis.MAP != nil && analysis.MAP.Seed != 0 {
		cfg.Seed = analysis.MAP.Seed
	}

	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.Seed
	}
	cfg.InitRandom = opts.InitRandom

	runner, closeLedger, err := opts.buildRunner()
	if err != nil {
		return err
	}
	defer closeLedger()

	_, rep, err := runner.MAP(cmd.Context(), dataPath, cfg)
	if err != nil {
		if infer.IsConfigError(err) {
			return WrapExitError(ExitCommandError, "invalid optimization configuration", err)
		}
		return WrapExitError(ExitFailure, "optimization failed", err)
	}
	return emitReport(cmd.OutOrStdout(), opts.Format, rep)
}
