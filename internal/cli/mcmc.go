package cli

import (
	"github.com/spf13/cobra"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/infer"
)

// MCMCOptions holds flags for the mcmc command.
type MCMCOptions struct {
	inferOptions

	Chains       int
	Iters        int
	Warmup       int
	Jobs         int
	AdaptDelta   float64
	MaxTreeDepth int
	InitRandom   bool
	Seed         int64
}

// NewMCMCCommand creates the mcmc command.
func NewMCMCCommand(rootOpts *RootOptions) *cobra.Command {
	return newMCMCCommand(rootOpts, nil)
}

func newMCMCCommand(rootOpts *RootOptions, eng engine.Engine) *cobra.Command {
	opts := &MCMCOptions{inferOptions: inferOptions{RootOptions: rootOpts, Engine: eng}}

	cmd := &cobra.Command{
		Use:   "mcmc [data-file]",
		Short: "Estimate reaction order by MCMC sampling",
		Long: `Run NUTS sampling for reaction-order estimation.

The data file is a workbook with a "Data" sheet holding Pressure and Rate
columns, or a CSV file with the same headers.

Example:
  kinfer mcmc data.xlsx --chains 2 --iters 5000
  kinfer mcmc --analysis analysis.cue --plot-dir plots --trace`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCMC(cmd, opts, args)
		},
	}

	addInferFlags(cmd, &opts.inferOptions)
	cmd.Flags().IntVar(&opts.Chains, "chains", 2, "number of sampling chains")
	cmd.Flags().IntVar(&opts.Iters, "iters", 5000, "total iterations per chain, warmup included")
	cmd.Flags().IntVar(&opts.Warmup, "warmup", 0, "warmup iterations per chain (0 means half of iters)")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 1, "chains run concurrently")
	cmd.Flags().Float64Var(&opts.AdaptDelta, "adapt-delta", 0.9999, "target acceptance probability")
	cmd.Flags().IntVar(&opts.MaxTreeDepth, "max-depth", 100, "sampler maximum tree depth")
	cmd.Flags().BoolVar(&opts.InitRandom, "init-random", false, "random instead of fixed initialization")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 generates one and records it)")

	return cmd
}

func runMCMC(cmd *cobra.Command, opts *MCMCOptions, args []string) error {
	dataPath, analysis, priors, err := opts.resolveInputs(args)
	if err != nil {
		return err
	}

	cfg := infer.DefaultSampleConfig()
	cfg.Priors = priors
	if name := opts.modelName(analysis); name != "" {
		cfg.ModelName = name
	}
	if analysis != nil && analysis.MCMC != nil {
		applyMCMCSettings(&cfg, analysis.MCMC)
	}

	flags := cmd.Flags()
	if flags.Changed("chains") {
		cfg.Chains = opts.Chains
	}
	if flags.Changed("iters") {
		cfg.Iters = opts.Iters
	}
	if flags.Changed("warmup") {
		cfg.Warmup = opts.Warmup
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.Jobs
	}
	if flags.Changed("adapt-delta") {
		cfg.AdaptDelta = opts.AdaptDelta
	}
	if flags.Changed("max-depth") {
		cfg.MaxTreeDepth = opts.MaxTreeDepth
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.Seed
	}
	cfg.InitRandom = opts.InitRandom
	cfg.Trace = opts.Trace
	cfg.PlotDir = opts.PlotDir

	runner, closeLedger, err := opts.buildRunner()
	if err != nil {
		return err
	}
	defer closeLedger()

	_, rep, err := runner.MCMC(cmd.Context(), dataPath, cfg)
	if err != nil {
		if infer.IsConfigError(err) {
			return WrapExitError(ExitCommandError, "invalid sampling configuration", err)
		}
		return WrapExitError(ExitFailure, "sampling failed", err)
	}
	return emitReport(cmd.OutOrStdout(), opts.Format, rep)
}

// applyMCMCSettings copies the non-zero analysis-file settings onto the
// config.
func applyMCMCSettings(cfg *infer.SampleConfig, s *MCMCSettings) {
	if s.Chains != 0 {
		cfg.Chains = s.Chains
	}
	if s.Iters != 0 {
		cfg.Iters = s.Iters
	}
	if s.Warmup != 0 {
		cfg.Warmup = s.Warmup
	}
	if s.Jobs != 0 {
		cfg.Jobs = s.Jobs
	}
	if s.AdaptDelta != 0 {
		cfg.AdaptDelta = s.AdaptDelta
	}
	if s.MaxTreeDepth != 0 {
		cfg.MaxTreeDepth = s.MaxTreeDepth
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
}
