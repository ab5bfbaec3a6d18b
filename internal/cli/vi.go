package cli

import (
	"github.com/spf13/cobra"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/infer"
)

// VIOptions holds flags for the vi command.
type VIOptions struct {
	inferOptions

	Algorithm      string
	Iters          int
	TolRelObj      float64
	Eta            float64
	AdaptEngaged   bool
	OutputSamples  int
	SampleFile     string
	DiagnosticFile string
	Seed           int64
}

// NewVICommand creates the vi command.
func NewVICommand(rootOpts *RootOptions) *cobra.Command {
	return newVICommand(rootOpts, nil)
}

func newVICommand(rootOpts *RootOptions, eng engine.Engine) *cobra.Command {
	opts := &VIOptions{inferOptions: inferOptions{RootOptions: rootOpts, Engine: eng}}

	cmd := &cobra.Command{
		Use:   "vi [data-file]",
		Short: "Estimate reaction order by variational inference",
		Long: `Run a variational approximation for reaction-order estimation.

The diagnostic file is read back after the fit to judge convergence, and an
ELBO convergence plot is rendered when --plot-dir is set.

Example:
  kinfer vi data.xlsx --algorithm fullrank --plot-dir plots`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVI(cmd, opts, args)
		},
	}

	addInferFlags(cmd, &opts.inferOptions)
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", infer.AlgorithmFullRank, "approximation family (meanfield|fullrank)")
	cmd.Flags().IntVar(&opts.Iters, "iters", 2000000, "maximum optimizer iterations")
	cmd.Flags().Float64Var(&opts.TolRelObj, "tol-rel-obj", 0.01, "relative ELBO-change convergence tolerance")
	cmd.Flags().Float64Var(&opts.Eta, "eta", 0.2, "step-size weighting")
	cmd.Flags().BoolVar(&opts.AdaptEngaged, "adapt-engaged", false, "tune eta automatically")
	cmd.Flags().IntVar(&opts.OutputSamples, "output-samples", 10000, "samples drawn from the fitted approximation")
	cmd.Flags().StringVar(&opts.SampleFile, "sample-file", "./samples.csv", "path for raw draw output")
	cmd.Flags().StringVar(&opts.DiagnosticFile, "diagnostic-file", "./diagnostics.csv", "path for ELBO diagnostic output")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 generates one and records it)")

	return cmd
}

func runVI(cmd *cobra.Command, opts *VIOptions, args []string) error {
	dataPath, analysis, priors, err := opts.resolveInputs(args)
	if err != nil {
		return err
	}

	cfg := infer.DefaultVariationalConfig()
	cfg.Priors = priors
	if name := opts.modelName(analysis); name != "" {
		cfg.ModelName = name
	}
	if analysis != nil && analysis.VI != nil {
		applyVISettings(&cfg, analysis.VI)
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = opts.Algorithm
	}
	if flags.Changed("iters") {
		cfg.Iters = opts.Iters
	}
	if flags.Changed("tol-rel-obj") {
		cfg.TolRelObj = opts.TolRelObj
	}
	if flags.Changed("eta") {
		cfg.Eta = opts.Eta
	}
	if flags.Changed("adapt-engaged") {
		cfg.AdaptEngaged = opts.AdaptEngaged
	}
	if flags.Changed("output-samples") {
		cfg.OutputSamples = opts.OutputSamples
	}
	if flags.Changed("sample-file") {
		cfg.SampleFile = opts.SampleFile
	}
	if flags.Changed("diagnostic-file") {
		cfg.DiagnosticFile = opts.DiagnosticFile
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.Seed
	}
	cfg.Trace = opts.Trace
	cfg.PlotDir = opts.PlotDir

	runner, closeLedger, err := opts.buildRunner()
	if err != nil {
		return err
	}
	defer closeLedger()

	_, rep, err := runner.VI(cmd.Context(), dataPath, cfg)
	if err != nil {
		if infer.IsConfigError(err) {
			return WrapExitError(ExitCommandError, "invalid variational configuration", err)
		}
		return WrapExitError(ExitFailure, "variational fit failed", err)
	}
	return emitReport(cmd.OutOrStdout(), opts.Format, rep)
}

// applyVISettings copies the non-zero analysis-file settings onto the
// config.
func applyVISettings(cfg *infer.VariationalConfig, s *VISettings) {
	if s.Algorithm != "" {
		cfg.Algorithm = s.Algorithm
	}
	if s.Iters != 0 {
		cfg.Iters = s.Iters
	}
	if s.TolRelObj != 0 {
		cfg.TolRelObj = s.TolRelObj
	}
	if s.Eta != 0 {
		cfg.Eta = s.Eta
	}
	if s.AdaptEngaged {
		cfg.AdaptEngaged = true
	}
	if s.OutputSamples != 0 {
		cfg.OutputSamples = s.OutputSamples
	}
	if s.SampleFile != "" {
		cfg.SampleFile = s.SampleFile
	}
	if s.DiagnosticFile != "" {
		cfg.DiagnosticFile = s.DiagnosticFile
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
}
