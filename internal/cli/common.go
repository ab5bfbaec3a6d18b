package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/infer"
	"github.com/reactionlab/kinfer/internal/runlog"
)

// inferOptions are the flags shared by the three inference commands.
type inferOptions struct {
	*RootOptions

	AnalysisFile string
	PriorsFile   string
	ModelName    string
	Priors       []string
	CacheDir     string
	PlotDir      string
	Trace        bool
	Ledger       string
	CmdStanRoot  string
	WorkDir      string

	// Engine overrides the CmdStan engine when set (tests).
	Engine engine.Engine
}

// addInferFlags registers the flags every inference command shares.
func addInferFlags(cmd *cobra.Command, opts *inferOptions) {
	cmd.Flags().StringVar(&opts.AnalysisFile, "analysis", "", "CUE analysis file with run settings")
	cmd.Flags().StringVar(&opts.PriorsFile, "priors-file", "", "YAML file of prior overrides")
	cmd.Flags().StringArrayVar(&opts.Priors, "prior", nil, "prior override \"param ~ expression\" (repeatable)")
	cmd.Flags().StringVar(&opts.ModelName, "model-name", "", "model name for cache keying")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", ".", "directory for compiled model cache files")
	cmd.Flags().StringVar(&opts.PlotDir, "plot-dir", "", "directory for plot output (empty disables plots)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "render trace plots (requires --plot-dir)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "SQLite run-ledger path (empty disables recording)")
	cmd.Flags().StringVar(&opts.CmdStanRoot, "cmdstan", os.Getenv("CMDSTAN"), "CmdStan installation root")
	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", ".kinfer-work", "working directory for engine files")
}

// resolveInputs loads the analysis file (when given) and settles the data
// path and prior list. Priors accumulate: analysis file, then priors file,
// then --prior flags.
func (opts *inferOptions) resolveInputs(args []string) (string, *Analysis, []string, error) {
	var analysis *Analysis
	if opts.AnalysisFile != "" {
		a, err := LoadAnalysis(opts.AnalysisFile)
		if err != nil {
			return "", nil, nil, WrapExitError(ExitCommandError, "failed to load analysis", err)
		}
		analysis = a
	}

	dataPath := ""
	if len(args) > 0 {
		dataPath = args[0]
	} else if analysis != nil {
		dataPath = analysis.Data
	}
	if dataPath == "" {
		return "", nil, nil, WrapExitError(ExitCommandError, "no data file: pass one as an argument or set analysis.data", nil)
	}

	var priors []string
	if analysis != nil {
		priors = append(priors, analysis.Priors...)
	}
	if opts.PriorsFile != "" {
		fromFile, err := LoadPriors(opts.PriorsFile)
		if err != nil {
			return "", nil, nil, WrapExitError(ExitCommandError, "failed to load priors", err)
		}
		priors = append(priors, fromFile...)
	}
	priors = append(priors, opts.Priors...)

	return dataPath, analysis, priors, nil
}

// modelName resolves the cache model name: flag, then analysis, then the
// driver default.
func (opts *inferOptions) modelName(analysis *Analysis) string {
	if opts.ModelName != "" {
		return opts.ModelName
	}
	if analysis != nil && analysis.Model != "" {
		return analysis.Model
	}
	return ""
}

// buildRunner assembles the inference pipeline: engine, compile cache, and
// optional run ledger. The returned closer releases the ledger.
func (opts *inferOptions) buildRunner() (*infer.Runner, func(), error) {
	eng := opts.Engine
	if eng == nil {
		eng = engine.NewCmdStan(opts.CmdStanRoot, opts.WorkDir)
	}
	runner := infer.NewRunner(eng, opts.CacheDir)

	closer := func() {}
	if opts.Ledger != "" {
		store, err := runlog.Open(opts.Ledger)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open run ledger", err)
		}
		runner.Recorder = store
		closer = func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "close run ledger: %v\n", err)
			}
		}
	}
	return runner, closer, nil
}
