package engine

import "context"

// Data is the named-input map passed to a model run, e.g.
// {"N": 4, "x": []float64{...}, "y": []float64{...}}.
type Data map[string]any

// Artifact is the persistable form of a compiled model. It is what the model
// cache serializes to disk: enough to rebuild a runnable CompiledModel
// without recompiling.
type Artifact struct {
	ModelName string
	CodeHash  string
	StanCode  string
	Binary    []byte
}

// SampleArgs configures an MCMC run. All fields are taken by value per call;
// nothing here is shared between runs.
type SampleArgs struct {
	Chains          int
	SamplesPerChain int // post-warmup draws kept per chain
	Warmup          int
	Jobs            int // chains run concurrently, at most Jobs at a time
	AdaptDelta      float64
	MaxTreeDepth    int
	Inits           []map[string]float64 // one per chain; nil means random initialization
	Seed            int64
}

// SampleOutput holds post-warmup draws, one column set per chain.
// ParamNames is the engine's column order restricted to model parameters,
// with the log-posterior column "lp__" kept last.
type SampleOutput struct {
	ParamNames []string
	Chains     []map[string][]float64
}

// VariationalArgs configures a variational approximation run.
type VariationalArgs struct {
	Algorithm      string // "meanfield" or "fullrank"
	Iters          int
	GradSamples    int
	ELBOSamples    int
	TolRelObj      float64
	EvalELBO       int
	AdaptIter      int
	AdaptEngaged   bool
	Eta            float64
	OutputSamples  int
	SampleFile     string
	DiagnosticFile string
	Seed           int64
}

// VariationalOutput holds draws from the fitted approximation.
// ParamNames ends with "lp__", which is engine bookkeeping rather than a
// model parameter; callers that tabulate results drop the last name.
type VariationalOutput struct {
	ParamNames []string
	Draws      map[string][]float64
}

// OptimizeArgs configures a MAP point estimation run.
type OptimizeArgs struct {
	Inits map[string]float64 // nil means random initialization
	Seed  int64
}

// OptimizeOutput holds the posterior-mode point estimates, one per model
// parameter, in the engine's column order.
type OptimizeOutput struct {
	ParamNames []string
	Estimates  map[string]float64
}

// Engine compiles model programs and rebuilds them from cached artifacts.
type Engine interface {
	// Compile builds a runnable model from program text. Long-running and
	// blocking; ctx cancellation is the only way out.
	Compile(ctx context.Context, code, name string) (CompiledModel, error)

	// Load rebuilds a runnable model from a previously persisted artifact.
	Load(art *Artifact) (CompiledModel, error)
}

// CompiledModel is a ready-to-run model program.
type CompiledModel interface {
	Artifact() *Artifact
	Sample(ctx context.Context, data Data, args SampleArgs) (*SampleOutput, error)
	Variational(ctx context.Context, data Data, args VariationalArgs) (*VariationalOutput, error)
	Optimize(ctx context.Context, data Data, args OptimizeArgs) (*OptimizeOutput, error)
}
