package infer

import (
	"fmt"

	"github.com/reactionlab/kinfer/internal/stancode"
)

// DefaultModelName is the model name used for cache keying when a config
// leaves it empty.
const DefaultModelName = "rxn_ord"

// Variational algorithm choices.
const (
	AlgorithmMeanField = "meanfield" // independent per-parameter approximation
	AlgorithmFullRank  = "fullrank"  // joint Gaussian, captures correlations
)

// Inits are the per-parameter initialization points shared by sampling and
// optimization.
type Inits struct {
	Intercept float64
	Order     float64
	Sigma     float64
}

// DefaultInits returns the standard initialization points.
func DefaultInits() Inits {
	return Inits{Intercept: 10, Order: 0, Sigma: 1}
}

func (in Inits) asMap() map[string]float64 {
	return map[string]float64{
		stancode.ParamIntercept: in.Intercept,
		stancode.ParamOrder:     in.Order,
		stancode.ParamSigma:     in.Sigma,
	}
}

// SampleConfig configures an MCMC run. Construct with DefaultSampleConfig
// and adjust; the zero value is not meaningful.
type SampleConfig struct {
	ModelName string
	Priors    []string

	Chains       int
	Iters        int // total iterations per chain, warmup included
	Warmup       int // 0 means half of Iters
	Jobs         int
	AdaptDelta   float64
	MaxTreeDepth int

	Inits      Inits
	InitRandom bool

	// Seed of 0 means generate one and record it on the report.
	Seed int64

	Trace   bool
	PlotDir string
}

// DefaultSampleConfig returns the standard sampling configuration:
// 2 chains of 5000 iterations, half warmup, tight adaptation.
// A fresh value is returned per call; configs are never shared.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		ModelName:    DefaultModelName,
		Chains:       2,
		Iters:        5000,
		Jobs:         1,
		AdaptDelta:   0.9999,
		MaxTreeDepth: 100,
		Inits:        DefaultInits(),
	}
}

// normalize fills derived fields and checks invariants. The warmup/iteration
// relationship is validated here, before any data loading or engine contact.
func (c *SampleConfig) normalize() error {
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	if c.Chains <= 0 {
		return &ConfigError{Field: "chains", Message: fmt.Sprintf("must be positive, got %d", c.Chains)}
	}
	if c.Iters <= 0 {
		return &ConfigError{Field: "iters", Message: fmt.Sprintf("must be positive, got %d", c.Iters)}
	}
	if c.Warmup < 0 {
		return &ConfigError{Field: "warmup", Message: fmt.Sprintf("must not be negative, got %d", c.Warmup)}
	}
	if c.Warmup == 0 {
		c.Warmup = c.Iters / 2
	}
	if c.Warmup >= c.Iters {
		return &ConfigError{
			Field:   "warmup",
			Message: fmt.Sprintf("warmup must be less than iters (warmup=%d, iters=%d)", c.Warmup, c.Iters),
		}
	}
	if c.Jobs <= 0 {
		c.Jobs = 1
	}
	return nil
}

// chainInits builds the per-chain initialization list, or nil for random
// initialization.
func (c *SampleConfig) chainInits() []map[string]float64 {
	if c.InitRandom {
		return nil
	}
	inits := make([]map[string]float64, c.Chains)
	for i := range inits {
		inits[i] = c.Inits.asMap()
	}
	return inits
}

// VariationalConfig configures a variational run. Construct with
// DefaultVariationalConfig and adjust.
type VariationalConfig struct {
	ModelName string
	Priors    []string

	Algorithm     string
	Iters         int
	GradSamples   int
	ELBOSamples   int
	TolRelObj     float64
	EvalELBO      int
	AdaptIter     int
	AdaptEngaged  bool
	Eta           float64
	OutputSamples int

	SampleFile     string
	DiagnosticFile string

	Seed int64

	Trace   bool
	PlotDir string
}

// DefaultVariationalConfig returns the standard variational configuration:
// full-rank approximation, two million iteration budget, fixed step size.
func DefaultVariationalConfig() VariationalConfig {
	return VariationalConfig{
		ModelName:      DefaultModelName,
		Algorithm:      AlgorithmFullRank,
		Iters:          2000000,
		GradSamples:    1,
		ELBOSamples:    100,
		TolRelObj:      0.01,
		EvalELBO:       100,
		AdaptIter:      50,
		Eta:            0.2,
		OutputSamples:  10000,
		SampleFile:     "./samples.csv",
		DiagnosticFile: "./diagnostics.csv",
	}
}

func (c *VariationalConfig) normalize() error {
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	switch c.Algorithm {
	case AlgorithmMeanField, AlgorithmFullRank:
	default:
		return &ConfigError{
			Field:   "algorithm",
			Message: fmt.Sprintf("must be %q or %q, got %q", AlgorithmMeanField, AlgorithmFullRank, c.Algorithm),
		}
	}
	if c.Iters <= 0 {
		return &ConfigError{Field: "iters", Message: fmt.Sprintf("must be positive, got %d", c.Iters)}
	}
	if c.OutputSamples <= 0 {
		return &ConfigError{Field: "output_samples", Message: fmt.Sprintf("must be positive, got %d", c.OutputSamples)}
	}
	if c.SampleFile == "" || c.DiagnosticFile == "" {
		return &ConfigError{Field: "sample_file", Message: "sample and diagnostic file paths must be set"}
	}
	return nil
}

// OptimizeConfig configures a MAP run. Construct with DefaultOptimizeConfig
// and adjust.
type OptimizeConfig struct {
	ModelName string
	Priors    []string

	Inits      Inits
	InitRandom bool

	Seed int64
}

// DefaultOptimizeConfig returns the standard MAP configuration.
func DefaultOptimizeConfig() OptimizeConfig {
	return OptimizeConfig{
		ModelName: DefaultModelName,
		Inits:     DefaultInits(),
	}
}

func (c *OptimizeConfig) normalize() error {
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	return nil
}

func (c *OptimizeConfig) initMap() map[string]float64 {
	if c.InitRandom {
		return nil
	}
	return c.Inits.asMap()
}
