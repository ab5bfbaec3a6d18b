package infer

import (
	"context"
	"strings"
	"time"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/report"
	"github.com/reactionlab/kinfer/internal/stats"
)

// rhatThreshold is the split R-hat above which a parameter earns a mixing
// warning.
const rhatThreshold = 1.01

// MCMC runs NUTS sampling for reaction-order estimation.
//
// The configuration is validated before any data loading or engine contact;
// a warmup at or above the iteration count never reaches the engine. Draws
// are pooled across chains post-warmup: within a chain draws keep their
// order, and chains are concatenated in chain order.
func (r *Runner) MCMC(ctx context.Context, dataPath string, cfg SampleConfig) (*Fit, *report.Report, error) {
	start := time.Now()
	if err := cfg.normalize(); err != nil {
		return nil, nil, err
	}

	ds, model, hit, err := r.prepare(ctx, dataPath, cfg.Priors, cfg.ModelName)
	if err != nil {
		return nil, nil, err
	}

	seed := ensureSeed(cfg.Seed)
	out, err := model.Sample(ctx, ds.StanData(), engine.SampleArgs{
		Chains:          cfg.Chains,
		SamplesPerChain: cfg.Iters - cfg.Warmup,
		Warmup:          cfg.Warmup,
		Jobs:            cfg.Jobs,
		AdaptDelta:      cfg.AdaptDelta,
		MaxTreeDepth:    cfg.MaxTreeDepth,
		Inits:           cfg.chainInits(),
		Seed:            seed,
	})
	if err != nil {
		return nil, nil, err
	}

	fit := poolChains(model, out)

	rep := report.New(report.ModeSampling, cfg.ModelName)
	rep.Seed = seed
	rep.CacheHit = hit
	rep.CodeHash = model.Artifact().CodeHash
	rep.Summary = report.SummaryTable(fit.ParamNames, fit.Draws)

	for _, name := range fit.ParamNames {
		if strings.HasSuffix(name, "__") {
			continue
		}
		perChain := make([][]float64, len(fit.Chains))
		for i, chain := range fit.Chains {
			perChain[i] = chain[name]
		}
		if rhat := stats.SplitRhat(perChain); rhat > rhatThreshold {
			rep.AddRhatWarning(name, rhat)
		}
	}

	if cfg.Trace && cfg.PlotDir != "" {
		paths, err := report.TracePlots(cfg.PlotDir, fit.ParamNames, fit.Draws)
		if err != nil {
			return nil, nil, err
		}
		rep.PlotFiles = append(rep.PlotFiles, paths...)
	}

	rep.RuntimeMin = time.Since(start).Minutes()
	r.record(ctx, rep, cfg)
	return fit, rep, nil
}

// poolChains flattens per-chain draws into one pooled sequence per
// parameter, chains concatenated in order.
func poolChains(model engine.CompiledModel, out *engine.SampleOutput) *Fit {
	fit := &Fit{
		Model:      model,
		ParamNames: out.ParamNames,
		Draws:      make(map[string][]float64, len(out.ParamNames)),
		Chains:     out.Chains,
	}
	for _, name := range out.ParamNames {
		var pooled []float64
		for _, chain := range out.Chains {
			pooled = append(pooled, chain[name]...)
		}
		fit.Draws[name] = pooled
	}
	return fit
}
