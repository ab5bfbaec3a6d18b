package infer

import (
	"context"
	"time"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/report"
)

// MAP runs penalized optimization for reaction-order estimation and returns
// the posterior-mode point estimate per parameter.
func (r *Runner) MAP(ctx context.Context, dataPath string, cfg OptimizeConfig) (map[string]float64, *report.Report, error) {
	start := time.Now()
	if err := cfg.normalize(); err != nil {
		return nil, nil, err
	}

	ds, model, hit, err := r.prepare(ctx, dataPath, cfg.Priors, cfg.ModelName)
	if err != nil {
		return nil, nil, err
	}

	seed := ensureSeed(cfg.Seed)
	out, err := model.Optimize(ctx, ds.StanData(), engine.OptimizeArgs{
		Inits: cfg.initMap(),
		Seed:  seed,
	})
	if err != nil {
		return nil, nil, err
	}

	rep := report.New(report.ModeOptimization, cfg.ModelName)
	rep.Seed = seed
	rep.CacheHit = hit
	rep.CodeHash = model.Artifact().CodeHash
	rep.Summary = report.EstimateTable(out.ParamNames, out.Estimates)

	rep.RuntimeMin = time.Since(start).Minutes()
	r.record(ctx, rep, cfg)
	return out.Estimates, rep, nil
}
