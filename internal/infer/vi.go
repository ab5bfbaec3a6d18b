package infer

import (
	"context"
	"time"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/report"
)

// VI runs the variational approximation for reaction-order estimation.
//
// After the engine finishes, the diagnostic file it wrote is read back to
// judge convergence: if the final recorded iteration equals the configured
// budget, the optimizer hit its ceiling rather than the tolerance and the
// report carries a non-convergence warning. The summary table covers every
// reported parameter except the last, which is engine bookkeeping.
func (r *Runner) VI(ctx context.Context, dataPath string, cfg VariationalConfig) (*Fit, *report.Report, error) {
	start := time.Now()
	if err := cfg.normalize(); err != nil {
		return nil, nil, err
	}

	ds, model, hit, err := r.prepare(ctx, dataPath, cfg.Priors, cfg.ModelName)
	if err != nil {
		return nil, nil, err
	}

	seed := ensureSeed(cfg.Seed)
	out, err := model.Variational(ctx, ds.StanData(), engine.VariationalArgs{
		Algorithm:      cfg.Algorithm,
		Iters:          cfg.Iters,
		GradSamples:    cfg.GradSamples,
		ELBOSamples:    cfg.ELBOSamples,
		TolRelObj:      cfg.TolRelObj,
		EvalELBO:       cfg.EvalELBO,
		AdaptIter:      cfg.AdaptIter,
		AdaptEngaged:   cfg.AdaptEngaged,
		Eta:            cfg.Eta,
		OutputSamples:  cfg.OutputSamples,
		SampleFile:     cfg.SampleFile,
		DiagnosticFile: cfg.DiagnosticFile,
		Seed:           seed,
	})
	if err != nil {
		return nil, nil, err
	}

	fit := &Fit{Model: model, ParamNames: out.ParamNames, Draws: out.Draws}

	rep := report.New(report.ModeVariational, cfg.ModelName)
	rep.Seed = seed
	rep.CacheHit = hit
	rep.CodeHash = model.Artifact().CodeHash

	// The trailing name is bookkeeping, not a model parameter.
	tableNames := out.ParamNames[:len(out.ParamNames)-1]
	rep.Summary = report.SummaryTable(tableNames, out.Draws)

	points, err := readDiagnostics(cfg.DiagnosticFile)
	if err != nil {
		return nil, nil, err
	}
	if points[len(points)-1].Iter == cfg.Iters {
		rep.AddNonConvergenceWarning(cfg.Iters)
	}

	if cfg.PlotDir != "" {
		iters := make([]int, len(points))
		elbos := make([]float64, len(points))
		for i, p := range points {
			iters[i] = p.Iter
			elbos[i] = p.ELBO
		}
		path, err := report.ELBOPlot(cfg.PlotDir, iters, elbos)
		if err != nil {
			return nil, nil, err
		}
		rep.PlotFiles = append(rep.PlotFiles, path)

		if cfg.Trace {
			paths, err := report.TracePlots(cfg.PlotDir, fit.ParamNames, fit.Draws)
			if err != nil {
				return nil, nil, err
			}
			rep.PlotFiles = append(rep.PlotFiles, paths...)
		}
	}

	rep.AddConvergenceReminder()

	rep.RuntimeMin = time.Since(start).Minutes()
	r.record(ctx, rep, cfg)
	return fit, rep, nil
}
