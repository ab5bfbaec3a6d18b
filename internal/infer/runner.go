package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reactionlab/kinfer/internal/dataset"
	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/modelcache"
	"github.com/reactionlab/kinfer/internal/report"
	"github.com/reactionlab/kinfer/internal/stancode"
)

// Recorder persists finished runs. Implemented by the run ledger; nil is
// fine when no history is wanted.
type Recorder interface {
	Record(ctx context.Context, rep *report.Report, configJSON []byte) error
}

// Runner wires the pipeline pieces for the three drivers: the engine behind
// a compile cache, and an optional run recorder.
type Runner struct {
	Cache    *modelcache.Cache
	Recorder Recorder
}

// NewRunner builds a runner whose compile cache lives in cacheDir.
func NewRunner(eng engine.Engine, cacheDir string) *Runner {
	return &Runner{Cache: modelcache.New(cacheDir, eng)}
}

// Fit is the raw result of a sampling or variational run: pooled draws per
// parameter plus, for sampling, the per-chain draws they were pooled from.
type Fit struct {
	Model      engine.CompiledModel
	ParamNames []string
	Draws      map[string][]float64
	Chains     []map[string][]float64
}

// prepare runs the shared front half of every driver: load and transform
// the data, generate the model program, and fetch a compiled model through
// the cache.
func (r *Runner) prepare(ctx context.Context, dataPath string, priors []string, modelName string) (*dataset.Dataset, engine.CompiledModel, bool, error) {
	ds, err := dataset.Load(dataPath)
	if err != nil {
		return nil, nil, false, fmt.Errorf("load data: %w", err)
	}
	code, err := stancode.Generate(priors)
	if err != nil {
		// A bad prior override is a configuration mistake, same as a bad
		// warmup or algorithm.
		return nil, nil, false, &ConfigError{Field: "priors", Message: err.Error()}
	}
	model, hit, err := r.Cache.Get(ctx, code, modelName)
	if err != nil {
		return nil, nil, false, err
	}
	return ds, model, hit, nil
}

// record persists the run if a recorder is configured. Recording failures
// are logged, never fatal: the inference result is already in hand.
func (r *Runner) record(ctx context.Context, rep *report.Report, cfg any) {
	if r.Recorder == nil {
		return
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		slog.Warn("run not recorded: encode config", "run", rep.RunID, "error", err)
		return
	}
	if err := r.Recorder.Record(ctx, rep, cfgJSON); err != nil {
		slog.Warn("run not recorded", "run", rep.RunID, "error", err)
	}
}
