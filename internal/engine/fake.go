package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
)

// Fake is a deterministic in-memory Engine for tests.
//
// It produces draws scattered tightly around configurable center values, so
// driver plumbing (pooling, summaries, tables) can be asserted exactly
// without an engine installation. Call counts are recorded so tests can
// verify, for example, that a config error short-circuits before any engine
// contact. Fake lives in the production package so every consumer's tests
// share one implementation.
type Fake struct {
	mu sync.Mutex

	// Centers maps parameter name to the value draws cluster around.
	// Defaults to intercept=2.303, rxn_ord=1, sigma=0.01.
	Centers map[string]float64

	// ParamOrder is the engine's column order. Defaults to
	// [intercept, rxn_ord, sigma].
	ParamOrder []string

	// FinalIter, when nonzero, is the last iteration the variational
	// diagnostic file records. Defaults to min(1000, args.Iters).
	FinalIter int

	// FinalELBO is the ELBO value the diagnostic record converges to.
	// Defaults to -12.5.
	FinalELBO float64

	// CompileErr, when set, is returned by Compile.
	CompileErr error

	CompileCalls     int
	LoadCalls        int
	SampleCalls      int
	VariationalCalls int
	OptimizeCalls    int
}

// NewFake returns a Fake centered on the perfect log-linear dataset's
// analytic solution.
func NewFake() *Fake {
	return &Fake{
		Centers: map[string]float64{
			"intercept": math.Log(10),
			"rxn_ord":   1,
			"sigma":     0.01,
		},
		ParamOrder: []string{"intercept", "rxn_ord", "sigma"},
	}
}

// Compile records the call and returns a model backed by this fake.
// The "binary" is a marker derived from the code so cache round-trips are
// observable.
func (f *Fake) Compile(ctx context.Context, code, name string) (CompiledModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CompileCalls++
	if f.CompileErr != nil {
		return nil, f.CompileErr
	}
	art := &Artifact{
		ModelName: name,
		StanCode:  code,
		Binary:    []byte("fake-binary:" + name),
	}
	return &fakeModel{eng: f, art: art}, nil
}

// Load records the call and wraps the artifact without recompiling.
func (f *Fake) Load(art *Artifact) (CompiledModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadCalls++
	return &fakeModel{eng: f, art: art}, nil
}

type fakeModel struct {
	eng *Fake
	art *Artifact
}

func (m *fakeModel) Artifact() *Artifact { return m.art }

// paramNames returns the model parameter order with lp__ appended, matching
// the real engine's output shape.
func (m *fakeModel) paramNames() []string {
	names := make([]string, len(m.eng.ParamOrder), len(m.eng.ParamOrder)+1)
	copy(names, m.eng.ParamOrder)
	return append(names, "lp__")
}

// draw produces the i-th deterministic draw for a parameter: the center
// value plus a small bounded wobble.
func (m *fakeModel) draw(param string, i int) float64 {
	center := m.eng.Centers[param]
	if param == "lp__" {
		center = -5
	}
	return center + 0.001*math.Sin(float64(i+1)*1.7)
}

func (m *fakeModel) Sample(ctx context.Context, data Data, args SampleArgs) (*SampleOutput, error) {
	m.eng.mu.Lock()
	m.eng.SampleCalls++
	m.eng.mu.Unlock()

	out := &SampleOutput{ParamNames: m.paramNames()}
	for c := 0; c < args.Chains; c++ {
		chain := make(map[string][]float64, len(out.ParamNames))
		for _, p := range out.ParamNames {
			draws := make([]float64, args.SamplesPerChain)
			for i := range draws {
				draws[i] = m.draw(p, c*args.SamplesPerChain+i)
			}
			chain[p] = draws
		}
		out.Chains = append(out.Chains, chain)
	}
	return out, nil
}

func (m *fakeModel) Variational(ctx context.Context, data Data, args VariationalArgs) (*VariationalOutput, error) {
	m.eng.mu.Lock()
	m.eng.VariationalCalls++
	m.eng.mu.Unlock()

	if err := m.writeVariationalFiles(args); err != nil {
		return nil, err
	}

	out := &VariationalOutput{
		ParamNames: m.paramNames(),
		Draws:      make(map[string][]float64, len(m.eng.ParamOrder)+1),
	}
	for _, p := range out.ParamNames {
		draws := make([]float64, args.OutputSamples)
		for i := range draws {
			draws[i] = m.draw(p, i)
		}
		out.Draws[p] = draws
	}
	return out, nil
}

// writeVariationalFiles emulates the engine's file side effects: a sample
// CSV and a diagnostic CSV with the fixed header block followed by
// iteration,time,elbo rows.
func (m *fakeModel) writeVariationalFiles(args VariationalArgs) error {
	var sample strings.Builder
	sample.WriteString("# fake variational sample output\n")
	sample.WriteString(strings.Join(m.paramNames(), ",") + "\n")
	// Mean row first, mirroring the real engine, then two draws.
	for i := 0; i < 3; i++ {
		vals := make([]string, 0, len(m.paramNames()))
		for _, p := range m.paramNames() {
			vals = append(vals, fmt.Sprintf("%g", m.draw(p, i)))
		}
		sample.WriteString(strings.Join(vals, ",") + "\n")
	}
	if err := os.WriteFile(args.SampleFile, []byte(sample.String()), 0o644); err != nil {
		return fmt.Errorf("write fake sample file: %w", err)
	}

	finalIter := m.eng.FinalIter
	if finalIter == 0 {
		finalIter = 1000
		if args.Iters < finalIter {
			finalIter = args.Iters
		}
	}
	finalELBO := m.eng.FinalELBO
	if finalELBO == 0 {
		finalELBO = -12.5
	}

	var diag strings.Builder
	for i := 0; i < 21; i++ {
		fmt.Fprintf(&diag, "# fake diagnostic header line %d\n", i+1)
	}
	step := args.EvalELBO
	if step <= 0 {
		step = 100
	}
	for iter := step; iter <= finalIter; iter += step {
		progress := float64(iter) / float64(finalIter)
		elbo := finalELBO * (2 - progress) // approaches finalELBO from below
		fmt.Fprintf(&diag, "%d,%g,%g\n", iter, float64(iter)*1e-4, elbo)
	}
	if err := os.WriteFile(args.DiagnosticFile, []byte(diag.String()), 0o644); err != nil {
		return fmt.Errorf("write fake diagnostic file: %w", err)
	}
	return nil
}

func (m *fakeModel) Optimize(ctx context.Context, data Data, args OptimizeArgs) (*OptimizeOutput, error) {
	m.eng.mu.Lock()
	m.eng.OptimizeCalls++
	m.eng.mu.Unlock()

	out := &OptimizeOutput{
		ParamNames: append([]string(nil), m.eng.ParamOrder...),
		Estimates:  make(map[string]float64, len(m.eng.ParamOrder)),
	}
	for _, p := range out.ParamNames {
		out.Estimates[p] = m.eng.Centers[p]
	}
	return out, nil
}
