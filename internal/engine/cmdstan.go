package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// CmdStan runs models through a CmdStan installation.
//
// Compile invokes CmdStan's make on a .stan file written into WorkDir and
// captures the produced executable. Model runs exec that executable with the
// method-specific argument list and read back its CSV output.
type CmdStan struct {
	// Root is the CmdStan installation directory (where make is run).
	Root string

	// WorkDir holds model sources, executables, data files, and run output.
	// Created on demand.
	WorkDir string
}

// NewCmdStan returns an engine backed by the CmdStan installation at root.
// Run artifacts are kept under workDir.
func NewCmdStan(root, workDir string) *CmdStan {
	return &CmdStan{Root: root, WorkDir: workDir}
}

// Compile writes the program text to WorkDir and builds it with CmdStan's
// make. Blocking for the duration of the build.
func (c *CmdStan) Compile(ctx context.Context, code, name string) (CompiledModel, error) {
	if name == "" {
		name = "model"
	}
	if err := os.MkdirAll(c.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	srcPath, err := filepath.Abs(filepath.Join(c.WorkDir, name+".stan"))
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("write model source: %w", err)
	}

	target := strings.TrimSuffix(srcPath, ".stan")
	slog.Info("compiling model", "name", name, "target", target)

	cmd := exec.CommandContext(ctx, "make", target)
	cmd.Dir = c.Root
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("compile model %s: %w\n%s", name, err, out)
	}

	binary, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read compiled model: %w", err)
	}

	art := &Artifact{ModelName: name, StanCode: code, Binary: binary}
	return &cmdstanModel{eng: c, art: art, exePath: target}, nil
}

// Load materializes a cached artifact into a runnable model without
// recompiling. The executable is rewritten only if absent from WorkDir.
func (c *CmdStan) Load(art *Artifact) (CompiledModel, error) {
	name := art.ModelName
	if name == "" {
		name = "model"
	}
	if err := os.MkdirAll(c.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	exePath, err := filepath.Abs(filepath.Join(c.WorkDir, name))
	if err != nil {
		return nil, fmt.Errorf("resolve executable path: %w", err)
	}
	if _, statErr := os.Stat(exePath); statErr != nil {
		if err := os.WriteFile(exePath, art.Binary, 0o755); err != nil {
			return nil, fmt.Errorf("materialize cached model: %w", err)
		}
	}
	return &cmdstanModel{eng: c, art: art, exePath: exePath}, nil
}

// cmdstanModel is a compiled model executable plus its provenance.
type cmdstanModel struct {
	eng     *CmdStan
	art     *Artifact
	exePath string
}

func (m *cmdstanModel) Artifact() *Artifact { return m.art }

// Sample runs args.Chains sampling chains, at most args.Jobs concurrently.
// Chain-level parallelism is the only concurrency in the whole system and it
// stays inside this method.
func (m *cmdstanModel) Sample(ctx context.Context, data Data, args SampleArgs) (*SampleOutput, error) {
	dataPath, err := m.writeData(data)
	if err != nil {
		return nil, err
	}

	outPaths := make([]string, args.Chains)
	g, gctx := errgroup.WithContext(ctx)
	if args.Jobs > 0 {
		g.SetLimit(args.Jobs)
	}
	for i := 0; i < args.Chains; i++ {
		chain := i
		outPaths[chain] = filepath.Join(m.eng.WorkDir, fmt.Sprintf("%s-chain-%d.csv", m.art.ModelName, chain+1))
		g.Go(func() error {
			return m.runChain(gctx, dataPath, outPaths[chain], chain, args)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SampleOutput{}
	for _, p := range outPaths {
		t, err := parseOutputFile(p)
		if err != nil {
			return nil, err
		}
		if out.ParamNames == nil {
			out.ParamNames = modelParamNames(t.names)
		}
		out.Chains = append(out.Chains, t.draws(out.ParamNames))
	}
	return out, nil
}

// runChain execs one sampling chain. Chains share a seed and differ by id,
// so the engine derives independent streams from one auditable seed.
func (m *cmdstanModel) runChain(ctx context.Context, dataPath, outPath string, chain int, args SampleArgs) error {
	argv := []string{
		"sample",
		fmt.Sprintf("num_samples=%d", args.SamplesPerChain),
		fmt.Sprintf("num_warmup=%d", args.Warmup),
		"save_warmup=0",
		"adapt", fmt.Sprintf("delta=%g", args.AdaptDelta),
		"algorithm=hmc", "engine=nuts", fmt.Sprintf("max_depth=%d", args.MaxTreeDepth),
	}
	if args.Inits != nil {
		initPath, err := m.writeInit(args.Inits[chain], chain)
		if err != nil {
			return err
		}
		argv = append(argv, "init="+initPath)
	}
	argv = append(argv,
		"data", "file="+dataPath,
		"random", fmt.Sprintf("seed=%d", args.Seed),
		fmt.Sprintf("id=%d", chain+1),
		"output", "file="+outPath,
	)

	slog.Debug("running chain", "model", m.art.ModelName, "chain", chain+1, "seed", args.Seed)
	cmd := exec.CommandContext(ctx, m.exePath, argv...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("chain %d: %w\n%s", chain+1, err, out)
	}
	return nil
}

// Variational runs the ADVI optimizer. Draw output lands in args.SampleFile
// and the per-iteration ELBO record in args.DiagnosticFile; both are left in
// place for the caller's convergence post-processing.
func (m *cmdstanModel) Variational(ctx context.Context, data Data, args VariationalArgs) (*VariationalOutput, error) {
	dataPath, err := m.writeData(data)
	if err != nil {
		return nil, err
	}

	engaged := 0
	if args.AdaptEngaged {
		engaged = 1
	}
	argv := []string{
		"variational",
		"algorithm=" + args.Algorithm,
		fmt.Sprintf("iter=%d", args.Iters),
		fmt.Sprintf("grad_samples=%d", args.GradSamples),
		fmt.Sprintf("elbo_samples=%d", args.ELBOSamples),
		fmt.Sprintf("eta=%g", args.Eta),
		"adapt", fmt.Sprintf("engaged=%d", engaged), fmt.Sprintf("iter=%d", args.AdaptIter),
		fmt.Sprintf("tol_rel_obj=%g", args.TolRelObj),
		fmt.Sprintf("eval_elbo=%d", args.EvalELBO),
		fmt.Sprintf("output_samples=%d", args.OutputSamples),
		"data", "file="+dataPath,
		"random", fmt.Sprintf("seed=%d", args.Seed),
		"output",
		"file="+args.SampleFile,
		"diagnostic_file="+args.DiagnosticFile,
	}

	slog.Debug("running variational fit", "model", m.art.ModelName, "algorithm", args.Algorithm, "seed", args.Seed)
	cmd := exec.CommandContext(ctx, m.exePath, argv...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("variational fit: %w\n%s", err, out)
	}

	t, err := parseOutputFile(args.SampleFile)
	if err != nil {
		return nil, err
	}
	// First row is the approximation mean, not a draw.
	t.dropFirstDraw()

	names := modelParamNames(t.names)
	return &VariationalOutput{ParamNames: names, Draws: t.draws(names)}, nil
}

// Optimize runs the penalized optimizer and returns the single row of point
// estimates it writes.
func (m *cmdstanModel) Optimize(ctx context.Context, data Data, args OptimizeArgs) (*OptimizeOutput, error) {
	dataPath, err := m.writeData(data)
	if err != nil {
		return nil, err
	}

	argv := []string{"optimize"}
	if args.Inits != nil {
		initPath, err := m.writeInit(args.Inits, 0)
		if err != nil {
			return nil, err
		}
		argv = append(argv, "init="+initPath)
	}
	outPath := filepath.Join(m.eng.WorkDir, m.art.ModelName+"-optimize.csv")
	argv = append(argv,
		"data", "file="+dataPath,
		"random", fmt.Sprintf("seed=%d", args.Seed),
		"output", "file="+outPath,
	)

	slog.Debug("running optimization", "model", m.art.ModelName, "seed", args.Seed)
	cmd := exec.CommandContext(ctx, m.exePath, argv...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("optimize: %w\n%s", err, out)
	}

	t, err := parseOutputFile(outPath)
	if err != nil {
		return nil, err
	}
	if t.nDraws() == 0 {
		return nil, fmt.Errorf("optimize output %s has no estimate row", outPath)
	}

	out := &OptimizeOutput{Estimates: make(map[string]float64)}
	for _, n := range t.names {
		if strings.HasSuffix(n, "__") {
			continue
		}
		out.ParamNames = append(out.ParamNames, n)
		out.Estimates[n] = t.cols[n][0]
	}
	return out, nil
}

func (m *cmdstanModel) writeData(data Data) (string, error) {
	path := filepath.Join(m.eng.WorkDir, m.art.ModelName+"-data.json")
	buf, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write data file: %w", err)
	}
	return path, nil
}

func (m *cmdstanModel) writeInit(init map[string]float64, chain int) (string, error) {
	path := filepath.Join(m.eng.WorkDir, fmt.Sprintf("%s-init-%d.json", m.art.ModelName, chain+1))
	buf, err := json.Marshal(init)
	if err != nil {
		return "", fmt.Errorf("encode inits: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write init file: %w", err)
	}
	return path, nil
}

func parseOutputFile(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open engine output %s: %w", path, err)
	}
	defer f.Close()
	t, err := parseStanCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse engine output %s: %w", path, err)
	}
	return t, nil
}
