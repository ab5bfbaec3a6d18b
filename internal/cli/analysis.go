package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Analysis is a declarative run definition loaded from a CUE file. Flags
// given on the command line take precedence over anything set here.
type Analysis struct {
	Data   string   `json:"data"`
	Model  string   `json:"model"`
	Priors []string `json:"priors"`

	MCMC *MCMCSettings `json:"mcmc"`
	VI   *VISettings   `json:"vi"`
	MAP  *MAPSettings  `json:"map"`
}

// MCMCSettings are the sampling knobs an analysis file may set.
// Zero values mean "not set".
type MCMCSettings struct {
	Chains       int     `json:"chains"`
	Iters        int     `json:"iters"`
	Warmup       int     `json:"warmup"`
	Jobs         int     `json:"jobs"`
	AdaptDelta   float64 `json:"adapt_delta"`
	MaxTreeDepth int     `json:"max_treedepth"`
	Seed         int64   `json:"seed"`
}

// VISettings are the variational knobs an analysis file may set.
type VISettings struct {
	Algorithm      string  `json:"algorithm"`
	Iters          int     `json:"iters"`
	TolRelObj      float64 `json:"tol_rel_obj"`
	Eta            float64 `json:"eta"`
	AdaptEngaged   bool    `json:"adapt_engaged"`
	OutputSamples  int     `json:"output_samples"`
	SampleFile     string  `json:"sample_file"`
	DiagnosticFile string  `json:"diagnostic_file"`
	Seed           int64   `json:"seed"`
}

// MAPSettings are the optimization knobs an analysis file may set.
type MAPSettings struct {
	Seed int64 `json:"seed"`
}

// LoadAnalysis reads and evaluates a CUE analysis file. The file must carry
// a top-level "analysis" struct.
func LoadAnalysis(path string) (*Analysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis file: %w", err)
	}

	ctx := cuecontext.New()
	val := ctx.CompileBytes(src, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("evaluate analysis file %s: %w", path, err)
	}

	analysisVal := val.LookupPath(cue.ParsePath("analysis"))
	if !analysisVal.Exists() {
		return nil, fmt.Errorf("analysis file %s: no top-level \"analysis\" struct", path)
	}
	if err := analysisVal.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("analysis file %s: %w", path, err)
	}

	var a Analysis
	if err := analysisVal.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode analysis file %s: %w", path, err)
	}
	return &a, nil
}

// priorsFile is the YAML shape of a standalone priors file.
type priorsFile struct {
	Priors []string `yaml:"priors"`
}

// LoadPriors reads prior-override strings from a YAML file of the form:
//
//	priors:
//	  - "sigma ~ cauchy(0, 5)"
func LoadPriors(path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read priors file: %w", err)
	}
	var pf priorsFile
	if err := yaml.Unmarshal(src, &pf); err != nil {
		return nil, fmt.Errorf("parse priors file %s: %w", path, err)
	}
	return pf.Priors, nil
}
