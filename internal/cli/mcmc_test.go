package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/report"
	"github.com/reactionlab/kinfer/internal/testutil"
)

func TestMCMCCommandText(t *testing.T) {
	dataPath := testutil.DataCSV(t)
	fake := engine.NewFake()

	buf := &bytes.Buffer{}
	cmd := newMCMCCommand(&RootOptions{Format: "text"}, fake)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--chains", "2", "--iters", "200"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 1, fake.SampleCalls)

	out := buf.String()
	assert.Contains(t, out, "run ")
	assert.Contains(t, out, "mode=mcmc")
	assert.Contains(t, out, "rxn_ord")
	assert.Contains(t, out, "Runtime (min):")
}

func TestMCMCCommandJSON(t *testing.T) {
	dataPath := testutil.DataCSV(t)

	buf := &bytes.Buffer{}
	cmd := newMCMCCommand(&RootOptions{Format: "json"}, engine.NewFake())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--iters", "200"})

	require.NoError(t, cmd.Execute())

	var rep report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, report.ModeSampling, rep.Mode)
	assert.NotEmpty(t, rep.RunID)
	assert.NotZero(t, rep.Seed)
	require.NotNil(t, rep.Summary)
	assert.Equal(t, []string{"", "mean", "sd", "2.5%", "25%", "50%", "75%", "97.5%"}, rep.Summary.Headers)
}

func TestMCMCCommandConfigError(t *testing.T) {
	dataPath := testutil.DataCSV(t)
	fake := engine.NewFake()

	cmd := newMCMCCommand(&RootOptions{Format: "text"}, fake)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--iters", "100", "--warmup", "100"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	// The bad config never reaches the engine.
	assert.Equal(t, 0, fake.CompileCalls)
	assert.Equal(t, 0, fake.SampleCalls)
}

func TestMCMCCommandNoData(t *testing.T) {
	cmd := newMCMCCommand(&RootOptions{Format: "text"}, engine.NewFake())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--cache-dir", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no data file")
}

func TestMCMCCommandFlagOverridesAnalysis(t *testing.T) {
	dataPath := testutil.DataCSV(t)

	// The analysis file on its own is invalid: warmup exceeds the budget.
	analysisPath := writeAnalysisFile(t, `
analysis: {
	data: "`+dataPath+`"
	mcmc: {
		iters:  100
		warmup: 200
	}
}
`)

	cmd := newMCMCCommand(&RootOptions{Format: "text"}, engine.NewFake())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--analysis", analysisPath, "--cache-dir", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// The flag wins over the analysis setting, making the run valid.
	cmd = newMCMCCommand(&RootOptions{Format: "text"}, engine.NewFake())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--analysis", analysisPath, "--cache-dir", t.TempDir(), "--warmup", "50"})

	require.NoError(t, cmd.Execute())
}

func TestMCMCCommandUnknownPrior(t *testing.T) {
	dataPath := testutil.DataCSV(t)

	cmd := newMCMCCommand(&RootOptions{Format: "text"}, engine.NewFake())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--iters", "200",
		"--prior", "nuisance ~ normal(0, 1)"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "nuisance")
}

func TestMCMCCommandWorkbookInput(t *testing.T) {
	dataPath := testutil.DataWorkbook(t)

	buf := &bytes.Buffer{}
	cmd := newMCMCCommand(&RootOptions{Format: "text"}, engine.NewFake())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--iters", "200"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "rxn_ord")
}
