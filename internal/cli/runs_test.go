package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactionlab/kinfer/internal/engine"
	"github.com/reactionlab/kinfer/internal/report"
	"github.com/reactionlab/kinfer/internal/testutil"
)

// recordRun executes a MAP run against the given ledger and returns its
// run ID.
func recordRun(t *testing.T, ledgerPath string) string {
	t.Helper()
	dataPath := testutil.DataCSV(t)

	buf := &bytes.Buffer{}
	cmd := newMAPCommand(&RootOptions{Format: "json"}, engine.NewFake())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dataPath, "--cache-dir", t.TempDir(), "--ledger", ledgerPath})
	require.NoError(t, cmd.Execute())

	var rep report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	return rep.RunID
}

func TestRunsMissingLedgerFlag(t *testing.T) {
	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "ledger")
}

func TestRunsEmptyLedger(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--ledger", ledgerPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no recorded runs")
}

func TestRunsListsRecordedRuns(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, ledgerPath)

	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--ledger", ledgerPath})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "map")
}

func TestRunsShowSingleRun(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, ledgerPath)

	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--ledger", ledgerPath, "--run", runID})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "mode=map")
	assert.Contains(t, out, "code hash:")
	assert.Contains(t, out, "Runtime (min):")
}

func TestRunsShowUnknownRun(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, ledgerPath)

	cmd := NewRunsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--ledger", ledgerPath, "--run", "no-such-run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunsJSON(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, ledgerPath)

	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--ledger", ledgerPath})

	require.NoError(t, cmd.Execute())

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, runID, entries[0]["RunID"])
}
