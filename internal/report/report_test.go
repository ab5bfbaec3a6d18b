package report

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignsRunID(t *testing.T) {
	r := New(ModeSampling, "rxn_ord")
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, ModeSampling, r.Mode)
	assert.NotEqual(t, r.RunID, New(ModeSampling, "rxn_ord").RunID)
}

func TestSummaryTableShape(t *testing.T) {
	draws := map[string][]float64{
		"intercept": {2.0, 2.1, 2.2},
		"rxn_ord":   {1.0, 1.0, 1.0},
	}
	tab := SummaryTable([]string{"intercept", "rxn_ord"}, draws)

	assert.Equal(t, []string{"", "mean", "sd", "2.5%", "25%", "50%", "75%", "97.5%"}, tab.Headers)
	require.Len(t, tab.Rows, 2)
	assert.Equal(t, "intercept", tab.Rows[0][0])
	assert.Equal(t, "rxn_ord", tab.Rows[1][0])
	assert.Equal(t, "1.00", tab.Rows[1][1])
	assert.Equal(t, "0.00", tab.Rows[1][2])
}

func TestEstimateTable(t *testing.T) {
	tab := EstimateTable([]string{"intercept", "rxn_ord", "sigma"}, map[string]float64{
		"intercept": 2.30258,
		"rxn_ord":   0.999,
		"sigma":     0.005,
	})
	assert.Equal(t, []string{"Parameter", "Estimate"}, tab.Headers)
	require.Len(t, tab.Rows, 3)
	assert.Equal(t, []string{"intercept", "2.30"}, tab.Rows[0])
	assert.Equal(t, []string{"rxn_ord", "1.00"}, tab.Rows[1])
	assert.Equal(t, []string{"sigma", "0.01"}, tab.Rows[2])
}

func TestRenderGolden(t *testing.T) {
	r := &Report{
		RunID:     "00000000-0000-0000-0000-000000000000",
		Mode:      ModeOptimization,
		ModelName: "rxn_ord",
		Seed:      42,
		CacheHit:  true,
		Summary: EstimateTable([]string{"intercept", "rxn_ord", "sigma"}, map[string]float64{
			"intercept": 2.3,
			"rxn_ord":   1.0,
			"sigma":     0.01,
		}),
		RuntimeMin: 0.0123,
	}
	r.AddNote("done")

	var buf bytes.Buffer
	Render(&buf, r)

	g := goldie.New(t)
	g.Assert(t, "render_map", buf.Bytes())
}

func TestRenderWarnings(t *testing.T) {
	r := New(ModeVariational, "rxn_ord")
	r.AddNonConvergenceWarning(2000000)

	var buf bytes.Buffer
	Render(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "WARNING:")
	assert.Contains(t, out, "2,000,000")
	assert.Contains(t, out, "may not have converged")
}

func TestAddRhatWarning(t *testing.T) {
	r := New(ModeSampling, "m")
	r.AddRhatWarning("sigma", 1.21)
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "sigma")
	assert.Contains(t, r.Warnings[0], "1.210")
}

func TestELBOYRange(t *testing.T) {
	// Last third of nine points is points 7-9 (values -10), doubled.
	elbos := []float64{-100, -90, -80, -70, -60, -50, -10, -10, -10}
	assert.InDelta(t, -20.0, ELBOYRange(elbos), 1e-9)

	assert.InDelta(t, 8.0, ELBOYRange([]float64{1, 2, 4}), 1e-9)
	assert.Equal(t, 0.0, ELBOYRange(nil))
}

func TestTracePlotsWritesFiles(t *testing.T) {
	dir := t.TempDir()
	draws := map[string][]float64{
		"intercept": {1, 2, 3},
		"sigma":     {0.1, 0.2, 0.3},
	}
	paths, err := TracePlots(dir, []string{"intercept", "sigma"}, draws)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestELBOPlotWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ELBOPlot(dir, []int{100, 200, 300}, []float64{-30, -20, -12})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
