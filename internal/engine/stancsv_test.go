package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `# model = rxn_ord
# method = sample
lp__,accept_stat__,stepsize__,treedepth__,n_leapfrog__,divergent__,energy__,intercept,rxn_ord,sigma
-5.1,0.99,0.1,3,7,0,6.2,2.30,1.01,0.02
-5.2,0.98,0.1,3,7,0,6.3,2.31,0.99,0.01
# elapsed time: 0.1 seconds
`

func TestParseStanCSV(t *testing.T) {
	tab, err := parseStanCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, tab.nDraws())
	assert.Equal(t, []float64{2.30, 2.31}, tab.cols["intercept"])
	assert.Equal(t, []float64{1.01, 0.99}, tab.cols["rxn_ord"])
	assert.Equal(t, []float64{-5.1, -5.2}, tab.cols["lp__"])
}

func TestParseStanCSVRaggedRow(t *testing.T) {
	_, err := parseStanCSV(strings.NewReader("a,b\n1,2\n3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fields")
}

func TestParseStanCSVNonNumeric(t *testing.T) {
	_, err := parseStanCSV(strings.NewReader("a,b\n1,x\n"))
	require.Error(t, err)
}

func TestParseStanCSVEmpty(t *testing.T) {
	_, err := parseStanCSV(strings.NewReader("# only comments\n"))
	require.Error(t, err)
}

func TestModelParamNames(t *testing.T) {
	names := modelParamNames([]string{
		"lp__", "accept_stat__", "stepsize__", "intercept", "rxn_ord", "sigma",
	})
	assert.Equal(t, []string{"intercept", "rxn_ord", "sigma", "lp__"}, names)
}

func TestModelParamNamesWithoutLP(t *testing.T) {
	names := modelParamNames([]string{"divergent__", "intercept"})
	assert.Equal(t, []string{"intercept"}, names)
}

func TestDropFirstDraw(t *testing.T) {
	tab, err := parseStanCSV(strings.NewReader("a\n1\n2\n3\n"))
	require.NoError(t, err)
	tab.dropFirstDraw()
	assert.Equal(t, []float64{2, 3}, tab.cols["a"])
}
