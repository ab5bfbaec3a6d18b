package infer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDiagnosticFile(t *testing.T, rows string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < diagnosticHeaderLines; i++ {
		fmt.Fprintf(&b, "# header line %d\n", i+1)
	}
	b.WriteString(rows)
	path := filepath.Join(t.TempDir(), "diagnostics.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestReadDiagnostics(t *testing.T) {
	path := writeDiagnosticFile(t, "100,0.01,-45.2\n200,0.02,-30.1\n300,0.03,-12.9\n")

	points, err := readDiagnostics(path)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 100, points[0].Iter)
	assert.InDelta(t, -45.2, points[0].ELBO, 1e-12)
	assert.Equal(t, 300, points[2].Iter)
	assert.InDelta(t, 0.03, points[2].Time, 1e-12)
}

func TestReadDiagnosticsEmptyRecord(t *testing.T) {
	path := writeDiagnosticFile(t, "")
	_, err := readDiagnostics(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no iteration records")
}

func TestReadDiagnosticsBadRow(t *testing.T) {
	path := writeDiagnosticFile(t, "100,0.01\n")
	_, err := readDiagnostics(path)
	require.Error(t, err)
}

func TestReadDiagnosticsMissingFile(t *testing.T) {
	_, err := readDiagnostics(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
