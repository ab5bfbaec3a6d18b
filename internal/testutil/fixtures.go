// Package testutil provides shared deterministic fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// DataCSV writes the perfect first-order dataset to a temp file and returns
// its path: rate = 10 * pressure, so in log space the slope is exactly 1
// and the intercept ln(10).
func DataCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Pressure,Rate\n1,10\n2,20\n4,40\n8,80\n"), 0644))
	return path
}

// DataWorkbook writes the same perfect first-order dataset as an xlsx
// workbook with the standard "Data" sheet layout.
func DataWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Data")
	require.NoError(t, err)

	rows := [][]any{
		{"Pressure", "Rate"},
		{1.0, 10.0},
		{2.0, 20.0},
		{4.0, 40.0},
		{8.0, 80.0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Data", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
