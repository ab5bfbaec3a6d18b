// Package dataset loads experimental pressure/rate measurements and prepares
// them for inference.
//
// The on-disk formats are a workbook with a sheet named "Data" holding
// "Pressure" and "Rate" columns, or a CSV file with the same two headers.
// Both columns are log-transformed on load: x = ln(pressure) and
// y = ln(|rate|). The absolute value on rate tolerates sign-convention
// differences between consumption and production rates.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Expected workbook layout.
const (
	SheetName      = "Data"
	PressureColumn = "Pressure"
	RateColumn     = "Rate"
)

// Dataset holds log-transformed experimental data ready for the inference
// engine. LogPressure and LogRate always have length N.
type Dataset struct {
	N           int
	LogPressure []float64
	LogRate     []float64
}

// StanData renders the dataset as the engine's named-input map.
func (d *Dataset) StanData() map[string]any {
	return map[string]any{
		"N": d.N,
		"x": d.LogPressure,
		"y": d.LogRate,
	}
}

// FormatError reports a structural problem with the input file: a missing
// sheet, missing column headers, or a cell that does not parse as a number.
type FormatError struct {
	Path    string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// NumericError reports a measurement value the log transform cannot accept.
type NumericError struct {
	Column string
	Row    int // zero-based data row
	Value  float64
}

func (e *NumericError) Error() string {
	if e.Column == PressureColumn {
		return fmt.Sprintf("%s row %d: value %g is not positive, log is undefined", e.Column, e.Row, e.Value)
	}
	return fmt.Sprintf("%s row %d: value %g is zero, log is undefined", e.Column, e.Row, e.Value)
}

// Load reads an input file, choosing the parser by extension: .csv is read as
// CSV, anything else as an Excel workbook.
func Load(path string) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(path)
	}
	return LoadWorkbook(path)
}

// LoadWorkbook reads the "Data" sheet of an .xlsx workbook.
// The first row must contain the column headers.
func LoadWorkbook(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, &FormatError{Path: path, Message: fmt.Sprintf("sheet %q not found", SheetName)}
	}
	return fromRows(path, rows)
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are caught by the header lookup
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return fromRows(path, rows)
}

// fromRows converts header + data rows into a log-transformed Dataset.
func fromRows(path string, rows [][]string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, &FormatError{Path: path, Message: "no header row"}
	}

	pressCol, rateCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case PressureColumn:
			pressCol = i
		case RateColumn:
			rateCol = i
		}
	}
	if pressCol < 0 {
		return nil, &FormatError{Path: path, Message: fmt.Sprintf("column %q not found", PressureColumn)}
	}
	if rateCol < 0 {
		return nil, &FormatError{Path: path, Message: fmt.Sprintf("column %q not found", RateColumn)}
	}

	ds := &Dataset{}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		press, err := cellFloat(path, row, pressCol, i)
		if err != nil {
			return nil, err
		}
		rate, err := cellFloat(path, row, rateCol, i)
		if err != nil {
			return nil, err
		}
		if press <= 0 {
			return nil, &NumericError{Column: PressureColumn, Row: i, Value: press}
		}
		if rate == 0 {
			return nil, &NumericError{Column: RateColumn, Row: i, Value: rate}
		}
		ds.LogPressure = append(ds.LogPressure, math.Log(press))
		ds.LogRate = append(ds.LogRate, math.Log(math.Abs(rate)))
	}
	ds.N = len(ds.LogPressure)
	if ds.N == 0 {
		return nil, &FormatError{Path: path, Message: "no data rows"}
	}
	return ds, nil
}

func cellFloat(path string, row []string, col, dataRow int) (float64, error) {
	if col >= len(row) || strings.TrimSpace(row[col]) == "" {
		return 0, &FormatError{Path: path, Message: fmt.Sprintf("row %d: missing value in column %d", dataRow, col)}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil {
		return 0, &FormatError{Path: path, Message: fmt.Sprintf("row %d: %q is not numeric", dataRow, row[col])}
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
