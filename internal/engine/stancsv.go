package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvTable is a parsed engine output file: named columns of draws in the
// order the engine wrote them.
type csvTable struct {
	names []string
	cols  map[string][]float64
}

// parseStanCSV reads the engine's CSV output format: lines starting with '#'
// are comments, the first non-comment line is the header, every following
// non-comment line is one draw.
func parseStanCSV(r io.Reader) (*csvTable, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var t *csvTable
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if t == nil {
			t = &csvTable{
				names: fields,
				cols:  make(map[string][]float64, len(fields)),
			}
			continue
		}
		if len(fields) != len(t.names) {
			return nil, fmt.Errorf("row has %d fields, header has %d", len(fields), len(t.names))
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: parse %q: %w", t.names[i], f, err)
			}
			t.cols[t.names[i]] = append(t.cols[t.names[i]], v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan output: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("no header row in output")
	}
	return t, nil
}

// modelParamNames filters a header down to model parameters: every column
// not carrying the engine's "__" suffix, in column order, plus the
// log-posterior column "lp__" kept last when present.
func modelParamNames(names []string) []string {
	out := make([]string, 0, len(names))
	haveLP := false
	for _, n := range names {
		if n == "lp__" {
			haveLP = true
			continue
		}
		if strings.HasSuffix(n, "__") {
			continue
		}
		out = append(out, n)
	}
	if haveLP {
		out = append(out, "lp__")
	}
	return out
}

// draws extracts the named columns from the table.
func (t *csvTable) draws(names []string) map[string][]float64 {
	out := make(map[string][]float64, len(names))
	for _, n := range names {
		out[n] = t.cols[n]
	}
	return out
}

// nDraws returns the number of rows parsed.
func (t *csvTable) nDraws() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.cols[t.names[0]])
}

// dropFirstDraw removes the leading row from every column. The variational
// engine writes the approximation mean as the first row of its sample file
// before the actual draws.
func (t *csvTable) dropFirstDraw() {
	for n, col := range t.cols {
		if len(col) > 0 {
			t.cols[n] = col[1:]
		}
	}
}
