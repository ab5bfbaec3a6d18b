package infer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// diagnosticHeaderLines is the fixed number of header lines the engine
// writes before the iteration records in a diagnostic file.
const diagnosticHeaderLines = 21

// elboPoint is one iteration record from a variational diagnostic file.
type elboPoint struct {
	Iter int
	Time float64
	ELBO float64
}

// readDiagnostics parses a variational diagnostic file: the fixed header
// block, then one "iteration,time,elbo" row per ELBO evaluation.
func readDiagnostics(path string) ([]elboPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic file %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var points []elboPoint
	line := 0
	for sc.Scan() {
		line++
		if line <= diagnosticHeaderLines {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("diagnostic file %s line %d: want 3 fields, got %d", path, line, len(fields))
		}
		iter, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("diagnostic file %s line %d: iteration: %w", path, line, err)
		}
		elapsed, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("diagnostic file %s line %d: time: %w", path, line, err)
		}
		elbo, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("diagnostic file %s line %d: elbo: %w", path, line, err)
		}
		points = append(points, elboPoint{Iter: int(iter), Time: elapsed, ELBO: elbo})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read diagnostic file %s: %w", path, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("diagnostic file %s has no iteration records", path)
	}
	return points, nil
}
