package report

import (
	"fmt"

	"github.com/reactionlab/kinfer/internal/stats"
)

// summaryHeaders matches the layout of the estimate tables: a blank corner
// cell over the parameter names, then the summary statistic columns.
var summaryHeaders = []string{"", "mean", "sd", "2.5%", "25%", "50%", "75%", "97.5%"}

// SummaryTable tabulates per-parameter summary statistics for the named
// draws, one row per name in order, cells rounded to two decimals.
func SummaryTable(names []string, draws map[string][]float64) *Table {
	t := &Table{Headers: summaryHeaders}
	for _, name := range names {
		s := stats.Summarize(draws[name])
		t.Rows = append(t.Rows, []string{
			name,
			round2(s.Mean),
			round2(s.SD),
			round2(s.Q2_5),
			round2(s.Q25),
			round2(s.Q50),
			round2(s.Q75),
			round2(s.Q97_5),
		})
	}
	return t
}

// EstimateTable tabulates point estimates, one row per name in order.
func EstimateTable(names []string, estimates map[string]float64) *Table {
	t := &Table{Headers: []string{"Parameter", "Estimate"}}
	for _, name := range names {
		t.Rows = append(t.Rows, []string{name, round2(estimates[name])})
	}
	return t
}

func round2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
