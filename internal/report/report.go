// Package report holds the structured results of an inference run and
// renders them for people.
//
// Drivers build a Report as a plain value: tables, warnings, notes, the seed
// that was used, runtime. Nothing in here prints as a side effect of
// inference; rendering to a writer and plotting to files are explicit calls
// a presentation layer makes. That keeps the computation testable and the
// output format swappable.
package report

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Mode identifies which inference driver produced a report.
type Mode string

const (
	ModeSampling     Mode = "mcmc"
	ModeVariational  Mode = "vi"
	ModeOptimization Mode = "map"
)

// Table is a rendered-ready grid: a header row and string cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Report is the structured outcome of one inference run.
type Report struct {
	RunID      string   `json:"run_id"`
	Mode       Mode     `json:"mode"`
	ModelName  string   `json:"model_name"`
	CodeHash   string   `json:"code_hash"`
	Seed       int64    `json:"seed"`
	CacheHit   bool     `json:"cache_hit"`
	Summary    *Table   `json:"summary,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Notes      []string `json:"notes,omitempty"`
	PlotFiles  []string `json:"plot_files,omitempty"`
	RuntimeMin float64  `json:"runtime_min"`
}

// New creates a report for a run, assigning it a fresh run ID.
func New(mode Mode, modelName string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Mode:      mode,
		ModelName: modelName,
	}
}

// AddWarning appends a warning line.
func (r *Report) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddNote appends an informational line.
func (r *Report) AddNote(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// numPrinter formats large counts with digit grouping for readability.
var numPrinter = message.NewPrinter(language.English)

// AddNonConvergenceWarning records that the variational optimizer ran out of
// its iteration budget before meeting the tolerance.
func (r *Report) AddNonConvergenceWarning(iters int) {
	r.Warnings = append(r.Warnings, numPrinter.Sprintf(
		"The maximum number of iterations (%d) was reached. The algorithm may not have converged. Consider increasing the iteration budget by a factor of 10.",
		iters))
}

// AddRhatWarning records that a parameter's chains disagree.
func (r *Report) AddRhatWarning(param string, rhat float64) {
	r.AddWarning("split R-hat for %s is %.3f (above 1.01): chains have not mixed, inspect trace plots and rerun with more iterations", param, rhat)
}

// AddConvergenceReminder records the standing advice for variational runs.
func (r *Report) AddConvergenceReminder() {
	r.AddNote("Check the Convergence of ELBO plot: the points should approach and stabilize at a maximum value, with at least 10,000 iterations. If not converged, rerun with a doubled eta (default 0.2). Run twice with different random seeds and confirm the results agree.")
}
