package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Render writes a human-readable rendering of the report: identity line,
// warnings, the summary table, notes, and the runtime line.
func Render(w io.Writer, r *Report) {
	fmt.Fprintf(w, "run %s  mode=%s  model=%s  seed=%d\n", r.RunID, r.Mode, r.ModelName, r.Seed)
	if r.CacheHit {
		fmt.Fprintln(w, "Using cached model")
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "WARNING: %s\n", warning)
	}

	if r.Summary != nil {
		RenderTable(w, r.Summary)
	}

	for _, note := range r.Notes {
		fmt.Fprintln(w, note)
	}
	for _, plot := range r.PlotFiles {
		fmt.Fprintf(w, "plot written: %s\n", plot)
	}

	fmt.Fprintf(w, "Runtime (min): %.4f\n", r.RuntimeMin)
}

// RenderTable draws a grid table in the plain style of the estimate tables.
func RenderTable(w io.Writer, t *Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Headers)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range t.Rows {
		tw.Append(row)
	}
	tw.Render()
}
