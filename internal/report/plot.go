package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TracePlots writes one trace plot per parameter (draw index against value)
// as PNG files under dir, returning the written paths in parameter order.
func TracePlots(dir string, names []string, draws map[string][]float64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	var paths []string
	for _, name := range names {
		vals := draws[name]
		p := plot.New()
		p.Title.Text = "Trace of " + name
		p.X.Label.Text = "Draw"
		p.Y.Label.Text = name

		xys := make(plotter.XYs, len(vals))
		for i, v := range vals {
			xys[i].X = float64(i)
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("trace plot for %s: %w", name, err)
		}
		p.Add(line)

		path := filepath.Join(dir, "trace-"+name+".png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("save trace plot for %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ELBOPlot writes the variational convergence scatter plot: ELBO against
// iteration. The Y axis is clamped to twice the mean ELBO over the last
// third of the record, on whichever side of zero that lands.
func ELBOPlot(dir string, iters []int, elbos []float64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Convergence of ELBO"
	p.X.Label.Text = "Iterations"
	p.Y.Label.Text = "ELBO Value"

	xys := make(plotter.XYs, len(elbos))
	for i := range elbos {
		xys[i].X = float64(iters[i])
		xys[i].Y = elbos[i]
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return "", fmt.Errorf("elbo scatter: %w", err)
	}
	p.Add(scatter)

	if yRange := ELBOYRange(elbos); yRange > 0 {
		p.Y.Min, p.Y.Max = 0, yRange
	} else if yRange < 0 {
		p.Y.Min, p.Y.Max = yRange, 0
	}

	path := filepath.Join(dir, "elbo-convergence.png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save elbo plot: %w", err)
	}
	return path, nil
}

// ELBOYRange is twice the mean ELBO over the last third of the record.
// Zero for an empty record.
func ELBOYRange(elbos []float64) float64 {
	if len(elbos) == 0 {
		return 0
	}
	start := int(math.Round(0.67 * float64(len(elbos))))
	if start >= len(elbos) {
		start = len(elbos) - 1
	}
	var sum float64
	for _, v := range elbos[start:] {
		sum += v
	}
	return 2 * sum / float64(len(elbos)-start)
}
