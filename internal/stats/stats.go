// Package stats derives the summary statistics reported for posterior draws.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds the point and interval estimates reported for one parameter:
// mean, standard deviation, and the 2.5/25/50/75/97.5% quantiles.
type Summary struct {
	Mean  float64
	SD    float64
	Q2_5  float64
	Q25   float64
	Q50   float64
	Q75   float64
	Q97_5 float64
}

// Quantile probabilities reported in summaries, in column order.
var quantileProbs = []float64{0.025, 0.25, 0.5, 0.75, 0.975}

// Summarize computes the summary for one parameter's draws.
// Returns a zero Summary for an empty slice.
func Summarize(draws []float64) Summary {
	if len(draws) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)

	qs := make([]float64, len(quantileProbs))
	for i, p := range quantileProbs {
		qs[i] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}

	return Summary{
		Mean:  stat.Mean(draws, nil),
		SD:    stat.StdDev(draws, nil),
		Q2_5:  qs[0],
		Q25:   qs[1],
		Q50:   qs[2],
		Q75:   qs[3],
		Q97_5: qs[4],
	}
}

// SplitRhat computes the split-chain potential scale reduction factor for
// one parameter. Each chain is split in half and the usual between/within
// variance ratio is taken over the halves. Values near 1 indicate the
// chains agree; above about 1.01 the run deserves suspicion.
//
// Returns NaN when there are fewer than two draws per half.
func SplitRhat(chains [][]float64) float64 {
	var halves [][]float64
	for _, chain := range chains {
		half := len(chain) / 2
		if half < 2 {
			return math.NaN()
		}
		halves = append(halves, chain[:half], chain[len(chain)-half:])
	}
	if len(halves) < 2 {
		return math.NaN()
	}

	n := float64(len(halves[0]))

	means := make([]float64, len(halves))
	vars := make([]float64, len(halves))
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		vars[i] = stat.Variance(h, nil)
	}

	w := stat.Mean(vars, nil)          // within-half variance
	b := n * stat.Variance(means, nil) // between-half variance

	if w == 0 {
		if b == 0 {
			return 1
		}
		return math.Inf(1)
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}
