package correlation

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PairwiseResult is one symbol pair's correlation on a date-aligned sample.
type PairwiseResult struct {
	Rho    float64
	N      int
	PValue float64
}

// alignByDate inner-joins two log-return series on date, returning the
// paired values in date order. This is the alignment spec.md §4.6 calls
// out explicitly: p-values must come from this aligned sample, never from
// two independently dropna'd arrays (a known-wrong idiom that silently
// misaligns dates when the two series have different gaps).
func alignByDate(a, b LogReturnSeries) (alignedA, alignedB []float64) {
	bByDate := make(map[time.Time]float64, len(b.Dates))
	for i, d := range b.Dates {
		bByDate[d] = b.Returns[i]
	}

	for i, d := range a.Dates {
		if v, ok := bByDate[d]; ok {
			alignedA = append(alignedA, a.Returns[i])
			alignedB = append(alignedB, v)
		}
	}
	return alignedA, alignedB
}

// computePairwise returns ok=false when the aligned sample is below
// MinPairObservations — the pair is omitted from the calculation entirely,
// not stored with a low-confidence flag.
func computePairwise(a, b LogReturnSeries) (PairwiseResult, bool) {
	x, y := alignByDate(a, b)
	n := len(x)
	if n < MinPairObservations {
		return PairwiseResult{}, false
	}

	rho := stat.Correlation(x, y, nil)
	pValue := correlationPValue(rho, n)

	return PairwiseResult{Rho: rho, N: n, PValue: pValue}, true
}

// correlationPValue runs a two-tailed t-test on the sample correlation,
// H0: ρ=0, using the standard t = r·sqrt((n-2)/(1-r²)) transform.
func correlationPValue(rho float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	denom := 1 - rho*rho
	if denom <= 0 {
		return 0
	}
	df := float64(n - 2)
	tStat := math.Abs(rho) * math.Sqrt(df/denom)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(tStat))
}
