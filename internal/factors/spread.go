package factors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OLSResult is the outcome of a univariate OLS regression used by both the
// spread factors here and the market/IR beta calculations in
// internal/risk, which share this exact regression (window and confidence
// level differ, the math does not).
type OLSResult struct {
	Beta            float64
	RSquared        float64
	Observations    int
	SignificantAt90 bool
}

// RunUnivariateOLS regresses y (e.g. a symbol's or position's returns)
// against x (a benchmark or spread return series) of the same length
// (a length mismatch is an error), capping beta at ±cap and flagging significance at the given
// confidence level via a two-tailed Student's t-test on the slope.
func RunUnivariateOLS(y, x []float64, cap, confidence float64) (OLSResult, error) {
	n := len(y)
	if n != len(x) {
		return OLSResult{}, fmt.Errorf("factors: x and y length mismatch (%d vs %d)", len(x), n)
	}
	if n < 2 {
		return OLSResult{}, fmt.Errorf("factors: need at least 2 observations, got %d", n)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	rSquared := stat.RSquared(x, y, nil, alpha, beta)

	capped := clampBeta(beta)

	significant := isSignificant(y, x, alpha, beta, confidence)

	return OLSResult{
		Beta:            capped,
		RSquared:        rSquared,
		Observations:    n,
		SignificantAt90: significant,
	}, nil
}

// isSignificant runs a two-tailed t-test on the uncapped slope: H0: β=0.
// Capping for storage happens independently of significance tagging —
// spec.md §4.3 asks for both on the same row, computed from the same fit.
func isSignificant(y, x []float64, alpha, beta, confidence float64) bool {
	n := len(y)
	if n <= 2 {
		return false
	}

	xMean := stat.Mean(x, nil)
	ssX := 0.0
	for _, v := range x {
		ssX += (v - xMean) * (v - xMean)
	}
	if ssX == 0 {
		return false
	}

	ssRes := 0.0
	for i := range y {
		predicted := alpha + beta*x[i]
		resid := y[i] - predicted
		ssRes += resid * resid
	}

	df := float64(n - 2)
	residualVariance := ssRes / df
	seBeta := math.Sqrt(residualVariance / ssX)
	if seBeta == 0 {
		return beta != 0
	}

	tStat := math.Abs(beta / seBeta)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	critical := tDist.Quantile(1 - (1-confidence)/2)

	return tStat > critical
}
