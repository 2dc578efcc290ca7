package factors

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RidgeResult is the outcome of a multivariate ridge regression against
// the six Ridge factor ETFs.
type RidgeResult struct {
	Betas        map[int]float64 // column index -> beta, capped to ±BetaCap
	RSquared     float64
	Observations int
}

// RunRidgeRegression fits y (a symbol's daily returns) against the columns
// of x (each column one factor ETF's daily returns over the same dates)
// using L2-penalized least squares: β = (XᵀX + λI)⁻¹Xᵀy. Both y and every
// column of x are demeaned first, which is equivalent to fitting an
// intercept without including one in the penalized system. Returns an
// error only on a degenerate input (mismatched lengths or too few rows);
// a numerically singular system cannot occur once λ > 0 regularizes it.
func RunRidgeRegression(y []float64, x [][]float64, lambda float64) (RidgeResult, error) {
	n := len(y)
	if n == 0 {
		return RidgeResult{}, fmt.Errorf("factors: ridge regression needs at least one observation")
	}
	p := len(x)
	for i, col := range x {
		if len(col) != n {
			return RidgeResult{}, fmt.Errorf("factors: factor column %d has %d rows, want %d", i, len(col), n)
		}
	}

	yMean := mean(y)
	yCentered := make([]float64, n)
	for i, v := range y {
		yCentered[i] = v - yMean
	}

	xCentered := make([][]float64, p)
	for j, col := range x {
		colMean := mean(col)
		xCentered[j] = make([]float64, n)
		for i, v := range col {
			xCentered[j][i] = v - colMean
		}
	}

	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			X.Set(i, j, xCentered[j][i])
		}
	}
	Y := mat.NewVecDense(n, yCentered)

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for i := 0; i < p; i++ {
		xtx.Set(i, i, xtx.At(i, i)+lambda)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), Y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return RidgeResult{}, fmt.Errorf("factors: ridge solve failed: %w", err)
	}

	betas := make(map[int]float64, p)
	for j := 0; j < p; j++ {
		betas[j] = clampBeta(beta.AtVec(j))
	}

	var predicted mat.VecDense
	predicted.MulVec(X, &beta)

	ssRes, ssTot := 0.0, 0.0
	for i := 0; i < n; i++ {
		resid := yCentered[i] - predicted.AtVec(i)
		ssRes += resid * resid
		ssTot += yCentered[i] * yCentered[i]
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return RidgeResult{Betas: betas, RSquared: rSquared, Observations: n}, nil
}

func clampBeta(beta float64) float64 {
	if beta > BetaCap {
		return BetaCap
	}
	if beta < -BetaCap {
		return -BetaCap
	}
	return beta
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
