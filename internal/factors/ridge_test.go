package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRidgeRegression_RecoversKnownBeta(t *testing.T) {
	// y is exactly 2*x1 + 0*x2 with no noise; ridge with a small lambda
	// should recover something close to beta=[2,0] and R² near 1.
	n := 60
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i%7) - 3
		x2[i] = float64((i*3)%5) - 2
		y[i] = 2*x1[i] + 0.0
	}

	result, err := RunRidgeRegression(y, [][]float64{x1, x2}, 0.01)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Betas[0], 0.2)
	assert.InDelta(t, 0.0, result.Betas[1], 0.2)
	assert.Greater(t, result.RSquared, 0.9)
	assert.Equal(t, n, result.Observations)
}

func TestRunRidgeRegression_CapsExtremeBeta(t *testing.T) {
	n := 10
	x1 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i) * 0.0001
		y[i] = float64(i) * 100 // huge slope relative to x1
	}

	result, err := RunRidgeRegression(y, [][]float64{x1}, 0.0)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Betas[0], BetaCap)
	assert.GreaterOrEqual(t, result.Betas[0], -BetaCap)
}

func TestRunRidgeRegression_MismatchedColumnLengthErrors(t *testing.T) {
	_, err := RunRidgeRegression([]float64{1, 2, 3}, [][]float64{{1, 2}}, 1.0)
	assert.Error(t, err)
}

func TestRunRidgeRegression_EmptyInputErrors(t *testing.T) {
	_, err := RunRidgeRegression(nil, nil, 1.0)
	assert.Error(t, err)
}
