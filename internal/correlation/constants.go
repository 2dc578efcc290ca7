// Package correlation computes a pairwise log-return correlation matrix
// for a portfolio's active PUBLIC symbols, with optional single-link
// clustering, per spec.md §4.6.
package correlation

const (
	DefaultWindowDays       = 90
	MinPairObservations     = 30
	DefaultClusterThreshold = 0.7
)
