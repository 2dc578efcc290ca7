package domain

import "time"

// PositionMarketBeta is one position's OLS beta against SPY on one date,
// cached at (PositionID, Date) per spec.md §4.5's position-first pattern.
type PositionMarketBeta struct {
	PositionID   string
	PortfolioID  string
	Date         time.Time
	Beta         float64
	RSquared     float64
	Observations int
	WindowDays   int
}

// PositionIRBeta is one position's OLS beta against the long Treasury ETF
// (TLT), same shape and caching policy as PositionMarketBeta. Negative
// values are typical for equities (rates up, price down).
type PositionIRBeta struct {
	PositionID   string
	PortfolioID  string
	Date         time.Time
	Beta         float64
	RSquared     float64
	Observations int
	WindowDays   int
}

// VolatilityTrend classifies the short-window slope of realized volatility.
type VolatilityTrend string

const (
	TrendIncreasing VolatilityTrend = "increasing"
	TrendDecreasing VolatilityTrend = "decreasing"
	TrendStable     VolatilityTrend = "stable"
)

// PositionVolatility is one position's (or, for options, its underlying's)
// realized/forecast volatility on one date.
type PositionVolatility struct {
	PositionID     string
	PortfolioID    string
	Symbol         string // the symbol actually measured: underlying for options
	Date           time.Time
	RealizedVol21d float64
	RealizedVol63d float64
	ExpectedVolHAR float64
	Percentile     float64
	Trend          VolatilityTrend
}

// SectorExposure is one portfolio's weight in one GICS-style sector on one
// date, with the benchmark weight carried alongside for over/underweight.
type SectorExposure struct {
	PortfolioID           string
	Date                  time.Time
	Sector                string
	Weight                float64
	BenchmarkWeight       float64
	OverUnderweight       float64
}

// ConcentrationMetrics summarizes portfolio position concentration via HHI.
type ConcentrationMetrics struct {
	PortfolioID        string
	Date               time.Time
	HHI                float64
	EffectivePositions float64
	Top3Concentration  float64
	Top10Concentration float64
}
