// Package domain holds the shared entity types passed between batch-engine
// components. Entities are identified by UUID and loaded explicitly at phase
// boundaries; no relationship is followed implicitly inside a calculation.
package domain

import "time"

// PositionType enumerates the direction/instrument class of a position.
type PositionType string

const (
	PositionLong      PositionType = "LONG"
	PositionShort     PositionType = "SHORT"
	PositionLongCall  PositionType = "LC"
	PositionLongPut   PositionType = "LP"
	PositionShortCall PositionType = "SC"
	PositionShortPut  PositionType = "SP"
)

// IsOption reports whether the position type is an options contract.
func (t PositionType) IsOption() bool {
	switch t {
	case PositionLongCall, PositionLongPut, PositionShortCall, PositionShortPut:
		return true
	default:
		return false
	}
}

// IsShort reports whether the position's exposure is short-directional.
func (t PositionType) IsShort() bool {
	switch t {
	case PositionShort, PositionShortCall, PositionShortPut:
		return true
	default:
		return false
	}
}

// InvestmentClass segments positions by how they are valued and which
// downstream calculations apply to them.
type InvestmentClass string

const (
	ClassPublic  InvestmentClass = "PUBLIC"
	ClassOptions InvestmentClass = "OPTIONS"
	ClassPrivate InvestmentClass = "PRIVATE"
)

// Portfolio is a user-owned collection of positions with a rolled-forward
// equity balance. Equity balance is starting capital + cumulative realized
// P&L + cumulative net capital flows — never gross position value.
type Portfolio struct {
	ID             string
	UserID         string
	EquityBalance  float64
	BaseCurrency   string
	IsActive       bool
	DeletedAt      *time.Time
}

// Position is owned by exactly one portfolio. It is active on date D iff
// EntryDate <= D and (ExitDate is nil or ExitDate > D).
type Position struct {
	ID               string
	PortfolioID      string
	Symbol           string
	Type             PositionType
	Class            InvestmentClass
	Quantity         float64
	EntryPrice       float64
	EntryDate        time.Time
	ExitDate         *time.Time
	ExitPrice        *float64
	UnderlyingSymbol string
	Strike           *float64
	Expiration       *time.Time
	MarketValue      *float64
	DeletedAt        *time.Time
}

// ActiveOn reports whether the position is active on trading date d.
func (p Position) ActiveOn(d time.Time) bool {
	if p.DeletedAt != nil {
		return false
	}
	if p.EntryDate.After(d) {
		return false
	}
	if p.ExitDate != nil && !p.ExitDate.After(d) {
		return false
	}
	return true
}

// CompanyProfile carries sector/industry classification, keyed by symbol.
type CompanyProfile struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
}

// MarketDataPoint is one OHLCV bar (or, for treasury symbols, a yield point
// stored in Close) keyed by (Symbol, Date).
type MarketDataPoint struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Source string
}

// FactorID names one of the ten factors the symbol universe regresses against.
type FactorID string

const (
	FactorValue           FactorID = "VALUE"
	FactorGrowth          FactorID = "GROWTH"
	FactorMomentum        FactorID = "MOMENTUM"
	FactorQuality         FactorID = "QUALITY"
	FactorSize            FactorID = "SIZE"
	FactorLowVolatility   FactorID = "LOW_VOLATILITY"
	FactorSpreadGrowthVal FactorID = "SPREAD_GROWTH_VALUE"
	FactorSpreadMomentum  FactorID = "SPREAD_MOMENTUM"
	FactorSpreadSize      FactorID = "SPREAD_SIZE"
	FactorSpreadQuality   FactorID = "SPREAD_QUALITY"
)

// RidgeFactors and SpreadFactors enumerate the two factor families in a
// stable order, matching spec.md §4.3.
var RidgeFactors = []FactorID{
	FactorValue, FactorGrowth, FactorMomentum, FactorQuality, FactorSize, FactorLowVolatility,
}

var SpreadFactors = []FactorID{
	FactorSpreadGrowthVal, FactorSpreadMomentum, FactorSpreadSize, FactorSpreadQuality,
}

// QualityFlag grades a regression's sample sufficiency.
type QualityFlag string

const (
	QualityFullHistory    QualityFlag = "full_history"
	QualityPartialHistory QualityFlag = "partial_history"
	QualityInsufficient   QualityFlag = "insufficient"
)

// SymbolFactorExposure is a symbol's intrinsic beta to one factor on one
// date — independent of which portfolios hold the symbol.
type SymbolFactorExposure struct {
	Symbol           string
	FactorID         FactorID
	Date             time.Time
	Beta             float64
	RSquared         float64
	Observations     int
	QualityFlag      QualityFlag
	SignificantAt90  bool
}

// PortfolioFactorExposure is the weight-aggregated beta for one portfolio.
type PortfolioFactorExposure struct {
	PortfolioID    string
	FactorID       FactorID
	Date           time.Time
	Beta           float64
	DollarExposure float64
}

// PositionGreeks carries option sensitivities, supplied by a sibling service.
type PositionGreeks struct {
	PositionID string
	Date       time.Time
	Delta      float64
}

// SkipReason explains why a calculation produced a structured skip rather
// than a value, per spec.md §7 error kind 3 (insufficient data).
type SkipReason string

const (
	SkipNoPublicPositions    SkipReason = "no_public_positions"
	SkipZeroEquityBalance    SkipReason = "zero_or_negative_equity_balance"
	SkipNoSymbolBetas        SkipReason = "no_symbol_betas_available"
	SkipInsufficientSample   SkipReason = "insufficient_sample"
	SkipPrivateOnlyPortfolio SkipReason = "private_only_portfolio"
)

// PortfolioSnapshot is the single row-per-portfolio-per-day assembled by
// internal/snapshot. IsComplete=false marks an in-flight placeholder.
type PortfolioSnapshot struct {
	PortfolioID           string
	SnapshotDate          time.Time
	TotalValue            float64
	Cash                  float64
	LongValue             float64
	ShortValue            float64
	GrossExposure         float64
	NetExposure           float64
	DailyPnL              float64
	CumulativePnL         float64
	DailyRealizedPnL      float64
	CumulativeRealizedPnL float64
	DailyCapitalFlow      float64
	PortfolioDelta        float64
	PositionCount         int
	EquityBalance         float64
	RealizedVol21d        float64
	RealizedVol63d        float64
	ExpectedVolHAR        float64
	VolatilityPercentile  float64
	VolatilityTrend       string
	MarketBeta            float64
	HHI                    float64
	EffectivePositions    float64
	Top3Concentration     float64
	Top10Concentration    float64
	SectorExposureJSON    string
	IsComplete            bool
	CreatedAt             time.Time
	CompletedAt           *time.Time
}

// CorrelationCalculation owns many PairwiseCorrelation and CorrelationCluster
// rows; deletion cascades child -> parent.
type CorrelationCalculation struct {
	ID           string
	PortfolioID  string
	Date         time.Time
	WindowDays   int
	CreatedAt    time.Time
}

// PairwiseCorrelation is one symbol pair's correlation on a date-aligned
// sample of at least CORR_MIN_PAIR_OBS observations.
type PairwiseCorrelation struct {
	CalculationID string
	Symbol1       string
	Symbol2       string
	Rho           float64
	N             int
}

// CorrelationCluster groups symbols by a single-link threshold.
type CorrelationCluster struct {
	CalculationID string
	ClusterIndex  int
	Symbols       []string
}

// ScenarioSeverity ranks how extreme a stress scenario is.
type ScenarioSeverity string

const (
	SeverityBase     ScenarioSeverity = "base"
	SeverityMild     ScenarioSeverity = "mild"
	SeverityModerate ScenarioSeverity = "moderate"
	SeveritySevere   ScenarioSeverity = "severe"
	SeverityExtreme  ScenarioSeverity = "extreme"
)

// StressScenario defines factor shocks applied by internal/stress.
type StressScenario struct {
	Name            string
	Category        string
	Severity        ScenarioSeverity
	Active          bool
	Optional        bool
	Historical      bool
	ShockedFactors  map[FactorID]float64 // factor -> shock fraction, e.g. -0.10
}

// StressTestResult is one (portfolio, scenario, date) outcome.
type StressTestResult struct {
	PortfolioID      string
	ScenarioName     string
	Date             time.Time
	DirectPnL        float64
	CorrelatedPnL    float64
	FactorImpactJSON string
	UsedFallback     bool
}

// FactorCorrelationMatrix is the factor-level correlation matrix computed
// once per batch run and shared read-only by every portfolio's stress test
// that day (spec.md §5). Values are symmetric with a unit diagonal and
// already clamped to the configured [min, max] bound.
type FactorCorrelationMatrix struct {
	Date   time.Time
	Values map[FactorID]map[FactorID]float64
}

// At returns the correlation between f1 and f2, or 0 if either factor is
// absent from the matrix.
func (m FactorCorrelationMatrix) At(f1, f2 FactorID) float64 {
	row, ok := m.Values[f1]
	if !ok {
		return 0
	}
	return row[f2]
}

// BatchRun is the in-memory, process-wide tracker of the active batch run.
// At most one exists at any time (spec.md §4.9 concurrency guard).
type BatchRun struct {
	BatchRunID          string
	StartedAt           time.Time
	TriggeredBy         string
	TotalJobs           int
	CompletedJobs       int
	FailedJobs          int
	CurrentJobName      string
	CurrentPortfolioName string
}
