// Package marketdata provides a provider-chain abstraction over external
// price and fundamentals sources, plus the per-batch-run price cache and
// return-derivation helpers that internal/factors, internal/risk and
// internal/correlation are built on.
package marketdata

import (
	"context"
	"time"
)

// Bar is one OHLCV observation for a symbol on a date. Source-agnostic:
// alphavantage's AdjustedPrice and yahoo's HistoricalPrice both collapse
// into this shape at the provider boundary.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Quote is a single latest-price observation.
type Quote struct {
	Symbol string
	Price  float64
	AsOf   time.Time
}

// Profile carries the sector/industry classification used to build
// sector exposure and concentration views in internal/risk.
type Profile struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
}

// Holding is one constituent of an ETF, used when a portfolio position is
// itself an ETF or fund and needs look-through exposure.
type Holding struct {
	Symbol string
	Weight float64
}

// Financials carries the subset of fundamental data this engine consumes;
// it is not a full financial-statement mirror.
type Financials struct {
	Symbol     string
	MarketCap  int64
	PERatio    *float64
	Beta       *float64
	Sector     string
	Industry   string
}

// EarningsEvent is a single upcoming or historical earnings announcement.
type EarningsEvent struct {
	Symbol     string
	ReportDate time.Time
}

// Provider is the common capability interface every market-data source
// satisfies. A provider chain tries each Provider in order and falls
// through on error, per spec.md §9's tagged-variant design note. Not every
// provider need implement every capability meaningfully — a provider that
// cannot serve a capability returns ErrUnsupported, which the chain treats
// the same as a transient failure: try the next provider.
type Provider interface {
	// Name identifies the provider for logging and quality-flagging.
	Name() string

	// Quotes returns the latest price for each requested symbol. Symbols
	// the provider has no data for are simply omitted from the result.
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)

	// Bars returns daily OHLCV history for symbol, oldest first, bounded
	// by [from, to].
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)

	// Profile returns sector/industry classification for symbol.
	Profile(ctx context.Context, symbol string) (Profile, error)

	// Holdings returns the constituents of an ETF/fund symbol.
	Holdings(ctx context.Context, symbol string) ([]Holding, error)

	// Financials returns fundamental data for symbol.
	Financials(ctx context.Context, symbol string) (Financials, error)

	// EarningsCalendar returns upcoming earnings events for symbol within
	// the given horizon.
	EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]EarningsEvent, error)
}

// ErrUnsupported is returned by a Provider method the provider does not
// implement. The chain treats it as "try the next provider".
type ErrUnsupported struct {
	Provider   string
	Capability string
}

func (e ErrUnsupported) Error() string {
	return e.Provider + ": " + e.Capability + " not supported"
}
