package correlation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCorrelationProvider struct{}

func (fakeCorrelationProvider) Name() string { return "fake" }

func (fakeCorrelationProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	var bars []marketdata.Bar
	seed := float64(len(symbol))
	price := 100.0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days := d.Sub(from).Hours() / 24
		price = 100 + seed*math.Sin(days/7.0) + days*0.01
		bars = append(bars, marketdata.Bar{Date: d, Close: price})
	}
	return bars, nil
}

func (fakeCorrelationProvider) Quotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	return nil, nil
}
func (fakeCorrelationProvider) Profile(ctx context.Context, symbol string) (marketdata.Profile, error) {
	return marketdata.Profile{}, nil
}
func (fakeCorrelationProvider) Holdings(ctx context.Context, symbol string) ([]marketdata.Holding, error) {
	return nil, nil
}
func (fakeCorrelationProvider) Financials(ctx context.Context, symbol string) (marketdata.Financials, error) {
	return marketdata.Financials{}, nil
}
func (fakeCorrelationProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]marketdata.EarningsEvent, error) {
	return nil, nil
}

func TestService_Compute_ProducesPairwiseAndCalculationRow(t *testing.T) {
	cache := marketdata.NewPriceCache(fakeCorrelationProvider{})
	svc := NewService(cache, zerolog.Nop())

	result, err := svc.Compute(context.Background(), "calc1", "port1", []string{"AAPL", "MSFT", "GOOG"}, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, "calc1", result.Calculation.ID)
	assert.Equal(t, DefaultWindowDays, result.Calculation.WindowDays)
	assert.NotEmpty(t, result.Pairwise)
	for _, p := range result.Pairwise {
		assert.GreaterOrEqual(t, p.N, MinPairObservations)
		assert.GreaterOrEqual(t, p.Rho, -1.0)
		assert.LessOrEqual(t, p.Rho, 1.0)
	}
}

func TestService_Compute_ExcludesSymbolWithFetchError(t *testing.T) {
	cache := marketdata.NewPriceCache(failingOneSymbolProvider{failSymbol: "BAD"})
	svc := NewService(cache, zerolog.Nop())

	result, err := svc.Compute(context.Background(), "calc1", "port1", []string{"AAPL", "BAD"}, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Empty(t, result.Pairwise)
}

type failingOneSymbolProvider struct {
	failSymbol string
}

func (p failingOneSymbolProvider) Name() string { return "fake" }
func (p failingOneSymbolProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	if symbol == p.failSymbol {
		return nil, assertError{}
	}
	return fakeCorrelationProvider{}.Bars(ctx, symbol, from, to)
}
func (p failingOneSymbolProvider) Quotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	return nil, nil
}
func (p failingOneSymbolProvider) Profile(ctx context.Context, symbol string) (marketdata.Profile, error) {
	return marketdata.Profile{}, nil
}
func (p failingOneSymbolProvider) Holdings(ctx context.Context, symbol string) ([]marketdata.Holding, error) {
	return nil, nil
}
func (p failingOneSymbolProvider) Financials(ctx context.Context, symbol string) (marketdata.Financials, error) {
	return marketdata.Financials{}, nil
}
func (p failingOneSymbolProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]marketdata.EarningsEvent, error) {
	return nil, nil
}

type assertError struct{}

func (assertError) Error() string { return "fetch failed" }
