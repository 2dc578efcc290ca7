package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name     string
	bars     map[string][]Bar
	barCalls map[string]int
	err      error
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, bars: make(map[string][]Bar), barCalls: make(map[string]int)}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	return nil, f.err
}

func (f *fakeProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	f.barCalls[symbol]++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[symbol], nil
}

func (f *fakeProvider) Profile(ctx context.Context, symbol string) (Profile, error) {
	return Profile{}, f.err
}

func (f *fakeProvider) Holdings(ctx context.Context, symbol string) ([]Holding, error) {
	return nil, f.err
}

func (f *fakeProvider) Financials(ctx context.Context, symbol string) (Financials, error) {
	return Financials{}, f.err
}

func (f *fakeProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]EarningsEvent, error) {
	return nil, f.err
}

func day(offset int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestPriceCache_Bars_CachesAcrossCalls(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["AAPL"] = []Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 101},
	}

	cache := NewPriceCache(provider)

	_, err := cache.Bars(context.Background(), "AAPL", day(0), day(1))
	require.NoError(t, err)
	_, err = cache.Bars(context.Background(), "AAPL", day(0), day(1))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.barCalls["AAPL"])
}

func TestPriceCache_Bars_SlicesToRequestedRange(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["AAPL"] = []Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 101},
		{Date: day(2), Close: 102},
	}
	cache := NewPriceCache(provider)

	bars, err := cache.Bars(context.Background(), "AAPL", day(1), day(2))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 101.0, bars[0].Close)
}

func TestPriceCache_Prefetch_CollectsPerSymbolErrors(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["GOOD"] = []Bar{{Date: day(0), Close: 1}, {Date: day(1), Close: 2}}
	provider.err = errors.New("boom")

	cache := NewPriceCache(provider)
	errs := cache.Prefetch(context.Background(), []string{"GOOD", "BAD"}, day(0), day(1))

	assert.Len(t, errs, 2)
}

func TestGetReturns_ComputesSimpleDailyReturns(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["AAPL"] = []Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
		{Date: day(2), Close: 99},
	}
	cache := NewPriceCache(provider)

	returns, err := GetReturns(context.Background(), cache, []string{"AAPL"}, day(0), day(2), false)
	require.NoError(t, err)

	series := returns["AAPL"]
	require.Len(t, series.Returns, 2)
	assert.InDelta(t, 0.10, series.Returns[0], 1e-9)
	assert.InDelta(t, -0.10, series.Returns[1], 1e-9)
}

func TestGetReturns_AlignDatesInnerJoins(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["A"] = []Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
		{Date: day(2), Close: 121},
	}
	provider.bars["B"] = []Bar{
		{Date: day(0), Close: 50},
		{Date: day(2), Close: 55},
	}
	cache := NewPriceCache(provider)

	returns, err := GetReturns(context.Background(), cache, []string{"A", "B"}, day(0), day(2), true)
	require.NoError(t, err)

	// A has returns on day1 and day2; B only has a return on day2 (its
	// only adjacent pair is day0->day2). The aligned set is the
	// intersection of return-dates, which is just day2.
	assert.Len(t, returns["A"].Dates, 1)
	assert.Len(t, returns["B"].Dates, 1)
	assert.True(t, returns["A"].Dates[0].Equal(returns["B"].Dates[0]))
}

func TestGetReturns_TooFewBarsYieldsEmptySeries(t *testing.T) {
	provider := newFakeProvider("fake")
	provider.bars["AAPL"] = []Bar{{Date: day(0), Close: 100}}
	cache := NewPriceCache(provider)

	returns, err := GetReturns(context.Background(), cache, []string{"AAPL"}, day(0), day(0), false)
	require.NoError(t, err)
	assert.Empty(t, returns["AAPL"].Returns)
}
