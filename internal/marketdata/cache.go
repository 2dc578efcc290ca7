package marketdata

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PriceCache holds bar history fetched during a single batch run, keyed by
// symbol, so every phase and every position sharing a symbol pays the
// provider round-trip once. It is generalized from alphavantage.Client's
// cacheEntry/getFromCache/setCache pattern but scoped to one run's lifetime
// instead of a wall-clock TTL — the batch run itself is the cache's TTL.
type PriceCache struct {
	provider Provider

	mu   sync.RWMutex
	bars map[string][]Bar
}

// NewPriceCache wraps provider with a per-run bar cache.
func NewPriceCache(provider Provider) *PriceCache {
	return &PriceCache{
		provider: provider,
		bars:     make(map[string][]Bar),
	}
}

// Provider returns the underlying provider chain, for callers that need a
// capability Bars/Prefetch don't expose (e.g. Profile lookups).
func (c *PriceCache) Provider() Provider {
	return c.provider
}

// Bars returns symbol's bars in [from, to], fetching from the underlying
// provider on first request and serving every subsequent request for the
// same symbol from memory regardless of the requested window; each call
// returns the cached series sliced to [from, to].
func (c *PriceCache) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	c.mu.RLock()
	bars, ok := c.bars[symbol]
	c.mu.RUnlock()
	if ok {
		return sliceRange(bars, from, to), nil
	}

	bars, err := c.provider.Bars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bars[symbol] = bars
	c.mu.Unlock()

	return sliceRange(bars, from, to), nil
}

// Prefetch loads bars for every symbol in symbols that isn't already
// cached, in sequence, stopping only the symbol that fails rather than the
// whole batch. It returns the error of every symbol that failed, keyed by
// symbol (empty when all succeeded).
func (c *PriceCache) Prefetch(ctx context.Context, symbols []string, from, to time.Time) map[string]error {
	errs := make(map[string]error)
	for _, symbol := range symbols {
		if _, err := c.Bars(ctx, symbol, from, to); err != nil {
			errs[symbol] = err
		}
	}
	return errs
}

func sliceRange(bars []Bar, from, to time.Time) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ReturnSeries is a symbol's daily simple returns, oldest first, aligned to
// Dates.
type ReturnSeries struct {
	Dates   []time.Time
	Returns []float64
}

// GetReturns is the canonical return-derivation helper every regression in
// internal/factors, internal/risk and internal/correlation builds on. It
// fetches bars for each symbol, computes daily simple returns, and (when
// alignDates is true) inner-joins the series down to dates present in
// every symbol's series — mirroring the "align_dates=True" behavior of the
// Python get_returns() this package is grounded on.
func GetReturns(ctx context.Context, cache *PriceCache, symbols []string, from, to time.Time, alignDates bool) (map[string]ReturnSeries, error) {
	raw := make(map[string]ReturnSeries, len(symbols))

	for _, symbol := range symbols {
		bars, err := cache.Bars(ctx, symbol, from, to)
		if err != nil {
			return nil, err
		}
		raw[symbol] = returnsFromBars(bars)
	}

	if !alignDates || len(raw) <= 1 {
		return raw, nil
	}

	return alignSeries(raw), nil
}

func returnsFromBars(bars []Bar) ReturnSeries {
	if len(bars) < 2 {
		return ReturnSeries{}
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dates := make([]time.Time, 0, len(sorted)-1)
	returns := make([]float64, 0, len(sorted)-1)

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Close
		if prev == 0 {
			continue
		}
		dates = append(dates, sorted[i].Date)
		returns = append(returns, (sorted[i].Close-prev)/prev)
	}

	return ReturnSeries{Dates: dates, Returns: returns}
}

// alignSeries inner-joins every series in raw down to the set of dates
// common to all of them, preserving chronological order.
func alignSeries(raw map[string]ReturnSeries) map[string]ReturnSeries {
	dateCounts := make(map[time.Time]int)
	for _, series := range raw {
		seen := make(map[time.Time]bool, len(series.Dates))
		for _, d := range series.Dates {
			if !seen[d] {
				dateCounts[d]++
				seen[d] = true
			}
		}
	}

	n := len(raw)
	common := make([]time.Time, 0)
	for d, count := range dateCounts {
		if count == n {
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	commonSet := make(map[time.Time]bool, len(common))
	for _, d := range common {
		commonSet[d] = true
	}

	aligned := make(map[string]ReturnSeries, n)
	for symbol, series := range raw {
		byDate := make(map[time.Time]float64, len(series.Dates))
		for i, d := range series.Dates {
			byDate[d] = series.Returns[i]
		}
		out := ReturnSeries{Dates: make([]time.Time, 0, len(common)), Returns: make([]float64, 0, len(common))}
		for _, d := range common {
			if r, ok := byDate[d]; ok {
				out.Dates = append(out.Dates, d)
				out.Returns = append(out.Returns, r)
			}
		}
		aligned[symbol] = out
	}
	return aligned
}
