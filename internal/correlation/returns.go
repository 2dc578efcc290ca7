package correlation

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/sentinel/internal/marketdata"
)

// LogReturnSeries is one symbol's date-indexed log returns.
type LogReturnSeries struct {
	Dates   []time.Time
	Returns []float64
}

// logReturns computes ln(close_t / close_{t-1}) from bars sorted by date.
// Unlike internal/marketdata.GetReturns (simple returns, used by the
// factor engine), the correlation engine uses log returns — spec.md §4.6
// is explicit on this point.
func logReturns(bars []marketdata.Bar) LogReturnSeries {
	sorted := make([]marketdata.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var series LogReturnSeries
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].Close, sorted[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		series.Dates = append(series.Dates, sorted[i].Date)
		series.Returns = append(series.Returns, math.Log(cur/prev))
	}
	return series
}
