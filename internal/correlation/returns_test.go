package correlation

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/stretchr/testify/assert"
)

func day(offset int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestLogReturns_ComputesNaturalLogOfRatio(t *testing.T) {
	bars := []marketdata.Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 110},
	}
	series := logReturns(bars)

	assert.Len(t, series.Returns, 1)
	assert.InDelta(t, math.Log(1.1), series.Returns[0], 1e-9)
}

func TestLogReturns_SortsUnorderedBarsFirst(t *testing.T) {
	bars := []marketdata.Bar{
		{Date: day(1), Close: 110},
		{Date: day(0), Close: 100},
	}
	series := logReturns(bars)

	assert.Len(t, series.Returns, 1)
	assert.True(t, series.Dates[0].Equal(day(1)))
}

func TestLogReturns_SkipsNonPositiveCloses(t *testing.T) {
	bars := []marketdata.Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 0},
		{Date: day(2), Close: 105},
	}
	series := logReturns(bars)
	assert.Empty(t, series.Returns)
}
