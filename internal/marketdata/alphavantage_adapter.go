package marketdata

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/clients/alphavantage"
)

// AlphaVantageProvider adapts alphavantage.Client to the Provider
// interface. It is the primary provider in the default chain; Alpha
// Vantage's free tier rate limits are what motivate falling through to a
// secondary provider in the first place.
type AlphaVantageProvider struct {
	client *alphavantage.Client
}

// NewAlphaVantageProvider wraps an Alpha Vantage client as a Provider.
func NewAlphaVantageProvider(client *alphavantage.Client) *AlphaVantageProvider {
	return &AlphaVantageProvider{client: client}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

func (p *AlphaVantageProvider) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := p.client.GetGlobalQuote(symbol)
		if err != nil {
			continue
		}
		quotes[symbol] = Quote{Symbol: symbol, Price: q.Price, AsOf: q.LatestTradingDay}
	}
	return quotes, nil
}

func (p *AlphaVantageProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	full := to.Sub(from) > 100*24*time.Hour
	prices, err := p.client.GetDailyAdjustedPrices(symbol, full)
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(prices))
	for _, p := range prices {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		bars = append(bars, Bar{
			Date:   p.Date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.AdjustedClose,
			Volume: p.Volume,
		})
	}
	return bars, nil
}

func (p *AlphaVantageProvider) Profile(ctx context.Context, symbol string) (Profile, error) {
	overview, err := p.client.GetCompanyOverview(symbol)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Symbol:   overview.Symbol,
		Name:     overview.Name,
		Sector:   overview.Sector,
		Industry: overview.Industry,
	}, nil
}

func (p *AlphaVantageProvider) Holdings(ctx context.Context, symbol string) ([]Holding, error) {
	etfHoldings, err := p.client.GetETFHoldings(symbol)
	if err != nil {
		return nil, err
	}
	holdings := make([]Holding, 0, len(etfHoldings))
	for _, h := range etfHoldings {
		holdings = append(holdings, Holding{Symbol: h.Symbol, Weight: h.Weight})
	}
	return holdings, nil
}

func (p *AlphaVantageProvider) Financials(ctx context.Context, symbol string) (Financials, error) {
	overview, err := p.client.GetCompanyOverview(symbol)
	if err != nil {
		return Financials{}, err
	}
	return Financials{
		Symbol:    overview.Symbol,
		MarketCap: overview.MarketCapitalization,
		PERatio:   overview.PERatio,
		Beta:      overview.Beta,
		Sector:    overview.Sector,
		Industry:  overview.Industry,
	}, nil
}

func (p *AlphaVantageProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]EarningsEvent, error) {
	events, err := p.client.GetEarningsCalendar(symbol, horizonString(horizon))
	if err != nil {
		return nil, err
	}
	out := make([]EarningsEvent, 0, len(events))
	for _, e := range events {
		out = append(out, EarningsEvent{Symbol: e.Symbol, ReportDate: e.ReportDate})
	}
	return out, nil
}

// horizonString maps a duration to Alpha Vantage's EARNINGS_CALENDAR
// horizon parameter, which only accepts these three values.
func horizonString(d time.Duration) string {
	switch {
	case d <= 3*30*24*time.Hour:
		return "3month"
	case d <= 6*30*24*time.Hour:
		return "6month"
	default:
		return "12month"
	}
}
