package marketdata

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/clients/yahoo"
)

// YahooProvider adapts yahoo.NativeClient to the Provider interface. It is
// the fallback provider in the default chain: Quotes, Bars and Profile
// cover what the factor and risk pipelines need when Alpha Vantage's daily
// quota is exhausted. Holdings, Financials and EarningsCalendar are not
// available from the endpoints this client uses and return
// ErrUnsupported, which the chain treats as "try the next provider" — in
// practice, those three capabilities have no further fallback and simply
// fail for the run.
type YahooProvider struct {
	client *yahoo.NativeClient
}

// NewYahooProvider wraps a Yahoo Finance client as a Provider.
func NewYahooProvider(client *yahoo.NativeClient) *YahooProvider {
	return &YahooProvider{client: client}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := p.client.GetQuote(symbol)
		if err != nil {
			continue
		}
		quotes[symbol] = Quote{Symbol: symbol, Price: q.Price, AsOf: q.MarketTime}
	}
	return quotes, nil
}

func (p *YahooProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	prices, err := p.client.GetHistoricalPrices(symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	bars := make([]Bar, 0, len(prices))
	for _, hp := range prices {
		bars = append(bars, Bar{
			Date:   hp.Date,
			Open:   hp.Open,
			High:   hp.High,
			Low:    hp.Low,
			Close:  hp.Close,
			Volume: hp.Volume,
		})
	}
	return bars, nil
}

func (p *YahooProvider) Profile(ctx context.Context, symbol string) (Profile, error) {
	profile, err := p.client.GetProfile(symbol)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Symbol:   profile.Symbol,
		Name:     profile.Name,
		Sector:   profile.Sector,
		Industry: profile.Industry,
	}, nil
}

func (p *YahooProvider) Holdings(ctx context.Context, symbol string) ([]Holding, error) {
	return nil, ErrUnsupported{Provider: p.Name(), Capability: "holdings"}
}

func (p *YahooProvider) Financials(ctx context.Context, symbol string) (Financials, error) {
	return Financials{}, ErrUnsupported{Provider: p.Name(), Capability: "financials"}
}

func (p *YahooProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]EarningsEvent, error) {
	return nil, ErrUnsupported{Provider: p.Name(), Capability: "earnings_calendar"}
}
