package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Chain tries each Provider in order, falling through to the next on
// error. It implements Provider itself so it can be used anywhere a single
// provider is expected.
type Chain struct {
	providers []Provider
	log       zerolog.Logger
}

// NewChain builds a provider chain. providers is tried in the given order;
// the first provider to succeed wins.
func NewChain(log zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		log:       log.With().Str("component", "marketdata_chain").Logger(),
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Quotes(ctx, symbols)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Msg("quotes failed, falling through")
	}
	return nil, fallbackErr("quotes", lastErr)
}

func (c *Chain) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Bars(ctx, symbol, from, to)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("bars failed, falling through")
	}
	return nil, fallbackErr("bars", lastErr)
}

func (c *Chain) Profile(ctx context.Context, symbol string) (Profile, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Profile(ctx, symbol)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("profile failed, falling through")
	}
	return Profile{}, fallbackErr("profile", lastErr)
}

func (c *Chain) Holdings(ctx context.Context, symbol string) ([]Holding, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Holdings(ctx, symbol)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("holdings failed, falling through")
	}
	return nil, fallbackErr("holdings", lastErr)
}

func (c *Chain) Financials(ctx context.Context, symbol string) (Financials, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Financials(ctx, symbol)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("financials failed, falling through")
	}
	return Financials{}, fallbackErr("financials", lastErr)
}

func (c *Chain) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]EarningsEvent, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.EarningsCalendar(ctx, symbol, horizon)
		if err == nil {
			return result, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("earnings calendar failed, falling through")
	}
	return nil, fallbackErr("earnings_calendar", lastErr)
}

func fallbackErr(capability string, last error) error {
	if last == nil {
		return errors.New("marketdata: no providers configured for " + capability)
	}
	return last
}
