package companyprofile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileProvider struct {
	profiles map[string]marketdata.Profile
	fail     map[string]bool
}

func (p *fakeProfileProvider) Name() string { return "fake" }
func (p *fakeProfileProvider) Quotes(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error) {
	return nil, nil
}
func (p *fakeProfileProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error) {
	return nil, nil
}
func (p *fakeProfileProvider) Profile(ctx context.Context, symbol string) (marketdata.Profile, error) {
	if p.fail[symbol] {
		return marketdata.Profile{}, errors.New("not found")
	}
	return p.profiles[symbol], nil
}
func (p *fakeProfileProvider) Holdings(ctx context.Context, symbol string) ([]marketdata.Holding, error) {
	return nil, nil
}
func (p *fakeProfileProvider) Financials(ctx context.Context, symbol string) (marketdata.Financials, error) {
	return marketdata.Financials{}, nil
}
func (p *fakeProfileProvider) EarningsCalendar(ctx context.Context, symbol string, horizon time.Duration) ([]marketdata.EarningsEvent, error) {
	return nil, nil
}

func TestRefresher_RefreshAll_SkipsSymbolsTheProviderCannotServe(t *testing.T) {
	provider := &fakeProfileProvider{
		profiles: map[string]marketdata.Profile{"AAPL": {Symbol: "AAPL", Sector: "Technology"}},
		fail:     map[string]bool{"UNKNOWN": true},
	}
	refresher := NewRefresher(NewStore(setupStoreTestDB(t)), provider)

	count, err := refresher.RefreshAll(context.Background(), []string{"AAPL", "UNKNOWN"})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRefresher_RefreshMissing_OnlyTouchesUntaggedSymbols(t *testing.T) {
	db := setupStoreTestDB(t)
	store := NewStore(db)
	require.NoError(t, store.Upsert(context.Background(), marketdata.Profile{Symbol: "AAPL", Sector: "Technology"}))

	provider := &fakeProfileProvider{
		profiles: map[string]marketdata.Profile{"TSLA": {Symbol: "TSLA", Sector: "Consumer Discretionary"}},
	}
	refresher := NewRefresher(store, provider)

	count, err := refresher.RefreshMissing(context.Background(), []string{"AAPL", "TSLA"})

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	sector, ok := store.Sector(context.Background(), "TSLA")
	require.True(t, ok)
	assert.Equal(t, "Consumer Discretionary", sector)
}
