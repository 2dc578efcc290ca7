package companyprofile

import (
	"context"

	"github.com/aristath/sentinel/internal/marketdata"
)

// Refresher drives Store from the market-data provider chain. It backs the
// admin surface's two profile-maintenance endpoints: a full warm/refresh
// over every held symbol, and a narrower repair pass over only the
// symbols missing classification.
type Refresher struct {
	store    *Store
	provider marketdata.Provider
}

// NewRefresher wires a Refresher.
func NewRefresher(store *Store, provider marketdata.Provider) *Refresher {
	return &Refresher{store: store, provider: provider}
}

// RefreshAll re-fetches and upserts profile data for every symbol in
// symbols, continuing past individual failures and returning how many
// succeeded.
func (r *Refresher) RefreshAll(ctx context.Context, symbols []string) (int, error) {
	succeeded := 0
	for _, symbol := range symbols {
		profile, err := r.provider.Profile(ctx, symbol)
		if err != nil {
			continue
		}
		if err := r.store.Upsert(ctx, profile); err != nil {
			return succeeded, err
		}
		succeeded++
	}
	return succeeded, nil
}

// RefreshMissing re-fetches and upserts profile data only for the symbols
// in symbols that currently have no sector classification, per spec.md's
// restore-sector-tags contract: a targeted repair rather than a full
// refresh.
func (r *Refresher) RefreshMissing(ctx context.Context, symbols []string) (int, error) {
	missing, err := r.store.MissingOrBlank(ctx, symbols)
	if err != nil {
		return 0, err
	}
	return r.RefreshAll(ctx, missing)
}
