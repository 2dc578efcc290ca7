// Package companyprofile persists the sector/industry classification this
// engine reads for concentration analysis (internal/risk's SectorSource),
// backing it with the core database's company_profiles table instead of
// treating it as a purely external, unbacked collaborator. Classification
// itself still comes from the market-data provider chain — this package
// only caches what the chain last returned.
package companyprofile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/sentinel/internal/marketdata"
)

// Store wraps the core database's company_profiles table, following the
// same raw-SQL upsert idiom as internal/queue/history.go.
type Store struct {
	core *sql.DB
}

// NewStore wraps core.
func NewStore(core *sql.DB) *Store {
	return &Store{core: core}
}

// Sector implements internal/risk's SectorSource.
func (s *Store) Sector(ctx context.Context, symbol string) (string, bool) {
	var sector string
	err := s.core.QueryRowContext(ctx, `SELECT sector FROM company_profiles WHERE symbol = ?`, symbol).Scan(&sector)
	if err != nil || sector == "" {
		return "", false
	}
	return sector, true
}

// Upsert stores profile's classification, overwriting any prior entry for
// the same symbol.
func (s *Store) Upsert(ctx context.Context, profile marketdata.Profile) error {
	_, err := s.core.ExecContext(ctx, `
		INSERT INTO company_profiles (symbol, name, sector, industry)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name     = excluded.name,
			sector   = excluded.sector,
			industry = excluded.industry
	`, profile.Symbol, profile.Name, profile.Sector, profile.Industry)
	if err != nil {
		return fmt.Errorf("upsert company profile for %s: %w", profile.Symbol, err)
	}
	return nil
}

// MissingOrBlank returns every symbol in symbols that has no row in
// company_profiles, or whose sector is blank — the set restore-sector-tags
// targets for a repair pass, as opposed to trigger/company-profiles' full
// refresh of every held symbol.
func (s *Store) MissingOrBlank(ctx context.Context, symbols []string) ([]string, error) {
	have := make(map[string]bool, len(symbols))
	rows, err := s.core.QueryContext(ctx, `SELECT symbol FROM company_profiles WHERE sector != ''`)
	if err != nil {
		return nil, fmt.Errorf("load tagged symbols: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan tagged symbol: %w", err)
		}
		have[symbol] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, symbol := range symbols {
		if !have[symbol] {
			missing = append(missing, symbol)
		}
	}
	return missing, nil
}
