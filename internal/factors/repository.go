package factors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// Repository persists the symbol factor universe (spec.md §4.3) to the
// marketdata database, independent of which portfolios hold a symbol on a
// given date. It is the global pre-pass's write side and P4's read side.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertExposures writes one date's worth of symbol factor exposures,
// keyed (symbol, factor_id, date) so a re-run of the same date overwrites
// rather than duplicates.
func (r *Repository) UpsertExposures(ctx context.Context, exposures []domain.SymbolFactorExposure) error {
	for _, e := range exposures {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO symbol_factor_exposures (symbol, factor_id, date, beta, r_squared, observations, quality_flag, significant_at_90)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol, factor_id, date) DO UPDATE SET
				beta = excluded.beta,
				r_squared = excluded.r_squared,
				observations = excluded.observations,
				quality_flag = excluded.quality_flag,
				significant_at_90 = excluded.significant_at_90
		`, e.Symbol, string(e.FactorID), dateKey(e.Date), e.Beta, e.RSquared, e.Observations, string(e.QualityFlag), boolToInt(e.SignificantAt90))
		if err != nil {
			return fmt.Errorf("upsert symbol factor exposure %s/%s: %w", e.Symbol, e.FactorID, err)
		}
	}
	return nil
}

// Exposures reads back the universe's betas for every symbol in symbols on
// date, shaped for P4's aggregation input: symbol -> factor -> beta. A
// symbol with no row for date (insufficient history, or never computed) is
// simply absent from the result rather than an error.
func (r *Repository) Exposures(ctx context.Context, symbols []string, date time.Time) (map[string]map[domain.FactorID]float64, error) {
	out := make(map[string]map[domain.FactorID]float64, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(symbols))
	args := make([]any, 0, len(symbols)+1)
	for i, sym := range symbols {
		placeholders[i] = "?"
		args = append(args, sym)
	}
	args = append(args, dateKey(date))

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT symbol, factor_id, beta FROM symbol_factor_exposures
		WHERE symbol IN (%s) AND date = ?
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("load symbol factor exposures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol, factorID string
		var beta float64
		if err := rows.Scan(&symbol, &factorID, &beta); err != nil {
			return nil, fmt.Errorf("scan symbol factor exposure: %w", err)
		}
		betas, ok := out[symbol]
		if !ok {
			betas = make(map[domain.FactorID]float64)
			out[symbol] = betas
		}
		betas[domain.FactorID(factorID)] = beta
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateKey(d time.Time) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
