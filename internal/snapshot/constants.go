// Package snapshot implements the two-phase idempotent PortfolioSnapshot
// writer described in spec.md §4.8: a placeholder row staged at the start
// of phase 6, completed once every other per-portfolio phase has
// succeeded.
package snapshot

import "time"

// DefaultPlaceholderGrace is how old an is_complete=false row must be
// before cleanup-incomplete treats it as abandoned.
const DefaultPlaceholderGrace = 1 * time.Hour
