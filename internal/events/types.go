package events

import "time"

// EventType names a kind of event the batch engine publishes for observers
// (e.g. an admin status stream) to react to.
type EventType string

const (
	// BatchStarted fires when the orchestrator begins a daily or force-rerun
	// batch. Data carries "batch_run_id", "triggered_by".
	BatchStarted EventType = "batch_started"

	// BatchCompleted fires when a batch run finishes, successfully or not.
	// Data carries "batch_run_id", "completed_jobs", "failed_jobs".
	BatchCompleted EventType = "batch_completed"

	// PortfolioProcessed fires once per portfolio-date the orchestrator
	// finishes, whether it succeeded, was skipped, or failed.
	PortfolioProcessed EventType = "portfolio_processed"

	// PhaseFailed fires when a phase aborts for one portfolio. Data carries
	// "portfolio_id", "phase", "error".
	PhaseFailed EventType = "phase_failed"

	// MarketDataRefreshed fires after internal/marketdata completes a refresh
	// pass over a symbol set.
	MarketDataRefreshed EventType = "market_data_refreshed"

	// PortfolioChanged fires when a sibling system reports a position or
	// equity-balance change the batch engine should pick up on next run.
	PortfolioChanged EventType = "portfolio_changed"

	// PriceUpdated fires when a single symbol's cached price is upserted.
	PriceUpdated EventType = "price_updated"

	// SnapshotCompleted fires when the two-phase snapshot writer marks a
	// row is_complete=true.
	SnapshotCompleted EventType = "snapshot_completed"
)

// Event is one published occurrence. Data is intentionally loosely typed
// (map[string]interface{}) so subscribers unmarshal only what they need.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Module    string
	Data      map[string]interface{}
}
