package queue

import "time"

// JobType represents the kind of background job enqueued for the worker
// pool — either a scheduler trigger (§4.10) or an admin manual trigger (§6).
type JobType string

const (
	// JobTypeDailyBatch runs calendar.most_recent_trading_day() plus
	// automatic gap backfill through the orchestrator (16:00 ET).
	JobTypeDailyBatch JobType = "daily_batch"

	// JobTypeCorrelations retries correlation computation for dates the
	// daily batch skipped gracefully (18:00 ET retry path, §4.6).
	JobTypeCorrelations JobType = "correlations"

	// JobTypeCompanyProfileSync resyncs CompanyProfile rows (19:00 ET).
	JobTypeCompanyProfileSync JobType = "company_profile_sync"

	// JobTypeWeeklyHistoricalBackfill performs a 90-day historical market
	// data backfill (Sunday 02:00 ET).
	JobTypeWeeklyHistoricalBackfill JobType = "weekly_historical_backfill"

	// JobTypeMarketDataRefresh is the manual admin trigger for
	// POST /admin/batch/trigger/market-data.
	JobTypeMarketDataRefresh JobType = "market_data_refresh"

	// JobTypeResetAndReprocess is the admin force-rerun trigger.
	JobTypeResetAndReprocess JobType = "reset_and_reprocess"

	// JobTypeCleanupIncomplete deletes placeholder snapshots older than the
	// grace period (POST /admin/batch/cleanup-incomplete).
	JobTypeCleanupIncomplete JobType = "cleanup_incomplete"

	// JobTypeRestoreSectorTags rebuilds sector tags from company profiles
	// (POST /admin/batch/restore-sector-tags).
	JobTypeRestoreSectorTags JobType = "restore_sector_tags"
)

// Priority represents job priority
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Job represents a queued job
type Job struct {
	ID          string
	Type        JobType
	Priority    Priority
	Payload     map[string]interface{}
	CreatedAt   time.Time
	AvailableAt time.Time
	Retries     int
	MaxRetries  int
}

// Queue interface for job queue operations
type Queue interface {
	Enqueue(job *Job) error
	Dequeue() (*Job, error)
	Size() int
}
