package queue

import (
	"fmt"

	"github.com/aristath/sentinel/internal/events"
	"github.com/rs/zerolog"
)

// RegisterListeners registers event listeners that enqueue jobs in reaction
// to domain events published on bus, so the scheduler is not the only way a
// job gets enqueued.
func RegisterListeners(bus *events.Bus, manager *Manager, registry *Registry, log zerolog.Logger) {
	log = log.With().Str("component", "event_listeners").Logger()

	// PortfolioChanged -> daily_batch (CRITICAL priority). A sibling system
	// reporting a position or equity-balance change means the next run's
	// inputs are stale; reprocess promptly rather than waiting for 16:00 ET.
	_ = bus.Subscribe(events.PortfolioChanged, func(event *events.Event) {
		job := &Job{
			ID:          fmt.Sprintf("%s-%d", JobTypeDailyBatch, event.Timestamp.UnixNano()),
			Type:        JobTypeDailyBatch,
			Priority:    PriorityCritical,
			Payload:     event.Data,
			CreatedAt:   event.Timestamp,
			AvailableAt: event.Timestamp,
			Retries:     0,
			MaxRetries:  3,
		}
		if err := manager.Enqueue(job); err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(events.PortfolioChanged)).
				Str("job_type", string(JobTypeDailyBatch)).
				Str("job_id", job.ID).
				Msg("failed to enqueue daily_batch from PortfolioChanged event")
		}
	})

	// PriceUpdated -> market_data_refresh (LOW priority). A single symbol's
	// price changing does not itself warrant a full batch; it is absorbed
	// into the next scheduled refresh.
	_ = bus.Subscribe(events.PriceUpdated, func(event *events.Event) {
		job := &Job{
			ID:          fmt.Sprintf("%s-%d", JobTypeMarketDataRefresh, event.Timestamp.UnixNano()),
			Type:        JobTypeMarketDataRefresh,
			Priority:    PriorityLow,
			Payload:     event.Data,
			CreatedAt:   event.Timestamp,
			AvailableAt: event.Timestamp,
			Retries:     0,
			MaxRetries:  3,
		}
		if err := manager.Enqueue(job); err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(events.PriceUpdated)).
				Str("job_type", string(JobTypeMarketDataRefresh)).
				Str("job_id", job.ID).
				Msg("failed to enqueue market_data_refresh from PriceUpdated event")
		}
	})

	// MarketDataRefreshed -> correlations (MEDIUM priority). Once a refresh
	// completes, the correlation retry path (§4.6's early-date skip
	// recovery) has fresh data to work with.
	_ = bus.Subscribe(events.MarketDataRefreshed, func(event *events.Event) {
		job := &Job{
			ID:          fmt.Sprintf("%s-%d", JobTypeCorrelations, event.Timestamp.UnixNano()),
			Type:        JobTypeCorrelations,
			Priority:    PriorityMedium,
			Payload:     event.Data,
			CreatedAt:   event.Timestamp,
			AvailableAt: event.Timestamp,
			Retries:     0,
			MaxRetries:  3,
		}
		if err := manager.Enqueue(job); err != nil {
			log.Error().
				Err(err).
				Str("event_type", string(events.MarketDataRefreshed)).
				Str("job_type", string(JobTypeCorrelations)).
				Str("job_id", job.ID).
				Msg("failed to enqueue correlations from MarketDataRefreshed event")
		}
	})
}
