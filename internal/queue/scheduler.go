package queue

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler fires the cron-like daily triggers of spec.md §4.10, all in US
// Eastern time: 16:00 daily batch + backfill, 18:00 correlations retry,
// 19:00 company-profile sync, Sunday 02:00 weekly historical backfill.
// Missed jobs coalesce through Manager.EnqueueIfShouldRun/History, so a
// scheduler restart never double-fires a job whose interval has not elapsed.
type Scheduler struct {
	manager  *Manager
	location *time.Location
	stop     chan struct{}
	log      zerolog.Logger
	stopped  bool
	started  bool
	mu       sync.Mutex
}

// NewScheduler creates a new cron-like scheduler bound to US Eastern time.
func NewScheduler(manager *Manager) *Scheduler {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		manager:  manager,
		location: loc,
		stop:     make(chan struct{}),
		log:      zerolog.Nop(),
	}
}

// SetLogger sets the logger for the scheduler
func (s *Scheduler) SetLogger(log zerolog.Logger) {
	s.log = log.With().Str("component", "scheduler").Logger()
}

// Start begins polling for trigger times. Safe to call once; a second call
// while already running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started && !s.stopped {
		s.log.Warn().Msg("scheduler already started, ignoring")
		return
	}
	if s.stopped {
		s.stop = make(chan struct{})
		s.stopped = false
	}
	s.started = true
	s.log.Info().Msg("scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.stop:
				ticker.Stop()
				return
			case tick := <-ticker.C:
				s.evaluate(tick.In(s.location))
			}
		}
	}()
}

// Stop halts the scheduler's ticker loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
		s.started = false
		s.log.Info().Msg("scheduler stopped")
	}
}

// evaluate enqueues any job whose wall-clock trigger matches now, in US
// Eastern time, provided its coalescing interval has elapsed.
func (s *Scheduler) evaluate(now time.Time) {
	hour, minute := now.Hour(), now.Minute()

	if hour == 16 && minute == 0 {
		s.enqueueTimeBasedJob(JobTypeDailyBatch, PriorityCritical, 24*time.Hour)
	}
	if hour == 18 && minute == 0 {
		s.enqueueTimeBasedJob(JobTypeCorrelations, PriorityMedium, 24*time.Hour)
	}
	if hour == 19 && minute == 0 {
		s.enqueueTimeBasedJob(JobTypeCompanyProfileSync, PriorityLow, 24*time.Hour)
	}
	if now.Weekday() == time.Sunday && hour == 2 && minute == 0 {
		s.enqueueTimeBasedJob(JobTypeWeeklyHistoricalBackfill, PriorityMedium, 7*24*time.Hour)
	}
}

// enqueueTimeBasedJob enqueues a job if the interval has passed
func (s *Scheduler) enqueueTimeBasedJob(jobType JobType, priority Priority, interval time.Duration) bool {
	enqueued := s.manager.EnqueueIfShouldRun(jobType, priority, interval, map[string]interface{}{})
	if enqueued {
		s.log.Info().
			Str("job_type", string(jobType)).
			Dur("interval", interval).
			Msg("enqueued scheduled job")
	}
	return enqueued
}
