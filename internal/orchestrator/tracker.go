package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/google/uuid"
)

// ErrBatchRunActive is returned by Tracker.Start when a run is already in
// progress and the caller didn't pass force=true (spec.md §4.9 concurrency
// guard: at most one BatchRun active process-wide).
var ErrBatchRunActive = errors.New("orchestrator: a batch run is already active")

// Tracker is the single-writer, multi-reader in-memory BatchRun state,
// backed by the batch_runs audit table. Mutually exclusive with the
// scheduler starting a second run concurrently.
type Tracker struct {
	mu      sync.RWMutex
	current *domain.BatchRun
	core    *sql.DB
}

func NewTracker(core *sql.DB) *Tracker {
	return &Tracker{core: core}
}

// Start claims the tracker for a new run. If one is already active, it
// returns ErrBatchRunActive unless force is true, in which case the prior
// run's tracker slot is simply overwritten (its audit row is left as-is;
// an orchestrator crash means that row was never completed, which is
// itself diagnostic).
func (t *Tracker) Start(ctx context.Context, triggeredBy string, totalJobs int, force bool) (*domain.BatchRun, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && !force {
		return nil, ErrBatchRunActive
	}

	run := &domain.BatchRun{
		BatchRunID:  uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		TriggeredBy: triggeredBy,
		TotalJobs:   totalJobs,
	}
	t.current = run

	_, err := t.core.ExecContext(ctx, `
		INSERT INTO batch_runs (batch_run_id, started_at, triggered_by, total_jobs, status)
		VALUES (?, ?, ?, ?, 'running')
	`, run.BatchRunID, run.StartedAt.Unix(), run.TriggeredBy, run.TotalJobs)
	if err != nil {
		t.current = nil
		return nil, err
	}
	return run, nil
}

// Progress updates the in-memory counters read by the admin status
// endpoint. It does not touch the audit row: Start inserts it and Clear
// writes its final counters and status.
func (t *Tracker) Progress(completed, failed int, currentJobName, currentPortfolioName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return
	}
	t.current.CompletedJobs = completed
	t.current.FailedJobs = failed
	t.current.CurrentJobName = currentJobName
	t.current.CurrentPortfolioName = currentPortfolioName
}

// Current returns a copy of the active run and true, or false if idle.
func (t *Tracker) Current() (domain.BatchRun, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return domain.BatchRun{}, false
	}
	return *t.current, true
}

// Clear releases the tracker and writes the run's final status to the
// audit table. Callers must invoke this from a defer immediately after
// Start succeeds, so success, failure, panic-recovery, and cancellation
// all release the guard identically (spec.md §4.9's "guaranteed cleanup
// block").
func (t *Tracker) Clear(ctx context.Context, status string) {
	t.mu.Lock()
	run := t.current
	t.current = nil
	t.mu.Unlock()

	if run == nil {
		return
	}

	_, _ = t.core.ExecContext(ctx, `
		UPDATE batch_runs SET completed_at = ?, completed_jobs = ?, failed_jobs = ?, status = ?
		WHERE batch_run_id = ?
	`, time.Now().UTC().Unix(), run.CompletedJobs, run.FailedJobs, status, run.BatchRunID)
}
