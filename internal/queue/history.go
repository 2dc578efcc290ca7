package queue

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// History tracks job execution history
type History struct {
	db *sql.DB
}

// NewHistory creates a new job history tracker
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// ShouldRun checks if a job should run based on its last execution time and interval
func (h *History) ShouldRun(jobType JobType, interval time.Duration) bool {
	if h.db == nil {
		// No database - should run (fallback behavior)
		return true
	}

	var lastRunAtUnix sql.NullInt64
	err := h.db.QueryRow(
		"SELECT last_run_at FROM job_history WHERE job_type = ?",
		string(jobType),
	).Scan(&lastRunAtUnix)

	if err == sql.ErrNoRows {
		// Never run before - should run
		return true
	}
	if err != nil {
		// Error querying - err on side of running
		return true
	}

	if !lastRunAtUnix.Valid {
		// NULL value - should run
		return true
	}

	lastRunAt := time.Unix(lastRunAtUnix.Int64, 0).UTC()

	nextRun := lastRunAt.Add(interval)
	return time.Now().After(nextRun)
}

// RecordExecution records a job execution, msgpack-encoding payload into
// job_history's detail blob so an admin reading job history back (LastDetail)
// gets the exact arguments a scheduled or triggered run executed with,
// without a schema migration per job type's own ad-hoc field set.
func (h *History) RecordExecution(jobType JobType, timestamp time.Time, status string, payload map[string]interface{}) error {
	if h.db == nil {
		// No database - silently succeed (for testing)
		return nil
	}

	var detail []byte
	if len(payload) > 0 {
		encoded, err := msgpack.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode job detail: %w", err)
		}
		detail = encoded
	}

	lastRunAt := timestamp.Unix()

	_, err := h.db.Exec(`
		INSERT INTO job_history (job_type, last_run_at, last_status, detail_blob)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(job_type) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_status = excluded.last_status,
			detail_blob = excluded.detail_blob
	`, string(jobType), lastRunAt, status, detail)

	if err != nil {
		return fmt.Errorf("failed to record job execution: %w", err)
	}

	return nil
}

// LastDetail decodes the msgpack payload RecordExecution stored for
// jobType's most recent run, for admin diagnostics. Returns ok=false when
// the job type has never run or ran with an empty payload.
func (h *History) LastDetail(jobType JobType) (payload map[string]interface{}, ok bool, err error) {
	if h.db == nil {
		return nil, false, nil
	}

	var detail sql.NullString
	row := h.db.QueryRow(`SELECT detail_blob FROM job_history WHERE job_type = ?`, string(jobType))
	if scanErr := row.Scan(&detail); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load job detail: %w", scanErr)
	}
	if !detail.Valid || detail.String == "" {
		return nil, false, nil
	}

	var decoded map[string]interface{}
	if err := msgpack.Unmarshal([]byte(detail.String), &decoded); err != nil {
		return nil, false, fmt.Errorf("decode job detail: %w", err)
	}
	return decoded, true, nil
}
