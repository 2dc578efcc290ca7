package queue

import (
	"errors"
	"sync"
	"time"
)

// ErrQueueEmpty is returned by Dequeue when no job is currently available.
var ErrQueueEmpty = errors.New("queue: no job available")

// MemoryQueue is an in-process priority queue. Jobs whose AvailableAt is in
// the future are retained but not eligible for dequeue until that time
// passes (used for retry backoff). Among eligible jobs, highest Priority
// wins; ties break FIFO by CreatedAt.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []*Job
}

// NewMemoryQueue creates an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Enqueue adds a job to the queue.
func (q *MemoryQueue) Enqueue(job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// Dequeue removes and returns the highest-priority eligible job. Returns
// ErrQueueEmpty if no job's AvailableAt has passed.
func (q *MemoryQueue) Dequeue() (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	bestIdx := -1
	for i, j := range q.jobs {
		if j.AvailableAt.After(now) {
			continue
		}
		if bestIdx == -1 {
			bestIdx = i
			continue
		}
		best := q.jobs[bestIdx]
		if j.Priority > best.Priority || (j.Priority == best.Priority && j.CreatedAt.Before(best.CreatedAt)) {
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return nil, ErrQueueEmpty
	}

	job := q.jobs[bestIdx]
	q.jobs = append(q.jobs[:bestIdx], q.jobs[bestIdx+1:]...)
	return job, nil
}

// Size returns the total number of jobs in the queue, available or not.
func (q *MemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

var _ Queue = (*MemoryQueue)(nil)
