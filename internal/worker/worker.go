// Package worker runs queued delivery tasks on a pool of goroutines with an
// explicit retry policy.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of asynchronous work. Execute returning an error marks the
// attempt failed and eligible for retry.
type Task interface {
	Name() string
	Execute(ctx context.Context) error
}

// RetryPolicy bounds how a failing task is retried. Attempts for one task are
// strictly sequential with Backoff enforced between them.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy retries up to 3 attempts with a fixed one-minute backoff.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: time.Minute}

// Queue buffers tasks and processes them concurrently. Distinct tasks may run
// in parallel; a single task is processed by one worker at a time.
type Queue struct {
	tasks  chan Task
	policy RetryPolicy
	log    *zap.Logger
	wg     sync.WaitGroup

	// OnPermanentFailure runs once a task has exhausted its attempts. The
	// default only logs; set before Start to override.
	OnPermanentFailure func(task Task, err error)
}

// NewQueue creates a Queue holding up to size pending tasks.
func NewQueue(size int, policy RetryPolicy, log *zap.Logger) *Queue {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Queue{
		tasks:  make(chan Task, size),
		policy: policy,
		log:    log,
	}
}

// Enqueue schedules a task. It blocks when the queue is full.
func (q *Queue) Enqueue(task Task) {
	q.tasks <- task
}

// Start launches the worker pool. Workers stop when ctx is cancelled.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.run(ctx)
		}()
	}
}

// Wait blocks until every worker has stopped.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.process(ctx, task)
		}
	}
}

func (q *Queue) process(ctx context.Context, task Task) {
	var lastErr error

	for attempt := 1; attempt <= q.policy.MaxAttempts; attempt++ {
		lastErr = task.Execute(ctx)
		if lastErr == nil {
			return
		}

		q.log.Warn("task attempt failed",
			zap.String("task", task.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", q.policy.MaxAttempts),
			zap.Error(lastErr))

		if attempt == q.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.policy.Backoff):
		}
	}

	if q.OnPermanentFailure != nil {
		q.OnPermanentFailure(task, lastErr)
		return
	}
	q.log.Error("task failed permanently",
		zap.String("task", task.Name()),
		zap.Int("attempts", q.policy.MaxAttempts),
		zap.Error(lastErr))
}
