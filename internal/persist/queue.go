package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrClosed is returned for jobs submitted after Close.
var ErrClosed = errors.New("persistence queue closed")

type job struct {
	ctx  context.Context
	run  func(ctx context.Context) (string, error)
	done chan result
}

type result struct {
	payload string
	err     error
}

// Queue runs persistence jobs one at a time in submission order on a single
// worker goroutine. Callers block until their own job has finished.
type Queue struct {
	backend Backend
	logger  *slog.Logger

	jobs chan job
	mu   sync.RWMutex
	shut bool
	wg   sync.WaitGroup
}

func NewQueue(backend Backend, logger *slog.Logger) *Queue {
	q := &Queue{
		backend: backend,
		logger:  logger,
		jobs:    make(chan job),
	}
	q.wg.Add(1)
	go q.work()
	return q
}

func (q *Queue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		if err := j.ctx.Err(); err != nil {
			j.done <- result{err: err}
			continue
		}
		payload, err := j.run(j.ctx)
		j.done <- result{payload: payload, err: err}
	}
}

func (q *Queue) submit(ctx context.Context, run func(ctx context.Context) (string, error)) (string, error) {
	q.mu.RLock()
	if q.shut {
		q.mu.RUnlock()
		return "", ErrClosed
	}
	j := job{ctx: ctx, run: run, done: make(chan result, 1)}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		q.mu.RUnlock()
		return "", ctx.Err()
	}
	q.mu.RUnlock()

	r := <-j.done
	return r.payload, r.err
}

// Save writes payload and reports whether it succeeded. Failures are logged.
func (q *Queue) Save(ctx context.Context, payload string) bool {
	_, err := q.submit(ctx, func(ctx context.Context) (string, error) {
		return "", q.backend.Save(ctx, payload)
	})
	if err != nil {
		q.logger.Error("save snapshot", slog.Any("error", err))
		return false
	}
	q.logger.Debug("snapshot saved", slog.Int("bytes", len(payload)))
	return true
}

// Load returns the latest payload. The bool is false when loading failed,
// which is logged; an empty payload with true means nothing was saved yet.
func (q *Queue) Load(ctx context.Context) (string, bool) {
	payload, err := q.submit(ctx, q.backend.Load)
	if err != nil {
		q.logger.Error("load snapshot", slog.Any("error", err))
		return "", false
	}
	return payload, true
}

// Close waits for queued jobs, stops the worker and closes the backend.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.shut {
		q.mu.Unlock()
		return nil
	}
	q.shut = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return q.backend.Close()
}
