package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrClosed = errors.New("queue closed")

// Local runs jobs on an in-process worker pool. Jobs still buffered when the
// process dies are lost.
type Local struct {
	router  *Router
	jobs    chan Job
	workers int
	timeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

func NewLocal(router *Router, workers, buffer int, timeout time.Duration) *Local {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Local{router: router, jobs: make(chan Job, buffer), workers: workers, timeout: timeout}
}

func (l *Local) Start() {
	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			for job := range l.jobs {
				ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
				l.router.Run(ctx, job)
				cancel()
			}
		}()
	}
}

func (l *Local) Publish(ctx context.Context, job Job) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for buffered ones to finish.
func (l *Local) Close() error {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.jobs)
		l.mu.Unlock()
	})
	l.wg.Wait()
	return nil
}
