package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Job is one side effect to run after the request that produced it returned.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob marshals payload into a Job of the given type.
func NewJob(jobType string, payload interface{}) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s job: %w", jobType, err)
	}
	return Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Handler func(ctx context.Context, job Job) error

// Publisher accepts jobs for asynchronous execution.
type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

// Router maps job types to handlers. Unknown types are logged and dropped.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      zerolog.Logger
}

func NewRouter(log zerolog.Logger) *Router {
	return &Router{handlers: map[string]Handler{}, log: log}
}

func (r *Router) Handle(jobType string, h Handler) {
	r.mu.Lock()
	r.handlers[jobType] = h
	r.mu.Unlock()
}

// Run executes the job and logs the outcome. Errors never propagate.
func (r *Router) Run(ctx context.Context, job Job) {
	r.mu.RLock()
	h, ok := r.handlers[job.Type]
	r.mu.RUnlock()

	l := r.log.With().Str("job_id", job.ID).Str("job_type", job.Type).Logger()
	if !ok {
		l.Warn().Msg("no handler for job type")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("job panicked")
		}
	}()

	start := time.Now()
	if err := h(ctx, job); err != nil {
		l.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return
	}
	l.Debug().Dur("took", time.Since(start)).Msg("job done")
}
