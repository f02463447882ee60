package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bali-advisory/pkg/logger"
)

type emailPayload struct {
	To string `json:"to"`
}

func TestLocalRunsJobs(t *testing.T) {
	router := NewRouter(logger.Nop())

	var mu sync.Mutex
	var got []string
	router.Handle("email", func(ctx context.Context, job Job) error {
		var p emailPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, p.To)
		mu.Unlock()
		return nil
	})
	router.Handle("crm", func(ctx context.Context, job Job) error {
		return errors.New("odoo down")
	})

	q := NewLocal(router, 2, 8, time.Second)
	q.Start()

	for _, to := range []string{"a@example.com", "b@example.com"} {
		job, err := NewJob("email", emailPayload{To: to})
		require.NoError(t, err)
		require.NoError(t, q.Publish(context.Background(), job))
	}
	crm, err := NewJob("crm", nil)
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), crm))

	unknown, err := NewJob("sms", nil)
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), unknown))

	require.NoError(t, q.Close())
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, got)

	assert.ErrorIs(t, q.Publish(context.Background(), crm), ErrClosed)
}

func TestLocalPublishGivesUpWhenBufferFull(t *testing.T) {
	q := NewLocal(NewRouter(logger.Nop()), 1, 1, time.Second)

	job, err := NewJob("email", emailPayload{To: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(context.Background(), job))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = q.Publish(ctx, job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// a timed-out publisher must not hold up shutdown
	require.NoError(t, q.Close())
}

func TestRouterRecoversPanics(t *testing.T) {
	router := NewRouter(logger.Nop())
	router.Handle("boom", func(ctx context.Context, job Job) error { panic("nil map") })

	job, err := NewJob("boom", nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { router.Run(context.Background(), job) })
}
