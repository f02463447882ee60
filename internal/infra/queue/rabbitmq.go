package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// RabbitMQ publishes jobs to a durable queue and consumes them with the same
// Router, so side effects survive a restart between publish and execution.
type RabbitMQ struct {
	conn    *amqp.Connection
	pubCh   *amqp.Channel
	pubMu   sync.Mutex
	queue   string
	router  *Router
	timeout time.Duration
	log     zerolog.Logger
	done    chan struct{}
}

type RabbitMQConfig struct {
	URL      string
	Queue    string
	Prefetch int
	Timeout  time.Duration
}

func NewRabbitMQ(cfg RabbitMQConfig, router *Router, log zerolog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", cfg.Queue, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	log.Info().Str("queue", cfg.Queue).Msg("connected to rabbitmq")
	return &RabbitMQ{
		conn:    conn,
		pubCh:   ch,
		queue:   cfg.Queue,
		router:  router,
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return r.pubCh.Publish(
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    job.ID,
			Type:         job.Type,
			Timestamp:    job.CreatedAt,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// Consume starts a consumer goroutine on its own channel. Messages are acked
// after the handler ran, whatever the outcome; failures are only logged.
func (r *RabbitMQ) Consume(prefetch int) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	if prefetch <= 0 {
		prefetch = 4
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	msgs, err := ch.Consume(
		r.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-r.done:
				return
			case d, ok := <-msgs:
				if !ok {
					r.log.Warn().Msg("rabbitmq delivery channel closed")
					return
				}
				r.handle(d)
			}
		}
	}()
	return nil
}

func (r *RabbitMQ) handle(d amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		r.log.Error().Err(err).Str("message_id", d.MessageId).Msg("undecodable job dropped")
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	r.router.Run(ctx, job)
	cancel()

	if err := d.Ack(false); err != nil {
		r.log.Warn().Err(err).Str("job_id", job.ID).Msg("rabbitmq ack failed")
	}
}

func (r *RabbitMQ) Close() error {
	close(r.done)
	var lastErr error
	if err := r.pubCh.Close(); err != nil {
		lastErr = err
	}
	if err := r.conn.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}
