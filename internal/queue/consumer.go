// Package queue consumes flight-path updates published by the scheduler.
// Delivery is at-most-once: a message that fails validation or the write
// is logged and dropped, and the scheduler re-publishes.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alitto/pond"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"svc_gis/internal/logging"
	"svc_gis/internal/postgis"
	"svc_gis/internal/rpc"
)

// Consumer subscribes to the flight-path subject and applies each message
// through a bounded worker pool.
type Consumer struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	workers *pond.WorkerPool
	db      *postgis.DB
	subject string
	log     zerolog.Logger
}

// New connects to NATS and prepares the worker pool. Call Start to begin
// consuming.
func New(url, subject string, workers int, db *postgis.DB) (*Consumer, error) {
	nc, err := nats.Connect(url, nats.Name("svc-gis"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	if workers <= 0 {
		workers = 4
	}

	return &Consumer{
		nc:      nc,
		workers: pond.New(workers, 0, pond.MinWorkers(workers)),
		db:      db,
		subject: subject,
		log:     logging.Component("queue"),
	}, nil
}

// Start subscribes to the flight-path subject.
func (c *Consumer) Start(ctx context.Context) error {
	sub, err := c.nc.Subscribe(c.subject, func(msg *nats.Msg) {
		data := msg.Data
		c.workers.Submit(func() {
			if err := c.process(ctx, data); err != nil {
				c.log.Error().Err(err).Str("subject", c.subject).
					Msg("dropped flight path message")
			}
		})
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}

	c.sub = sub
	c.log.Info().Str("subject", c.subject).Msg("consuming flight path updates")
	return nil
}

func (c *Consumer) process(ctx context.Context, data []byte) error {
	var flight rpc.UpdateFlightPathRequest
	if err := json.Unmarshal(data, &flight); err != nil {
		return fmt.Errorf("unmarshal flight path: %w", err)
	}
	return c.db.UpdateFlightPath(ctx, flight)
}

// Close unsubscribes, waits for in-flight work and closes the NATS
// connection. Messages not yet handed to the worker pool are dropped.
func (c *Consumer) Close() {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	c.workers.StopAndWait()
	c.nc.Close()
}
