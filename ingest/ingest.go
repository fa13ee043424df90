// SPDX-License-Identifier: MPL-2.0

// Package ingest records the chart lifecycle events published on NATS into the chart_events
// table, so a chart's history can be listed after the fact.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hawkeye/core"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	STREAM_NAME    = "hawkeye-events"
	CONSUMER_NAME  = "hawkeye-history"
	BATCH_SIZE     = 100
	BATCH_TIMEOUT  = 500 * time.Millisecond
	SLEEP_ON_ERROR = 10 * time.Second
)

type Ingest struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func Start(db *sqlx.DB, logger *slog.Logger, nc *nats.Conn, subjectPrefix string, persist bool) (Ingest, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return Ingest{}, fmt.Errorf("failed to create JetStream: %w", err)
	}
	consumer, err := setupStreamAndConsumer(js, subjectPrefix, persist)
	if err != nil {
		return Ingest{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		processMessages(ctx, js, consumer, logger, db, subjectPrefix, persist)
	}()
	return Ingest{cancel: cancel, done: done}, nil
}

func setupStreamAndConsumer(js jetstream.JetStream, subjectPrefix string, persist bool) (jetstream.Consumer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	storageType := jetstream.MemoryStorage
	if persist {
		storageType = jetstream.FileStorage
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     STREAM_NAME,
		Subjects: []string{subjectPrefix + ">"},
		Storage:  storageType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:   CONSUMER_NAME,
		AckPolicy: jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update consumer: %w", err)
	}
	return consumer, nil
}

func processMessages(ctx context.Context, js jetstream.JetStream, consumer jetstream.Consumer, logger *slog.Logger, db *sqlx.DB, subjectPrefix string, persist bool) {
	for ctx.Err() == nil {
		err := handleBatch(consumer, logger, db)
		if err == nil {
			continue
		}
		logger.Error("Event ingest failed, recreating consumer", slog.Any("error", err), slog.Duration("sleep", SLEEP_ON_ERROR))
		select {
		case <-ctx.Done():
			return
		case <-time.After(SLEEP_ON_ERROR):
		}
		newConsumer, err := setupStreamAndConsumer(js, subjectPrefix, persist)
		if err != nil {
			logger.Error("Failed to recreate ingest consumer", slog.Any("error", err))
			continue
		}
		logger.Info("Recreated ingest consumer")
		consumer = newConsumer
	}
}

func handleBatch(c jetstream.Consumer, logger *slog.Logger, db *sqlx.DB) error {
	batch, err := c.Fetch(BATCH_SIZE, jetstream.FetchMaxWait(BATCH_TIMEOUT))
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	var msgs []jetstream.Msg
	for msg := range batch.Messages() {
		msgs = append(msgs, msg)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	start := time.Now()
	if err := processBatch(context.Background(), db, logger, msgs); err != nil {
		return err
	}
	logger.Debug("Recorded event batch", slog.Int("size", len(msgs)), slog.Duration("duration", time.Since(start)))
	return nil
}

// processBatch stores the batch in one transaction and acks it afterwards.
// Messages that are not events are terminated so they are never redelivered.
func processBatch(ctx context.Context, db *sqlx.DB, logger *slog.Logger, msgs []jetstream.Msg) error {
	events := make([]core.Event, 0, len(msgs))
	valid := make([]jetstream.Msg, 0, len(msgs))
	for _, msg := range msgs {
		var event core.Event
		err := json.Unmarshal(msg.Data(), &event)
		if err == nil && event.ID == "" {
			err = errors.New("missing id")
		}
		if err != nil {
			logger.Warn("Dropping malformed event", slog.String("subject", msg.Subject()), slog.Any("error", err))
			if err := msg.Term(); err != nil {
				return fmt.Errorf("failed to terminate message: %w", err)
			}
			continue
		}
		events = append(events, event)
		valid = append(valid, msg)
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := core.RecordEvents(ctx, tx, events); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	for _, msg := range valid {
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to acknowledge message: %w", err)
		}
	}
	return nil
}

// Close stops consuming and waits for the batch in flight.
func (i Ingest) Close() {
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
}
