// SPDX-License-Identifier: MPL-2.0

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"hawkeye/model"
)

const DefaultEventSubjectPrefix = "hawkeye.events."

const (
	EventChartSaved      = "chart.saved"
	EventChartSubmitted  = "chart.submitted"
	EventChartReviewed   = "chart.reviewed"
	EventChartPublished  = "chart.published"
	EventChartReconciled = "chart.reconciled"
)

type Event struct {
	ID                string            `json:"id" db:"id"`
	Type              string            `json:"type" db:"type"`
	Timestamp         time.Time         `json:"timestamp" db:"timestamp"`
	Actor             string            `json:"actor,omitempty" db:"actor"`
	SliceID           int64             `json:"sliceId" db:"slice_id"`
	ReportID          string            `json:"reportId" db:"report_id"`
	ChartID           string            `json:"chartId" db:"chart_id"`
	Status            model.ChartStatus `json:"status" db:"status"`
	PublishedReportID string            `json:"publishedReportId,omitempty" db:"published_report_id"`
}

// Events publishes chart lifecycle events to NATS. A nil *Events or one without a connection
// drops every event.
type Events struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func NewEvents(nc *nats.Conn, subjectPrefix string, logger *slog.Logger) *Events {
	if subjectPrefix == "" {
		subjectPrefix = DefaultEventSubjectPrefix
	}
	return &Events{conn: nc, prefix: subjectPrefix, logger: logger}
}

func (e *Events) Subject(eventType string) string {
	return e.prefix + eventType
}

// Emit never fails the caller. Delivery problems are logged.
func (e *Events) Emit(ctx context.Context, eventType string, report *model.Report, chart *model.Chart) {
	if e == nil || e.conn == nil {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		SliceID:   chart.SliceID,
		ReportID:  chart.ReportID,
		ChartID:   chart.ChartID,
		Status:    chart.Status,
	}
	if actor := ActorFromContext(ctx); actor != nil {
		event.Actor = actor.String()
	}
	if report != nil && report.PublishedReportID != nil {
		event.PublishedReportID = *report.PublishedReportID
	}
	if err := e.publish(event); err != nil {
		e.logger.Warn("failed to publish event", slog.String("type", eventType), slog.Any("error", err))
	}
}

func (e *Events) publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := nats.NewMsg(e.Subject(event.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	return e.conn.PublishMsg(msg)
}
