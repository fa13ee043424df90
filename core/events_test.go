// SPDX-License-Identifier: MPL-2.0

package core

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkeye/comms"
	"hawkeye/model"
)

func TestEventsEmit(t *testing.T) {
	c, err := comms.New(comms.Config{DontListen: true})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	events := NewEvents(c.Conn, "", slog.New(slog.DiscardHandler))
	sub, err := c.Conn.SubscribeSync(DefaultEventSubjectPrefix + ">")
	require.NoError(t, err)

	report, chart := testReportAndChart(model.StatusLive)
	published := "portal-1"
	report.PublishedReportID = &published
	events.Emit(as("rita", ROLE_REVIEWER), EventChartPublished, report, chart)

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hawkeye.events.chart.published", msg.Subject)

	var event Event
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, EventChartPublished, event.Type)
	assert.Equal(t, "reviewer:rita", event.Actor)
	assert.Equal(t, int64(7), event.SliceID)
	assert.Equal(t, "qr_scans", event.ChartID)
	assert.Equal(t, model.StatusLive, event.Status)
	assert.Equal(t, "portal-1", event.PublishedReportID)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, event.ID, msg.Header.Get(nats.MsgIdHdr))
}

func TestEventsWithoutConnection(t *testing.T) {
	report, chart := testReportAndChart(model.StatusDraft)

	var events *Events
	assert.NotPanics(t, func() { events.Emit(t.Context(), EventChartSaved, report, chart) })
	assert.NotPanics(t, func() {
		NewEvents(nil, "custom.", slog.New(slog.DiscardHandler)).Emit(t.Context(), EventChartSaved, report, chart)
	})
	assert.Equal(t, "custom.chart.saved", NewEvents(nil, "custom.", nil).Subject(EventChartSaved))
}
