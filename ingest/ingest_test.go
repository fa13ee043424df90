// SPDX-License-Identifier: MPL-2.0

package ingest

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"hawkeye/comms"
	"hawkeye/core"
	"hawkeye/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t *testing.T) (*sqlx.DB, comms.Comms) {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})
	require.NoError(t, core.InitDB(db))

	c, err := comms.New(comms.Config{DontListen: true, JetStream: true, JSDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return db, c
}

func countEvents(db *sqlx.DB) int {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM chart_events`); err != nil {
		return -1
	}
	return n
}

func TestIngestRecordsEvents(t *testing.T) {
	db, c := setup(t)
	logger := slog.New(slog.DiscardHandler)

	ing, err := Start(db, logger, c.Conn, core.DefaultEventSubjectPrefix, false)
	require.NoError(t, err)
	t.Cleanup(ing.Close)

	events := core.NewEvents(c.Conn, "", logger)
	chart := &model.Chart{SliceID: 7, ReportID: "rep1", ChartID: "qr_scans", Status: model.StatusDraft}
	events.Emit(t.Context(), core.EventChartSaved, nil, chart)
	chart.Status = model.StatusReview
	events.Emit(t.Context(), core.EventChartSubmitted, nil, chart)

	require.Eventually(t, func() bool { return countEvents(db) == 2 }, 5*time.Second, 50*time.Millisecond)

	var recorded []core.Event
	require.NoError(t, db.Select(&recorded, `SELECT * FROM chart_events ORDER BY rowid`))
	assert.Equal(t, core.EventChartSaved, recorded[0].Type)
	assert.Equal(t, model.StatusReview, recorded[1].Status)
	assert.Equal(t, int64(7), recorded[1].SliceID)
}

func TestIngestSkipsDuplicatesAndMalformed(t *testing.T) {
	db, c := setup(t)

	ing, err := Start(db, slog.New(slog.DiscardHandler), c.Conn, core.DefaultEventSubjectPrefix, false)
	require.NoError(t, err)
	t.Cleanup(ing.Close)

	event := core.Event{
		ID:        "evt-1",
		Type:      core.EventChartPublished,
		Timestamp: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		SliceID:   7,
		ReportID:  "rep1",
		ChartID:   "qr_scans",
		Status:    model.StatusLive,
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	subject := core.DefaultEventSubjectPrefix + core.EventChartPublished
	require.NoError(t, c.Conn.Publish(subject, []byte("not json")))
	require.NoError(t, c.Conn.Publish(subject, data))
	require.NoError(t, c.Conn.Publish(subject, data))
	require.NoError(t, c.Conn.Flush())

	require.Eventually(t, func() bool { return countEvents(db) == 1 }, 5*time.Second, 50*time.Millisecond)
	time.Sleep(2 * BATCH_TIMEOUT)
	assert.Equal(t, 1, countEvents(db))
}
