// SPDX-License-Identifier: MPL-2.0

package core

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"hawkeye/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})
	if err := InitDB(db); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := t.Context()
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	report, chart := testReportAndChart(model.StatusDraft)
	report.CreatedAt, report.UpdatedAt = now, now
	chart.CreatedAt, chart.UpdatedAt = now, now

	require.NoError(t, store.SaveReport(ctx, report))
	require.NoError(t, store.SaveChart(ctx, chart))

	gotChart, err := store.LoadChartBySlice(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "qr_scans", gotChart.ChartID)
	assert.Equal(t, model.Labels{"state": "State", "count": "Total Scans"}, gotChart.LabelMapping)
	assert.JSONEq(t, testSourceQuery, string(gotChart.SourceQuery))
	assert.Equal(t, model.StatusDraft, gotChart.Status)
	assert.True(t, gotChart.IsNewChart)
	assert.True(t, now.Equal(gotChart.CreatedAt))

	gotReport, err := store.LoadReportBySlice(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "QR scans", gotReport.Name)
	assert.Equal(t, model.ReportOneTime, gotReport.Type)
	assert.Nil(t, gotReport.PublishedReportID)

	byID, err := store.LoadReport(ctx, "rep1")
	require.NoError(t, err)
	assert.Equal(t, gotReport.ID, byID.ID)
}

func TestSQLStoreUpserts(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := t.Context()

	report, chart := testReportAndChart(model.StatusDraft)
	require.NoError(t, store.SaveReport(ctx, report))
	require.NoError(t, store.SaveChart(ctx, chart))

	published := "portal-1"
	report.PublishedReportID = &published
	chart.Status = model.StatusLive
	chart.ChartID = "qr_scans_1"
	chart.SubmittedAsJob = true
	require.NoError(t, store.SaveReport(ctx, report))
	require.NoError(t, store.SaveChart(ctx, chart))

	gotChart, err := store.LoadChartBySlice(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLive, gotChart.Status)
	assert.Equal(t, "qr_scans_1", gotChart.ChartID)
	assert.True(t, gotChart.SubmittedAsJob)

	gotReport, err := store.LoadReport(ctx, "rep1")
	require.NoError(t, err)
	require.NotNil(t, gotReport.PublishedReportID)
	assert.Equal(t, "portal-1", *gotReport.PublishedReportID)
}

func TestSQLStoreNotFound(t *testing.T) {
	store := NewSQLStore(newTestDB(t))
	ctx := t.Context()

	_, err := store.LoadChartBySlice(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadReportBySlice(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
