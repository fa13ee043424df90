// SPDX-License-Identifier: MPL-2.0

package snapshots

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkeye/compose"
)

func TestObjectKey(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 4, 5, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "hawkeye-snapshots/qr_scans/20240305T043405Z-job.json", objectKey(DEFAULT_PREFIX, "qr_scans", ts, "job"))
	assert.Equal(t, "qr_scans/20240305T043405Z-report.json", objectKey("", "qr_scans", ts, "report"))
}

func TestNewWithoutBucketIsDisabled(t *testing.T) {
	a, err := New(Config{S3Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestArchiveUploadsBothDocuments(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a, err := New(Config{
		S3Bucket:    "archive",
		S3Region:    "us-east-1",
		S3Endpoint:  srv.URL,
		S3AccessKey: "key",
		S3SecretKey: "secret",
		Now:         func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	require.NotNil(t, a)

	err = a.Archive(t.Context(), "qr_scans", compose.ReportConfig{Title: "QR scans"}, compose.JobConfig{ReportID: "qr_scans"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PUT /archive/hawkeye-snapshots/qr_scans/20240305T000000Z-report.json",
		"PUT /archive/hawkeye-snapshots/qr_scans/20240305T000000Z-job.json",
	}, paths)
}

func TestArchiveReportsUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	a, err := New(Config{S3Bucket: "archive", S3Region: "us-east-1", S3Endpoint: srv.URL, S3AccessKey: "key", S3SecretKey: "secret"})
	require.NoError(t, err)

	err = a.Archive(t.Context(), "qr_scans", compose.ReportConfig{}, compose.JobConfig{})
	assert.Error(t, err)
}
