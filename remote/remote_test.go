// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hawkeye/compose"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(body)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGetReport(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"result":{"reports":[{"title":"Scans","status":"live","owner":"x"}]}}`)
	p, err := NewPortalClient(srv.URL+"/", "secret")
	require.NoError(t, err)

	doc, err := p.GetReport(t.Context(), "rep 1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Scans", doc.Title)
	assert.Equal(t, "live", doc.Status)
	assert.JSONEq(t, `"x"`, string(doc.Extra["owner"]))

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/report/get/rep 1", (*calls)[0].path)
	assert.Equal(t, "Bearer secret", (*calls)[0].auth)
}

func TestGetReportAbsent(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"result":{}}`)
	p, err := NewPortalClient(srv.URL, "secret")
	require.NoError(t, err)

	doc, err := p.GetReport(t.Context(), "r1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetReportNotFound(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"params":{"status":"failed","errmsg":"no report"}}`)
	p, err := NewPortalClient(srv.URL, "secret")
	require.NoError(t, err)

	_, err = p.GetReport(t.Context(), "r1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsCollision(err))
	assert.Contains(t, err.Error(), "no report")
}

func TestCreateAndUpdateReport(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"result":{"reportId":"r-42"}}`)
	p, err := NewPortalClient(srv.URL, "secret")
	require.NoError(t, err)

	id, err := p.CreateReport(t.Context(), compose.ReportConfig{Title: "Scans"})
	require.NoError(t, err)
	assert.Equal(t, "r-42", id)

	id, err = p.UpdateReport(t.Context(), "r-42", compose.ReportConfig{Title: "Scans"})
	require.NoError(t, err)
	assert.Equal(t, "r-42", id)

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "/report/create", (*calls)[0].path)
	assert.Equal(t, http.MethodPatch, (*calls)[1].method)
	assert.Equal(t, "/report/update/r-42", (*calls)[1].path)

	var sent struct {
		Request struct {
			Report map[string]json.RawMessage `json:"report"`
		} `json:"request"`
	}
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &sent))
	assert.JSONEq(t, `"Scans"`, string(sent.Request.Report["title"]))
}

func TestCreateReportWithoutID(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"result":{}}`)
	p, err := NewPortalClient(srv.URL, "secret")
	require.NoError(t, err)

	_, err = p.CreateReport(t.Context(), compose.ReportConfig{})
	require.Error(t, err)
	assert.True(t, HasStatusCode(err, http.StatusOK))
}

func TestGetJob(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"result":{"reportId":"c1","config":{"reportConfig":{"id":"c1"}}}}`)
	a, err := NewAnalyticsClient(srv.URL, "key")
	require.NoError(t, err)

	job, err := a.GetJob(t.Context(), "c1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "c1", job.Config.ReportConfig.ID)
	assert.Equal(t, "/report/jobs/c1", (*calls)[0].path)
}

func TestGetJobNull(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"result":null}`)
	a, err := NewAnalyticsClient(srv.URL, "key")
	require.NoError(t, err)

	job, err := a.GetJob(t.Context(), "c1")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestSubmitJobCollision(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
	}{
		"error status": {http.StatusBadRequest, `{"params":{"status":"failed","errmsg":"Report already exists"}}`},
		"ok status":    {http.StatusOK, `{"params":{"status":"failed","errmsg":"job already submitted"}}`},
	} {
		t.Run(name, func(t *testing.T) {
			srv, calls := newServer(t, tc.status, tc.body)
			a, err := NewAnalyticsClient(srv.URL, "key")
			require.NoError(t, err)

			err = a.SubmitJob(t.Context(), compose.JobConfig{ReportID: "c1"})
			require.Error(t, err)
			assert.True(t, IsCollision(err))
			assert.Equal(t, "/report/jobs/submit", (*calls)[0].path)
		})
	}
}

func TestSubmitJobServerError(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `boom`)
	a, err := NewAnalyticsClient(srv.URL, "key")
	require.NoError(t, err)

	err = a.SubmitJob(t.Context(), compose.JobConfig{})
	require.Error(t, err)
	assert.True(t, HasStatusCode(err, http.StatusInternalServerError))
	assert.False(t, IsCollision(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestUpdateJob(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"params":{"status":"successful"},"result":{}}`)
	a, err := NewAnalyticsClient(srv.URL, "key", WithTimeout(time.Second))
	require.NoError(t, err)

	require.NoError(t, a.UpdateJob(t.Context(), "c1", compose.JobConfig{ReportID: "c1"}))
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "/report/jobs/c1", (*calls)[0].path)

	var sent map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &sent))
	assert.JSONEq(t, `"c1"`, string(sent["request"]["reportId"]))
}

func TestMalformedResponse(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `<html>`)
	a, err := NewAnalyticsClient(srv.URL, "key")
	require.NoError(t, err)

	_, err = a.GetJob(t.Context(), "c1")
	require.Error(t, err)
	assert.True(t, HasStatusCode(err, http.StatusOK))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewPortalClient("", "key")
	require.Error(t, err)
	_, err = NewAnalyticsClient("http://localhost", "key", WithTimeout(-time.Second))
	require.Error(t, err)
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"result":null}`)
	shared := &http.Client{Timeout: time.Minute, Transport: srv.Client().Transport}

	a, err := NewAnalyticsClient(srv.URL, "key", WithHTTPClient(shared), WithTimeout(time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.Equal(t, time.Second, a.c.httpClient.Timeout)
	assert.Same(t, shared.Transport, a.c.httpClient.Transport)

	_, err = a.GetJob(t.Context(), "qr_scans")
	require.NoError(t, err)
	assert.Len(t, *calls, 1)
}
