// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"context"
	"net/http"
	"net/url"

	"hawkeye/compose"
)

// AnalyticsClient talks to the job-analytics service that runs the data extraction jobs.
type AnalyticsClient struct {
	c *client
}

func NewAnalyticsClient(baseURL, apiKey string, opts ...Option) (*AnalyticsClient, error) {
	c, err := newClient("analytics", baseURL, apiKey, opts)
	if err != nil {
		return nil, err
	}
	return &AnalyticsClient{c: c}, nil
}

type jobRequest struct {
	Request compose.JobConfig `json:"request"`
}

// GetJob returns the job registered under chartID, or nil when there is none.
func (a *AnalyticsClient) GetJob(ctx context.Context, chartID string) (*compose.JobConfig, error) {
	var job *compose.JobConfig
	if err := a.c.doJSON(ctx, http.MethodGet, "/report/jobs/"+url.PathEscape(chartID), "get job", nil, &job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob registers a new job. A *CollisionError means the job's report id is taken.
func (a *AnalyticsClient) SubmitJob(ctx context.Context, job compose.JobConfig) error {
	return a.c.doJSON(ctx, http.MethodPost, "/report/jobs/submit", "submit job", jobRequest{Request: job}, nil)
}

func (a *AnalyticsClient) UpdateJob(ctx context.Context, chartID string, job compose.JobConfig) error {
	return a.c.doJSON(ctx, http.MethodPost, "/report/jobs/"+url.PathEscape(chartID), "update job", jobRequest{Request: job}, nil)
}
