// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"context"
	"net/http"
	"net/url"

	"hawkeye/compose"
)

// PortalClient talks to the report portal that stores report presentation configs.
type PortalClient struct {
	c *client
}

func NewPortalClient(baseURL, apiKey string, opts ...Option) (*PortalClient, error) {
	c, err := newClient("portal", baseURL, apiKey, opts)
	if err != nil {
		return nil, err
	}
	return &PortalClient{c: c}, nil
}

type reportRequest struct {
	Request struct {
		Report compose.ReportConfig `json:"report"`
	} `json:"request"`
}

func newReportRequest(doc compose.ReportConfig) reportRequest {
	var r reportRequest
	r.Request.Report = doc
	return r
}

type reportIDResult struct {
	ReportID string `json:"reportId"`
}

// GetReport returns the stored document, or nil when the portal has none for id.
func (p *PortalClient) GetReport(ctx context.Context, id string) (*compose.ReportConfig, error) {
	var result struct {
		Reports []compose.ReportConfig `json:"reports"`
	}
	if err := p.c.doJSON(ctx, http.MethodGet, "/report/get/"+url.PathEscape(id), "get report", nil, &result); err != nil {
		return nil, err
	}
	if len(result.Reports) == 0 {
		return nil, nil
	}
	return &result.Reports[0], nil
}

// CreateReport stores a new document and returns the id the portal assigned to it.
func (p *PortalClient) CreateReport(ctx context.Context, doc compose.ReportConfig) (string, error) {
	var result reportIDResult
	if err := p.c.doJSON(ctx, http.MethodPost, "/report/create", "create report", newReportRequest(doc), &result); err != nil {
		return "", err
	}
	if result.ReportID == "" {
		return "", newAPIError("create report", http.StatusOK, "response has no reportId")
	}
	return result.ReportID, nil
}

func (p *PortalClient) UpdateReport(ctx context.Context, id string, doc compose.ReportConfig) (string, error) {
	var result reportIDResult
	if err := p.c.doJSON(ctx, http.MethodPatch, "/report/update/"+url.PathEscape(id), "update report", newReportRequest(doc), &result); err != nil {
		return "", err
	}
	if result.ReportID == "" {
		return id, nil
	}
	return result.ReportID, nil
}
