// SPDX-License-Identifier: MPL-2.0

// Package snapshots keeps a copy of every report and job document that was published,
// so a portal or analytics configuration can be inspected or restored by hand.
package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/minio/minio-go/v7"

	"hawkeye/compose"
)

const (
	DEFAULT_PREFIX = "hawkeye-snapshots/"
	TIMESTAMP_FMT  = "20060102T150405Z"
)

type Config struct {
	Logger      *slog.Logger
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string // Optional - if empty, will use credential chain
	S3SecretKey string // Optional - if empty, will use credential chain
	Prefix      string
	Now         func() time.Time
}

type Archiver struct {
	config Config
	client *minio.Client
}

func hasConfig(config Config) bool {
	return config.S3Bucket != "" && config.S3Endpoint != ""
}

// New returns nil without an error when no bucket is configured.
func New(config Config) (*Archiver, error) {
	if !hasConfig(config) {
		if config.Logger != nil {
			config.Logger.Info("Snapshots disabled")
		}
		return nil, nil
	}
	if config.Prefix == "" {
		config.Prefix = DEFAULT_PREFIX
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	client, err := newMinioClient(config.S3Endpoint, config.S3Region, config.S3AccessKey, config.S3SecretKey)
	if err != nil {
		return nil, err
	}
	return &Archiver{config: config, client: client}, nil
}

func objectKey(prefix, chartID string, ts time.Time, kind string) string {
	return path.Join(prefix, chartID, ts.UTC().Format(TIMESTAMP_FMT)+"-"+kind+".json")
}

// Archive uploads the report and job documents published for chartID.
func (a *Archiver) Archive(ctx context.Context, chartID string, report compose.ReportConfig, job compose.JobConfig) error {
	start := time.Now()
	ts := a.config.Now()
	err := a.put(ctx, objectKey(a.config.Prefix, chartID, ts, "report"), report)
	if err == nil {
		err = a.put(ctx, objectKey(a.config.Prefix, chartID, ts, "job"), job)
	}
	if err != nil {
		metricArchiveCounter.WithLabelValues("failed").Inc()
		return err
	}
	metricArchiveCounter.WithLabelValues("success").Inc()
	metricArchiveDuration.Observe(time.Since(start).Seconds())
	a.config.Logger.Info("Archived published documents", slog.String("chart", chartID))
	return nil
}

func (a *Archiver) put(ctx context.Context, key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	_, err = a.client.PutObject(ctx, a.config.S3Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}
