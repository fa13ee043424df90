// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hawkeye/comms"
	"hawkeye/compose"
	"hawkeye/core"
	"hawkeye/ingest"
	"hawkeye/metrics"
	"hawkeye/remote"
	"hawkeye/snapshots"
	"hawkeye/util/signals"
	"hawkeye/web"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffyaml"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"
)

type Config struct {
	Address            string
	Port               int
	DBFile             string
	JWTSecret          []byte
	LogLevel           slog.Level
	LogFormat          string
	PortalAPIHost      string
	PortalAPIKey       string
	PortalHost         string
	AnalyticsAPIHost   string
	AnalyticsAPIKey    string
	RequestTimeout     time.Duration
	PublishAttempts    int
	PublishRetryDelay  time.Duration
	ReviewerRole       string
	JobCreatedBy       string
	JobStore           string
	JobContainer       string
	JobKeyPrefix       string
	ReportRoles        []string
	ReportTags         []string
	ReportSlug         string
	RollupColumn       string
	NatsURL            string
	NatsHost           string
	NatsPort           int
	NatsToken          string
	NatsDontListen     bool
	NatsJSDir          string
	EventSubjectPrefix string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	SnapshotPrefix     string
}

func main() {
	config := loadConfig()
	signals.HandleInterrupt(Run(config))
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func loadConfig() Config {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	flags := ff.NewFlagSet("hawkeye")
	help := flags.Bool('h', "help", "show help")
	_ = flags.StringLong("config", "", "path to a YAML config file")
	addr := flags.StringLong("addr", "0.0.0.0", "server address")
	port := flags.Int('p', "port", 3000, "port to listen on")
	dbFile := flags.String('d', "db", "hawkeye.db", "path to the sqlite file holding reports and charts")
	jwtSecret := flags.StringLong("jwt-secret", "", "secret the HS256 API tokens are signed with (required)")
	logLevel := flags.StringLong("log-level", "info", "log level: debug, info, warn or error")
	logFormat := flags.StringLong("log-format", "text", "log format: text or json")
	portalAPIHost := flags.StringLong("portal-api-host", "", "base URL of the report portal API (required)")
	portalAPIKey := flags.StringLong("portal-api-key", "", "bearer token for the report portal API")
	portalHost := flags.StringLong("portal-host", "", "public portal URL used for report preview links")
	analyticsAPIHost := flags.StringLong("analytics-api-host", "", "base URL of the job analytics API (required)")
	analyticsAPIKey := flags.StringLong("analytics-api-key", "", "bearer token for the job analytics API")
	requestTimeout := flags.DurationLong("request-timeout", 30*time.Second, "timeout for each request to an external service")
	publishAttempts := flags.IntLong("publish-attempts", core.DefaultRetryAttempts, "attempts per publish stage")
	publishRetryDelay := flags.DurationLong("publish-retry-delay", core.DefaultRetryDelay, "delay between publish attempts")
	reviewerRole := flags.StringLong("reviewer-role", core.ROLE_REVIEWER, "token role allowed to review and publish reports")
	jobCreatedBy := flags.StringLong("job-created-by", "hawkeye", "createdBy of submitted analytics jobs")
	jobStore := flags.StringLong("job-store", "azure", "storage backend the analytics jobs write to")
	jobContainer := flags.StringLong("job-container", "reports", "storage container the analytics jobs write to")
	jobKeyPrefix := flags.StringLong("job-key-prefix", "hawkeye/", "object key prefix for job output")
	reportRoles := flags.StringLong("report-roles", "ORG_ADMIN,REPORT_VIEWER,REPORT_ADMIN", "comma separated roles allowed to see portal reports")
	reportTags := flags.StringLong("report-tags", "Dashboards", "comma separated tags for portal reports")
	reportSlug := flags.StringLong("report-slug", "hawkeye", "slug of portal reports")
	rollupColumn := flags.StringLong("rollup-column", "Date", "date column used when jobs roll up data")
	natsURL := flags.StringLong("nats-url", "", "URL of an external NATS server (default: run an embedded one)")
	natsHost := flags.StringLong("nats-host", "0.0.0.0", "embedded NATS server host")
	natsPort := flags.IntLong("nats-port", 4222, "embedded NATS server port")
	natsToken := flags.StringLong("nats-token", "", "NATS authentication token")
	natsDontListen := flags.BoolLong("nats-dont-listen", "do not expose the embedded NATS server on any port")
	natsJSDir := flags.StringLong("nats-js-dir", "", "JetStream storage directory for the event history stream (default: in-memory)")
	eventSubjectPrefix := flags.StringLong("event-subject-prefix", core.DefaultEventSubjectPrefix, "subject prefix for chart lifecycle events")
	s3Bucket := flags.StringLong("s3-bucket", "", "bucket for published document snapshots (default: snapshots disabled)")
	s3Region := flags.StringLong("s3-region", "", "S3 region")
	s3Endpoint := flags.StringLong("s3-endpoint", "", "S3 endpoint, prefix with http:// to disable TLS")
	s3AccessKey := flags.StringLong("s3-access-key", "", "S3 access key (default: credential chain)")
	s3SecretKey := flags.StringLong("s3-secret-key", "", "S3 secret key (default: credential chain)")
	snapshotPrefix := flags.StringLong("snapshot-prefix", snapshots.DEFAULT_PREFIX, "object key prefix for snapshots")

	err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVars(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parse),
		ff.WithConfigAllowMissingFile(),
	)
	if err == nil {
		err = errors.Join(
			required("--jwt-secret", *jwtSecret),
			required("--portal-api-host", *portalAPIHost),
			required("--analytics-api-host", *analyticsAPIHost),
		)
	}
	var level slog.Level
	if err == nil {
		err = level.UnmarshalText([]byte(*logLevel))
	}
	if err == nil && *logFormat != "text" && *logFormat != "json" {
		err = fmt.Errorf("--log-format must be text or json")
	}
	if *help {
		fmt.Printf("%s\n", ffhelp.Flags(flags))
		os.Exit(0)
	}
	if err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(flags))
		fmt.Printf("err=%v\n", err)
		os.Exit(1)
	}

	return Config{
		Address:            *addr,
		Port:               *port,
		DBFile:             *dbFile,
		JWTSecret:          []byte(*jwtSecret),
		LogLevel:           level,
		LogFormat:          *logFormat,
		PortalAPIHost:      *portalAPIHost,
		PortalAPIKey:       *portalAPIKey,
		PortalHost:         *portalHost,
		AnalyticsAPIHost:   *analyticsAPIHost,
		AnalyticsAPIKey:    *analyticsAPIKey,
		RequestTimeout:     *requestTimeout,
		PublishAttempts:    *publishAttempts,
		PublishRetryDelay:  *publishRetryDelay,
		ReviewerRole:       *reviewerRole,
		JobCreatedBy:       *jobCreatedBy,
		JobStore:           *jobStore,
		JobContainer:       *jobContainer,
		JobKeyPrefix:       *jobKeyPrefix,
		ReportRoles:        splitList(*reportRoles),
		ReportTags:         splitList(*reportTags),
		ReportSlug:         *reportSlug,
		RollupColumn:       *rollupColumn,
		NatsURL:            *natsURL,
		NatsHost:           *natsHost,
		NatsPort:           *natsPort,
		NatsToken:          *natsToken,
		NatsDontListen:     *natsDontListen,
		NatsJSDir:          *natsJSDir,
		EventSubjectPrefix: *eventSubjectPrefix,
		S3Bucket:           *s3Bucket,
		S3Region:           *s3Region,
		S3Endpoint:         *s3Endpoint,
		S3AccessKey:        *s3AccessKey,
		S3SecretKey:        *s3SecretKey,
		SnapshotPrefix:     *snapshotPrefix,
	}
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", name)
	}
	return nil
}

func newLogger(config Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.LogLevel}
	if config.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func Run(config Config) func(context.Context) {
	logger := newLogger(config)

	if err := metrics.Register(prometheus.DefaultRegisterer, filepath.Dir(config.DBFile)); err != nil {
		panic(err)
	}

	db, err := sqlx.Connect("sqlite", config.DBFile)
	if err != nil {
		panic(err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	fmt.Println("⇨ connected to sqlite", config.DBFile)

	c, err := comms.New(comms.Config{
		Logger:     logger.WithGroup("nats"),
		URL:        config.NatsURL,
		Host:       config.NatsHost,
		Port:       config.NatsPort,
		Token:      config.NatsToken,
		DontListen: config.NatsDontListen,
		JetStream:  true,
		JSDir:      config.NatsJSDir,
	})
	if err != nil {
		panic(err)
	}

	clientOpts := []remote.Option{
		remote.WithLogger(logger.WithGroup("remote")),
		remote.WithTimeout(config.RequestTimeout),
	}
	portal, err := remote.NewPortalClient(config.PortalAPIHost, config.PortalAPIKey, clientOpts...)
	if err != nil {
		panic(err)
	}
	analytics, err := remote.NewAnalyticsClient(config.AnalyticsAPIHost, config.AnalyticsAPIKey, clientOpts...)
	if err != nil {
		panic(err)
	}

	archiver, err := snapshots.New(snapshots.Config{
		Logger:      logger.WithGroup("snapshots"),
		S3Bucket:    config.S3Bucket,
		S3Region:    config.S3Region,
		S3Endpoint:  config.S3Endpoint,
		S3AccessKey: config.S3AccessKey,
		S3SecretKey: config.S3SecretKey,
		Prefix:      config.SnapshotPrefix,
	})
	if err != nil {
		panic(err)
	}

	publisher := &core.Publisher{
		Portal:    portal,
		Analytics: analytics,
		Composer: &compose.Composer{
			CreatedBy:       config.JobCreatedBy,
			Store:           config.JobStore,
			Container:       config.JobContainer,
			KeyPrefix:       config.JobKeyPrefix,
			AuthorizedRoles: config.ReportRoles,
			Tags:            config.ReportTags,
			Slug:            config.ReportSlug,
			RollupColumn:    config.RollupColumn,
		},
		Retry: core.RetryPolicy{
			MaxAttempts: config.PublishAttempts,
			Delay:       config.PublishRetryDelay,
			Multiplier:  1,
		},
	}
	if archiver != nil {
		publisher.Snapshots = archiver
	}

	events := core.NewEvents(c.Conn, config.EventSubjectPrefix, logger.WithGroup("events"))
	app, err := core.New(db, logger, publisher, events, config.PortalHost)
	if err != nil {
		panic(err)
	}
	app.Permissions = core.ActorPermissions{ReviewerRole: config.ReviewerRole}

	persistEvents := config.NatsJSDir != ""
	ingestConsumer, err := ingest.Start(db, logger.WithGroup("ingest"), c.Conn, config.EventSubjectPrefix, persistEvents)
	if err != nil {
		panic(err)
	}

	e := web.Start(app, web.Config{
		Addr:      fmt.Sprintf("%s:%d", config.Address, config.Port),
		JWTSecret: config.JWTSecret,
	})

	return func(ctx context.Context) {
		logger.Info("initiating shutdown...")
		logger.Info("stopping web server...")
		if err := e.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "error stopping server", slog.Any("error", err))
		}
		logger.Info("stopping NATS...")
		ingestConsumer.Close()
		c.Close()
		logger.Info("closing DB connections...")
		if err := db.Close(); err != nil {
			logger.ErrorContext(ctx, "error closing database connection", slog.Any("error", err))
		}
	}
}
