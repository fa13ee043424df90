// SPDX-License-Identifier: MPL-2.0

package comms

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const CONNECT_TIMEOUT = 10 * time.Second

type Config struct {
	// URL of an external NATS server. When empty an embedded server is started.
	URL string
	// Host and Port the embedded server listens on. Ignored when DontListen is set.
	Host       string
	Port       int
	DontListen bool
	Token      string
	// JetStream enables the embedded server's JetStream. JSDir is where file-backed
	// streams are kept.
	JetStream bool
	JSDir     string
	Logger    *slog.Logger
}

// Comms holds the NATS connection chart events are published on, and the embedded
// server behind it if there is one.
type Comms struct {
	Conn   *nats.Conn
	Server *server.Server
}

func New(config Config) (Comms, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clientOpts := []nats.Option{
		nats.Name("hawkeye"),
		nats.Timeout(CONNECT_TIMEOUT),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats: disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats: reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	if config.Token != "" {
		clientOpts = append(clientOpts, nats.Token(config.Token))
	}

	if config.URL != "" {
		nc, err := nats.Connect(config.URL, clientOpts...)
		if err != nil {
			return Comms{}, fmt.Errorf("failed to connect to nats at %s: %w", config.URL, err)
		}
		return Comms{Conn: nc}, nil
	}

	opts := &server.Options{
		ServerName:    "hawkeye",
		Host:          config.Host,
		Port:          config.Port,
		DontListen:    config.DontListen,
		Authorization: config.Token,
		NoSigs:        true,
	}
	if config.JetStream {
		opts.JetStream = true
		opts.DisableJetStreamBanner = true
		opts.StoreDir = config.JSDir
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return Comms{}, fmt.Errorf("failed to create nats server: %w", err)
	}
	ns.SetLoggerV2(newNATSLogger(logger), false, false, false)
	go ns.Start()
	if !ns.ReadyForConnections(CONNECT_TIMEOUT) {
		ns.Shutdown()
		return Comms{}, fmt.Errorf("nats server not ready after %s", CONNECT_TIMEOUT)
	}

	clientOpts = append(clientOpts, nats.InProcessServer(ns))
	nc, err := nats.Connect(ns.ClientURL(), clientOpts...)
	if err != nil {
		ns.Shutdown()
		return Comms{}, fmt.Errorf("failed to connect to embedded nats: %w", err)
	}
	return Comms{Conn: nc, Server: ns}, nil
}

// Close drains the connection and stops the embedded server.
func (c Comms) Close() {
	if c.Conn != nil {
		if err := c.Conn.Drain(); err != nil {
			c.Conn.Close()
		}
	}
	if c.Server != nil {
		c.Server.Shutdown()
		c.Server.WaitForShutdown()
	}
}
