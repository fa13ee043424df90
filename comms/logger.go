// SPDX-License-Identifier: MPL-2.0

package comms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
)

// natsLogger routes the embedded server's log lines into slog.
// Fatal messages are logged as errors; the server shuts itself down afterwards.
type natsLogger struct {
	logger *slog.Logger
}

func newNATSLogger(logger *slog.Logger) server.Logger {
	return &natsLogger{logger: logger}
}

func (n *natsLogger) log(level slog.Level, format string, v []any, attrs ...slog.Attr) {
	n.logger.LogAttrs(context.Background(), level, "nats: "+fmt.Sprintf(format, v...), attrs...)
}

func (n *natsLogger) Noticef(format string, v ...any) { n.log(slog.LevelInfo, format, v) }
func (n *natsLogger) Warnf(format string, v ...any)   { n.log(slog.LevelWarn, format, v) }
func (n *natsLogger) Errorf(format string, v ...any)  { n.log(slog.LevelError, format, v) }
func (n *natsLogger) Debugf(format string, v ...any)  { n.log(slog.LevelDebug, format, v) }

func (n *natsLogger) Fatalf(format string, v ...any) {
	n.log(slog.LevelError, format, v, slog.String("severity", "fatal"))
}

func (n *natsLogger) Tracef(format string, v ...any) {
	n.log(slog.LevelDebug, format, v, slog.String("severity", "trace"))
}
