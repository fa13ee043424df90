// SPDX-License-Identifier: MPL-2.0

package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

// HandleInterrupt blocks until SIGINT or SIGTERM, then calls onInterrupt with a context
// that expires after SHUTDOWN_TIMEOUT.
func HandleInterrupt(onInterrupt func(context.Context)) {
	waitAndShutdown(context.Background(), SHUTDOWN_TIMEOUT, onInterrupt)
}

func waitAndShutdown(parent context.Context, timeout time.Duration, onInterrupt func(context.Context)) {
	ctx, stopNotify := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stopNotify()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	onInterrupt(shutdownCtx)
}
