// SPDX-License-Identifier: MPL-2.0

package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownGetsDeadline(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	waitAndShutdown(parent, time.Minute, func(ctx context.Context) {
		called = true
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		assert.NoError(t, ctx.Err())
	})
	assert.True(t, called)
}
