// SPDX-License-Identifier: MPL-2.0

package comms

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedServerRoundTrip(t *testing.T) {
	c, err := New(Config{DontListen: true})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NotNil(t, c.Server)
	sub, err := c.Conn.SubscribeSync("hawkeye.test")
	require.NoError(t, err)
	require.NoError(t, c.Conn.Publish("hawkeye.test", []byte("ping")))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(msg.Data))
}

func TestRemoteURLIsUsed(t *testing.T) {
	embedded, err := New(Config{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	t.Cleanup(embedded.Close)

	remote, err := New(Config{URL: embedded.Server.ClientURL()})
	require.NoError(t, err)
	t.Cleanup(remote.Close)

	assert.Nil(t, remote.Server)
	assert.True(t, remote.Conn.IsConnected())
}

func TestConnectFailure(t *testing.T) {
	_, err := New(Config{URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNATSLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newNATSLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Noticef("listening on %d", 4222)
	logger.Fatalf("boom")

	out := buf.String()
	assert.Contains(t, out, `msg="nats: listening on 4222"`)
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "severity=fatal")
}
