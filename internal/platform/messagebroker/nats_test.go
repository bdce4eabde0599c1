package messagebroker

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewNATSClient_Unreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := NewNATSClient("nats://127.0.0.1:1", logger, "sms_reader_test")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNATSClient_ConnectedOnNil(t *testing.T) {
	var client *NATSClient
	assert.False(t, client.Connected())
}

func TestNATSClient_CloseOnNil(t *testing.T) {
	var client *NATSClient
	assert.NotPanics(t, client.Close)
}

func TestDrainAndWait(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("WaitsForDrainToFinish", func(t *testing.T) {
		closed := make(chan struct{})
		forced := false
		drain := func() error {
			// the client closes the connection asynchronously once drained
			go func() {
				time.Sleep(20 * time.Millisecond)
				close(closed)
			}()
			return nil
		}

		start := time.Now()
		drainAndWait(drain, func() { forced = true }, closed, time.Second, logger)

		assert.False(t, forced)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("ForceClosesAfterTimeout", func(t *testing.T) {
		forced := false
		drainAndWait(func() error { return nil }, func() { forced = true }, make(chan struct{}), 10*time.Millisecond, logger)
		assert.True(t, forced)
	})

	t.Run("ForceClosesWhenDrainFails", func(t *testing.T) {
		forced := false
		drainAndWait(func() error { return errors.New("nats: connection closed") }, func() { forced = true }, make(chan struct{}), time.Second, logger)
		assert.True(t, forced)
	})
}
