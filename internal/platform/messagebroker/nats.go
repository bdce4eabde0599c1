package messagebroker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const drainTimeout = 10 * time.Second

// NATSClient wraps a NATS connection.
type NATSClient struct {
	conn   *nats.Conn
	logger *slog.Logger
	closed chan struct{}
}

// NewNATSClient connects to NATS.
// natsURL example: "nats://localhost:4222"
func NewNATSClient(natsURL string, logger *slog.Logger, appName string) (*NATSClient, error) {
	logger = logger.With("component", "nats")
	closed := make(chan struct{})
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DrainTimeout(drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			close(closed)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSClient{conn: nc, logger: logger, closed: closed}, nil
}

// Publish sends data on subject.
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish NATS message", "subject", subject, "error", err)
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// SubscribeToSubjectWithQueue subscribes handler to subject within queueGroup and
// blocks until ctx is cancelled, then drains the subscription.
func (c *NATSClient) SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error {
	sub, err := c.conn.QueueSubscribe(subject, queueGroup, handler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.logger.InfoContext(ctx, "Subscribed to NATS subject", "subject", subject, "queue_group", queueGroup)

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		c.logger.WarnContext(ctx, "Failed to drain NATS subscription", "subject", subject, "error", err)
	}
	return nil
}

// Connected reports whether the underlying connection is usable.
func (c *NATSClient) Connected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Close drains subscriptions and pending publishes, then waits for the connection
// to close. The connection is force-closed if draining fails or stalls.
func (c *NATSClient) Close() {
	if c == nil || c.conn == nil || c.conn.IsClosed() {
		return
	}
	drainAndWait(c.conn.Drain, c.conn.Close, c.closed, drainTimeout+time.Second, c.logger)
}

func drainAndWait(drain func() error, forceClose func(), closed <-chan struct{}, timeout time.Duration, logger *slog.Logger) {
	if err := drain(); err != nil {
		logger.Warn("NATS drain failed, closing connection", "error", err)
		forceClose()
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-closed:
	case <-timer.C:
		logger.Warn("NATS drain timed out, closing connection", "timeout", timeout)
		forceClose()
	}
}
