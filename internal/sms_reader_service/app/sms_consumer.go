package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

var errPayloadIncomplete = errors.New("payload missing from or text")

// QueueSubscriber is the subset of the NATS client used by SMSConsumer.
type QueueSubscriber interface {
	SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error
}

// SMSConsumer is the platform listener: it receives raw inbound SMS from NATS and
// hands them to the pipeline one at a time.
type SMSConsumer struct {
	client     QueueSubscriber
	subject    string
	queueGroup string
	logger     *slog.Logger
	buffer     int
}

func NewSMSConsumer(client QueueSubscriber, subject, queueGroup string, logger *slog.Logger) *SMSConsumer {
	return &SMSConsumer{
		client:     client,
		subject:    subject,
		queueGroup: queueGroup,
		logger:     logger.With("component", "sms_consumer"),
		buffer:     100,
	}
}

func (c *SMSConsumer) Name() string {
	return SourceNATS
}

// Run subscribes and feeds decoded messages to handle until ctx is cancelled.
func (c *SMSConsumer) Run(ctx context.Context, handle InboundHandler) error {
	events := make(chan domain.InboundMessage, c.buffer)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.logger.InfoContext(gctx, "Starting NATS subscription", "subject", c.subject, "queue_group", c.queueGroup)
		if err := c.client.SubscribeToSubjectWithQueue(gctx, c.subject, c.queueGroup, c.msgHandler(gctx, events)); err != nil {
			c.logger.ErrorContext(gctx, "NATS subscription failed", "error", err, "subject", c.subject)
			return err
		}
		c.logger.InfoContext(gctx, "NATS subscription ended", "subject", c.subject)
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case msg := <-events:
				handle(gctx, msg)
			case <-gctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}

func (c *SMSConsumer) msgHandler(ctx context.Context, out chan<- domain.InboundMessage) nats.MsgHandler {
	return func(msg *nats.Msg) {
		in, err := decodeInboundSMS(msg)
		if err != nil {
			c.logger.ErrorContext(ctx, "Dropping inbound NATS message", "error", err, "subject", msg.Subject)
			return
		}
		c.logger.DebugContext(ctx, "Decoded inbound SMS", "subject", msg.Subject, "from", in.Sender)

		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		select {
		case out <- in:
		case <-sendCtx.Done():
			c.logger.ErrorContext(ctx, "Timed out handing inbound SMS to pipeline", "error", sendCtx.Err(), "from", in.Sender)
		}
	}
}

// decodeInboundSMS validates the subject (sms.incoming.raw.<gateway>) and payload.
func decodeInboundSMS(msg *nats.Msg) (domain.InboundMessage, error) {
	parts := strings.Split(msg.Subject, ".")
	if len(parts) < 4 || parts[0] != "sms" || parts[1] != "incoming" || parts[2] != "raw" {
		return domain.InboundMessage{}, fmt.Errorf("invalid subject %q", msg.Subject)
	}

	var raw domain.RawInboundSMS
	if err := json.Unmarshal(msg.Data, &raw); err != nil {
		return domain.InboundMessage{}, fmt.Errorf("decode payload: %w", err)
	}
	if raw.From == "" || raw.Text == "" {
		return domain.InboundMessage{}, errPayloadIncomplete
	}

	received := raw.Timestamp
	if received.IsZero() {
		received = time.Now()
	}
	return domain.InboundMessage{
		Sender:     raw.From,
		Message:    raw.Text,
		Source:     SourceNATS,
		ReceivedAt: received,
	}, nil
}
