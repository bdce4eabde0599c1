package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

// fakeSubscriber delivers the queued messages to the handler, then blocks like the
// real client until ctx is cancelled.
type fakeSubscriber struct {
	msgs    []*nats.Msg
	err     error
	subject string
	queue   string
}

func (f *fakeSubscriber) SubscribeToSubjectWithQueue(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) error {
	f.subject = subject
	f.queue = queueGroup
	if f.err != nil {
		return f.err
	}
	for _, m := range f.msgs {
		handler(m)
	}
	<-ctx.Done()
	return nil
}

func rawMsg(t *testing.T, subject string, raw domain.RawInboundSMS) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	return &nats.Msg{Subject: subject, Data: data}
}

func TestDecodeInboundSMS(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Valid", func(t *testing.T) {
		msg := rawMsg(t, "sms.incoming.raw.android", domain.RawInboundSMS{
			From: "bKash", To: "01700000000", Text: bkashSample, MessageID: "m-1", Timestamp: ts,
		})
		in, err := decodeInboundSMS(msg)
		require.NoError(t, err)
		assert.Equal(t, domain.InboundMessage{Sender: "bKash", Message: bkashSample, Source: SourceNATS, ReceivedAt: ts}, in)
	})

	t.Run("MissingTimestampUsesNow", func(t *testing.T) {
		msg := rawMsg(t, "sms.incoming.raw.android", domain.RawInboundSMS{From: "NAGAD", Text: "Cash In Tk 10"})
		in, err := decodeInboundSMS(msg)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), in.ReceivedAt, time.Second)
	})

	t.Run("InvalidSubject", func(t *testing.T) {
		msg := rawMsg(t, "sms.outgoing.raw.android", domain.RawInboundSMS{From: "bKash", Text: "x"})
		_, err := decodeInboundSMS(msg)
		assert.Error(t, err)
	})

	t.Run("BadJSON", func(t *testing.T) {
		_, err := decodeInboundSMS(&nats.Msg{Subject: "sms.incoming.raw.android", Data: []byte("{")})
		assert.Error(t, err)
	})

	t.Run("MissingFields", func(t *testing.T) {
		msg := rawMsg(t, "sms.incoming.raw.android", domain.RawInboundSMS{From: "bKash"})
		_, err := decodeInboundSMS(msg)
		assert.ErrorIs(t, err, errPayloadIncomplete)
	})
}

func TestSMSConsumer_Run(t *testing.T) {
	sub := &fakeSubscriber{msgs: []*nats.Msg{
		rawMsg(t, "sms.incoming.raw.android", domain.RawInboundSMS{From: "bKash", Text: bkashSample}),
		{Subject: "sms.incoming.raw.android", Data: []byte("not json")},
		rawMsg(t, "sms.incoming.raw.android", domain.RawInboundSMS{From: "NAGAD", Text: "Cash In Tk 10"}),
	}}
	consumer := NewSMSConsumer(sub, "sms.incoming.raw.*", "sms_reader_group", discardLogger())
	assert.Equal(t, SourceNATS, consumer.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var senders []string
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, func(_ context.Context, msg domain.InboundMessage) {
			mu.Lock()
			senders = append(senders, msg.Sender)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(senders) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"bKash", "NAGAD"}, senders)
	assert.Equal(t, "sms.incoming.raw.*", sub.subject)
	assert.Equal(t, "sms_reader_group", sub.queue)
}

func TestSMSConsumer_RunSubscribeError(t *testing.T) {
	subErr := errors.New("nats: invalid subject")
	consumer := NewSMSConsumer(&fakeSubscriber{err: subErr}, "sms.incoming.raw.*", "g", discardLogger())

	err := consumer.Run(context.Background(), func(context.Context, domain.InboundMessage) {})
	assert.ErrorIs(t, err, subErr)
}
