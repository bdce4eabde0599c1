package app

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

// SampleSMS is a canned payment notification used by the simulator.
type SampleSMS struct {
	Sender  string
	Message string
}

// DefaultSamples are realistic notifications from the three most common providers.
var DefaultSamples = []SampleSMS{
	{
		Sender:  "bKash",
		Message: "You have received Tk 5,000.00 from 01712345678. TrxID: ABC123XYZ. Your new balance is Tk 12,500.00.",
	},
	{
		Sender:  "NAGAD",
		Message: "Cash In Tk. 2,500.00 from 01898765432. Trx ID NXY789ABC. New balance Tk 8,200.00.",
	},
	{
		Sender:  "ROCKET",
		Message: "You received BDT 1,000.00 from 01556677889. Transaction ID: RKT456DEF. Balance: BDT 3,500.00",
	},
}

// Simulator is the fallback InboundSource used when no platform listener is
// available. It emits one random sample per interval, or only on demand when the
// interval is zero.
type Simulator struct {
	samples  []SampleSMS
	interval time.Duration
	logger   *slog.Logger
	pick     func(n int) int
	now      func() time.Time
}

func NewSimulator(samples []SampleSMS, interval time.Duration, logger *slog.Logger) *Simulator {
	if len(samples) == 0 {
		samples = DefaultSamples
	}
	return &Simulator{
		samples:  samples,
		interval: interval,
		logger:   logger.With("component", "simulator"),
		pick:     rand.Intn,
		now:      time.Now,
	}
}

func (s *Simulator) Name() string {
	return SourceSimulator
}

// Next returns a random sample as an inbound message.
func (s *Simulator) Next() domain.InboundMessage {
	sample := s.samples[s.pick(len(s.samples))]
	return domain.InboundMessage{
		Sender:     sample.Sender,
		Message:    sample.Message,
		Source:     SourceSimulator,
		ReceivedAt: s.now(),
	}
}

// Run emits a sample every interval until ctx is done.
func (s *Simulator) Run(ctx context.Context, handle InboundHandler) error {
	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "Simulator idle; messages are produced on demand only")
		<-ctx.Done()
		return nil
	}

	s.logger.InfoContext(ctx, "Simulator started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Simulator stopped")
			return nil
		case <-ticker.C:
			handle(ctx, s.Next())
		}
	}
}
