package app

import (
	"context"
	"log/slog"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
)

// InboundHandler receives every message produced by an InboundSource.
type InboundHandler func(ctx context.Context, msg domain.InboundMessage)

// InboundSource produces inbound SMS until ctx is cancelled.
type InboundSource interface {
	Name() string
	Run(ctx context.Context, handle InboundHandler) error
}

// Source names, also used as the metrics "source" label.
const (
	SourceSimulator = "simulator"
	SourceNATS      = "nats"
	SourceManual    = "manual"
)

// ConnectionChecker is implemented by platform clients that can report liveness.
type ConnectionChecker interface {
	Connected() bool
}

// SelectSource returns the platform listener when its connection is usable and
// falls back to the simulator otherwise.
func SelectSource(listener InboundSource, conn ConnectionChecker, simulator *Simulator, logger *slog.Logger) InboundSource {
	if listener != nil && conn != nil && conn.Connected() {
		logger.Info("Using platform SMS listener", "source", listener.Name())
		return listener
	}
	logger.Info("Platform SMS listener unavailable, using simulator", "source", simulator.Name())
	return simulator
}
