package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
	"github.com/aradsms/smsreader/internal/sms_reader_service/parser"
)

// Notifier delivers a parsed SMS to the remote webhook.
type Notifier interface {
	Notify(ctx context.Context, payload domain.WebhookPayload) error
}

// EventPublisher publishes encoded events on a subject.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Broadcaster pushes a typed message to every connected UI client.
type Broadcaster interface {
	Broadcast(messageType string, payload any)
}

// UI message types.
const (
	MessageTypeLogsUpdated   = "logs_updated"
	MessageTypeServiceStatus = "service_status"
)

// LoggedSubjectPrefix is followed by the lowercase provider tag.
const LoggedSubjectPrefix = "sms.payment.logged."

// ProcessResult carries the outcome of each boundary for one inbound SMS.
type ProcessResult struct {
	Entry     domain.SMSLogEntry
	Logs      []domain.SMSLogEntry
	Parsed    parser.Result
	NotifyErr error
	StoreErr  error
}

// SMSReaderOptions tunes the pipeline.
type SMSReaderOptions struct {
	// OnlyPaymentSenders skips messages whose sender is not a known provider.
	OnlyPaymentSenders bool
	// ToggleDelay is waited before the running state flips.
	ToggleDelay time.Duration
}

// SMSReader runs parse -> notify -> persist -> broadcast for each inbound SMS.
type SMSReader struct {
	store       *LogStore
	notifier    Notifier
	publisher   EventPublisher
	broadcaster Broadcaster
	opts        SMSReaderOptions
	logger      *slog.Logger

	running  atomic.Bool
	toggleMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewSMSReader wires the pipeline. publisher and broadcaster may be nil.
func NewSMSReader(store *LogStore, notifier Notifier, publisher EventPublisher, broadcaster Broadcaster, opts SMSReaderOptions, logger *slog.Logger) *SMSReader {
	return &SMSReader{
		store:       store,
		notifier:    notifier,
		publisher:   publisher,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger.With("component", "sms_reader"),
		now:         time.Now,
		newID:       newEntryID,
	}
}

// newEntryID returns a UUIDv7: a millisecond timestamp followed by random bits.
func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Store exposes the log store backing the reader.
func (r *SMSReader) Store() *LogStore {
	return r.store
}

// Running reports whether the service accepts inbound messages.
func (r *SMSReader) Running() bool {
	return r.running.Load()
}

// Start switches the service on.
func (r *SMSReader) Start(ctx context.Context) error {
	return r.setRunning(ctx, true)
}

// Stop switches the service off.
func (r *SMSReader) Stop(ctx context.Context) error {
	return r.setRunning(ctx, false)
}

func (r *SMSReader) setRunning(ctx context.Context, running bool) error {
	r.toggleMu.Lock()
	defer r.toggleMu.Unlock()

	if r.running.Load() == running {
		return nil
	}

	if r.opts.ToggleDelay > 0 {
		timer := time.NewTimer(r.opts.ToggleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	r.running.Store(running)
	r.logger.InfoContext(ctx, "SMS reader service toggled", "running", running)
	r.broadcast(MessageTypeServiceStatus, map[string]bool{"running": running})
	return nil
}

// Process handles one inbound SMS. The returned error is only set when the message
// is rejected (service stopped, non-payment sender); webhook and storage failures
// are reported through the result.
func (r *SMSReader) Process(ctx context.Context, msg domain.InboundMessage) (ProcessResult, error) {
	inboundSMSReceivedCounter.WithLabelValues(sourceLabel(msg.Source)).Inc()

	if !r.Running() {
		return ProcessResult{}, domain.ErrServiceStopped
	}

	parsed := parser.Parse(msg.Sender, msg.Message)
	if r.opts.OnlyPaymentSenders && parsed.Provider == domain.ProviderUnknown {
		smsProcessedCounter.WithLabelValues(string(parsed.Provider), "skipped").Inc()
		return ProcessResult{Parsed: parsed}, fmt.Errorf("%w: %q", domain.ErrNotPaymentSender, msg.Sender)
	}

	logger := r.logger.With("provider", parsed.Provider, "source", msg.Source)
	logger.InfoContext(ctx, "Parsed inbound SMS",
		"sender", msg.Sender,
		"amount", parsed.Amount,
		"amount_rule", parsed.AmountRule,
		"trx_id", parsed.TrxID,
		"trx_id_rule", parsed.TrxIDRule,
	)

	start := time.Now()
	notifyErr := r.notifier.Notify(ctx, domain.WebhookPayload{
		Sender:  msg.Sender,
		Message: msg.Message,
		Amount:  parsed.Amount,
		TrxID:   parsed.TrxID,
	})
	status := domain.StatusSuccess
	if notifyErr != nil {
		status = domain.StatusError
		logger.WarnContext(ctx, "Webhook notification failed", "error", notifyErr)
	}
	webhookDurationHist.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())

	entry := domain.SMSLogEntry{
		ID:        r.newID(),
		Sender:    msg.Sender,
		Message:   msg.Message,
		Amount:    parsed.Amount,
		TrxID:     parsed.TrxID,
		Provider:  parsed.Provider,
		Timestamp: r.now().UnixMilli(),
		Status:    status,
	}

	logs, storeErr := r.store.Append(ctx, entry)
	if storeErr != nil {
		logger.ErrorContext(ctx, "Failed to store SMS log entry", "error", storeErr, "entry_id", entry.ID)
	}

	smsProcessedCounter.WithLabelValues(string(parsed.Provider), string(status)).Inc()
	if status == domain.StatusSuccess {
		recordAmount(parsed.Provider, parsed.Amount)
	}

	r.publish(ctx, domain.EntryLoggedEvent{Entry: entry, Source: msg.Source, Persisted: storeErr == nil})
	if storeErr == nil {
		r.broadcast(MessageTypeLogsUpdated, logs)
	}

	logger.InfoContext(ctx, "Inbound SMS processed", "entry_id", entry.ID, "status", status)
	return ProcessResult{
		Entry:     entry,
		Logs:      logs,
		Parsed:    parsed,
		NotifyErr: notifyErr,
		StoreErr:  storeErr,
	}, nil
}

// HandleInbound adapts Process to an InboundHandler; rejections are logged.
func (r *SMSReader) HandleInbound(ctx context.Context, msg domain.InboundMessage) {
	_, err := r.Process(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrServiceStopped), errors.Is(err, domain.ErrNotPaymentSender):
		r.logger.DebugContext(ctx, "Inbound SMS ignored", "reason", err, "sender", msg.Sender, "source", msg.Source)
	default:
		r.logger.ErrorContext(ctx, "Inbound SMS failed", "error", err, "sender", msg.Sender)
	}
}

// ClearLogs empties the log and notifies UI clients.
func (r *SMSReader) ClearLogs(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.broadcast(MessageTypeLogsUpdated, []domain.SMSLogEntry{})
	return nil
}

func (r *SMSReader) publish(ctx context.Context, event domain.EntryLoggedEvent) {
	if r.publisher == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to marshal logged event", "error", err)
		return
	}
	subject := LoggedSubjectPrefix + strings.ToLower(string(event.Entry.Provider))
	if err := r.publisher.Publish(ctx, subject, data); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish logged event", "error", err, "subject", subject)
	}
}

func (r *SMSReader) broadcast(messageType string, payload any) {
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(messageType, payload)
	}
}

func recordAmount(provider domain.ProviderTag, amount string) {
	if amount == "" {
		return
	}
	d, err := decimal.NewFromString(amount)
	if err != nil || d.IsNegative() {
		return
	}
	f, _ := d.Float64()
	amountReceivedCounter.WithLabelValues(string(provider)).Add(f)
}

func sourceLabel(source string) string {
	if source == "" {
		return "unknown"
	}
	return source
}
