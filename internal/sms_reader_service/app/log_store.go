package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository"
)

// LogStore is the bounded, newest-first history of SMS log entries.
//
// Read-modify-write in Append is serialized within the process. Two processes
// sharing the same slot still race, and the last write wins.
type LogStore struct {
	slot       repository.LogSlot
	maxEntries int
	logger     *slog.Logger
	mu         sync.Mutex
}

// NewLogStore creates a store keeping at most maxEntries entries. Values below 1
// fall back to domain.DefaultMaxLogEntries.
func NewLogStore(slot repository.LogSlot, maxEntries int, logger *slog.Logger) *LogStore {
	if maxEntries < 1 {
		maxEntries = domain.DefaultMaxLogEntries
	}
	return &LogStore{
		slot:       slot,
		maxEntries: maxEntries,
		logger:     logger.With("component", "log_store"),
	}
}

// Cap is the maximum number of retained entries.
func (s *LogStore) Cap() int {
	return s.maxEntries
}

// GetAll returns the persisted entries, newest first. An absent slot is an empty
// list. Read failures and corrupt data also yield an empty list, together with an
// error wrapping domain.ErrStorageRead or domain.ErrCorruptLog.
func (s *LogStore) GetAll(ctx context.Context) ([]domain.SMSLogEntry, error) {
	entries, err := s.load(ctx)
	if err != nil {
		logStoreErrorsCounter.WithLabelValues("read").Inc()
		s.logger.ErrorContext(ctx, "Error reading SMS logs", "error", err)
		return []domain.SMSLogEntry{}, err
	}
	return entries, nil
}

// Append prepends entry, drops everything beyond the cap, persists and returns the
// resulting list. If persisting fails it returns an empty list and an error
// wrapping domain.ErrStorageWrite.
func (s *LogStore) Append(ctx context.Context, entry domain.SMSLogEntry) ([]domain.SMSLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		// unreadable history is replaced rather than blocking new entries
		logStoreErrorsCounter.WithLabelValues("read").Inc()
		s.logger.WarnContext(ctx, "Discarding unreadable SMS log before append", "error", err)
		current = nil
	}

	n := len(current) + 1
	if n > s.maxEntries {
		n = s.maxEntries
	}
	next := make([]domain.SMSLogEntry, 0, n)
	next = append(next, entry)
	next = append(next, current[:n-1]...)

	data, err := json.Marshal(next)
	if err != nil {
		logStoreErrorsCounter.WithLabelValues("write").Inc()
		return []domain.SMSLogEntry{}, fmt.Errorf("%w: encode: %v", domain.ErrStorageWrite, err)
	}
	if err := s.slot.Save(ctx, data); err != nil {
		logStoreErrorsCounter.WithLabelValues("write").Inc()
		s.logger.ErrorContext(ctx, "Error saving SMS log", "error", err, "entry_id", entry.ID)
		return []domain.SMSLogEntry{}, fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	s.logger.DebugContext(ctx, "SMS log entry stored", "entry_id", entry.ID, "size", len(next))
	return next, nil
}

// Clear removes the persisted log entirely.
func (s *LogStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Delete(ctx); err != nil {
		logStoreErrorsCounter.WithLabelValues("clear").Inc()
		s.logger.ErrorContext(ctx, "Error clearing SMS logs", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	s.logger.InfoContext(ctx, "SMS logs cleared")
	return nil
}

func (s *LogStore) load(ctx context.Context) ([]domain.SMSLogEntry, error) {
	data, err := s.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	if len(data) == 0 {
		return []domain.SMSLogEntry{}, nil
	}

	var entries []domain.SMSLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptLog, err)
	}
	if entries == nil {
		entries = []domain.SMSLogEntry{}
	}
	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	return entries, nil
}
