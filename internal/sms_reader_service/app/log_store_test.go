package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aradsms/smsreader/internal/sms_reader_service/domain"
	"github.com/aradsms/smsreader/internal/sms_reader_service/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingSlot fails whichever operations are configured to fail.
type failingSlot struct {
	loadErr   error
	saveErr   error
	deleteErr error
	data      []byte
}

func (s *failingSlot) Load(_ context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data, nil
}

func (s *failingSlot) Save(_ context.Context, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = data
	return nil
}

func (s *failingSlot) Delete(_ context.Context) error {
	return s.deleteErr
}

func testEntry(i int) domain.SMSLogEntry {
	return domain.SMSLogEntry{
		ID:        fmt.Sprintf("id-%d", i),
		Sender:    "bKash",
		Message:   fmt.Sprintf("You have received Tk %d.00", i),
		Amount:    fmt.Sprintf("%d.00", i),
		Provider:  domain.ProviderBKash,
		Timestamp: int64(1700000000000 + i),
		Status:    domain.StatusSuccess,
	}
}

func ids(entries []domain.SMSLogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestLogStore_GetAllEmpty(t *testing.T) {
	store := NewLogStore(memory.NewMemoryLogSlot(), 0, discardLogger())

	logs, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
	assert.Equal(t, domain.DefaultMaxLogEntries, store.Cap())
}

func TestLogStore_AppendKeepsNewestFirstWithinCap(t *testing.T) {
	ctx := context.Background()
	store := NewLogStore(memory.NewMemoryLogSlot(), 5, discardLogger())

	var last []domain.SMSLogEntry
	for i := 1; i <= 6; i++ {
		var err error
		last, err = store.Append(ctx, testEntry(i))
		require.NoError(t, err)
		if i <= 5 {
			assert.Len(t, last, i)
		}
	}

	assert.Equal(t, []string{"id-6", "id-5", "id-4", "id-3", "id-2"}, ids(last))

	persisted, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, last, persisted)
}

func TestLogStore_AppendAtCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewLogStore(memory.NewMemoryLogSlot(), 3, discardLogger())

	for i := 1; i <= 3; i++ {
		_, err := store.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}
	logs, err := store.Append(ctx, testEntry(4))
	require.NoError(t, err)

	assert.Equal(t, []string{"id-4", "id-3", "id-2"}, ids(logs))
}

func TestLogStore_ClearThenGetAll(t *testing.T) {
	ctx := context.Background()
	store := NewLogStore(memory.NewMemoryLogSlot(), 5, discardLogger())

	_, err := store.Append(ctx, testEntry(1))
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx))

	logs, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SMSLogEntry{}, logs)
}

func TestLogStore_CorruptData(t *testing.T) {
	ctx := context.Background()
	slot := memory.NewMemoryLogSlot()
	require.NoError(t, slot.Save(ctx, []byte("{not json")))
	store := NewLogStore(slot, 5, discardLogger())

	logs, err := store.GetAll(ctx)
	assert.ErrorIs(t, err, domain.ErrCorruptLog)
	assert.Empty(t, logs)

	logs, err = store.Append(ctx, testEntry(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"id-1"}, ids(logs))

	logs, err = store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLogStore_OversizedPersistedListIsTruncated(t *testing.T) {
	ctx := context.Background()
	slot := memory.NewMemoryLogSlot()
	wide := NewLogStore(slot, 10, discardLogger())
	for i := 1; i <= 8; i++ {
		_, err := wide.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}

	narrow := NewLogStore(slot, 5, discardLogger())
	logs, err := narrow.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-8", "id-7", "id-6", "id-5", "id-4"}, ids(logs))
}

func TestLogStore_StorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk unavailable")

	t.Run("ReadFailure", func(t *testing.T) {
		store := NewLogStore(&failingSlot{loadErr: boom}, 5, discardLogger())
		logs, err := store.GetAll(ctx)
		assert.ErrorIs(t, err, domain.ErrStorageRead)
		assert.Equal(t, []domain.SMSLogEntry{}, logs)
	})

	t.Run("ReadFailureDoesNotBlockAppend", func(t *testing.T) {
		store := NewLogStore(&failingSlot{loadErr: boom}, 5, discardLogger())
		logs, err := store.Append(ctx, testEntry(1))
		require.NoError(t, err)
		assert.Equal(t, []string{"id-1"}, ids(logs))
	})

	t.Run("WriteFailure", func(t *testing.T) {
		store := NewLogStore(&failingSlot{saveErr: boom}, 5, discardLogger())
		logs, err := store.Append(ctx, testEntry(1))
		assert.ErrorIs(t, err, domain.ErrStorageWrite)
		assert.Equal(t, []domain.SMSLogEntry{}, logs)
	})

	t.Run("ClearFailure", func(t *testing.T) {
		store := NewLogStore(&failingSlot{deleteErr: boom}, 5, discardLogger())
		err := store.Clear(ctx)
		assert.ErrorIs(t, err, domain.ErrStorageWrite)
	})
}
