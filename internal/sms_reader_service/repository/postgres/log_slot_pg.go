package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the slot needs; pgxmock satisfies it too.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgLogSlot stores the log as one row of the sms_reader_slots table.
type PgLogSlot struct {
	db     Querier
	key    string
	logger *slog.Logger
}

// NewPgLogSlot creates a PostgreSQL backed slot for key.
func NewPgLogSlot(db Querier, key string, logger *slog.Logger) *PgLogSlot {
	return &PgLogSlot{db: db, key: key, logger: logger.With("slot", "postgres")}
}

// EnsureSchema creates the slots table when missing.
func (s *PgLogSlot) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS sms_reader_slots (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := s.db.Exec(ctx, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create sms_reader_slots table", "error", err)
		return err
	}
	return nil
}

func (s *PgLogSlot) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT value FROM sms_reader_slots WHERE key = $1`

	var data []byte
	err := s.db.QueryRow(ctx, query, s.key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		s.logger.ErrorContext(ctx, "Failed to read log slot", "error", err, "key", s.key)
		return nil, err
	}
	return data, nil
}

func (s *PgLogSlot) Save(ctx context.Context, data []byte) error {
	query := `INSERT INTO sms_reader_slots (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, s.key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write log slot", "error", err, "key", s.key)
		return err
	}
	return nil
}

func (s *PgLogSlot) Delete(ctx context.Context) error {
	query := `DELETE FROM sms_reader_slots WHERE key = $1`

	if _, err := s.db.Exec(ctx, query, s.key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete log slot", "error", err, "key", s.key)
		return err
	}
	return nil
}
