package bolt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("sms_reader")

// BoltLogSlot keeps the log in a bbolt file, one key inside one bucket.
type BoltLogSlot struct {
	db     *bbolt.DB
	key    []byte
	logger *slog.Logger
}

// Open opens (or creates) the bolt file at path and prepares the bucket.
func Open(path, key string, logger *slog.Logger) (*BoltLogSlot, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket: %w", err)
	}

	return &BoltLogSlot{db: db, key: []byte(key), logger: logger.With("slot", "bolt")}, nil
}

func (s *BoltLogSlot) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(s.key)
		if v != nil {
			// bolt memory is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read log slot", "error", err, "key", string(s.key))
		return nil, err
	}
	return data, nil
}

func (s *BoltLogSlot) Save(ctx context.Context, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(s.key, data)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to write log slot", "error", err, "key", string(s.key))
	}
	return err
}

func (s *BoltLogSlot) Delete(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(s.key)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete log slot", "error", err, "key", string(s.key))
	}
	return err
}

func (s *BoltLogSlot) Close() error {
	return s.db.Close()
}
