package repository

import "context"

// LogSlot is a single named durable value holding the encoded SMS log.
// Every Save fully overwrites the previous value.
type LogSlot interface {
	// Load returns (nil, nil) when nothing has been stored yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Delete removes the value; deleting an absent value is not an error.
	Delete(ctx context.Context) error
}
