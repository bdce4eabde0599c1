package memory

import (
	"context"
	"sync"
)

// MemoryLogSlot keeps the log in process memory. It does not survive restarts.
type MemoryLogSlot struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryLogSlot() *MemoryLogSlot {
	return &MemoryLogSlot{}
}

func (s *MemoryLogSlot) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryLogSlot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *MemoryLogSlot) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}
