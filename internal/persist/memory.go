package persist

import (
	"context"
	"sync"
)

// MemoryBackend keeps snapshots in memory. After SetErr every call fails
// with that error.
type MemoryBackend struct {
	mu    sync.Mutex
	saves []string
	err   error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Save(ctx context.Context, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.saves = append(b.saves, payload)
	return nil
}

func (b *MemoryBackend) Load(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	if len(b.saves) == 0 {
		return "", nil
	}
	return b.saves[len(b.saves)-1], nil
}

// Saves returns every payload saved so far, oldest first.
func (b *MemoryBackend) Saves() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.saves...)
}

func (b *MemoryBackend) SetErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *MemoryBackend) Close() error { return nil }
