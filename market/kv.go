package market

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotFound is returned when the id given to an operation does not
	// exist in the addressed collection.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned by mutations when no storage backend is
	// configured.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidTransition is returned when the escrow policy rejects a
	// status change.
	ErrInvalidTransition = errors.New("invalid escrow status transition")
	// ErrInvalidStatus is returned for an unknown escrow status.
	ErrInvalidStatus = errors.New("invalid escrow status")
	// ErrMissingID is returned when storing a record without an id.
	ErrMissingID = errors.New("record without id")
)

// A KV is a keyed blob store. Every collection lives under one key.
type KV interface {
	// Get returns the value stored under key. ok is false if the key is not
	// set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update atomically replaces the value under key with the result of fn.
	// If fn returns an error nothing is written and the error is returned.
	// If fn returns a nil value nothing is written.
	Update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error
}

// MemoryKV keeps values in process memory. It is safe for concurrent use.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string][]byte)}
}

func (kv *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (kv *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = append([]byte(nil), value...)
	return nil
}

func (kv *MemoryKV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.m, key)
	return nil
}

func (kv *MemoryKV) Update(_ context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	old, ok := kv.m[key]
	if ok {
		old = append([]byte(nil), old...)
	}
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	if v != nil {
		kv.m[key] = v
	}
	return nil
}
