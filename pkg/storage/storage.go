// Package storage defines the durable key/value boundary the catalog stores
// persist through, plus the quota guard shared by every backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned by Read when the key was never written.
	ErrNotFound = errors.New("storage: record not found")
	// ErrQuotaExceeded is returned by Write when the value would push the
	// store past its byte budget.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Logical record keys. Each one is read and written independently.
const (
	KeyTHCOverrides    = "overrides:thc"
	KeyCBDOverrides    = "overrides:cbd"
	KeyTypeOverrides   = "overrides:type"
	KeyFormatOverrides = "overrides:format"
	KeyGridOrders      = "grid_orders"
	KeyHiddenSKUs      = "hidden_skus"
	KeyStaffProducts   = "staff_products"
)

// Adapter is a synchronous key/value store.
type Adapter interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Quota wraps an Adapter and rejects writes that would grow the total stored
// bytes past a fixed budget. Sizes are learned from reads and writes that pass
// through the wrapper.
type Quota struct {
	next  Adapter
	limit int64

	mu    sync.Mutex
	sizes map[string]int64
	total int64
}

// WithQuota returns next unchanged when limit <= 0.
func WithQuota(next Adapter, limit int64) Adapter {
	if limit <= 0 {
		return next
	}
	return &Quota{next: next, limit: limit, sizes: map[string]int64{}}
}

func (q *Quota) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := q.next.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.track(key, int64(len(value)))
	q.mu.Unlock()
	return value, nil
}

func (q *Quota) Write(ctx context.Context, key string, value []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := int64(len(key) + len(value))
	projected := q.total - q.sizes[key] + size
	if projected > q.limit {
		return fmt.Errorf("write %s (%d bytes, %d/%d used): %w", key, size, q.total, q.limit, ErrQuotaExceeded)
	}
	if err := q.next.Write(ctx, key, value); err != nil {
		return err
	}
	q.track(key, int64(len(value)))
	return nil
}

// Ping forwards to the wrapped adapter when it supports health checks.
func (q *Quota) Ping(ctx context.Context) error {
	if p, ok := q.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Used reports the bytes currently accounted for.
func (q *Quota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

func (q *Quota) track(key string, valueLen int64) {
	size := int64(len(key)) + valueLen
	q.total += size - q.sizes[key]
	q.sizes[key] = size
}
