package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ReadJSON decodes the record at key into dst. A missing record leaves dst
// untouched and reports found=false without an error.
func ReadJSON(ctx context.Context, a Adapter, key string, dst any) (bool, error) {
	raw, err := a.Read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// WriteJSON encodes v and writes it at key.
func WriteJSON(ctx context.Context, a Adapter, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.Write(ctx, key, raw)
}

// WriteObserver receives the outcome of every write passing through Instrument.
type WriteObserver interface {
	ObserveWrite(key string, duration time.Duration, err error)
}

type instrumented struct {
	next     Adapter
	observer WriteObserver
}

// Instrument reports write timings and failures to observer. A nil observer
// returns next unchanged.
func Instrument(next Adapter, observer WriteObserver) Adapter {
	if observer == nil {
		return next
	}
	return &instrumented{next: next, observer: observer}
}

func (i *instrumented) Read(ctx context.Context, key string) ([]byte, error) {
	return i.next.Read(ctx, key)
}

func (i *instrumented) Write(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Write(ctx, key, value)
	i.observer.ObserveWrite(key, time.Since(start), err)
	return err
}

func (i *instrumented) Ping(ctx context.Context) error {
	if p, ok := i.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
