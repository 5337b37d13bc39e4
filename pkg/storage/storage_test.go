package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/angelmondragon/shelfplanner/pkg/storage/memory"
)

func TestWithQuotaDisabledReturnsAdapter(t *testing.T) {
	mem := memory.New()
	if got := storage.WithQuota(mem, 0); got != storage.Adapter(mem) {
		t.Fatalf("expected quota 0 to return the wrapped adapter")
	}
}

func TestQuotaRejectsWritesPastLimit(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	adapter := storage.WithQuota(mem, 20)

	if err := adapter.Write(ctx, "a", []byte("0123456789")); err != nil {
		t.Fatalf("first write should fit: %v", err)
	}
	err := adapter.Write(ctx, "b", []byte("0123456789"))
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if _, err := mem.Read(ctx, "b"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("rejected write must not reach the backend, got %v", err)
	}

	// Overwriting an existing key only counts the delta.
	if err := adapter.Write(ctx, "a", []byte("01234567890123456")); err != nil {
		t.Fatalf("overwrite within budget failed: %v", err)
	}
	if used := adapter.(*storage.Quota).Used(); used != 18 {
		t.Fatalf("expected 18 bytes used, got %d", used)
	}
}

func TestQuotaLearnsSizesFromReads(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	if err := mem.Write(ctx, "grid_orders", []byte("0123456789")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	adapter := storage.WithQuota(mem, 25)
	if _, err := adapter.Read(ctx, "grid_orders"); err != nil {
		t.Fatalf("read: %v", err)
	}
	// 21 bytes already accounted for grid_orders; 11 more would exceed 25.
	if err := adapter.Write(ctx, "x", []byte("0123456789")); !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	value := []byte("abc")
	if err := mem.Write(ctx, "k", value); err != nil {
		t.Fatalf("write: %v", err)
	}
	value[0] = 'z'
	got, err := mem.Read(ctx, "k")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("store leaked caller buffer, got %q", got)
	}
	got[1] = 'z'
	again, _ := mem.Read(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("store leaked internal buffer, got %q", again)
	}
	if keys := mem.Keys(); len(keys) != 1 || keys[0] != "k" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestReadJSONToleratesAbsence(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()

	dst := map[string]string{"keep": "me"}
	found, err := storage.ReadJSON(ctx, mem, storage.KeyTypeOverrides, &dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a missing record")
	}
	if dst["keep"] != "me" {
		t.Fatalf("destination should be untouched, got %v", dst)
	}
}

func TestJSONRoundTripAndCorruptRecord(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()

	if err := storage.WriteJSON(ctx, mem, storage.KeyHiddenSKUs, []string{"S1", "S2"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []string
	found, err := storage.ReadJSON(ctx, mem, storage.KeyHiddenSKUs, &got)
	if err != nil || !found {
		t.Fatalf("read: found=%v err=%v", found, err)
	}
	if len(got) != 2 || got[0] != "S1" || got[1] != "S2" {
		t.Fatalf("unexpected value %v", got)
	}

	if err := mem.Write(ctx, storage.KeyGridOrders, []byte("{not json")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	var orders map[string][]string
	if _, err := storage.ReadJSON(ctx, mem, storage.KeyGridOrders, &orders); err == nil {
		t.Fatal("expected decode error for corrupt record")
	}
}

type recordingObserver struct {
	keys   []string
	failed int
}

func (r *recordingObserver) ObserveWrite(key string, _ time.Duration, err error) {
	r.keys = append(r.keys, key)
	if err != nil {
		r.failed++
	}
}

func TestInstrumentReportsWrites(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	adapter := storage.Instrument(storage.WithQuota(memory.New(), 16), obs)

	if err := adapter.Write(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := adapter.Write(ctx, "big", []byte("0123456789abcdef")); err == nil {
		t.Fatal("expected quota failure")
	}
	if len(obs.keys) != 2 || obs.failed != 1 {
		t.Fatalf("unexpected observations keys=%v failed=%d", obs.keys, obs.failed)
	}

	mem := memory.New()
	if got := storage.Instrument(mem, nil); got != storage.Adapter(mem) {
		t.Fatal("nil observer should return the wrapped adapter")
	}
}
