package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shelfplanner/pkg/storage"
)

var errMiss = errors.New("miss")

type fakeClient struct {
	data   map[string][]byte
	setErr error
}

func (f *fakeClient) GetBytes(_ context.Context, key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (f *fakeClient) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value.([]byte)
	return nil
}

func (f *fakeClient) RecordKey(name string) string { return "sp:record:" + name }

func (f *fakeClient) Ping(context.Context) error { return nil }

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{data: map[string][]byte{}}
	store := New(client, errMiss)

	if _, err := store.Read(ctx, storage.KeyHiddenSKUs); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Write(ctx, storage.KeyHiddenSKUs, []byte(`["S1"]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := client.data["sp:record:hidden_skus"]; !ok {
		t.Fatalf("expected namespaced key, got %v", client.data)
	}
	got, err := store.Read(ctx, storage.KeyHiddenSKUs)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `["S1"]` {
		t.Fatalf("unexpected value %s", got)
	}
}

func TestStoreWrapsWriteErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := New(&fakeClient{data: map[string][]byte{}, setErr: boom}, errMiss)
	err := store.Write(context.Background(), storage.KeyGridOrders, []byte(`{}`))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
