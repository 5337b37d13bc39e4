package overrides

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/angelmondragon/shelfplanner/pkg/storage/memory"
	"github.com/shopspring/decimal"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func ptr[T any](v T) *T { return &v }

func TestApplyIsFieldGranular(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.New(), testLogger())

	if err := store.Apply(ctx, "S1", Values{Format: ptr("7 g")}); err != nil {
		t.Fatalf("apply format: %v", err)
	}
	if err := store.Apply(ctx, "S1", Values{Type: ptr(enums.ProductTypeSativa)}); err != nil {
		t.Fatalf("apply type: %v", err)
	}

	got := store.Get("S1")
	if got.Format == nil || *got.Format != "7 g" {
		t.Fatalf("type override must not clear format, got %+v", got)
	}
	if got.Type == nil || *got.Type != enums.ProductTypeSativa {
		t.Fatalf("expected Sativa type override, got %+v", got)
	}
	if got.THC != nil || got.CBD != nil {
		t.Fatalf("unexpected numeric overrides %+v", got)
	}
}

func TestApplyReplacesPriorValue(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.New(), testLogger())

	_ = store.Apply(ctx, "S1", Values{THC: ptr(decimal.NewFromInt(20))})
	_ = store.Apply(ctx, "S1", Values{THC: ptr(decimal.NewFromInt(42))})

	got := store.Get("S1")
	if got.THC == nil || !got.THC.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("expected 42, got %v", got.THC)
	}
	if store.Count(enums.OverrideFieldTHC) != 1 {
		t.Fatalf("expected single thc entry, got %d", store.Count(enums.OverrideFieldTHC))
	}
}

func TestOverridesSurviveReload(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	first := NewStore(mem, testLogger())
	if err := first.Apply(ctx, "S1", Values{
		Type:   ptr(enums.ProductTypeHybride),
		Format: ptr("3,5 g"),
		THC:    ptr(decimal.RequireFromString("22.5")),
		CBD:    ptr(decimal.RequireFromString("0.8")),
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	second := NewStore(mem, testLogger())
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := second.Get("S1")
	if got.Type == nil || *got.Type != enums.ProductTypeHybride {
		t.Fatalf("type not restored: %+v", got)
	}
	if got.THC == nil || got.THC.String() != "22.5" {
		t.Fatalf("thc not restored: %v", got.THC)
	}
	if got.CBD == nil || got.CBD.String() != "0.8" {
		t.Fatalf("cbd not restored: %v", got.CBD)
	}
}

func TestLoadToleratesMissingAndCorruptRecords(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	_ = mem.Write(ctx, storage.KeyTHCOverrides, []byte("{broken"))
	_ = mem.Write(ctx, storage.KeyTypeOverrides, []byte(`{"S1":"Sativa","S2":"Purple"}`))

	store := NewStore(mem, testLogger())
	err := store.Load(ctx)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error for corrupt record, got %v", err)
	}
	if store.Count(enums.OverrideFieldTHC) != 0 {
		t.Fatalf("corrupt record should load as empty")
	}
	if got := store.Get("S1"); got.Type == nil || *got.Type != enums.ProductTypeSativa {
		t.Fatalf("valid type override should load, got %+v", got)
	}
	if got := store.Get("S2"); got.Type != nil {
		t.Fatalf("unknown type should be ignored, got %v", *got.Type)
	}
}

func TestLoadSkipsOnlyTheBadEntries(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	_ = mem.Write(ctx, storage.KeyTHCOverrides, []byte(`{"A":"12","B":"oops","C":"30","D":null}`))
	_ = mem.Write(ctx, storage.KeyFormatOverrides, []byte(`{"A":7,"C":"3,5 g"}`))
	_ = mem.Write(ctx, storage.KeyCBDOverrides, []byte(`{"A":{"x":1},"C":1.5}`))

	store := NewStore(mem, testLogger())
	if err := store.Load(ctx); err != nil {
		t.Fatalf("bad entries should not fail the load, got %v", err)
	}
	if store.Count(enums.OverrideFieldTHC) != 2 {
		t.Fatalf("expected A and C to load, got %d thc entries", store.Count(enums.OverrideFieldTHC))
	}
	a, c := store.Get("A"), store.Get("C")
	if a.THC == nil || !a.THC.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("A thc not restored: %v", a.THC)
	}
	if c.THC == nil || !c.THC.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("entry after the corrupt one was lost: %v", c.THC)
	}
	if got := store.Get("B"); got.THC != nil {
		t.Fatalf("corrupt entry should be skipped, got %v", got.THC)
	}
	if a.Format != nil || c.Format == nil || *c.Format != "3,5 g" {
		t.Fatalf("unexpected formats A=%v C=%v", a.Format, c.Format)
	}
	if a.CBD != nil || c.CBD == nil || c.CBD.String() != "1.5" {
		t.Fatalf("unexpected cbd A=%v C=%v", a.CBD, c.CBD)
	}

	// the next write keeps every entry that loaded
	if err := store.Apply(ctx, "E", Values{THC: ptr(decimal.NewFromInt(5))}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	reloaded := NewStore(mem, testLogger())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Count(enums.OverrideFieldTHC) != 3 {
		t.Fatalf("expected A, C and E after rewrite, got %d", reloaded.Count(enums.OverrideFieldTHC))
	}
}

func TestApplyKeepsMemoryWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.WithQuota(memory.New(), 1), testLogger())

	err := store.Apply(ctx, "S1", Values{CBD: ptr(decimal.NewFromInt(3))})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !pkgerrors.IsCommitted(err) {
		t.Fatal("storage error should be a committed warning")
	}
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected quota cause in chain, got %v", err)
	}
	if got := store.Get("S1"); got.CBD == nil || !got.CBD.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("in-memory value should be kept, got %+v", got)
	}
}

func TestValuesFields(t *testing.T) {
	if !(Values{}).IsEmpty() {
		t.Fatal("zero Values should be empty")
	}
	fields := Values{Type: ptr(enums.ProductTypeIndica), Format: ptr("3,5 g")}.Fields()
	if len(fields) != 2 || fields[0] != enums.OverrideFieldType || fields[1] != enums.OverrideFieldFormat {
		t.Fatalf("unexpected fields %v", fields)
	}
}
