// Package overrides holds the staff corrections applied on top of scraped
// product records, one map per field keyed by SKU.
package overrides

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Values is the override state of one SKU. A nil field means "use the raw
// value"; when used as a patch, nil fields are left untouched.
type Values struct {
	Type   *enums.ProductType
	Format *string
	THC    *decimal.Decimal
	CBD    *decimal.Decimal
}

// Fields lists the fields carrying a value.
func (v Values) Fields() []enums.OverrideField {
	fields := make([]enums.OverrideField, 0, 4)
	if v.Type != nil {
		fields = append(fields, enums.OverrideFieldType)
	}
	if v.Format != nil {
		fields = append(fields, enums.OverrideFieldFormat)
	}
	if v.THC != nil {
		fields = append(fields, enums.OverrideFieldTHC)
	}
	if v.CBD != nil {
		fields = append(fields, enums.OverrideFieldCBD)
	}
	return fields
}

// IsEmpty reports whether no field carries a value.
func (v Values) IsEmpty() bool {
	return len(v.Fields()) == 0
}

var recordKeys = map[enums.OverrideField]string{
	enums.OverrideFieldTHC:    storage.KeyTHCOverrides,
	enums.OverrideFieldCBD:    storage.KeyCBDOverrides,
	enums.OverrideFieldType:   storage.KeyTypeOverrides,
	enums.OverrideFieldFormat: storage.KeyFormatOverrides,
}

// Store keeps the four override maps in memory and mirrors each one to its
// own storage record. It is not safe for concurrent use.
type Store struct {
	adapter storage.Adapter
	logg    *logger.Logger

	types   map[string]enums.ProductType
	formats map[string]string
	thc     map[string]decimal.Decimal
	cbd     map[string]decimal.Decimal
}

// NewStore returns an empty store persisting through adapter.
func NewStore(adapter storage.Adapter, logg *logger.Logger) *Store {
	return &Store{
		adapter: adapter,
		logg:    logg,
		types:   map[string]enums.ProductType{},
		formats: map[string]string{},
		thc:     map[string]decimal.Decimal{},
		cbd:     map[string]decimal.Decimal{},
	}
}

// Load replaces the in-memory maps with the persisted records. Missing records
// are empty maps. A record that is not a JSON object is logged, left empty and
// reported as a storage error. Entries that fail to parse are skipped one by
// one so the rest of their record still loads.
func (s *Store) Load(ctx context.Context) error {
	var errs error
	read := func(key string) map[string]json.RawMessage {
		entries := map[string]json.RawMessage{}
		if _, err := storage.ReadJSON(ctx, s.adapter, key, &entries); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "override record unreadable; starting empty")
			errs = multierr.Append(errs, err)
			return nil
		}
		return entries
	}

	s.types = decodeEntries(ctx, s.logg, storage.KeyTypeOverrides, read(storage.KeyTypeOverrides), parseType)
	s.formats = decodeEntries(ctx, s.logg, storage.KeyFormatOverrides, read(storage.KeyFormatOverrides), parseFormat)
	s.thc = decodeEntries(ctx, s.logg, storage.KeyTHCOverrides, read(storage.KeyTHCOverrides), parseDecimal)
	s.cbd = decodeEntries(ctx, s.logg, storage.KeyCBDOverrides, read(storage.KeyCBDOverrides), parseDecimal)

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, errs, "load overrides")
	}
	return nil
}

func decodeEntries[V any](ctx context.Context, logg *logger.Logger, key string, entries map[string]json.RawMessage, parse func(json.RawMessage) (V, error)) map[string]V {
	out := make(map[string]V, len(entries))
	for sku, raw := range entries {
		if string(raw) == "null" {
			logg.Warn(logg.WithFields(logg.WithSKU(ctx, sku), map[string]any{"key": key}), "skipping empty override entry")
			continue
		}
		v, err := parse(raw)
		if err != nil {
			logg.Warn(logg.WithFields(logg.WithSKU(ctx, sku), map[string]any{"key": key, "error": err.Error()}), "skipping unreadable override entry")
			continue
		}
		out[sku] = v
	}
	return out
}

func parseType(raw json.RawMessage) (enums.ProductType, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	t := enums.ProductType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown product type %q", value)
	}
	return t, nil
}

func parseFormat(raw json.RawMessage) (string, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	return value, nil
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var value decimal.Decimal
	if err := json.Unmarshal(raw, &value); err != nil {
		return decimal.Decimal{}, err
	}
	return value, nil
}

// Get returns the overrides recorded for sku.
func (s *Store) Get(sku string) Values {
	var v Values
	if t, ok := s.types[sku]; ok {
		v.Type = &t
	}
	if f, ok := s.formats[sku]; ok {
		v.Format = &f
	}
	if d, ok := s.thc[sku]; ok {
		v.THC = &d
	}
	if d, ok := s.cbd[sku]; ok {
		v.CBD = &d
	}
	return v
}

// Apply sets every non-nil field of patch for sku, replacing prior values, and
// persists the touched records. The in-memory change is kept even when a write
// fails; the returned storage error is then a warning.
func (s *Store) Apply(ctx context.Context, sku string, patch Values) error {
	if patch.Type != nil {
		s.types[sku] = *patch.Type
	}
	if patch.Format != nil {
		s.formats[sku] = *patch.Format
	}
	if patch.THC != nil {
		s.thc[sku] = *patch.THC
	}
	if patch.CBD != nil {
		s.cbd[sku] = *patch.CBD
	}
	return s.persist(ctx, patch.Fields()...)
}

// Count returns the number of overridden values for field.
func (s *Store) Count(field enums.OverrideField) int {
	switch field {
	case enums.OverrideFieldType:
		return len(s.types)
	case enums.OverrideFieldFormat:
		return len(s.formats)
	case enums.OverrideFieldTHC:
		return len(s.thc)
	case enums.OverrideFieldCBD:
		return len(s.cbd)
	}
	return 0
}

func (s *Store) persist(ctx context.Context, fields ...enums.OverrideField) error {
	var errs error
	for _, field := range fields {
		key := recordKeys[field]
		if err := storage.WriteJSON(ctx, s.adapter, key, s.record(field)); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "key", key), "override record not saved", err)
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, errs, "persist overrides")
	}
	return nil
}

func (s *Store) record(field enums.OverrideField) any {
	switch field {
	case enums.OverrideFieldType:
		return s.types
	case enums.OverrideFieldFormat:
		return s.formats
	case enums.OverrideFieldTHC:
		return s.thc
	default:
		return s.cbd
	}
}
