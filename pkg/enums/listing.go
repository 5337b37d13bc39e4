package enums

import (
	"fmt"
	"strings"
)

// SortKey selects the default ordering of a product view.
type SortKey string

const (
	SortByName   SortKey = "name"
	SortByTHC    SortKey = "thc"
	SortByTHCAsc SortKey = "thc-asc"
	SortByBrand  SortKey = "brand"
)

var validSortKeys = []SortKey{
	SortByName,
	SortByTHC,
	SortByTHCAsc,
	SortByBrand,
}

// String implements fmt.Stringer.
func (k SortKey) String() string {
	return string(k)
}

// IsValid reports whether the value is a known SortKey.
func (k SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into a SortKey. "thc-desc" is accepted as an
// alias of "thc".
func ParseSortKey(value string) (SortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "thc-desc" {
		return SortByTHC, nil
	}
	for _, candidate := range validSortKeys {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}

// TypeFilter is one entry of the active type filter set.
type TypeFilter string

const (
	TypeFilterIndica  TypeFilter = "Indica"
	TypeFilterSativa  TypeFilter = "Sativa"
	TypeFilterHybride TypeFilter = "Hybride"
	TypeFilterAll     TypeFilter = "all"
)

var validTypeFilters = []TypeFilter{
	TypeFilterIndica,
	TypeFilterSativa,
	TypeFilterHybride,
	TypeFilterAll,
}

// DefaultTypeFilters is the filter set a fresh session starts with.
func DefaultTypeFilters() []TypeFilter {
	out := make([]TypeFilter, len(validTypeFilters))
	copy(out, validTypeFilters)
	return out
}

// String implements fmt.Stringer.
func (f TypeFilter) String() string {
	return string(f)
}

// IsValid reports whether the value is a known TypeFilter.
func (f TypeFilter) IsValid() bool {
	for _, candidate := range validTypeFilters {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseTypeFilter converts raw input into a TypeFilter (case-insensitive).
func ParseTypeFilter(value string) (TypeFilter, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validTypeFilters {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid type filter %q", value)
}
