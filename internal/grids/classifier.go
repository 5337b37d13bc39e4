// Package grids assigns effective products to fixture grids. Membership is
// always derived from the current effective type and format, never stored.
package grids

import (
	"strings"

	"github.com/angelmondragon/shelfplanner/internal/overrides"
	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
)

// Canonical format strings written by implied overrides.
const (
	FormatSmall         = "3,5 g"
	FormatOunce         = "28 g"
	FormatOtherFallback = "7 g"
)

const smallToken = "3.5g"

// IsSmallFormat reports whether a format string denotes the 3.5g package.
// Case, spaces and the decimal separator are ignored.
func IsSmallFormat(format string) bool {
	return normalizeFormat(format) == smallToken
}

func normalizeFormat(format string) string {
	f := strings.ToLower(format)
	f = strings.ReplaceAll(f, ",", ".")
	f = strings.ReplaceAll(f, " ", "")
	return strings.Join(strings.Fields(f), "")
}

// Classify returns the grid p belongs to. Products whose type has no fixture
// (Mélange or unrecognized) report false.
func Classify(p products.EffectiveProduct) (enums.GridID, bool) {
	small := IsSmallFormat(p.Format)
	switch p.Type {
	case enums.ProductTypeOZ28:
		return enums.GridOZ28, true
	case enums.ProductTypeIndica:
		if small {
			return enums.GridIndicaSmall, true
		}
		return enums.GridIndicaOther, true
	case enums.ProductTypeSativa:
		if small {
			return enums.GridSativaSmall, true
		}
		return enums.GridSativaOther, true
	case enums.ProductTypeHybride:
		if small {
			return enums.GridHybrideSmall, true
		}
		return enums.GridHybrideOther, true
	}
	return "", false
}

// Bucket groups products by grid, preserving input order within each grid.
// Every grid is present in the result, possibly with no members.
func Bucket(items []products.EffectiveProduct) map[enums.GridID][]products.EffectiveProduct {
	out := make(map[enums.GridID][]products.EffectiveProduct, len(enums.AllGridIDs()))
	for _, grid := range enums.AllGridIDs() {
		out[grid] = []products.EffectiveProduct{}
	}
	for _, p := range items {
		if grid, ok := Classify(p); ok {
			out[grid] = append(out[grid], p)
		}
	}
	return out
}

// Members returns the SKUs of items that belong to grid, in input order.
func Members(items []products.EffectiveProduct, grid enums.GridID) []string {
	out := make([]string, 0)
	for _, p := range items {
		if g, ok := Classify(p); ok && g == grid {
			out = append(out, p.SKU)
		}
	}
	return out
}

// ImpliedOverrides returns the type and format overrides that make Classify
// place p in target. Fields already agreeing with target are left nil, so an
// empty result means p already belongs there.
func ImpliedOverrides(p products.EffectiveProduct, target enums.GridID) overrides.Values {
	var patch overrides.Values

	if t := target.Type(); t != p.Type {
		patch.Type = &t
	}

	switch {
	case target == enums.GridOZ28:
		if normalizeFormat(p.Format) != normalizeFormat(FormatOunce) {
			f := FormatOunce
			patch.Format = &f
		}
	case target.IsSmallFormat():
		if !IsSmallFormat(p.Format) {
			f := FormatSmall
			patch.Format = &f
		}
	default:
		if IsSmallFormat(p.Format) {
			f := otherFormat(p)
			patch.Format = &f
		}
	}
	return patch
}

// otherFormat picks the format for a product leaving a 3.5g grid: its scraped
// format when that is not 3.5g, else a fixed fallback.
func otherFormat(p products.EffectiveProduct) string {
	if raw := strings.TrimSpace(p.Raw().Format); raw != "" && !IsSmallFormat(raw) {
		return raw
	}
	return FormatOtherFallback
}

// PlaceRaw rewrites the type and format of a staff-entered record so Classify
// puts it in target. The record's other fields are kept.
func PlaceRaw(raw products.RawProduct, target enums.GridID) products.RawProduct {
	raw.Type = target.Type().String()
	switch {
	case target == enums.GridOZ28:
		if normalizeFormat(raw.Format) != normalizeFormat(FormatOunce) {
			raw.Format = FormatOunce
		}
	case target.IsSmallFormat():
		if !IsSmallFormat(raw.Format) {
			raw.Format = FormatSmall
		}
	default:
		if IsSmallFormat(raw.Format) {
			raw.Format = FormatOtherFallback
		}
	}
	return raw
}
