package listing

import (
	"sort"

	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is the collation locale used when none is configured.
const DefaultLocale = "fr-CA"

// Sorter orders products with locale-aware string comparison.
type Sorter struct {
	tag language.Tag
}

// NewSorter returns a sorter for the BCP 47 locale. An unparsable locale
// falls back to DefaultLocale.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Sorter{tag: tag}
}

// Sort returns a sorted copy of items. Ties fall back to name, then to input
// order.
//
//	name:    name ascending
//	thc:     effective THC descending (override, manual, then max)
//	thc-asc: effective THC ascending (override, manual, then min)
//	brand:   brand ascending
func (s *Sorter) Sort(items []products.EffectiveProduct, key enums.SortKey) []products.EffectiveProduct {
	out := make([]products.EffectiveProduct, len(items))
	copy(out, items)

	// collators keep internal buffers, one per call
	col := collate.New(s.tag)
	byName := func(a, b products.EffectiveProduct) int {
		return col.CompareString(a.Name, b.Name)
	}

	var less func(a, b products.EffectiveProduct) bool
	switch key {
	case enums.SortByTHC:
		less = func(a, b products.EffectiveProduct) bool {
			if c := b.SortTHC().Cmp(a.SortTHC()); c != 0 {
				return c < 0
			}
			return byName(a, b) < 0
		}
	case enums.SortByTHCAsc:
		less = func(a, b products.EffectiveProduct) bool {
			if c := a.SortTHCAsc().Cmp(b.SortTHCAsc()); c != 0 {
				return c < 0
			}
			return byName(a, b) < 0
		}
	case enums.SortByBrand:
		less = func(a, b products.EffectiveProduct) bool {
			if c := col.CompareString(a.Brand, b.Brand); c != 0 {
				return c < 0
			}
			return byName(a, b) < 0
		}
	default:
		less = func(a, b products.EffectiveProduct) bool {
			return byName(a, b) < 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// SKUs extracts the SKUs of items in order.
func SKUs(items []products.EffectiveProduct) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.SKU
	}
	return out
}

// View filters then sorts items for the given state.
func (s *Sorter) View(items []products.EffectiveProduct, state FilterState) []products.EffectiveProduct {
	return s.Sort(Filter(items, state), state.Sort)
}

var defaultSorter = NewSorter(DefaultLocale)

// Sort orders items with the default locale.
func Sort(items []products.EffectiveProduct, key enums.SortKey) []products.EffectiveProduct {
	return defaultSorter.Sort(items, key)
}

// View filters and sorts items with the default locale.
func View(items []products.EffectiveProduct, state FilterState) []products.EffectiveProduct {
	return defaultSorter.View(items, state)
}
