// Package listing derives the filtered, sorted product view the grids are
// rendered from. Its ordering is the default fed to order reconciliation and
// is never persisted.
package listing

import (
	"strings"

	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
)

// FilterState is the ephemeral UI filter: active type filters, free-text
// search and sort key.
type FilterState struct {
	Types  []enums.TypeFilter `json:"types"`
	Search string             `json:"search"`
	Sort   enums.SortKey      `json:"sort"`
}

// DefaultFilterState is every type active, no search, sorted by name.
func DefaultFilterState() FilterState {
	return FilterState{Types: enums.DefaultTypeFilters(), Sort: enums.SortByName}
}

// Has reports whether filter is active.
func (f FilterState) Has(filter enums.TypeFilter) bool {
	for _, active := range f.Types {
		if active == filter {
			return true
		}
	}
	return false
}

// Toggle flips one type filter. Toggling "all" activates or clears every
// filter; toggling a single type off also clears "all", and activating the
// last missing type turns "all" back on.
func (f FilterState) Toggle(filter enums.TypeFilter) FilterState {
	out := f
	if filter == enums.TypeFilterAll {
		if f.Has(enums.TypeFilterAll) {
			out.Types = []enums.TypeFilter{}
		} else {
			out.Types = enums.DefaultTypeFilters()
		}
		return out
	}

	active := map[enums.TypeFilter]bool{}
	for _, t := range f.Types {
		active[t] = true
	}
	if active[filter] {
		delete(active, filter)
		delete(active, enums.TypeFilterAll)
	} else {
		active[filter] = true
		if active[enums.TypeFilterIndica] && active[enums.TypeFilterSativa] && active[enums.TypeFilterHybride] {
			active[enums.TypeFilterAll] = true
		}
	}

	out.Types = make([]enums.TypeFilter, 0, len(active))
	for _, t := range enums.DefaultTypeFilters() {
		if active[t] {
			out.Types = append(out.Types, t)
		}
	}
	return out
}

// Matches reports whether p passes the type and search filters.
func (f FilterState) Matches(p products.EffectiveProduct) bool {
	return f.matchesType(p.Type) && matchesSearch(p, f.Search)
}

func (f FilterState) matchesType(t enums.ProductType) bool {
	if f.Has(enums.TypeFilterAll) {
		return true
	}
	return f.Has(enums.TypeFilter(t))
}

func matchesSearch(p products.EffectiveProduct, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}

// Filter keeps the products matching state, preserving input order.
func Filter(items []products.EffectiveProduct, state FilterState) []products.EffectiveProduct {
	out := make([]products.EffectiveProduct, 0, len(items))
	for _, p := range items {
		if state.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
