package listing

import (
	"reflect"
	"testing"

	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"github.com/shopspring/decimal"
)

func item(sku, name, brand string, t enums.ProductType, thcMin, thcMax int64) products.EffectiveProduct {
	return products.EffectiveProduct{
		SKU:    sku,
		Name:   name,
		Brand:  brand,
		Type:   t,
		THCMin: decimal.NewFromInt(thcMin),
		THCMax: decimal.NewFromInt(thcMax),
	}
}

func catalog() []products.EffectiveProduct {
	return []products.EffectiveProduct{
		item("Z", "Zèbre", "Tweed", enums.ProductTypeSativa, 10, 20),
		item("E", "Éclat", "Aurora", enums.ProductTypeIndica, 15, 25),
		item("A", "avocat", "Tweed", enums.ProductTypeHybride, 5, 25),
		item("M", "Mélange maison", "Maison", enums.ProductTypeMelange, 1, 2),
	}
}

func TestSortByNameIsLocaleAware(t *testing.T) {
	got := SKUs(Sort(catalog(), enums.SortByName))
	want := []string{"A", "E", "M", "Z"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("name sort = %v, want %v", got, want)
	}
}

func TestSortByTHCDescendingTiesByName(t *testing.T) {
	got := SKUs(Sort(catalog(), enums.SortByTHC))
	want := []string{"A", "E", "Z", "M"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("thc sort = %v, want %v", got, want)
	}
}

func TestSortByTHCPrefersEffectiveValue(t *testing.T) {
	items := catalog()
	items[3].THC = decimal.NewNullDecimal(decimal.NewFromInt(99))
	got := SKUs(Sort(items, enums.SortByTHC))
	if got[0] != "M" {
		t.Fatalf("effective thc should lead, got %v", got)
	}
	got = SKUs(Sort(items, enums.SortByTHCAsc))
	want := []string{"A", "Z", "E", "M"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("thc-asc sort = %v, want %v", got, want)
	}
}

func TestSortByBrandTiesByName(t *testing.T) {
	got := SKUs(Sort(catalog(), enums.SortByBrand))
	want := []string{"E", "M", "A", "Z"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("brand sort = %v, want %v", got, want)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := catalog()
	_ = Sort(items, enums.SortByName)
	if items[0].SKU != "Z" {
		t.Fatalf("input reordered: %v", SKUs(items))
	}
}

func TestFilterByTypeAndSearch(t *testing.T) {
	state := FilterState{Types: []enums.TypeFilter{enums.TypeFilterIndica, enums.TypeFilterSativa}}
	if got := SKUs(Filter(catalog(), state)); !reflect.DeepEqual(got, []string{"Z", "E"}) {
		t.Fatalf("type filter = %v", got)
	}

	state = DefaultFilterState()
	if got := SKUs(Filter(catalog(), state)); len(got) != 4 {
		t.Fatalf("all filter should keep every product, got %v", got)
	}

	state.Search = "TWEED"
	if got := SKUs(Filter(catalog(), state)); !reflect.DeepEqual(got, []string{"Z", "A"}) {
		t.Fatalf("brand search = %v", got)
	}
	state.Search = "  écl "
	if got := SKUs(Filter(catalog(), state)); !reflect.DeepEqual(got, []string{"E"}) {
		t.Fatalf("name search = %v", got)
	}

	if got := Filter(catalog(), FilterState{}); len(got) != 0 {
		t.Fatalf("no active type should match nothing, got %v", SKUs(got))
	}
}

func TestViewFiltersThenSorts(t *testing.T) {
	state := FilterState{Types: enums.DefaultTypeFilters(), Search: "a", Sort: enums.SortByName}
	got := SKUs(View(catalog(), state))
	want := []string{"A", "E", "M"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("view = %v, want %v", got, want)
	}
}

func TestToggle(t *testing.T) {
	state := DefaultFilterState()

	state = state.Toggle(enums.TypeFilterIndica)
	if state.Has(enums.TypeFilterIndica) || state.Has(enums.TypeFilterAll) {
		t.Fatalf("toggling indica off should clear indica and all, got %v", state.Types)
	}
	if state.Matches(item("x", "n", "b", enums.ProductTypeIndica, 0, 0)) {
		t.Fatal("indica product should be filtered out")
	}

	state = state.Toggle(enums.TypeFilterIndica)
	if !reflect.DeepEqual(state.Types, enums.DefaultTypeFilters()) {
		t.Fatalf("re-enabling the last type should restore all, got %v", state.Types)
	}

	state = state.Toggle(enums.TypeFilterAll)
	if len(state.Types) != 0 {
		t.Fatalf("toggling all off should clear every filter, got %v", state.Types)
	}
	state = state.Toggle(enums.TypeFilterAll)
	if !state.Has(enums.TypeFilterAll) || len(state.Types) != 4 {
		t.Fatalf("toggling all on should enable everything, got %v", state.Types)
	}
}

func TestNewSorterFallsBackOnBadLocale(t *testing.T) {
	s := NewSorter("???")
	if s.tag.String() != DefaultLocale {
		t.Fatalf("expected fallback locale, got %s", s.tag)
	}
}
