package grids

import (
	"testing"

	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
)

func product(sku string, t enums.ProductType, format string) products.EffectiveProduct {
	return products.EffectiveProduct{SKU: sku, Type: t, Format: format}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		p      products.EffectiveProduct
		want   enums.GridID
		wantOK bool
	}{
		{"indica small", product("a", enums.ProductTypeIndica, "3,5 g"), enums.GridIndicaSmall, true},
		{"indica small dotted", product("a", enums.ProductTypeIndica, "3.5g"), enums.GridIndicaSmall, true},
		{"indica other", product("a", enums.ProductTypeIndica, "7 g"), enums.GridIndicaOther, true},
		{"sativa preroll", product("a", enums.ProductTypeSativa, "10 unités de 0,35 g"), enums.GridSativaOther, true},
		{"sativa small upper", product("a", enums.ProductTypeSativa, "3,5 G"), enums.GridSativaSmall, true},
		{"hybride small", product("a", enums.ProductTypeHybride, "3,5 g"), enums.GridHybrideSmall, true},
		{"hybride other", product("a", enums.ProductTypeHybride, "15 g"), enums.GridHybrideOther, true},
		{"28g ignores format text", product("a", enums.ProductTypeOZ28, "3,5 g"), enums.GridOZ28, true},
		{"melange has no grid", product("a", enums.ProductTypeMelange, "3,5 g"), "", false},
		{"unknown type has no grid", product("a", enums.ProductType("CBD"), "3,5 g"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Classify(tc.p)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("Classify() = %q,%v want %q,%v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestClassifyIsTotalOverGridTypes(t *testing.T) {
	formats := []string{"3,5 g", "28 g", "1 unité de 1 g", ""}
	for _, grid := range enums.AllGridIDs() {
		for _, format := range formats {
			if _, ok := Classify(product("x", grid.Type(), format)); !ok {
				t.Fatalf("type %s with format %q should classify", grid.Type(), format)
			}
		}
	}
}

func TestBucketKeepsEveryGridAndInputOrder(t *testing.T) {
	items := []products.EffectiveProduct{
		product("S1", enums.ProductTypeIndica, "3,5 g"),
		product("S2", enums.ProductTypeSativa, "10 unités de 0,35 g"),
		product("S3", enums.ProductTypeIndica, "3,5 g"),
		product("M", enums.ProductTypeMelange, "3,5 g"),
	}
	buckets := Bucket(items)
	if len(buckets) != 7 {
		t.Fatalf("expected 7 grids, got %d", len(buckets))
	}
	small := buckets[enums.GridIndicaSmall]
	if len(small) != 2 || small[0].SKU != "S1" || small[1].SKU != "S3" {
		t.Fatalf("unexpected indica small bucket %+v", small)
	}
	if got := buckets[enums.GridSativaOther]; len(got) != 1 || got[0].SKU != "S2" {
		t.Fatalf("unexpected sativa other bucket %+v", got)
	}
	if got := Members(items, enums.GridIndicaSmall); len(got) != 2 || got[1] != "S3" {
		t.Fatalf("unexpected members %v", got)
	}
}

func TestImpliedOverrides(t *testing.T) {
	t.Run("type change only", func(t *testing.T) {
		p := product("P", enums.ProductTypeIndica, "3,5 g")
		patch := ImpliedOverrides(p, enums.GridSativaSmall)
		if patch.Type == nil || *patch.Type != enums.ProductTypeSativa || patch.Format != nil {
			t.Fatalf("unexpected patch %+v", patch)
		}
	})

	t.Run("same grid is empty", func(t *testing.T) {
		p := product("P", enums.ProductTypeHybride, "7 g")
		if patch := ImpliedOverrides(p, enums.GridHybrideOther); !patch.IsEmpty() {
			t.Fatalf("expected empty patch, got %+v", patch)
		}
	})

	t.Run("into small grid sets 3.5g", func(t *testing.T) {
		p := product("P", enums.ProductTypeIndica, "7 g")
		patch := ImpliedOverrides(p, enums.GridIndicaSmall)
		if patch.Type != nil || patch.Format == nil || *patch.Format != FormatSmall {
			t.Fatalf("unexpected patch %+v", patch)
		}
	})

	t.Run("into 28g sets type and format", func(t *testing.T) {
		p := product("P", enums.ProductTypeSativa, "3,5 g")
		patch := ImpliedOverrides(p, enums.GridOZ28)
		if patch.Type == nil || *patch.Type != enums.ProductTypeOZ28 || patch.Format == nil || *patch.Format != FormatOunce {
			t.Fatalf("unexpected patch %+v", patch)
		}
	})

	t.Run("out of small grid uses fallback", func(t *testing.T) {
		p := product("P", enums.ProductTypeIndica, "3,5 g")
		patch := ImpliedOverrides(p, enums.GridIndicaOther)
		if patch.Format == nil || *patch.Format != FormatOtherFallback {
			t.Fatalf("unexpected patch %+v", patch)
		}
	})

	for _, grid := range enums.AllGridIDs() {
		for _, start := range []products.EffectiveProduct{
			product("A", enums.ProductTypeIndica, "3,5 g"),
			product("B", enums.ProductTypeSativa, "15 g"),
			product("C", enums.ProductTypeOZ28, "28 g"),
		} {
			moved := start
			patch := ImpliedOverrides(start, grid)
			if patch.Type != nil {
				moved.Type = *patch.Type
			}
			if patch.Format != nil {
				moved.Format = *patch.Format
			}
			if got, ok := Classify(moved); !ok || got != grid {
				t.Fatalf("%s moved to %s classified as %s", start.SKU, grid, got)
			}
		}
	}
}

func TestPlaceRawLandsInTarget(t *testing.T) {
	records := []products.RawProduct{
		{SKU: "a", Type: "Indica", Format: "3,5 g"},
		{SKU: "b", Type: "Sativa", Format: "7 g"},
		{SKU: "c", Type: "", Format: ""},
		{SKU: "d", Type: "28g", Format: "28 g"},
	}
	for _, grid := range enums.AllGridIDs() {
		for _, raw := range records {
			placed := PlaceRaw(raw, grid)
			got, ok := Classify(product(placed.SKU, enums.ProductType(placed.Type), placed.Format))
			if !ok || got != grid {
				t.Fatalf("PlaceRaw(%+v, %s) classified as %q,%v", raw, grid, got, ok)
			}
			if placed.SKU != raw.SKU {
				t.Fatalf("PlaceRaw must keep the sku, got %q", placed.SKU)
			}
		}
	}

	kept := PlaceRaw(products.RawProduct{SKU: "e", Type: "Indica", Format: "15 g"}, enums.GridSativaOther)
	if kept.Format != "15 g" {
		t.Fatalf("non 3.5g format should be kept in an other grid, got %q", kept.Format)
	}
}
