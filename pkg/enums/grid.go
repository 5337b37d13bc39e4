package enums

import "fmt"

// GridID identifies one of the fixed fixture buckets. The set is closed: a
// product is always assigned by the grid classifier, never by string keys.
type GridID string

const (
	GridIndicaSmall  GridID = "indica-3.5g"
	GridIndicaOther  GridID = "indica-grid-other"
	GridSativaSmall  GridID = "sativa-3.5g"
	GridSativaOther  GridID = "sativa-grid-other"
	GridHybrideSmall GridID = "hybride-3.5g"
	GridHybrideOther GridID = "hybride-grid-other"
	GridOZ28         GridID = "grid-28g"
)

var validGridIDs = []GridID{
	GridIndicaSmall,
	GridIndicaOther,
	GridSativaSmall,
	GridSativaOther,
	GridHybrideSmall,
	GridHybrideOther,
	GridOZ28,
}

var gridLabels = map[GridID]string{
	GridIndicaSmall:  "Indica 3,5 g",
	GridIndicaOther:  "Indica autres formats",
	GridSativaSmall:  "Sativa 3,5 g",
	GridSativaOther:  "Sativa autres formats",
	GridHybrideSmall: "Hybride 3,5 g",
	GridHybrideOther: "Hybride autres formats",
	GridOZ28:         "28 g",
}

// AllGridIDs returns every bucket in display order.
func AllGridIDs() []GridID {
	out := make([]GridID, len(validGridIDs))
	copy(out, validGridIDs)
	return out
}

// String implements fmt.Stringer.
func (g GridID) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GridID.
func (g GridID) IsValid() bool {
	_, ok := gridLabels[g]
	return ok
}

// Label returns the display label for the fixture.
func (g GridID) Label() string {
	return gridLabels[g]
}

// Type returns the product type every member of the grid shares.
func (g GridID) Type() ProductType {
	switch g {
	case GridIndicaSmall, GridIndicaOther:
		return ProductTypeIndica
	case GridSativaSmall, GridSativaOther:
		return ProductTypeSativa
	case GridHybrideSmall, GridHybrideOther:
		return ProductTypeHybride
	case GridOZ28:
		return ProductTypeOZ28
	}
	return ""
}

// IsSmallFormat reports whether the grid holds the 3.5g format variant.
func (g GridID) IsSmallFormat() bool {
	return g == GridIndicaSmall || g == GridSativaSmall || g == GridHybrideSmall
}

// ParseGridID converts raw input into a GridID.
func ParseGridID(value string) (GridID, error) {
	for _, candidate := range validGridIDs {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid grid id %q", value)
}
