package enums

import (
	"fmt"
	"strings"
)

// ProductType is the strain classification shown on the vendor listing, plus
// the synthetic 28g type staff use for the ounce fixture.
type ProductType string

const (
	ProductTypeIndica  ProductType = "Indica"
	ProductTypeSativa  ProductType = "Sativa"
	ProductTypeHybride ProductType = "Hybride"
	ProductTypeMelange ProductType = "Mélange"
	ProductTypeOZ28    ProductType = "28g"
)

var validProductTypes = []ProductType{
	ProductTypeIndica,
	ProductTypeSativa,
	ProductTypeHybride,
	ProductTypeMelange,
	ProductTypeOZ28,
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType. Matching ignores case
// and surrounding whitespace so UI input like "sativa" resolves to "Sativa".
func ParseProductType(value string) (ProductType, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validProductTypes {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}

// FormatCategory is the scraper's coarse package category.
type FormatCategory string

const (
	FormatCategoryFlower  FormatCategory = "flower"
	FormatCategoryPreroll FormatCategory = "preroll"
)

// String implements fmt.Stringer.
func (c FormatCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known FormatCategory.
func (c FormatCategory) IsValid() bool {
	return c == FormatCategoryFlower || c == FormatCategoryPreroll
}

// OverrideField names a product field staff can correct.
type OverrideField string

const (
	OverrideFieldType   OverrideField = "type"
	OverrideFieldFormat OverrideField = "format"
	OverrideFieldTHC    OverrideField = "thc"
	OverrideFieldCBD    OverrideField = "cbd"
)

var validOverrideFields = []OverrideField{
	OverrideFieldType,
	OverrideFieldFormat,
	OverrideFieldTHC,
	OverrideFieldCBD,
}

// String implements fmt.Stringer.
func (f OverrideField) String() string {
	return string(f)
}

// IsValid reports whether the value is a known OverrideField.
func (f OverrideField) IsValid() bool {
	for _, candidate := range validOverrideFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the field carries a percentage value.
func (f OverrideField) IsNumeric() bool {
	return f == OverrideFieldTHC || f == OverrideFieldCBD
}

// ParseOverrideField converts raw input into an OverrideField.
func ParseOverrideField(value string) (OverrideField, error) {
	for _, candidate := range validOverrideFields {
		if string(candidate) == strings.ToLower(strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid override field %q", value)
}
