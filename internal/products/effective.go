package products

import (
	"github.com/angelmondragon/shelfplanner/internal/overrides"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"github.com/shopspring/decimal"
)

// EffectiveProduct is a raw record with every override applied. It is the
// only product view the rest of the catalog reads.
type EffectiveProduct struct {
	SKU            string               `json:"sku"`
	Name           string               `json:"name"`
	Brand          string               `json:"brand"`
	Store          string               `json:"store,omitempty"`
	TypeIcon       string               `json:"typeIcon,omitempty"`
	Type           enums.ProductType    `json:"type"`
	Format         string               `json:"format"`
	FormatCategory enums.FormatCategory `json:"formatCategory"`
	THCMin         decimal.Decimal      `json:"thcMin"`
	THCMax         decimal.Decimal      `json:"thcMax"`
	// THC and CBD hold the override, else the parsed manual value.
	THC        decimal.NullDecimal   `json:"thc"`
	CBD        decimal.NullDecimal   `json:"cbd"`
	Overridden []enums.OverrideField `json:"overridden,omitempty"`
	Hidden     bool                  `json:"hidden,omitempty"`
	// Staff marks products added by hand rather than scraped.
	Staff bool `json:"staff,omitempty"`

	raw RawProduct
}

// Raw returns the record the view was derived from.
func (p EffectiveProduct) Raw() RawProduct {
	return p.raw
}

// SortTHC is the value used by the descending THC sort.
func (p EffectiveProduct) SortTHC() decimal.Decimal {
	if p.THC.Valid {
		return p.THC.Decimal
	}
	return p.THCMax
}

// SortTHCAsc is the value used by the ascending THC sort.
func (p EffectiveProduct) SortTHCAsc() decimal.Decimal {
	if p.THC.Valid {
		return p.THC.Decimal
	}
	return p.THCMin
}

// IsOverridden reports whether field carries a staff override.
func (p EffectiveProduct) IsOverridden(field enums.OverrideField) bool {
	for _, f := range p.Overridden {
		if f == field {
			return true
		}
	}
	return false
}

func effective(raw RawProduct, ovr overrides.Values, hidden bool) EffectiveProduct {
	p := EffectiveProduct{
		SKU:            raw.SKU,
		Name:           raw.Name,
		Brand:          raw.Brand,
		Store:          raw.Store,
		TypeIcon:       raw.TypeIcon,
		Type:           raw.productType(),
		Format:         raw.Format,
		FormatCategory: raw.category(),
		THCMin:         raw.THCMin,
		THCMax:         raw.THCMax,
		THC:            raw.ManualTHC.Percent(),
		CBD:            raw.ManualCBD.Percent(),
		Overridden:     ovr.Fields(),
		Hidden:         hidden,
		raw:            raw,
	}
	if ovr.Type != nil {
		p.Type = *ovr.Type
	}
	if ovr.Format != nil {
		p.Format = *ovr.Format
	}
	if ovr.THC != nil {
		p.THC = decimal.NewNullDecimal(*ovr.THC)
	}
	if ovr.CBD != nil {
		p.CBD = decimal.NewNullDecimal(*ovr.CBD)
	}
	return p
}
