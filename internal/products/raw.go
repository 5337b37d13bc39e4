package products

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"github.com/shopspring/decimal"
)

// RawProduct is one record produced by the scraping adapter. Only the SKU is
// checked at ingestion; every other field is taken as delivered.
type RawProduct struct {
	Type           string          `json:"type"`
	TypeIcon       string          `json:"typeIcon"`
	Store          string          `json:"store"`
	SKU            string          `json:"sku" validate:"required,max=64"`
	Name           string          `json:"name"`
	Brand          string          `json:"brand"`
	Format         string          `json:"format"`
	FormatCategory string          `json:"formatCategory"`
	THCMin         decimal.Decimal `json:"thcMin"`
	THCMax         decimal.Decimal `json:"thcMax"`
	ManualTHC      LenientText     `json:"manualThc"`
	ManualCBD      LenientText     `json:"manualCbd"`
}

// LenientText accepts a JSON string, number or null. The scraper emits manual
// values as strings while hand-built records sometimes carry numbers.
type LenientText string

// UnmarshalJSON implements json.Unmarshaler.
func (t *LenientText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = LenientText(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = LenientText(n.String())
	return nil
}

// Percent parses the text as a percentage. Commas are accepted as decimal
// separators and a trailing "%" is ignored. Unparsable or empty text yields
// an invalid NullDecimal.
func (t LenientText) Percent() decimal.NullDecimal {
	d, err := ParsePercent(string(t))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParsePercent parses staff or scraper input such as "22,5", "22.5 %" or "18".
func ParsePercent(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return decimal.NewFromString(cleaned)
}

var prerollPattern = regexp.MustCompile(`(?i)\d+\s*unités?\s*de\s*[\d,]+\s*g`)

// CategoryForFormat applies the scraper's pre-roll detection to a format string.
func CategoryForFormat(format string) enums.FormatCategory {
	if prerollPattern.MatchString(format) {
		return enums.FormatCategoryPreroll
	}
	return enums.FormatCategoryFlower
}

func (r RawProduct) category() enums.FormatCategory {
	c := enums.FormatCategory(strings.ToLower(strings.TrimSpace(r.FormatCategory)))
	if c.IsValid() {
		return c
	}
	return CategoryForFormat(r.Format)
}

func (r RawProduct) productType() enums.ProductType {
	if t, err := enums.ParseProductType(r.Type); err == nil {
		return t
	}
	return enums.ProductType(strings.TrimSpace(r.Type))
}
