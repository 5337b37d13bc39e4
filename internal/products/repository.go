// Package products merges scraped product records with staff overrides into
// the effective view every other catalog component reads.
package products

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/angelmondragon/shelfplanner/internal/overrides"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const maxFormatLength = 32

var (
	minPercent = decimal.Zero
	maxPercent = decimal.NewFromInt(100)
)

// OverrideInput is one field/value pair as entered by staff.
type OverrideInput struct {
	Field enums.OverrideField `json:"field" validate:"required"`
	Value string              `json:"value"`
}

// DroppedRecord describes a raw record rejected at ingestion.
type DroppedRecord struct {
	Index  int    `json:"index"`
	SKU    string `json:"sku,omitempty"`
	Reason string `json:"reason"`
}

// LoadReport summarizes one ingestion batch.
type LoadReport struct {
	Received   int             `json:"received"`
	Accepted   int             `json:"accepted"`
	Dropped    []DroppedRecord `json:"dropped"`
	Duplicates []string        `json:"duplicates"`
	// StaffMerged counts staff-added products appended after the batch.
	StaffMerged int `json:"staffMerged"`
}

// Repository is the single source of product truth. It is not safe for
// concurrent use.
type Repository struct {
	overrides *overrides.Store
	adapter   storage.Adapter
	logg      *logger.Logger
	validate  *validator.Validate

	// scraped is the last ingested batch; staff holds products added by hand.
	// raw is scraped followed by the staff products whose SKU it lacks.
	scraped []RawProduct
	staff   []RawProduct
	raw     []RawProduct
	index   map[string]int
	hidden  map[string]struct{}
}

// NewRepository returns an empty repository. Hidden SKUs persist through
// adapter; overrides through the given store.
func NewRepository(ovr *overrides.Store, adapter storage.Adapter, logg *logger.Logger) *Repository {
	return &Repository{
		overrides: ovr,
		adapter:   adapter,
		logg:      logg,
		validate:  validator.New(),
		index:     map[string]int{},
		hidden:    map[string]struct{}{},
	}
}

// Restore reads the persisted overrides, hidden SKUs and staff products.
// Failures leave the affected records empty and are returned as storage errors.
func (r *Repository) Restore(ctx context.Context) error {
	err := multierr.Append(r.overrides.Load(ctx), r.restoreStaff(ctx))

	var hidden []string
	if _, herr := storage.ReadJSON(ctx, r.adapter, storage.KeyHiddenSKUs, &hidden); herr != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", herr.Error()), "hidden sku record unreadable; starting empty")
		err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeStorage, herr, "load hidden skus"))
		hidden = nil
	}
	r.hidden = make(map[string]struct{}, len(hidden))
	for _, sku := range hidden {
		r.hidden[sku] = struct{}{}
	}
	return err
}

// Load replaces the scraped product set. Records without a SKU are dropped
// with a warning; a SKU seen twice keeps its first position and its last data.
// Staff products are appended after the batch unless the batch carries their
// SKU.
func (r *Repository) Load(ctx context.Context, batch []RawProduct) LoadReport {
	report := LoadReport{Received: len(batch), Dropped: []DroppedRecord{}, Duplicates: []string{}}
	raw := make([]RawProduct, 0, len(batch))
	index := make(map[string]int, len(batch))

	for i, record := range batch {
		record.SKU = strings.TrimSpace(record.SKU)
		if err := r.validate.Struct(record); err != nil {
			reason := describeValidation(err)
			r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"index": i, "sku": record.SKU, "reason": reason}), "dropping raw product")
			report.Dropped = append(report.Dropped, DroppedRecord{Index: i, SKU: record.SKU, Reason: reason})
			continue
		}
		if at, ok := index[record.SKU]; ok {
			r.logg.Warn(r.logg.WithSKU(ctx, record.SKU), "duplicate sku in batch; last record wins")
			report.Duplicates = append(report.Duplicates, record.SKU)
			raw[at] = record
			continue
		}
		index[record.SKU] = len(raw)
		raw = append(raw, record)
	}

	r.scraped = raw
	report.Accepted = len(raw)
	report.StaffMerged = r.merge()
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"accepted":   report.Accepted,
		"dropped":    len(report.Dropped),
		"duplicates": len(report.Duplicates),
		"staff":      report.StaffMerged,
	}), "raw products loaded")
	return report
}

// AddProduct registers a product entered by staff. It is persisted apart from
// the scraped batch and survives every later Load. A SKU already present is a
// conflict; a hidden SKU is unhidden. A storage error means the product was
// added but not saved.
func (r *Repository) AddProduct(ctx context.Context, product RawProduct) (EffectiveProduct, error) {
	product.SKU = strings.TrimSpace(product.SKU)
	if err := r.validate.Struct(product); err != nil {
		reason := describeValidation(err)
		return EffectiveProduct{}, pkgerrors.New(pkgerrors.CodeValidation, reason).
			WithDetails(map[string]string{"field": "sku", "reason": reason})
	}
	if _, ok := r.index[product.SKU]; ok {
		return EffectiveProduct{}, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product %s already exists", product.SKU)).
			WithDetails(map[string]string{"sku": product.SKU})
	}
	if product.productType() == enums.ProductTypeOZ28 && product.category() == enums.FormatCategoryPreroll {
		return EffectiveProduct{}, invalid(enums.OverrideFieldType, "pre-rolls cannot be classified as 28g")
	}

	ctx = r.logg.WithSKU(ctx, product.SKU)
	r.staff = append(r.staff, product)
	r.merge()

	var errs error
	if _, hidden := r.hidden[product.SKU]; hidden {
		delete(r.hidden, product.SKU)
		errs = r.persistHidden(ctx)
	}
	errs = multierr.Append(errs, r.persistStaff(ctx))
	r.logg.Info(ctx, "staff product added")

	p, _ := r.GetEffective(product.SKU)
	if errs != nil {
		return p, pkgerrors.Wrap(pkgerrors.CodeStorage, errs, "persist staff product")
	}
	return p, nil
}

// RemoveProduct deletes a staff-added product. Scraped products cannot be
// removed, only hidden. Overrides recorded for the SKU are kept.
func (r *Repository) RemoveProduct(ctx context.Context, sku string) error {
	at := -1
	for i, p := range r.staff {
		if p.SKU == sku {
			at = i
			break
		}
	}
	if at < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("staff product %s not found", sku)).
			WithDetails(map[string]string{"sku": sku})
	}

	ctx = r.logg.WithSKU(ctx, sku)
	r.staff = append(r.staff[:at:at], r.staff[at+1:]...)
	r.merge()
	r.logg.Info(ctx, "staff product removed")
	if err := r.persistStaff(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist staff products")
	}
	return nil
}

// StaffProducts returns the staff-added records in insertion order.
func (r *Repository) StaffProducts() []RawProduct {
	out := make([]RawProduct, len(r.staff))
	copy(out, r.staff)
	return out
}

// merge rebuilds raw and index from the scraped batch and the staff products,
// returning how many staff products were appended.
func (r *Repository) merge() int {
	raw := make([]RawProduct, 0, len(r.scraped)+len(r.staff))
	index := make(map[string]int, cap(raw))
	for _, p := range r.scraped {
		index[p.SKU] = len(raw)
		raw = append(raw, p)
	}
	merged := 0
	for _, p := range r.staff {
		if _, ok := index[p.SKU]; ok {
			continue
		}
		index[p.SKU] = len(raw)
		raw = append(raw, p)
		merged++
	}
	r.raw, r.index = raw, index
	return merged
}

func (r *Repository) restoreStaff(ctx context.Context) error {
	var staff []RawProduct
	if _, err := storage.ReadJSON(ctx, r.adapter, storage.KeyStaffProducts, &staff); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "staff product record unreadable; starting empty")
		r.staff = nil
		r.merge()
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load staff products")
	}

	r.staff = make([]RawProduct, 0, len(staff))
	seen := make(map[string]struct{}, len(staff))
	for _, p := range staff {
		p.SKU = strings.TrimSpace(p.SKU)
		if p.SKU == "" {
			continue
		}
		if _, dup := seen[p.SKU]; dup {
			continue
		}
		seen[p.SKU] = struct{}{}
		r.staff = append(r.staff, p)
	}
	r.merge()
	return nil
}

func (r *Repository) persistStaff(ctx context.Context) error {
	staff := r.staff
	if staff == nil {
		staff = []RawProduct{}
	}
	if err := storage.WriteJSON(ctx, r.adapter, storage.KeyStaffProducts, staff); err != nil {
		r.logg.Error(r.logg.WithField(ctx, "key", storage.KeyStaffProducts), "staff product record not saved", err)
		return err
	}
	return nil
}

// GetEffective returns the effective view of sku, hidden or not.
func (r *Repository) GetEffective(sku string) (EffectiveProduct, error) {
	at, ok := r.index[sku]
	if !ok {
		return EffectiveProduct{}, notFound(sku)
	}
	return r.effectiveAt(at), nil
}

// All returns every visible product in raw load order.
func (r *Repository) All() []EffectiveProduct {
	out := make([]EffectiveProduct, 0, len(r.raw))
	for i := range r.raw {
		if _, hidden := r.hidden[r.raw[i].SKU]; hidden {
			continue
		}
		out = append(out, r.effectiveAt(i))
	}
	return out
}

// Len returns the number of loaded products, hidden and staff ones included.
func (r *Repository) Len() int {
	return len(r.raw)
}

// SetOverride validates and applies one staff correction.
func (r *Repository) SetOverride(ctx context.Context, sku string, field enums.OverrideField, value string) error {
	return r.SetOverrides(ctx, sku, []OverrideInput{{Field: field, Value: value}})
}

// SetOverrides validates every input first and applies none of them unless all
// are valid. A later input for the same field replaces an earlier one.
func (r *Repository) SetOverrides(ctx context.Context, sku string, inputs []OverrideInput) error {
	if len(inputs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one override is required")
	}
	var patch overrides.Values
	for _, in := range inputs {
		if err := parseInput(&patch, in); err != nil {
			return err
		}
	}
	return r.ApplyOverrides(ctx, sku, patch)
}

// ApplyOverrides validates a typed patch against the product and applies it.
// Validation and not-found errors leave every value untouched. A storage error
// means the values were applied but not saved.
func (r *Repository) ApplyOverrides(ctx context.Context, sku string, patch overrides.Values) error {
	current, err := r.GetEffective(sku)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one override is required")
	}
	if err := validatePatch(current, patch); err != nil {
		r.logg.Warn(r.logg.WithFields(r.logg.WithSKU(ctx, sku), map[string]any{"error": err.Error()}), "override rejected")
		return err
	}

	err = r.overrides.Apply(ctx, sku, patch)
	fields := make([]string, 0, 4)
	for _, f := range patch.Fields() {
		fields = append(fields, f.String())
	}
	r.logg.Info(r.logg.WithField(r.logg.WithSKU(ctx, sku), "fields", fields), "override applied")
	return err
}

// Hide removes sku from All() until Unhide is called.
func (r *Repository) Hide(ctx context.Context, sku string) error {
	if _, ok := r.index[sku]; !ok {
		return notFound(sku)
	}
	if _, ok := r.hidden[sku]; ok {
		return nil
	}
	r.hidden[sku] = struct{}{}
	return r.persistHidden(ctx)
}

// Unhide restores a hidden sku. Unknown or visible SKUs are a no-op.
func (r *Repository) Unhide(ctx context.Context, sku string) error {
	if _, ok := r.hidden[sku]; !ok {
		return nil
	}
	delete(r.hidden, sku)
	return r.persistHidden(ctx)
}

// Hidden returns the hidden SKUs in ascending order, including ones absent
// from the current raw set.
func (r *Repository) Hidden() []string {
	out := make([]string, 0, len(r.hidden))
	for sku := range r.hidden {
		out = append(out, sku)
	}
	sort.Strings(out)
	return out
}

func (r *Repository) persistHidden(ctx context.Context) error {
	if err := storage.WriteJSON(ctx, r.adapter, storage.KeyHiddenSKUs, r.Hidden()); err != nil {
		r.logg.Error(r.logg.WithField(ctx, "key", storage.KeyHiddenSKUs), "hidden sku record not saved", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist hidden skus")
	}
	return nil
}

func (r *Repository) effectiveAt(i int) EffectiveProduct {
	raw := r.raw[i]
	_, hidden := r.hidden[raw.SKU]
	p := effective(raw, r.overrides.Get(raw.SKU), hidden)
	p.Staff = i >= len(r.scraped)
	return p
}

func parseInput(patch *overrides.Values, in OverrideInput) error {
	value := strings.TrimSpace(in.Value)
	switch in.Field {
	case enums.OverrideFieldType:
		t, err := enums.ParseProductType(value)
		if err != nil {
			return invalid(in.Field, err.Error())
		}
		patch.Type = &t
	case enums.OverrideFieldFormat:
		patch.Format = &value
	case enums.OverrideFieldTHC, enums.OverrideFieldCBD:
		d, err := ParsePercent(value)
		if err != nil {
			return invalid(in.Field, fmt.Sprintf("%q is not a number", in.Value))
		}
		if in.Field == enums.OverrideFieldTHC {
			patch.THC = &d
		} else {
			patch.CBD = &d
		}
	default:
		return invalid(in.Field, "unknown override field")
	}
	return nil
}

func validatePatch(current EffectiveProduct, patch overrides.Values) error {
	if patch.Type != nil && !patch.Type.IsValid() {
		return invalid(enums.OverrideFieldType, fmt.Sprintf("invalid product type %q", *patch.Type))
	}
	if patch.Format != nil {
		format := strings.TrimSpace(*patch.Format)
		if format == "" {
			return invalid(enums.OverrideFieldFormat, "format must not be empty")
		}
		if len([]rune(format)) > maxFormatLength {
			return invalid(enums.OverrideFieldFormat, fmt.Sprintf("format must be at most %d characters", maxFormatLength))
		}
	}
	if err := checkPercent(enums.OverrideFieldTHC, patch.THC); err != nil {
		return err
	}
	if err := checkPercent(enums.OverrideFieldCBD, patch.CBD); err != nil {
		return err
	}
	if patch.Type != nil && *patch.Type == enums.ProductTypeOZ28 && current.FormatCategory == enums.FormatCategoryPreroll {
		return invalid(enums.OverrideFieldType, "pre-rolls cannot be classified as 28g")
	}
	return nil
}

func checkPercent(field enums.OverrideField, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	if value.LessThan(minPercent) || value.GreaterThan(maxPercent) {
		return invalid(field, fmt.Sprintf("%s must be between 0 and 100", field))
	}
	return nil
}

func invalid(field enums.OverrideField, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, reason).
		WithDetails(map[string]string{"field": field.String(), "reason": reason})
}

func notFound(sku string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", sku)).
		WithDetails(map[string]string{"sku": sku})
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "sku is required"
	case "max":
		return "sku must be at most " + fe.Param() + " characters"
	default:
		return fmt.Sprintf("sku failed %s validation", fe.Tag())
	}
}
