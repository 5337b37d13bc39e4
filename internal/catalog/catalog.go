// Package catalog is the application state of one planning session: the
// product repository, grid orders and filter state, with every read and
// mutation going through one lock.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/shelfplanner/internal/grids"
	"github.com/angelmondragon/shelfplanner/internal/listing"
	"github.com/angelmondragon/shelfplanner/internal/ordering"
	"github.com/angelmondragon/shelfplanner/internal/overrides"
	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/metrics"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"go.uber.org/multierr"
)

// Options wires a Catalog.
type Options struct {
	Adapter     storage.Adapter
	Logger      *logger.Logger
	Metrics     *metrics.CatalogMetrics
	Locale      string
	DefaultSort enums.SortKey
}

// Catalog owns the repository, order store and filter state.
type Catalog struct {
	mu sync.Mutex

	products *products.Repository
	orders   *ordering.Store
	sorter   *listing.Sorter
	filters  listing.FilterState

	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

// GridView is one grid as rendered: its members in reconciled order,
// restricted to the products passing the current filter.
type GridView struct {
	ID       enums.GridID                `json:"id"`
	Label    string                      `json:"label"`
	Count    int                         `json:"count"`
	Total    int                         `json:"total"`
	Products []products.EffectiveProduct `json:"products"`
}

// MoveResult describes a committed move.
type MoveResult struct {
	SKU          string                `json:"sku"`
	Source       enums.GridID          `json:"sourceGridId"`
	Target       enums.GridID          `json:"targetGridId"`
	Reclassified []enums.OverrideField `json:"reclassified"`
}

// New builds an empty catalog. Call Restore to read persisted state.
func New(opts Options) *Catalog {
	logg := opts.Logger
	ovr := overrides.NewStore(opts.Adapter, logg)
	filters := listing.DefaultFilterState()
	if opts.DefaultSort.IsValid() {
		filters.Sort = opts.DefaultSort
	}
	locale := opts.Locale
	if locale == "" {
		locale = listing.DefaultLocale
	}
	return &Catalog{
		products: products.NewRepository(ovr, opts.Adapter, logg),
		orders:   ordering.NewStore(opts.Adapter, logg),
		sorter:   listing.NewSorter(locale),
		filters:  filters,
		logg:     logg,
		metrics:  opts.Metrics,
	}
}

// Restore loads overrides, hidden SKUs and grid orders. A returned error is a
// storage warning: the affected records start empty and the catalog is usable.
func (c *Catalog) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return multierr.Combine(c.products.Restore(ctx), c.orders.Load(ctx))
}

// Ingest replaces the raw product set.
func (c *Catalog) Ingest(ctx context.Context, batch []products.RawProduct) products.LoadReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := c.products.Load(ctx, batch)
	c.metrics.SetProducts(c.products.Len())
	c.metrics.AddRejected("invalid_record", len(report.Dropped))
	c.metrics.AddRejected("duplicate_sku", len(report.Duplicates))
	return report
}

// Filters returns the current filter state.
func (c *Catalog) Filters() listing.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyFilters()
}

// SetTypeFilters replaces the active type filters. Unknown filters are a
// validation error and leave the state unchanged.
func (c *Catalog) SetTypeFilters(types []enums.TypeFilter) (listing.FilterState, error) {
	for _, t := range types {
		if !t.IsValid() {
			return listing.FilterState{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid type filter %q", t)).
				WithDetails(map[string]string{"types": t.String()})
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Types = append([]enums.TypeFilter{}, types...)
	return c.copyFilters(), nil
}

// ToggleType flips one type filter.
func (c *Catalog) ToggleType(filter enums.TypeFilter) listing.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = c.filters.Toggle(filter)
	return c.copyFilters()
}

// SetSearch sets the free-text search.
func (c *Catalog) SetSearch(search string) listing.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Search = search
	return c.copyFilters()
}

// SetSort sets the sort key. An unknown key is a validation error and leaves
// the state unchanged.
func (c *Catalog) SetSort(key enums.SortKey) (listing.FilterState, error) {
	if !key.IsValid() {
		return listing.FilterState{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sort key %q", key)).
			WithDetails(map[string]string{"sort": key.String()})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Sort = key
	return c.copyFilters(), nil
}

// Product returns the effective view of sku.
func (c *Catalog) Product(sku string) (products.EffectiveProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.GetEffective(sku)
}

// SetOverride applies staff corrections to sku, all or none.
func (c *Catalog) SetOverride(ctx context.Context, sku string, inputs []products.OverrideInput) (products.EffectiveProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.products.SetOverrides(ctx, sku, inputs)
	applied := pkgerrors.IsCommitted(err)
	for _, in := range inputs {
		c.metrics.ObserveOverride(string(in.Field), applied)
	}
	if !applied {
		return products.EffectiveProduct{}, err
	}
	p, getErr := c.products.GetEffective(sku)
	if getErr != nil {
		return products.EffectiveProduct{}, getErr
	}
	return p, err
}

// AddProduct registers a staff-entered product. When target is set the
// record's type and format are rewritten so the product lands in that grid.
func (c *Catalog) AddProduct(ctx context.Context, product products.RawProduct, target *enums.GridID) (products.EffectiveProduct, error) {
	if target != nil {
		if !target.IsValid() {
			return products.EffectiveProduct{}, unknownGrid(*target)
		}
		product = grids.PlaceRaw(product, *target)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.products.AddProduct(ctx, product)
	if pkgerrors.IsCommitted(err) {
		c.metrics.SetProducts(c.products.Len())
	}
	return p, err
}

// RemoveProduct deletes a staff-entered product.
func (c *Catalog) RemoveProduct(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.products.RemoveProduct(ctx, sku)
	if pkgerrors.IsCommitted(err) {
		c.metrics.SetProducts(c.products.Len())
	}
	return err
}

// StaffProducts lists the staff-entered records.
func (c *Catalog) StaffProducts() []products.RawProduct {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.StaffProducts()
}

// Hide removes sku from every grid.
func (c *Catalog) Hide(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.Hide(ctx, sku)
}

// Unhide puts a hidden sku back into its grid.
func (c *Catalog) Unhide(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.Unhide(ctx, sku)
}

// Hidden lists hidden SKUs.
func (c *Catalog) Hidden() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products.Hidden()
}

// ReconciledOrder returns the full display order of grid, ignoring the
// search and type filters.
func (c *Catalog) ReconciledOrder(grid enums.GridID) ([]string, error) {
	if !grid.IsValid() {
		return nil, unknownGrid(grid)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.products.All()
	return c.reconcile(grid, all, c.sorter.Sort(all, c.filters.Sort)), nil
}

// Grid returns the rendered view of one grid.
func (c *Catalog) Grid(grid enums.GridID) (GridView, error) {
	if !grid.IsValid() {
		return GridView{}, unknownGrid(grid)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.products.All()
	sorted := c.sorter.Sort(all, c.filters.Sort)
	return c.gridView(grid, all, sorted), nil
}

// Layout returns every grid in display order.
func (c *Catalog) Layout() []GridView {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.products.All()
	sorted := c.sorter.Sort(all, c.filters.Sort)
	out := make([]GridView, 0, len(enums.AllGridIDs()))
	for _, grid := range enums.AllGridIDs() {
		out = append(out, c.gridView(grid, all, sorted))
	}
	return out
}

// Locate returns the grid sku is currently displayed in.
func (c *Catalog) Locate(sku string) (enums.GridID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.products.GetEffective(sku)
	if err != nil {
		return "", err
	}
	return locate(p)
}

// Move places sku before beforeSKU in target (at the end when beforeSKU is
// empty). source is the grid the caller saw sku in. When target differs from
// source the product's type and format are overridden so the classifier agrees
// with target; the order change and the overrides are applied together or not
// at all. A returned storage error means the move was applied but not saved.
func (c *Catalog) Move(ctx context.Context, sku string, source, target enums.GridID, beforeSKU string) (MoveResult, error) {
	if !target.IsValid() {
		return MoveResult{}, unknownGrid(target)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = c.logg.WithGridID(c.logg.WithSKU(ctx, sku), target.String())
	p, err := c.products.GetEffective(sku)
	if err != nil {
		return MoveResult{}, err
	}
	current, err := locate(p)
	if err != nil {
		return MoveResult{}, err
	}
	if current != source {
		return MoveResult{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("sku %s is in grid %s, not %s", sku, current, source))
	}

	all := c.products.All()
	sorted := c.sorter.Sort(all, c.filters.Sort)
	result := MoveResult{SKU: sku, Source: source, Target: target}
	patch := grids.ImpliedOverrides(p, target)

	err = c.orders.WithTx(ctx, func(tx *ordering.Tx) error {
		tx.SetOrder(source, c.reconcile(source, all, sorted))
		if source == target {
			return tx.MoveWithinGrid(source, sku, beforeSKU)
		}
		tx.SetOrder(target, c.reconcile(target, all, sorted))
		if err := tx.MoveAcrossGrids(source, target, sku, beforeSKU); err != nil {
			return err
		}
		if patch.IsEmpty() {
			return nil
		}
		return c.products.ApplyOverrides(ctx, sku, patch)
	})
	if err != nil && !pkgerrors.IsCommitted(err) {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "move rolled back")
		return MoveResult{}, err
	}
	if source != target {
		result.Reclassified = patch.Fields()
	}
	c.logg.Info(c.logg.WithField(ctx, "source_grid", source.String()), "product moved")
	return result, err
}

func (c *Catalog) reconcile(grid enums.GridID, all, sorted []products.EffectiveProduct) []string {
	return c.orders.Reconcile(grid, grids.Members(all, grid), listing.SKUs(sorted))
}

func (c *Catalog) gridView(grid enums.GridID, all, sorted []products.EffectiveProduct) GridView {
	order := c.reconcile(grid, all, sorted)
	bySKU := make(map[string]products.EffectiveProduct, len(all))
	for _, p := range all {
		bySKU[p.SKU] = p
	}

	view := GridView{
		ID:       grid,
		Label:    grid.Label(),
		Total:    len(order),
		Products: make([]products.EffectiveProduct, 0, len(order)),
	}
	for _, sku := range order {
		p := bySKU[sku]
		if c.filters.Matches(p) {
			view.Products = append(view.Products, p)
		}
	}
	view.Count = len(view.Products)
	return view
}

func (c *Catalog) copyFilters() listing.FilterState {
	out := c.filters
	out.Types = append([]enums.TypeFilter{}, c.filters.Types...)
	return out
}

func locate(p products.EffectiveProduct) (enums.GridID, error) {
	if p.Hidden {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is hidden", p.SKU))
	}
	grid, ok := grids.Classify(p)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s of type %q has no grid", p.SKU, p.Type))
	}
	return grid, nil
}

func unknownGrid(grid enums.GridID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("grid %q not found", grid)).
		WithDetails(map[string]string{"gridId": grid.String()})
}
