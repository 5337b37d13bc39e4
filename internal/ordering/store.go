// Package ordering keeps the manual display order of every grid and
// reconciles it against the grid's current members.
package ordering

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"go.uber.org/multierr"
)

// Store holds one ordered SKU sequence per grid, persisted as a single
// record. It is not safe for concurrent use.
type Store struct {
	adapter storage.Adapter
	logg    *logger.Logger
	orders  map[enums.GridID][]string
}

// NewStore returns an empty store persisting through adapter.
func NewStore(adapter storage.Adapter, logg *logger.Logger) *Store {
	return &Store{
		adapter: adapter,
		logg:    logg,
		orders:  map[enums.GridID][]string{},
	}
}

// Load replaces the in-memory orders with the persisted record. Unknown grid
// ids are dropped. A missing record is an empty order set.
func (s *Store) Load(ctx context.Context) error {
	var raw map[string][]string
	if _, err := storage.ReadJSON(ctx, s.adapter, storage.KeyGridOrders, &raw); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "grid order record unreadable; starting empty")
		s.orders = map[enums.GridID][]string{}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load grid orders")
	}

	orders := make(map[enums.GridID][]string, len(raw))
	for key, skus := range raw {
		grid, err := enums.ParseGridID(key)
		if err != nil {
			s.logg.Warn(s.logg.WithGridID(ctx, key), "ignoring persisted order for unknown grid")
			continue
		}
		orders[grid] = dedupe(skus)
	}
	s.orders = orders
	return nil
}

// GetOrder returns a copy of the persisted order of grid (possibly empty).
func (s *Store) GetOrder(grid enums.GridID) []string {
	return clone(s.orders[grid])
}

// Reconcile returns the persisted order of grid restricted to members, with
// the remaining members appended in defaultSorted order.
func (s *Store) Reconcile(grid enums.GridID, members, defaultSorted []string) []string {
	return Reconcile(s.orders[grid], members, defaultSorted)
}

// MoveWithinGrid moves sku directly before beforeSKU, or to the end when
// beforeSKU is empty, and persists the result.
func (s *Store) MoveWithinGrid(ctx context.Context, grid enums.GridID, sku, beforeSKU string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.MoveWithinGrid(grid, sku, beforeSKU)
	})
}

// MoveAcrossGrids removes sku from source and inserts it into target before
// beforeSKU (or at the end). It never touches product type or format.
func (s *Store) MoveAcrossGrids(ctx context.Context, source, target enums.GridID, sku, beforeSKU string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.MoveAcrossGrids(source, target, sku, beforeSKU)
	})
}

// WithTx runs fn against a staged copy of the orders. When fn fails the staged
// changes are discarded and nothing is written. When fn succeeds, or fails with
// an error whose effect is already committed elsewhere, the staged orders
// replace the live ones and are persisted.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx := &Tx{base: s.orders, staged: map[enums.GridID][]string{}}
	fnErr := fn(tx)
	if fnErr != nil && !pkgerrors.IsCommitted(fnErr) {
		return fnErr
	}
	if len(tx.staged) == 0 {
		return fnErr
	}

	for grid, order := range tx.staged {
		s.orders[grid] = order
	}
	return multierr.Append(fnErr, s.persist(ctx))
}

func (s *Store) persist(ctx context.Context) error {
	record := make(map[string][]string, len(s.orders))
	for grid, order := range s.orders {
		record[grid.String()] = order
	}
	if err := storage.WriteJSON(ctx, s.adapter, storage.KeyGridOrders, record); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "key", storage.KeyGridOrders), "grid order record not saved", err)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist grid orders")
	}
	return nil
}

// Tx stages order mutations until WithTx returns.
type Tx struct {
	base   map[enums.GridID][]string
	staged map[enums.GridID][]string
}

// Order returns the staged order of grid.
func (tx *Tx) Order(grid enums.GridID) []string {
	if order, ok := tx.staged[grid]; ok {
		return clone(order)
	}
	return clone(tx.base[grid])
}

// SetOrder replaces the staged order of grid. Duplicate SKUs keep their first
// position.
func (tx *Tx) SetOrder(grid enums.GridID, skus []string) {
	tx.staged[grid] = dedupe(skus)
}

// MoveWithinGrid is Store.MoveWithinGrid inside the transaction. Moving a SKU
// before itself leaves the order unchanged but still counts as a write.
func (tx *Tx) MoveWithinGrid(grid enums.GridID, sku, beforeSKU string) error {
	order := tx.Order(grid)
	from := indexOf(order, sku)
	if from < 0 {
		return notInGrid(grid, sku)
	}
	if beforeSKU != "" && indexOf(order, beforeSKU) < 0 {
		return notInGrid(grid, beforeSKU)
	}
	if beforeSKU == sku {
		tx.staged[grid] = order
		return nil
	}

	order = remove(order, from)
	tx.staged[grid] = insertBefore(order, sku, beforeSKU)
	return nil
}

// MoveAcrossGrids is Store.MoveAcrossGrids inside the transaction.
func (tx *Tx) MoveAcrossGrids(source, target enums.GridID, sku, beforeSKU string) error {
	if source == target {
		return tx.MoveWithinGrid(source, sku, beforeSKU)
	}
	src := tx.Order(source)
	from := indexOf(src, sku)
	if from < 0 {
		return notInGrid(source, sku)
	}
	dst := tx.Order(target)
	if beforeSKU != "" && indexOf(dst, beforeSKU) < 0 {
		return notInGrid(target, beforeSKU)
	}

	tx.staged[source] = remove(src, from)
	if i := indexOf(dst, sku); i >= 0 {
		dst = remove(dst, i)
	}
	tx.staged[target] = insertBefore(dst, sku, beforeSKU)
	return nil
}

// Reconcile keeps the entries of persisted that are members, in their persisted
// order, then appends the members missing from persisted following
// defaultSorted. Members absent from defaultSorted are appended last in
// members order so the result always equals the member set.
func Reconcile(persisted, members, defaultSorted []string) []string {
	memberSet := make(map[string]struct{}, len(members))
	for _, sku := range members {
		memberSet[sku] = struct{}{}
	}

	out := make([]string, 0, len(memberSet))
	placed := make(map[string]struct{}, len(memberSet))
	appendMember := func(sku string) {
		if _, ok := memberSet[sku]; !ok {
			return
		}
		if _, done := placed[sku]; done {
			return
		}
		placed[sku] = struct{}{}
		out = append(out, sku)
	}

	for _, sku := range persisted {
		appendMember(sku)
	}
	for _, sku := range defaultSorted {
		appendMember(sku)
	}
	for _, sku := range members {
		appendMember(sku)
	}
	return out
}

func notInGrid(grid enums.GridID, sku string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sku %s is not in grid %s", sku, grid)).
		WithDetails(map[string]string{"sku": sku, "gridId": grid.String()})
}

func insertBefore(order []string, sku, beforeSKU string) []string {
	at := len(order)
	if beforeSKU != "" {
		if i := indexOf(order, beforeSKU); i >= 0 {
			at = i
		}
	}
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:at]...)
	out = append(out, sku)
	return append(out, order[at:]...)
}

func remove(order []string, i int) []string {
	out := make([]string, 0, len(order)-1)
	out = append(out, order[:i]...)
	return append(out, order[i+1:]...)
}

func indexOf(order []string, sku string) int {
	for i, candidate := range order {
		if candidate == sku {
			return i
		}
	}
	return -1
}

func dedupe(skus []string) []string {
	seen := make(map[string]struct{}, len(skus))
	out := make([]string, 0, len(skus))
	for _, sku := range skus {
		if sku == "" {
			continue
		}
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		out = append(out, sku)
	}
	return out
}

func clone(order []string) []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}
