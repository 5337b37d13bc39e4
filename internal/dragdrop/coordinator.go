// Package dragdrop turns drag gestures into grid moves. The coordinator is an
// explicit state machine: idle, dragging, then dropped or cancelled, and back
// to idle as soon as the gesture resolves.
package dragdrop

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/shelfplanner/internal/catalog"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/metrics"
)

// Mover is the catalog surface the coordinator drives.
type Mover interface {
	Locate(sku string) (enums.GridID, error)
	Move(ctx context.Context, sku string, source, target enums.GridID, beforeSKU string) (catalog.MoveResult, error)
}

// DropTarget is a position in a grid: directly before BeforeSKU, or at the end
// when BeforeSKU is empty.
type DropTarget struct {
	Grid      enums.GridID `json:"gridId"`
	BeforeSKU string       `json:"beforeSku,omitempty"`
}

// State is the in-flight drag. It is the zero value (idle) outside a gesture.
type State struct {
	Phase      enums.DragPhase `json:"phase"`
	DraggedSKU string          `json:"draggedSku,omitempty"`
	SourceGrid enums.GridID    `json:"sourceGridId,omitempty"`
	Target     *DropTarget     `json:"currentDropTarget,omitempty"`
}

// Outcome is how a gesture resolved.
type Outcome struct {
	Phase  enums.DragPhase     `json:"phase"`
	Move   *catalog.MoveResult `json:"move,omitempty"`
	Reason string              `json:"reason,omitempty"`
	// Warning is set when the move was applied but could not be saved.
	Warning string `json:"warning,omitempty"`
	err     error
}

// Err returns the error that cancelled the drop or the storage warning of a
// dropped one.
func (o Outcome) Err() error {
	return o.err
}

// Coordinator owns the single drag in flight.
type Coordinator struct {
	mu      sync.Mutex
	mover   Mover
	state   State
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator(mover Mover, logg *logger.Logger, m *metrics.CatalogMetrics) *Coordinator {
	return &Coordinator{
		mover:   mover,
		state:   idle(),
		logg:    logg,
		metrics: m,
	}
}

// State returns a copy of the current drag state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Begin starts dragging sku from the grid it is displayed in.
func (c *Coordinator) Begin(ctx context.Context, sku string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != enums.DragPhaseIdle {
		return c.snapshot(), conflict("begin", c.state.Phase)
	}
	source, err := c.mover.Locate(sku)
	if err != nil {
		return c.snapshot(), err
	}
	c.state = State{Phase: enums.DragPhaseDragging, DraggedSKU: sku, SourceGrid: source}
	c.logg.Debug(c.logg.WithGridID(c.logg.WithSKU(ctx, sku), source.String()), "drag started")
	return c.snapshot(), nil
}

// Hover records the drop position under the pointer. A nil target means the
// pointer is outside every grid. Nothing is written.
func (c *Coordinator) Hover(target *DropTarget) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != enums.DragPhaseDragging {
		return c.snapshot(), conflict("hover", c.state.Phase)
	}
	if target != nil && !target.Grid.IsValid() {
		target = nil
	}
	if target == nil {
		c.state.Target = nil
	} else {
		t := *target
		c.state.Target = &t
	}
	return c.snapshot(), nil
}

// Drop releases the drag over target, or over the last hovered target when
// target is nil. Without a valid target the drag is cancelled. A move rejected
// by validation is rolled back and also resolves as cancelled.
func (c *Coordinator) Drop(ctx context.Context, target *DropTarget) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != enums.DragPhaseDragging {
		return Outcome{}, conflict("drop", c.state.Phase)
	}
	drag := c.state
	defer c.reset()

	if target == nil {
		target = drag.Target
	}
	ctx = c.logg.WithSKU(ctx, drag.DraggedSKU)
	if target == nil || !target.Grid.IsValid() {
		return c.cancelled(ctx, "released outside any grid", nil, metrics.OutcomeCancelled), nil
	}

	result, err := c.mover.Move(ctx, drag.DraggedSKU, drag.SourceGrid, target.Grid, target.BeforeSKU)
	if err != nil && !pkgerrors.IsCommitted(err) {
		return c.cancelled(ctx, reasonFor(err), err, metrics.OutcomeRolledBack), nil
	}

	outcome := Outcome{Phase: enums.DragPhaseDropped, Move: &result, err: err}
	if err != nil {
		outcome.Warning = pkgerrors.MetadataFor(pkgerrors.CodeStorage).PublicMessage
	}
	if result.Source == result.Target {
		c.metrics.ObserveDrop(metrics.OutcomeSameGrid)
	} else {
		c.metrics.ObserveDrop(metrics.OutcomeCrossGrid)
	}
	c.logg.Info(c.logg.WithGridID(ctx, target.Grid.String()), "drag dropped")
	return outcome, nil
}

// Cancel aborts the drag without touching any store.
func (c *Coordinator) Cancel(ctx context.Context, reason string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != enums.DragPhaseDragging {
		return Outcome{}, conflict("cancel", c.state.Phase)
	}
	defer c.reset()
	if reason == "" {
		reason = "aborted"
	}
	return c.cancelled(c.logg.WithSKU(ctx, c.state.DraggedSKU), reason, nil, metrics.OutcomeCancelled), nil
}

func (c *Coordinator) cancelled(ctx context.Context, reason string, err error, label string) Outcome {
	c.metrics.ObserveDrop(label)
	c.logg.Info(c.logg.WithField(ctx, "reason", reason), "drag cancelled")
	return Outcome{Phase: enums.DragPhaseCancelled, Reason: reason, err: err}
}

func (c *Coordinator) reset() {
	c.state = idle()
}

func (c *Coordinator) snapshot() State {
	out := c.state
	if c.state.Target != nil {
		t := *c.state.Target
		out.Target = &t
	}
	return out
}

func idle() State {
	return State{Phase: enums.DragPhaseIdle}
}

func conflict(op string, phase enums.DragPhase) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while %s", op, phase)).
		WithDetails(map[string]string{"phase": phase.String()})
}

func reasonFor(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
