package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shelfplanner/api/responses"
	"github.com/angelmondragon/shelfplanner/api/validators"
	"github.com/angelmondragon/shelfplanner/internal/dragdrop"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
)

// DragService is the coordinator surface the drag handlers use.
type DragService interface {
	State() dragdrop.State
	Begin(ctx context.Context, sku string) (dragdrop.State, error)
	Hover(target *dragdrop.DropTarget) (dragdrop.State, error)
	Drop(ctx context.Context, target *dragdrop.DropTarget) (dragdrop.Outcome, error)
	Cancel(ctx context.Context, reason string) (dragdrop.Outcome, error)
}

// DragState returns the drag in flight.
func DragState(svc DragService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.State())
	}
}

type beginDragRequest struct {
	SKU string `json:"sku" validate:"required,max=64"`
}

// DragBegin starts dragging a product.
func DragBegin(svc DragService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload beginDragRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Begin(r.Context(), payload.SKU)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// targetRequest carries an optional drop position. A missing target means the
// pointer is outside every grid (hover) or the last hovered target (drop).
type targetRequest struct {
	Target *dragdrop.DropTarget `json:"target"`
}

// DragHover records the position under the pointer.
func DragHover(svc DragService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload targetRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Hover(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// DragDrop releases the drag. A rejected move answers 200 with a cancelled
// outcome; an unsaved move answers 200 with a storage warning.
func DragDrop(svc DragService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload targetRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.Drop(r.Context(), payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var warning error
		if outcome.Phase == enums.DragPhaseDropped {
			warning = outcome.Err()
		}
		responses.WriteResult(r.Context(), logg, w, http.StatusOK, outcome, warning)
	}
}

type cancelDragRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

// DragCancel aborts the drag.
func DragCancel(svc DragService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cancelDragRequest
		if err := decodeOptionalBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.Cancel(r.Context(), payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}
