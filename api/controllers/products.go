package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfplanner/api/responses"
	"github.com/angelmondragon/shelfplanner/api/validators"
	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
)

// ProductService is the catalog surface the product handlers use.
type ProductService interface {
	Product(sku string) (products.EffectiveProduct, error)
	SetOverride(ctx context.Context, sku string, inputs []products.OverrideInput) (products.EffectiveProduct, error)
	Hide(ctx context.Context, sku string) error
	Unhide(ctx context.Context, sku string) error
	Hidden() []string
	AddProduct(ctx context.Context, product products.RawProduct, target *enums.GridID) (products.EffectiveProduct, error)
	RemoveProduct(ctx context.Context, sku string) error
	StaffProducts() []products.RawProduct
}

// ProductGet returns the effective view of one product.
func ProductGet(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku, err := skuParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Product(sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type patchOverridesRequest struct {
	Overrides []products.OverrideInput `json:"overrides" validate:"required,min=1,dive"`
}

// ProductPatchOverrides applies every posted override or none of them.
func ProductPatchOverrides(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku, err := skuParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchOverridesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithSKU(r.Context(), sku)
		product, err := svc.SetOverride(ctx, sku, payload.Overrides)
		responses.WriteResult(ctx, logg, w, http.StatusOK, product, err)
	}
}

// ProductHide removes a product from every grid.
func ProductHide(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return visibilityHandler(logg, true, svc.Hide)
}

// ProductUnhide puts a hidden product back.
func ProductUnhide(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return visibilityHandler(logg, false, svc.Unhide)
}

// ProductHiddenList lists hidden SKUs.
func ProductHiddenList(svc ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"skus": svc.Hidden()})
	}
}

type addProductRequest struct {
	Product products.RawProduct `json:"product"`
	GridID  *string             `json:"gridId,omitempty"`
}

// ProductAdd registers a staff-entered product, optionally placed in a grid.
func ProductAdd(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var target *enums.GridID
		if payload.GridID != nil {
			grid, err := enums.ParseGridID(strings.TrimSpace(*payload.GridID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid grid").
					WithDetails(map[string]string{"gridId": *payload.GridID}))
				return
			}
			target = &grid
		}

		ctx := logg.WithSKU(r.Context(), payload.Product.SKU)
		product, err := svc.AddProduct(ctx, payload.Product, target)
		responses.WriteResult(ctx, logg, w, http.StatusCreated, product, err)
	}
}

// ProductRemove deletes a staff-entered product.
func ProductRemove(svc ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku, err := skuParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithSKU(r.Context(), sku)
		err = svc.RemoveProduct(ctx, sku)
		responses.WriteResult(ctx, logg, w, http.StatusOK, map[string]any{"sku": sku, "removed": true}, err)
	}
}

// ProductStaffList lists staff-entered products.
func ProductStaffList(svc ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"products": svc.StaffProducts()})
	}
}

func visibilityHandler(logg *logger.Logger, hidden bool, apply func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku, err := skuParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithSKU(r.Context(), sku)
		err = apply(ctx, sku)
		responses.WriteResult(ctx, logg, w, http.StatusOK, map[string]any{"sku": sku, "hidden": hidden}, err)
	}
}

func skuParam(r *http.Request) (string, error) {
	sku := strings.TrimSpace(chi.URLParam(r, "sku"))
	if sku == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	return sku, nil
}
