package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shelfplanner/api/responses"
	"github.com/angelmondragon/shelfplanner/api/validators"
	"github.com/angelmondragon/shelfplanner/internal/catalog"
	"github.com/angelmondragon/shelfplanner/internal/listing"
	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	pkgerrors "github.com/angelmondragon/shelfplanner/pkg/errors"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
)

const maxSearchLen = 200

// CatalogService is the catalog surface the layout handlers use.
type CatalogService interface {
	Ingest(ctx context.Context, batch []products.RawProduct) products.LoadReport
	Layout() []catalog.GridView
	Grid(grid enums.GridID) (catalog.GridView, error)
	Filters() listing.FilterState
	SetTypeFilters(types []enums.TypeFilter) (listing.FilterState, error)
	ToggleType(filter enums.TypeFilter) listing.FilterState
	SetSearch(search string) listing.FilterState
	SetSort(key enums.SortKey) (listing.FilterState, error)
}

// CatalogIngest replaces the product set with the posted JSON array.
// Invalid records are dropped and listed in the report.
func CatalogIngest(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, err := validators.DecodeJSONBatch[products.RawProduct](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report := svc.Ingest(r.Context(), batch)
		responses.WriteSuccess(w, report)
	}
}

// CatalogLayout renders every grid.
func CatalogLayout(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Layout())
	}
}

// CatalogGrid renders one grid.
func CatalogGrid(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grid, err := enums.ParseGridID(strings.TrimSpace(chi.URLParam(r, "gridId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown grid"))
			return
		}
		view, err := svc.Grid(grid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CatalogFilters returns the active filter state.
func CatalogFilters(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Filters())
	}
}

type updateFiltersRequest struct {
	Types  *[]string `json:"types,omitempty"`
	Toggle *string   `json:"toggle,omitempty"`
	Search *string   `json:"search,omitempty"`
	Sort   *string   `json:"sort,omitempty"`
}

// CatalogUpdateFilters applies the present fields in order: types, toggle,
// search, sort. Every value is parsed before anything changes.
func CatalogUpdateFilters(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateFiltersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update, err := payload.parse()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := svc.Filters()
		if update.types != nil {
			if state, err = svc.SetTypeFilters(update.types); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if update.toggle != "" {
			state = svc.ToggleType(update.toggle)
		}
		if payload.Search != nil {
			state = svc.SetSearch(validators.SanitizeString(*payload.Search, maxSearchLen))
		}
		if update.sort != "" {
			if state, err = svc.SetSort(update.sort); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, state)
	}
}

type filterUpdate struct {
	types  []enums.TypeFilter
	toggle enums.TypeFilter
	sort   enums.SortKey
}

func (p updateFiltersRequest) parse() (filterUpdate, error) {
	var out filterUpdate
	details := map[string]string{}

	if p.Types != nil {
		out.types = make([]enums.TypeFilter, 0, len(*p.Types))
		for _, raw := range *p.Types {
			filter, err := enums.ParseTypeFilter(raw)
			if err != nil {
				details["types"] = err.Error()
				break
			}
			out.types = append(out.types, filter)
		}
	}
	if p.Toggle != nil {
		filter, err := enums.ParseTypeFilter(*p.Toggle)
		if err != nil {
			details["toggle"] = err.Error()
		}
		out.toggle = filter
	}
	if p.Sort != nil {
		key, err := enums.ParseSortKey(*p.Sort)
		if err != nil {
			details["sort"] = err.Error()
		}
		out.sort = key
	}

	if len(details) > 0 {
		return filterUpdate{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid filter").WithDetails(details)
	}
	return out, nil
}
