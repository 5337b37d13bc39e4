package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shelfplanner/api/controllers"
	"github.com/angelmondragon/shelfplanner/api/middleware"
	"github.com/angelmondragon/shelfplanner/pkg/config"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
)

// CatalogAPI is the catalog surface exposed over HTTP.
type CatalogAPI interface {
	controllers.CatalogService
	controllers.ProductService
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storagePinger storage.Pinger,
	gatherer prometheus.Gatherer,
	catalogService CatalogAPI,
	dragService controllers.DragService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, storagePinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// One interaction at a time against the catalog and the drag state.
		r.Use(middleware.Serialize())

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/ingest", controllers.CatalogIngest(catalogService, logg))
			r.Get("/grids", controllers.CatalogLayout(catalogService))
			r.Get("/grids/{gridId}", controllers.CatalogGrid(catalogService, logg))
			r.Get("/filters", controllers.CatalogFilters(catalogService))
			r.Put("/filters", controllers.CatalogUpdateFilters(catalogService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductAdd(catalogService, logg))
			r.Get("/staff", controllers.ProductStaffList(catalogService))
			r.Get("/hidden", controllers.ProductHiddenList(catalogService))
			r.Get("/{sku}", controllers.ProductGet(catalogService, logg))
			r.Delete("/{sku}", controllers.ProductRemove(catalogService, logg))
			r.Patch("/{sku}/overrides", controllers.ProductPatchOverrides(catalogService, logg))
			r.Post("/{sku}/hidden", controllers.ProductHide(catalogService, logg))
			r.Delete("/{sku}/hidden", controllers.ProductUnhide(catalogService, logg))
		})

		r.Route("/drag", func(r chi.Router) {
			r.Get("/", controllers.DragState(dragService))
			r.Post("/begin", controllers.DragBegin(dragService, logg))
			r.Post("/hover", controllers.DragHover(dragService, logg))
			r.Post("/drop", controllers.DragDrop(dragService, logg))
			r.Post("/cancel", controllers.DragCancel(dragService, logg))
		})
	})

	return r
}
