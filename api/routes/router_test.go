package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shelfplanner/internal/catalog"
	"github.com/angelmondragon/shelfplanner/internal/dragdrop"
	"github.com/angelmondragon/shelfplanner/pkg/config"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/metrics"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/angelmondragon/shelfplanner/pkg/storage/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		Storage: config.StorageConfig{Driver: config.StorageDriverMemory},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	m := metrics.NewCatalogMetrics(reg)
	store := memory.New()

	cat := catalog.New(catalog.Options{Adapter: storage.Instrument(store, m), Logger: logg, Metrics: m})
	if err := cat.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	coord := dragdrop.NewCoordinator(cat, logg, m)
	return NewRouter(cfg, logg, store, reg, cat, coord)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	do(t, h, http.MethodPost, "/api/v1/catalog/ingest", `[{"sku":"S1","type":"Indica","name":"Pink Kush","format":"3,5 g"}]`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "catalog_products_loaded") {
		t.Fatalf("expected catalog metrics to be exposed")
	}
}

func TestRouterCatalogFlow(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/catalog/ingest", `[
		{"sku":"S1","type":"Indica","name":"Pink Kush","format":"3,5 g"},
		{"sku":"S2","type":"Indica","name":"Bubba Kush","format":"3,5 g"},
		{"sku":"S3","type":"Sativa","name":"Jack Herer","format":"7 g"}
	]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/catalog/grids", ""); rec.Code != http.StatusOK {
		t.Fatalf("layout: expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/products/S3", ""); rec.Code != http.StatusOK {
		t.Fatalf("product: expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/products/hidden", ""); rec.Code != http.StatusOK {
		t.Fatalf("hidden list: expected 200, got %d", rec.Code)
	}

	steps := []struct {
		path string
		body string
	}{
		{"/api/v1/drag/begin", `{"sku":"S3"}`},
		{"/api/v1/drag/hover", `{"target":{"gridId":"indica-grid-other"}}`},
		{"/api/v1/drag/drop", ""},
	}
	for _, step := range steps {
		if rec := do(t, h, http.MethodPost, step.path, step.body); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", step.path, rec.Code, rec.Body.String())
		}
	}

	rec = do(t, h, http.MethodGet, "/api/v1/catalog/grids/indica-grid-other", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sku":"S3"`) {
		t.Fatalf("expected S3 in indica-grid-other, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/products", `{"product":{"sku":"N1","name":"House Haze","format":"28 g"},"gridId":"grid-28g"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add product: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	do(t, h, http.MethodPost, "/api/v1/catalog/ingest", `[{"sku":"S1","type":"Indica","name":"Pink Kush","format":"3,5 g"}]`)
	rec = do(t, h, http.MethodGet, "/api/v1/catalog/grids/grid-28g", "")
	if !strings.Contains(rec.Body.String(), `"sku":"N1"`) {
		t.Fatalf("staff product should survive re-ingest, got %s", rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/products/N1", ""); rec.Code != http.StatusOK {
		t.Fatalf("remove product: expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/drag", "")
	if !strings.Contains(rec.Body.String(), `"phase":"idle"`) {
		t.Fatalf("expected idle drag state, got %s", rec.Body.String())
	}
}

func TestRouterRejectsUnknownRoutes(t *testing.T) {
	h := newTestRouter(t)
	if rec := do(t, h, http.MethodGet, "/api/v1/orders", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
