package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop outcomes recorded by ObserveDrop.
const (
	OutcomeSameGrid   = "same_grid"
	OutcomeCrossGrid  = "cross_grid"
	OutcomeRolledBack = "rolled_back"
	OutcomeCancelled  = "cancelled"
)

// CatalogMetrics records catalog ingestion, drag/drop and persistence activity.
type CatalogMetrics struct {
	writeDuration *prometheus.HistogramVec
	writeFailure  *prometheus.CounterVec
	drops         *prometheus.CounterVec
	products      prometheus.Gauge
	rejected      *prometheus.CounterVec
	overrides     *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	writeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_write_duration_seconds",
		Help:    "Duration of persisted record writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"key"})
	writeFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_write_failure",
		Help: "Record writes that failed and stayed in memory only.",
	}, []string{"key"})
	drops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_drops",
		Help: "Completed drag interactions by outcome.",
	}, []string{"outcome"})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products_loaded",
		Help: "Products held by the repository after the last ingestion.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_rejected",
		Help: "Raw records dropped or replaced during ingestion.",
	}, []string{"reason"})
	overrides := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_overrides",
		Help: "Staff override fields submitted, by field and result.",
	}, []string{"field", "result"})
	reg.MustRegister(writeDuration, writeFailure, drops, products, rejected, overrides)
	return &CatalogMetrics{
		writeDuration: writeDuration,
		writeFailure:  writeFailure,
		drops:         drops,
		products:      products,
		rejected:      rejected,
		overrides:     overrides,
	}
}

// ObserveWrite records the duration and result of one persisted write.
func (c *CatalogMetrics) ObserveWrite(key string, duration time.Duration, err error) {
	if c == nil || c.writeDuration == nil {
		return
	}
	key = normalizeLabel(key)
	c.writeDuration.WithLabelValues(key).Observe(duration.Seconds())
	if err != nil {
		c.writeFailure.WithLabelValues(key).Inc()
	}
}

// ObserveDrop increments the drop counter for the given outcome.
func (c *CatalogMetrics) ObserveDrop(outcome string) {
	if c == nil || c.drops == nil {
		return
	}
	c.drops.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetProducts records the current product count.
func (c *CatalogMetrics) SetProducts(n int) {
	if c == nil || c.products == nil {
		return
	}
	c.products.Set(float64(n))
}

// AddRejected counts ingestion rejections by reason.
func (c *CatalogMetrics) AddRejected(reason string, n int) {
	if c == nil || c.rejected == nil || n <= 0 {
		return
	}
	c.rejected.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

// ObserveOverride counts one submitted override field. applied is false when
// the batch it belonged to was rejected.
func (c *CatalogMetrics) ObserveOverride(field string, applied bool) {
	if c == nil || c.overrides == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "rejected"
	}
	c.overrides.WithLabelValues(normalizeLabel(field), result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
