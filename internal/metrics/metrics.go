package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	YearChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choropleth_year_changes_total",
		Help: "Total number of selected-year changes",
	})
	UnchangedSelectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choropleth_unchanged_selections_total",
		Help: "Year selections with no positive data that kept the previous colours",
	})
	TooltipsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choropleth_tooltips_total",
		Help: "Tooltip lookups by result",
	}, []string{"result"})
	RendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "choropleth_renders_total",
		Help: "Rendered outputs by kind",
	}, []string{"kind"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choropleth_svg_cache_hits_total",
		Help: "SVG cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choropleth_svg_cache_misses_total",
		Help: "SVG cache misses",
	})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "choropleth_load_duration_ms",
		Help:    "Dataset load duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	LoadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "choropleth_load_failures_total",
		Help: "Dataset loads that failed",
	})
	DatasetSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "choropleth_dataset_size",
		Help: "Loaded dataset sizes by kind (regions, observations, duplicates, skipped)",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(YearChangesTotal)
	prometheus.MustRegister(UnchangedSelectionsTotal)
	prometheus.MustRegister(TooltipsTotal)
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(LoadDurationMs)
	prometheus.MustRegister(LoadFailuresTotal)
	prometheus.MustRegister(DatasetSize)
}

// Handler exposes the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }
