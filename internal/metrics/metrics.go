package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Runs           *prometheus.CounterVec // kind, status
	ProductsSynced prometheus.Counter
	ProductsFailed prometheus.Counter
	MediaUploaded  prometheus.Counter
	MediaReused    prometheus.Counter
	MediaFailed    prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "pedalhouse_sync_runs_total"}, []string{"kind", "status"})
	prodOK := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedalhouse_products_synced_total"})
	prodFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedalhouse_products_failed_total"})
	mediaUp := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedalhouse_media_uploaded_total"})
	mediaReuse := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedalhouse_media_reused_total"})
	mediaFail := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedalhouse_media_failed_total"})

	r.MustRegister(runs, prodOK, prodFail, mediaUp, mediaReuse, mediaFail)
	return &Registry{
		reg:            r,
		Runs:           runs,
		ProductsSynced: prodOK,
		ProductsFailed: prodFail,
		MediaUploaded:  mediaUp,
		MediaReused:    mediaReuse,
		MediaFailed:    mediaFail,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
