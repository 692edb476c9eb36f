package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mickamy/recordtrail"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Collector is a recordtrail.Observer exporting Prometheus metrics.
type Collector struct {
	RecordsTotal    *prometheus.CounterVec
	RecordDuration  *prometheus.HistogramVec
	ChangedAttrs    *prometheus.CounterVec
	HistoryTotal    *prometheus.CounterVec
	HistoryDuration *prometheus.HistogramVec
	HistoryEntries  prometheus.Histogram
}

var _ recordtrail.Observer = (*Collector)(nil)

// New creates the collector and registers it with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordtrail_records_total",
				Help: "Total number of Record calls by outcome",
			},
			[]string{"table", "kind", "outcome"},
		),
		RecordDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recordtrail_record_duration_seconds",
				Help:    "Histogram of Record latency",
				Buckets: durationBuckets,
			},
			[]string{"table"},
		),
		ChangedAttrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordtrail_changed_attributes_total",
				Help: "Total number of detail rows written",
			},
			[]string{"table"},
		),
		HistoryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordtrail_history_queries_total",
				Help: "Total number of History calls by outcome",
			},
			[]string{"table", "outcome"},
		),
		HistoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recordtrail_history_duration_seconds",
				Help:    "Histogram of History latency",
				Buckets: durationBuckets,
			},
			[]string{"table"},
		),
		HistoryEntries: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recordtrail_history_entries",
				Help:    "Number of entries returned per History call",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	reg.MustRegister(
		c.RecordsTotal,
		c.RecordDuration,
		c.ChangedAttrs,
		c.HistoryTotal,
		c.HistoryDuration,
		c.HistoryEntries,
	)
	return c
}

// ObserveRecord counts one Record call and its changed attributes.
func (c *Collector) ObserveRecord(table string, kind recordtrail.Kind, changes int, elapsed time.Duration, err error) {
	outcome := Outcome(err)
	if outcome == "invalid" {
		// rejected input may carry arbitrary table names
		c.RecordsTotal.WithLabelValues("", "", outcome).Inc()
		return
	}
	c.RecordsTotal.WithLabelValues(table, kind.String(), outcome).Inc()
	c.RecordDuration.WithLabelValues(table).Observe(elapsed.Seconds())
	if err == nil {
		c.ChangedAttrs.WithLabelValues(table).Add(float64(changes))
	}
}

// ObserveHistory counts one History call and the number of entries returned.
func (c *Collector) ObserveHistory(table string, entries int, elapsed time.Duration, err error) {
	outcome := Outcome(err)
	if outcome == "invalid" {
		c.HistoryTotal.WithLabelValues("", outcome).Inc()
		return
	}
	c.HistoryTotal.WithLabelValues(table, outcome).Inc()
	c.HistoryDuration.WithLabelValues(table).Observe(elapsed.Seconds())
	if err == nil {
		c.HistoryEntries.Observe(float64(entries))
	}
}

// Outcome classifies err into the label used by the collector.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, recordtrail.ErrValidation):
		return "invalid"
	case errors.Is(err, recordtrail.ErrStorage):
		return "storage_error"
	}
	return "error"
}

// Handler returns the /metrics endpoint handler serving g, or the default
// registry when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
