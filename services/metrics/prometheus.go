package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/penilaian/core/grade"
)

const namespace = "penilaian"

// PrometheusRecorder counts grade operations and API requests.
type PrometheusRecorder struct {
	submissions     *prometheus.CounterVec
	schemaChanges   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ grade.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the collectors with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Successful grade submissions by resulting predicate",
		}, []string{"predicate"}),
		schemaChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_changes_total",
			Help:      "Successful category and sub-aspect changes by operation",
		}, []string{"op"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (r *PrometheusRecorder) SubmissionRecorded(predicate string) {
	r.submissions.WithLabelValues(predicate).Inc()
}

func (r *PrometheusRecorder) SchemaChanged(op string) {
	r.schemaChanges.WithLabelValues(op).Inc()
}

// RequestServed observes the latency of an API request; route is the matched route pattern.
func (r *PrometheusRecorder) RequestServed(method, route string, status int, elapsed time.Duration) {
	r.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
