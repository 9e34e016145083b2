package metrics

import (
	"net/http"
	"time"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidArgument = "invalid_argument"
	OutcomeInvalidKey      = "invalid_key"
	OutcomeEncodingError   = "encoding_error"
	OutcomeSignFailure     = "sign_failure"
	OutcomeUnknown         = "unknown"
)

// Metrics contains the Prometheus collectors for the signing service
type Metrics struct {
	registry prometheus.Gatherer

	SignRequests *prometheus.CounterVec
	SignDuration *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	RateLimited  prometheus.Counter
}

var _ ethSigner.Observer = (*Metrics)(nil)

// NewMetrics registers collectors on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers collectors on registry. A nil registry uses the
// process-wide default.
func NewMetricsWithRegistry(registry *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if registry != nil {
		registerer = registry
		gatherer = registry
	}
	factory := promauto.With(registerer)

	return &Metrics{
		registry: gatherer,
		SignRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ethsigner_sign_requests_total",
			Help: "The total number of signing operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		SignDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ethsigner_sign_duration_seconds",
			Help:    "Time spent in signing operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"operation"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ethsigner_http_requests_total",
			Help: "The total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "ethsigner_http_rate_limited_total",
			Help: "The total number of HTTP requests rejected by the rate limiter",
		}),
	}
}

// ObserveSign records the outcome and latency of a signing call.
func (m *Metrics) ObserveSign(operation string, err error, elapsed time.Duration) {
	m.SignRequests.WithLabelValues(operation, Outcome(err)).Inc()
	m.SignDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome maps a facade error to its label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch ethSigner.KindOf(err) {
	case ethSigner.ErrInvalidArgument:
		return OutcomeInvalidArgument
	case ethSigner.ErrInvalidKey:
		return OutcomeInvalidKey
	case ethSigner.ErrEncoding:
		return OutcomeEncodingError
	case ethSigner.ErrSignFailure:
		return OutcomeSignFailure
	default:
		return OutcomeUnknown
	}
}
