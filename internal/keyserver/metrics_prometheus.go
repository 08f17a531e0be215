package keyserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder backs Recorder with the same counters and
// histograms as the reference server's metrics module.
type PrometheusRecorder struct {
	requests        prometheus.Counter
	serviceRequests prometheus.Counter
	errors          *prometheus.CounterVec

	checkpointTimestampDelay prometheus.Histogram
	checkpointFetchDuration  prometheus.Histogram
	checkpointFetchStatus    *prometheus.CounterVec
	gasPriceFetchStatus      *prometheus.CounterVec

	checkPolicyDuration     prometheus.Histogram
	fetchPackageIDsDuration prometheus.Histogram
	requestsPerNumberOfIDs  prometheus.Histogram
}

// NewPrometheusRecorder registers every metric against registry.
func NewPrometheusRecorder(registry *prometheus.Registry) *PrometheusRecorder {
	r := &PrometheusRecorder{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "total_requests", Help: "total fetch_key requests received",
		}),
		serviceRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "service_requests", Help: "total /v1/service requests received",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "internal_errors", Help: "internal errors by kind",
		}, []string{"internal_error_type"}),
		checkpointTimestampDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "checkpoint_timestamp_delay", Help: "staleness of the latest checkpoint timestamp",
			Buckets: externalCallDurationBuckets(),
		}),
		checkpointFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "get_checkpoint_timestamp_duration", Help: "duration of checkpoint timestamp fetches",
			Buckets: externalCallDurationBuckets(),
		}),
		checkpointFetchStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "get_checkpoint_timestamp_status", Help: "checkpoint timestamp fetch status",
		}, []string{"status"}),
		gasPriceFetchStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "get_reference_gas_price_status", Help: "reference gas price fetch status",
		}, []string{"status"}),
		checkPolicyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "check_policy_duration", Help: "duration of check_policy dry-runs",
			Buckets: externalCallDurationBuckets(),
		}),
		fetchPackageIDsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "fetch_pkg_ids_duration", Help: "duration of package id resolution",
			Buckets: externalCallDurationBuckets(),
		}),
		requestsPerNumberOfIDs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "requests_per_number_of_ids", Help: "number of key ids requested per fetch_key call",
			Buckets: prometheus.LinearBuckets(1, 1, 20),
		}),
	}
	registry.MustRegister(
		r.requests, r.serviceRequests, r.errors,
		r.checkpointTimestampDelay, r.checkpointFetchDuration, r.checkpointFetchStatus,
		r.gasPriceFetchStatus, r.checkPolicyDuration, r.fetchPackageIDsDuration,
		r.requestsPerNumberOfIDs,
	)
	return r
}

func externalCallDurationBuckets() []float64 {
	return []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
}

func (r *PrometheusRecorder) IncRequests()        { r.requests.Inc() }
func (r *PrometheusRecorder) IncServiceRequests() { r.serviceRequests.Inc() }
func (r *PrometheusRecorder) IncError(k Kind)     { r.errors.WithLabelValues(k.String()).Inc() }

func (r *PrometheusRecorder) ObserveCheckpointTimestampDelay(d time.Duration) {
	r.checkpointTimestampDelay.Observe(d.Seconds())
}
func (r *PrometheusRecorder) ObserveCheckpointFetchDuration(d time.Duration) {
	r.checkpointFetchDuration.Observe(d.Seconds())
}
func (r *PrometheusRecorder) ObserveCheckpointFetchStatus(ok bool) {
	r.checkpointFetchStatus.WithLabelValues(statusLabel(ok)).Inc()
}
func (r *PrometheusRecorder) ObserveGasPriceFetchStatus(ok bool) {
	r.gasPriceFetchStatus.WithLabelValues(statusLabel(ok)).Inc()
}
func (r *PrometheusRecorder) ObserveCheckPolicyDuration(d time.Duration) {
	r.checkPolicyDuration.Observe(d.Seconds())
}
func (r *PrometheusRecorder) ObserveFetchPackageIDsDuration(d time.Duration) {
	r.fetchPackageIDsDuration.Observe(d.Seconds())
}
func (r *PrometheusRecorder) ObserveRequestsPerNumberOfIDs(n int) {
	r.requestsPerNumberOfIDs.Observe(float64(n))
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

var _ Recorder = (*PrometheusRecorder)(nil)
