package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "pipeline",
			Name:      "frames_total",
			Help:      "UBX frames by message and outcome.",
		},
		[]string{"stream", "message", "outcome"},
	)
	framingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "pipeline",
			Name:      "framing_errors_total",
			Help:      "Scanner resynchronization events.",
		},
		[]string{"stream", "reason"},
	)
	discardedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "pipeline",
			Name:      "discarded_bytes_total",
			Help:      "Bytes dropped while searching for sync.",
		},
		[]string{"stream"},
	)
	sentencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "pipeline",
			Name:      "nmea_sentences_total",
			Help:      "Interleaved NMEA sentences by type and outcome.",
		},
		[]string{"stream", "type", "outcome"},
	)
	sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Records the sink failed to accept.",
		},
		[]string{"stream"},
	)
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "mqtt",
			Name:      "publish_total",
			Help:      "MQTT publishes by topic kind and result.",
		},
		[]string{"kind", "result"},
	)
	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ubx",
			Subsystem: "web",
			Name:      "stream_clients",
			Help:      "Connected Signal K stream clients.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ubx",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ubx",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesTotal, framingErrors, discardedBytes, sentencesTotal, sinkErrors,
			publishTotal, streamClients, httpRequests, httpDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordFrame(stream, message, outcome string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(stream, message, outcome).Inc()
}

func RecordFramingError(stream, reason string) {
	RegisterMetrics()
	framingErrors.WithLabelValues(stream, reason).Inc()
}

func RecordDiscarded(stream string, n uint64) {
	if n == 0 {
		return
	}
	RegisterMetrics()
	discardedBytes.WithLabelValues(stream).Add(float64(n))
}

func RecordSentence(stream, sentenceType, outcome string) {
	RegisterMetrics()
	sentencesTotal.WithLabelValues(stream, sentenceType, outcome).Inc()
}

func RecordSinkError(stream string) {
	RegisterMetrics()
	sinkErrors.WithLabelValues(stream).Inc()
}

// RecordPublish counts an MQTT publish; kind is fix, signalk, record or stats.
func RecordPublish(kind string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishTotal.WithLabelValues(kind, result).Inc()
}

func SetStreamClients(n int) {
	RegisterMetrics()
	streamClients.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
