package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirTx = "tx"
	DirRx = "rx"
)

var (
	registerOnce sync.Once

	linkBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framedserial",
			Subsystem: "link",
			Name:      "bytes_total",
			Help:      "Raw bytes moved across the transport.",
		},
		[]string{"link", "dir"},
	)
	linkFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framedserial",
			Subsystem: "link",
			Name:      "frames_total",
			Help:      "Complete frames sent or received.",
		},
		[]string{"link", "dir"},
	)
	linkTransportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framedserial",
			Subsystem: "link",
			Name:      "transport_errors_total",
			Help:      "Errors reported by the byte transport.",
		},
		[]string{"link", "op"},
	)
	linkFrameSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "framedserial",
			Subsystem: "link",
			Name:      "frame_payload_bytes",
			Help:      "Payload size of complete frames.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
		[]string{"link", "dir"},
	)
	statusRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "framedserial",
			Subsystem: "status",
			Name:      "requests_total",
			Help:      "Requests served by the link status endpoint.",
		},
		[]string{"link", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(linkBytes, linkFrames, linkTransportErrors, linkFrameSize, statusRequests)
	})
}

func RecordBytes(link, dir string, n int) {
	RegisterMetrics()
	linkBytes.WithLabelValues(link, dir).Add(float64(n))
}

func RecordFrame(link, dir string, payloadLen int) {
	RegisterMetrics()
	linkFrames.WithLabelValues(link, dir).Inc()
	linkFrameSize.WithLabelValues(link, dir).Observe(float64(payloadLen))
}

func RecordTransportError(link, op string) {
	RegisterMetrics()
	linkTransportErrors.WithLabelValues(link, op).Inc()
}

func RecordStatusRequest(link, path string, status int) {
	RegisterMetrics()
	statusRequests.WithLabelValues(link, path, strconv.Itoa(status)).Inc()
}
