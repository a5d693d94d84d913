package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "frames_received_total",
			Help:      "Frames read from the serial transport.",
		},
		[]string{"bridge"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "frames_sent_total",
			Help:      "Frames written to the MIDI sink.",
		},
		[]string{"bridge"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "frames_dropped_total",
			Help:      "Frames discarded instead of buffered.",
		},
		[]string{"bridge", "reason"},
	)
	bufferUnderflows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "buffer_underflows_total",
			Help:      "Consumer wakeups that found an empty buffer.",
		},
		[]string{"bridge"},
	)
	sinkWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "sink_write_errors_total",
			Help:      "Per-frame MIDI sink write failures.",
		},
		[]string{"bridge"},
	)
	bytesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "bytes_received_total",
			Help:      "Bytes read from the serial transport.",
		},
		[]string{"bridge"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "bytes_sent_total",
			Help:      "Payload bytes written to the MIDI sink.",
		},
		[]string{"bridge"},
	)
	collisionsRestored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "collisions_restored_total",
			Help:      "Collision bytes rewritten during ingest normalization.",
		},
		[]string{"bridge"},
	)
	drainBatchFrames = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "midibridge",
			Subsystem: "relay",
			Name:      "drain_batch_frames",
			Help:      "Frames per non-empty drain.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 5),
		},
		[]string{"bridge"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "midibridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"bridge", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "midibridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"bridge", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesReceived,
			framesSent,
			framesDropped,
			bufferUnderflows,
			sinkWriteErrors,
			bytesReceived,
			bytesSent,
			collisionsRestored,
			drainBatchFrames,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordFrameReceived(bridge string, frameBytes, collisions int) {
	RegisterMetrics()
	framesReceived.WithLabelValues(bridge).Inc()
	bytesReceived.WithLabelValues(bridge).Add(float64(frameBytes))
	if collisions > 0 {
		collisionsRestored.WithLabelValues(bridge).Add(float64(collisions))
	}
}

func RecordFrameSent(bridge string, payloadBytes int) {
	RegisterMetrics()
	framesSent.WithLabelValues(bridge).Inc()
	bytesSent.WithLabelValues(bridge).Add(float64(payloadBytes))
}

func RecordFrameDropped(bridge, reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(bridge, reason).Inc()
}

func RecordBufferUnderflow(bridge string) {
	RegisterMetrics()
	bufferUnderflows.WithLabelValues(bridge).Inc()
}

func RecordSinkWriteError(bridge string) {
	RegisterMetrics()
	sinkWriteErrors.WithLabelValues(bridge).Inc()
}

func RecordDrainBatch(bridge string, frames int) {
	RegisterMetrics()
	drainBatchFrames.WithLabelValues(bridge).Observe(float64(frames))
}

func RecordHTTPRequest(bridge, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(bridge, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(bridge, method, path, statusLabel).Observe(duration.Seconds())
}
