package audiofs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks stream activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	capturedBytes  prometheus.Counter
	emptyReads     prometheus.Counter
	submittedBytes prometheus.Counter
	submissions    prometheus.Counter
	nativeErrors   *prometheus.CounterVec
	openErrors     *prometheus.CounterVec
	sessions       *prometheus.GaugeVec
}

// NewMetrics creates the stream metrics and registers them in reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		capturedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "audiofs_captured_bytes",
			Help: "Total PCM bytes returned by capture stream reads",
		}),
		emptyReads: f.NewCounter(prometheus.CounterOpts{
			Name: "audiofs_capture_empty_reads",
			Help: "Capture reads that found no available frames",
		}),
		submittedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "audiofs_submitted_bytes",
			Help: "Total PCM bytes submitted to playback devices",
		}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "audiofs_playback_submissions",
			Help: "Buffers submitted and played on playback devices",
		}),
		nativeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audiofs_native_buffer_errors",
			Help: "Native errors reported during buffer upload, attach or play",
		}, []string{"op"}),
		openErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "audiofs_device_open_errors",
			Help: "Failures opening native device sessions",
		}, []string{"direction"}),
		sessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "audiofs_open_sessions",
			Help: "Native device sessions currently held by streams",
		}, []string{"direction"}),
	}
}

func (m *Metrics) captured(n int) {
	if m == nil {
		return
	}
	m.capturedBytes.Add(float64(n))
}

func (m *Metrics) emptyRead() {
	if m == nil {
		return
	}
	m.emptyReads.Inc()
}

func (m *Metrics) submitted(n int) {
	if m == nil {
		return
	}
	m.submittedBytes.Add(float64(n))
	m.submissions.Inc()
}

func (m *Metrics) nativeError(op string) {
	if m == nil {
		return
	}
	m.nativeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) openFailed(dir Direction) {
	if m == nil {
		return
	}
	m.openErrors.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) sessionOpened(dir Direction) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) sessionClosed(dir Direction) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(dir.String()).Dec()
}
