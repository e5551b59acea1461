// Package metrics exposes decoder counters and the latest fix quality as
// Prometheus collectors on a private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nmea-ng/internal/nmea"
)

type Metrics struct {
	reg *prometheus.Registry

	Sentences        *prometheus.CounterVec
	ChecksumFailures prometheus.Counter
	FramerDropped    prometheus.Counter
	BytesRead        prometheus.Counter
	Published        *prometheus.CounterVec
	PublishErrors    *prometheus.CounterVec

	Satellites prometheus.Gauge
	HDOP       prometheus.Gauge
	VDOP       prometheus.Gauge
	SpeedKph   prometheus.Gauge
	FixValid   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nmea_sentences_total",
			Help: "Framed sentences by decoded type (ERR for unrecognized).",
		}, []string{"type"}),
		ChecksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nmea_checksum_failures_total",
			Help: "Sentences whose checksum did not verify.",
		}),
		FramerDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nmea_framer_dropped_total",
			Help: "Overlong fragments discarded by the framer.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nmea_bytes_read_total",
			Help: "Raw bytes received from the source.",
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nmea_published_total",
			Help: "Fix messages handed to each sink.",
		}, []string{"sink"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nmea_publish_errors_total",
			Help: "Failed publishes per sink.",
		}, []string{"sink"}),
		Satellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmea_fix_satellites",
			Help: "Satellites reported by the last GGA or GSV.",
		}),
		HDOP: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmea_fix_hdop",
			Help: "Horizontal dilution of precision (99 = unknown).",
		}),
		VDOP: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmea_fix_vdop",
			Help: "Vertical dilution of precision (99 = unknown).",
		}),
		SpeedKph: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmea_fix_speed_kph",
			Help: "Ground speed in km/h.",
		}),
		FixValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmea_fix_valid",
			Help: "1 when the receiver reports an active fix.",
		}),
	}
	m.reg.MustRegister(
		m.Sentences, m.ChecksumFailures, m.FramerDropped, m.BytesRead,
		m.Published, m.PublishErrors,
		m.Satellites, m.HDOP, m.VDOP, m.SpeedKph, m.FixValid,
	)
	return m
}

// ObserveSentence counts one decoded sentence.
func (m *Metrics) ObserveSentence(typ nmea.SentenceType) {
	if m == nil {
		return
	}
	m.Sentences.WithLabelValues(typ.String()).Inc()
}

// ObserveBytes counts raw bytes read from the source.
func (m *Metrics) ObserveBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesRead.Add(float64(n))
}

func (m *Metrics) ObserveChecksumFailure() {
	if m == nil {
		return
	}
	m.ChecksumFailures.Inc()
}

// ObserveDropped counts fragments the framer discarded.
func (m *Metrics) ObserveDropped(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.FramerDropped.Add(float64(n))
}

// ObserveFix updates the fix gauges.
func (m *Metrics) ObserveFix(fix nmea.Fix) {
	if m == nil {
		return
	}
	m.Satellites.Set(float64(fix.Satellites))
	m.HDOP.Set(fix.HDOP)
	m.VDOP.Set(fix.VDOP)
	m.SpeedKph.Set(fix.SpeedKph)
	if fix.Valid {
		m.FixValid.Set(1)
	} else {
		m.FixValid.Set(0)
	}
}

// ObservePublish counts one publish attempt for sink.
func (m *Metrics) ObservePublish(sink string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishErrors.WithLabelValues(sink).Inc()
		return
	}
	m.Published.WithLabelValues(sink).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
