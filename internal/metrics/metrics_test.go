package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"nmea-ng/internal/nmea"
)

func TestObserveSentence_CountsByType(t *testing.T) {
	m := New()
	m.ObserveSentence(nmea.TypeRMC)
	m.ObserveSentence(nmea.TypeRMC)
	m.ObserveSentence(nmea.TypeErr)
	if got := testutil.ToFloat64(m.Sentences.WithLabelValues("RMC")); got != 2 {
		t.Fatalf("RMC=%v want 2", got)
	}
	if got := testutil.ToFloat64(m.Sentences.WithLabelValues("ERR")); got != 1 {
		t.Fatalf("ERR=%v want 1", got)
	}
}

func TestObserveFix_SetsGauges(t *testing.T) {
	m := New()
	fix := nmea.NewFix()
	fix.Valid = true
	fix.Satellites = 9
	fix.HDOP = 0.8
	fix.SpeedKph = 12.5
	m.ObserveFix(fix)
	if testutil.ToFloat64(m.Satellites) != 9 || testutil.ToFloat64(m.HDOP) != 0.8 {
		t.Fatalf("gauges not set")
	}
	if testutil.ToFloat64(m.VDOP) != nmea.UnknownDOP || testutil.ToFloat64(m.FixValid) != 1 {
		t.Fatalf("vdop/valid not set")
	}
}

func TestObservePublish(t *testing.T) {
	m := New()
	m.ObservePublish("mqtt", nil)
	m.ObservePublish("mqtt", errors.New("down"))
	if testutil.ToFloat64(m.Published.WithLabelValues("mqtt")) != 1 {
		t.Fatalf("published not counted")
	}
	if testutil.ToFloat64(m.PublishErrors.WithLabelValues("mqtt")) != 1 {
		t.Fatalf("error not counted")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSentence(nmea.TypeGGA)
	m.ObserveFix(nmea.NewFix())
	m.ObservePublish("x", nil)
	m.ObserveBytes(10)
	m.ObserveDropped(1)
	m.ObserveChecksumFailure()
}

func TestObserveStreamCounters(t *testing.T) {
	m := New()
	m.ObserveBytes(80)
	m.ObserveBytes(0)
	m.ObserveDropped(2)
	m.ObserveChecksumFailure()
	if got := testutil.ToFloat64(m.BytesRead); got != 80 {
		t.Fatalf("bytes=%v want 80", got)
	}
	if got := testutil.ToFloat64(m.FramerDropped); got != 2 {
		t.Fatalf("dropped=%v want 2", got)
	}
	if got := testutil.ToFloat64(m.ChecksumFailures); got != 1 {
		t.Fatalf("checksum failures=%v want 1", got)
	}
}

func TestHandler_ServesText(t *testing.T) {
	m := New()
	m.ChecksumFailures.Inc()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "nmea_checksum_failures_total 1") {
		t.Fatalf("body missing counter:\n%s", rr.Body.String())
	}
}
