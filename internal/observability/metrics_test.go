package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/framedserial/internal/testutil/testlog"
	"github.com/danmuck/framedserial/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordBytes("test-safe", DirTx, 3)
	RecordFrame("test-safe", DirRx, 12)
	RecordTransportError("test-safe", "send")

	if got := testutil.ToFloat64(linkBytes.WithLabelValues("test-safe", DirTx)); got != 3 {
		t.Fatalf("unexpected tx bytes: %v", got)
	}
	if got := testutil.ToFloat64(linkFrames.WithLabelValues("test-safe", DirRx)); got != 1 {
		t.Fatalf("unexpected rx frames: %v", got)
	}
}

func TestInstrumentCountsBytes(t *testing.T) {
	testlog.Start(t)
	lb := transport.NewLoopback(0)
	it := Instrument(lb, "test-instrument", zerolog.Nop())
	for _, b := range []byte{0xFF, 0x00, 0x00} {
		if ok, err := it.TrySendByte(b); err != nil || !ok {
			t.Fatalf("send: ok=%v err=%v", ok, err)
		}
	}
	for i := 0; i < 4; i++ {
		if _, _, err := it.TryRecvByte(); err != nil {
			t.Fatalf("recv: %v", err)
		}
	}
	if got := testutil.ToFloat64(linkBytes.WithLabelValues("test-instrument", DirTx)); got != 3 {
		t.Fatalf("unexpected tx bytes: %v", got)
	}
	if got := testutil.ToFloat64(linkBytes.WithLabelValues("test-instrument", DirRx)); got != 3 {
		t.Fatalf("unexpected rx bytes: %v", got)
	}
}

type failing struct{}

func (failing) TryRecvByte() (byte, bool, error) { return 0, false, errors.New("boom") }
func (failing) TrySendByte(byte) (bool, error)   { return false, errors.New("boom") }

func TestInstrumentCountsErrors(t *testing.T) {
	testlog.Start(t)
	it := Instrument(failing{}, "test-errors", zerolog.Nop())
	if _, _, err := it.TryRecvByte(); err == nil {
		t.Fatalf("expected recv error")
	}
	if _, err := it.TrySendByte(1); err == nil {
		t.Fatalf("expected send error")
	}
	if got := testutil.ToFloat64(linkTransportErrors.WithLabelValues("test-errors", "recv")); got != 1 {
		t.Fatalf("unexpected recv errors: %v", got)
	}
	if got := testutil.ToFloat64(linkTransportErrors.WithLabelValues("test-errors", "send")); got != 1 {
		t.Fatalf("unexpected send errors: %v", got)
	}
}

func TestStatusRouterEndpoints(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := NewStatusRouter("loop", func() any {
		return map[string]int{"frames_received": 7}
	}, log.Logger)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"link":"loop"`) {
		t.Fatalf("unexpected /health: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var stats map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode /stats: %v", err)
	}
	if stats["frames_received"] != 7 {
		t.Fatalf("unexpected /stats: %+v", stats)
	}

	RecordFrame("loop", DirTx, 4)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "framedserial_link_frames_total") {
		t.Fatalf("metrics missing link counters")
	}
}

func TestStatusRequestsCountedPerLink(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := NewStatusRouter("status-link", func() any { return nil }, log.Logger)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected /health: %d", rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for unknown path: %d", rec.Code)
	}

	if got := testutil.ToFloat64(statusRequests.WithLabelValues("status-link", "/health", "200")); got != 2 {
		t.Fatalf("unexpected /health count: %v", got)
	}
	if got := testutil.ToFloat64(statusRequests.WithLabelValues("status-link", "unmatched", "404")); got != 1 {
		t.Fatalf("unexpected unmatched count: %v", got)
	}
}
