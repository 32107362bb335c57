package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFrame_Counts(t *testing.T) {
	before := testutil.ToFloat64(framesTotal.WithLabelValues("test-a", "NAV-PVT", "emitted"))
	RecordFrame("test-a", "NAV-PVT", "emitted")
	RecordFrame("test-a", "NAV-PVT", "emitted")
	got := testutil.ToFloat64(framesTotal.WithLabelValues("test-a", "NAV-PVT", "emitted"))
	if got-before != 2 {
		t.Fatalf("delta=%v want 2", got-before)
	}
}

func TestRecordDiscarded_IgnoresZero(t *testing.T) {
	RecordDiscarded("test-b", 0)
	RecordDiscarded("test-b", 5)
	if got := testutil.ToFloat64(discardedBytes.WithLabelValues("test-b")); got != 5 {
		t.Fatalf("discarded=%v want 5", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordFramingError("test-c", "no_sync")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ubx_pipeline_framing_errors_total") {
		t.Fatalf("metric missing from output")
	}
}

func TestRecordPublish_Result(t *testing.T) {
	RecordPublish("fix", nil)
	RecordPublish("fix", errors.New("not connected"))
	if got := testutil.ToFloat64(publishTotal.WithLabelValues("fix", "error")); got < 1 {
		t.Fatalf("error publishes=%v", got)
	}
}

func TestSetStreamClients(t *testing.T) {
	SetStreamClients(3)
	if got := testutil.ToFloat64(streamClients); got != 3 {
		t.Fatalf("clients=%v want 3", got)
	}
}
