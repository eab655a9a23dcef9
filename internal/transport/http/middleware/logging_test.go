package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sitelabor/internal/platform/logging"
	"sitelabor/internal/platform/metrics"
)

func TestLoggerRecordsStatusAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(&bytes.Buffer{})

	collector := metrics.New()
	handler := RequestID(Logger(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/api/v1/workers" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["requestId"] == "" {
		t.Fatal("expected request id in log entry")
	}
	if got := collector.Snapshot()["requestsTotal"].(uint64); got != 1 {
		t.Fatalf("expected 1 request counted, got %d", got)
	}
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	logging.SetOutput(&bytes.Buffer{})
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("internal_error")) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestBodyLimitRejectsLargePayload(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err == nil {
			t.Fatal("expected read error past limit")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"attendanceRecords":[]}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestSecureHeadersNosniff(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(noContent()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff header")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected HSTS in production")
	}
}
