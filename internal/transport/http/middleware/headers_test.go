package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	handler := SecureHeaders(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil))
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected api responses to be uncacheable")
	}
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("expected hsts in production")
	}

	rec = httptest.NewRecorder()
	SecureHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("Cache-Control") != "" || rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}
}

func TestBodyLimit(t *testing.T) {
	var read int
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		read = len(b)
		if err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123456789")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for a declared oversized body, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123456789"))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge || read > 8 {
		t.Fatalf("expected the reader to stop at the cap, got %d after %d bytes", rec.Code, read)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", bytes.NewBufferString("0123456789")))
	if rec.Code != http.StatusOK || read != 10 {
		t.Fatalf("expected reads to pass through untouched, got %d after %d bytes", rec.Code, read)
	}
}
