package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError_Shape(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusInternalServerError, "Internal server error: boom")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !resp.Error {
		t.Error("error = false, want true")
	}
	if resp.Code != 500 {
		t.Errorf("code = %d, want 500", resp.Code)
	}
	if resp.Message != "Internal server error: boom" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	handler := RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if !resp.Error {
		t.Error("error = false, want true")
	}
}

func TestRequestIDMiddleware_SetsHeaderAndContext(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rr, req)

	header := rr.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if seen != header {
		t.Errorf("context request id = %q, header = %q, want equal", seen, header)
	}
	if len(header) != 8 {
		t.Errorf("request id length = %d, want 8", len(header))
	}
}
