package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, map[string]int{"stations": 3})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["stations"] != 3 {
		t.Errorf("body = %v, want stations=3", body)
	}
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusTeapot, "short and stout")

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "short and stout" {
		t.Errorf("error message = %q", body["error"])
	}
}

func TestStatusHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	MethodNotAllowed(rec)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("MethodNotAllowed status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	NotFound(rec, "nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	InternalServerError(rec, "boom")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("InternalServerError status = %d, want 500", rec.Code)
	}
}
