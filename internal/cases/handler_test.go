package cases_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

func newCaseMux(t *testing.T) (*http.ServeMux, cases.System) {
	t.Helper()
	sys, _ := newManager(t)

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux, sys
}

func TestHandlerAssign(t *testing.T) {
	mux, sys := newCaseMux(t)

	c, err := sys.Create(context.Background(), schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/cases/"+c.ID.String()+"/assign",
		strings.NewReader(`{"authority_ref": "fire-station-3"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var assigned cases.Case
	if err := json.NewDecoder(rec.Body).Decode(&assigned); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if assigned.Status != cases.StatusAssigned {
		t.Errorf("Status = %s, want assigned", assigned.Status)
	}

	// Assigning an already assigned case violates the transition table.
	req = httptest.NewRequest("POST", "/cases/"+c.ID.String()+"/assign",
		strings.NewReader(`{"authority_ref": "fire-station-4"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("double assign status = %d, want 422", rec.Code)
	}
}

func TestHandlerFindErrors(t *testing.T) {
	mux, _ := newCaseMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/cases/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/cases/6b9e2d7a-4c31-4f8e-9a05-1d2e3f4a5b6c", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestHandlerCitizenStatus(t *testing.T) {
	mux, sys := newCaseMux(t)

	c, err := sys.Create(context.Background(), schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET",
		"/cases/"+c.ID.String()+"/status?citizen_ref=citizen@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var summary cases.StatusSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if summary.Status != cases.StatusOpen || len(summary.History) != 1 {
		t.Errorf("summary = %+v", summary)
	}

	// A foreign citizen_ref reads as not found, never as forbidden.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET",
		"/cases/"+c.ID.String()+"/status?citizen_ref=intruder@example.com", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign citizen status = %d, want 404", rec.Code)
	}
}

func TestHandlerUpdateStatusValidation(t *testing.T) {
	mux, sys := newCaseMux(t)

	c, err := sys.Create(context.Background(), schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/cases/"+c.ID.String()+"/status",
		strings.NewReader(`{"status": "resolved"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing actor status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/cases/"+c.ID.String()+"/status",
		strings.NewReader(`{"status": "resolved", "actor": "dispatcher"}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("resolve status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}
