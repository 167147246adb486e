package followup_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danishmustafa86/aidlink/internal/followup"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

func TestHandlerRequestAndReply(t *testing.T) {
	e := newEnv(t, &scriptedGateway{reply: `{"confirmed": true}`})
	c := assignedCase(t, e)

	mux := http.NewServeMux()
	routes.Register(mux, e.followups.Handler().Routes())

	req := httptest.NewRequest("POST", "/followups/"+c.ID.String()+"/request",
		strings.NewReader(`{"authority_ref": "fire-station-3"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var f followup.Followup
	if err := json.NewDecoder(rec.Body).Decode(&f); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if f.State != followup.StatePending {
		t.Errorf("State = %s, want pending", f.State)
	}

	req = httptest.NewRequest("POST", "/followups/"+c.ID.String()+"/reply",
		strings.NewReader(`{"citizen_ref": "citizen@example.com", "text": "yes, all good"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("reply status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var reply followup.Reply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if reply.Outcome != followup.OutcomeResolved {
		t.Errorf("Outcome = %s, want resolved", reply.Outcome)
	}
}

func TestHandlerRequestValidation(t *testing.T) {
	e := newEnv(t, &scriptedGateway{})
	c := assignedCase(t, e)

	mux := http.NewServeMux()
	routes.Register(mux, e.followups.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/followups/not-a-uuid/request",
		strings.NewReader(`{"authority_ref": "fire-station-3"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/followups/"+c.ID.String()+"/request",
		strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing authority_ref status = %d, want 400", rec.Code)
	}

	// The wrong authority cannot start the cycle.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/followups/"+c.ID.String()+"/request",
		strings.NewReader(`{"authority_ref": "fire-station-9"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("wrong authority status = %d, want 422", rec.Code)
	}
}
