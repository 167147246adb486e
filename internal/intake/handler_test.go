package intake_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danishmustafa86/aidlink/internal/intake"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

func TestHandlerSubmitTurn(t *testing.T) {
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	gw.push(step{reply: `{"fields": {}, "reply": "Where is the fire?"}`})
	req := httptest.NewRequest("POST", "/intake/turns",
		strings.NewReader(`{"citizen_ref": "citizen@example.com", "category_hint": "fire", "text": "there is a fire"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result intake.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if result.Category != schemas.CategoryFire {
		t.Errorf("Category = %s, want fire", result.Category)
	}
	if result.NextPrompt != "Where is the fire?" {
		t.Errorf("NextPrompt = %q", result.NextPrompt)
	}
}

func TestHandlerSubmitTurnValidation(t *testing.T) {
	sys, _ := newEngine(t, sessions.NewMemory(), &scriptedGateway{}, intake.Config{})

	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/intake/turns", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/intake/turns",
		strings.NewReader(`{"citizen_ref": "citizen@example.com"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", rec.Code)
	}
}
