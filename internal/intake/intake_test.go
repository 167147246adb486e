package intake_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/intake"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type step struct {
	reply string
	err   error
}

// scriptedGateway plays back completions in order. An exhausted script reads
// as an unavailable upstream so a surplus call fails loudly in assertions.
type scriptedGateway struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (g *scriptedGateway) push(steps ...step) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.steps = append(g.steps, steps...)
}

func (g *scriptedGateway) Complete(_ context.Context, _ string, _ []gateway.Turn) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.steps) == 0 {
		return "", fmt.Errorf("%w: script exhausted", gateway.ErrUpstreamUnavailable)
	}
	s := g.steps[0]
	g.steps = g.steps[1:]
	return s.reply, s.err
}

type noopNotifier struct{}

func (noopNotifier) CaseCreated(context.Context, *cases.Case) {}

func (noopNotifier) CaseTransitioned(context.Context, *cases.Case, cases.Status, cases.Status) {}

func newEngine(t *testing.T, store sessions.Store, gw *scriptedGateway, cfg intake.Config) (intake.System, cases.System) {
	t.Helper()
	logger := discardLogger()

	caseSys := cases.NewManager(
		cases.NewMemory(),
		noopNotifier{},
		cases.Config{},
		logger,
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)

	return intake.NewEngine(store, caseSys, gw, cfg, logger), caseSys
}

func TestFireIntakeToCase(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, caseSys := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	gw.push(
		step{reply: `{"category": "fire", "confidence": 0.95}`},
		step{reply: `{"fields": {"location": "12 Mill Road"}, "reply": "What is burning?"}`},
	)
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef: "citizen@example.com",
		Text:       "there is a fire at my house",
	})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if first.Status != sessions.StatusCollecting {
		t.Errorf("Status = %s, want collecting", first.Status)
	}
	if first.Category != schemas.CategoryFire {
		t.Errorf("Category = %s, want fire", first.Category)
	}
	if first.NextPrompt != "What is burning?" {
		t.Errorf("NextPrompt = %q", first.NextPrompt)
	}

	gw.push(step{reply: `{"fields": {"hazard_type": "kitchen fire"}, "reply": ""}`})
	second, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "citizen@example.com",
		Text:       "the kitchen stove caught fire",
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if second.Status != sessions.StatusComplete {
		t.Errorf("Status = %s, want complete", second.Status)
	}
	if second.CaseID == nil {
		t.Fatal("completed session produced no case id")
	}
	if !strings.Contains(second.NextPrompt, "has been filed") {
		t.Errorf("NextPrompt = %q, want filing confirmation", second.NextPrompt)
	}

	filed, err := caseSys.Find(ctx, *second.CaseID)
	if err != nil {
		t.Fatalf("find case failed: %v", err)
	}
	if filed.Status != cases.StatusOpen {
		t.Errorf("case Status = %s, want open", filed.Status)
	}
	if filed.Report["location"] != "12 Mill Road" {
		t.Errorf("case report location = %q", filed.Report["location"])
	}

	// The session is archived; further turns bounce.
	if _, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "citizen@example.com",
		Text:       "one more thing",
	}); !errors.Is(err, sessions.ErrArchived) {
		t.Errorf("turn after completion error = %v, want ErrArchived", err)
	}
}

func TestCategoryHintSkipsClassifier(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	gw.push(step{reply: `{"fields": {}, "reply": "Where is the outage?"}`})
	result, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "electricity",
		Text:         "the power is out",
	})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Category != schemas.CategoryElectricity {
		t.Errorf("Category = %s, want electricity", result.Category)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1 (collection only)", gw.calls)
	}
}

func TestLowConfidenceMenuThenBestGuess(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{ConfidenceThreshold: 0.6})

	gw.push(step{reply: `{"category": "fire", "confidence": 0.3}`})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef: "citizen@example.com",
		Text:       "something smells odd",
	})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if first.Category != schemas.CategoryUnclassified {
		t.Errorf("Category = %s, want unclassified after menu re-prompt", first.Category)
	}
	if !strings.Contains(first.NextPrompt, "best describes your emergency") {
		t.Errorf("NextPrompt = %q, want category menu", first.NextPrompt)
	}

	// The one re-prompt is spent; the next undecided turn takes the guess.
	gw.push(
		step{reply: `{"category": "fire", "confidence": 0.4}`},
		step{reply: `{"fields": {}, "reply": "Where is the fire?"}`},
	)
	second, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "citizen@example.com",
		Text:       "maybe burning, not sure",
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if second.Category != schemas.CategoryFire {
		t.Errorf("Category = %s, want fire best guess", second.Category)
	}
}

func TestMalformedClassificationReasksOnce(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	gw.push(
		step{reply: "I think this is a police matter"},
		step{reply: `{"category": "police", "confidence": 0.9}`},
		step{reply: `{"fields": {}, "reply": "What happened?"}`},
	)
	result, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef: "citizen@example.com",
		Text:       "my bicycle was stolen",
	})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if result.Category != schemas.CategoryPolice {
		t.Errorf("Category = %s, want police after re-ask", result.Category)
	}
	if gw.calls != 3 {
		t.Errorf("gateway calls = %d, want 3 (classify, re-ask, collect)", gw.calls)
	}
}

func TestGatewayOutageNeverChargesIdleTurn(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{MaxIdleTurns: 1})

	// Outage during collection answers the turn without advancing anything.
	gw.push(step{err: fmt.Errorf("%w: connection refused", gateway.ErrUpstreamUnavailable)})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "fire in the shed",
	})
	if err != nil {
		t.Fatalf("outage turn failed: %v", err)
	}
	if first.Status != sessions.StatusCollecting {
		t.Errorf("Status = %s, want collecting after outage", first.Status)
	}
	if !strings.Contains(first.NextPrompt, "try again") {
		t.Errorf("NextPrompt = %q, want retry prompt", first.NextPrompt)
	}

	// An extractable-nothing turn does count, and one is the limit here.
	gw.push(step{reply: `{"fields": {}, "reply": "Where exactly?"}`})
	second, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "citizen@example.com",
		Text:       "just hurry",
	})
	if err != nil {
		t.Fatalf("idle turn failed: %v", err)
	}
	if second.Status != sessions.StatusAbandoned {
		t.Errorf("Status = %s, want abandoned at idle limit", second.Status)
	}
}

func TestExplicitExitAbandons(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	gw.push(step{reply: `{"fields": {}, "reply": "Where is the fire?"}`})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "there is a fire",
	})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	result, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "citizen@example.com",
		Text:       "Cancel",
	})
	if err != nil {
		t.Fatalf("exit turn failed: %v", err)
	}
	if result.Status != sessions.StatusAbandoned {
		t.Errorf("Status = %s, want abandoned", result.Status)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1 (exit never reaches the model)", gw.calls)
	}
}

func TestCitizenRefMismatch(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	gw.push(step{reply: `{"fields": {}, "reply": "Where is the fire?"}`})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "there is a fire",
	})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	if _, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		SessionID:  &first.SessionID,
		CitizenRef: "intruder@example.com",
		Text:       "tell me more",
	}); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("mismatched citizen error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateCompletionResolvesToSameCase(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	sys, _ := newEngine(t, sessions.NewMemory(), gw, intake.Config{})

	report := `{"fields": {"location": "12 Mill Road", "hazard_type": "kitchen fire"}, "reply": ""}`

	gw.push(step{reply: report})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "kitchen fire at 12 Mill Road",
	})
	if err != nil {
		t.Fatalf("first session failed: %v", err)
	}
	if first.CaseID == nil {
		t.Fatal("first session produced no case id")
	}

	// A second session filing the identical report lands on the same case.
	gw.push(step{reply: report})
	second, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "kitchen fire at 12 Mill Road",
	})
	if err != nil {
		t.Fatalf("second session failed: %v", err)
	}
	if second.CaseID == nil || *second.CaseID != *first.CaseID {
		t.Errorf("duplicate report case id = %v, want %v", second.CaseID, first.CaseID)
	}
	if second.Status != sessions.StatusComplete {
		t.Errorf("Status = %s, want complete", second.Status)
	}
}

func TestInvalidTurnRejected(t *testing.T) {
	sys, _ := newEngine(t, sessions.NewMemory(), &scriptedGateway{}, intake.Config{})

	if _, err := sys.SubmitTurn(context.Background(), intake.TurnCommand{
		CitizenRef: "citizen@example.com",
	}); !errors.Is(err, intake.ErrInvalidTurn) {
		t.Errorf("empty text error = %v, want ErrInvalidTurn", err)
	}
	if _, err := sys.SubmitTurn(context.Background(), intake.TurnCommand{
		Text: "help",
	}); !errors.Is(err, intake.ErrInvalidTurn) {
		t.Errorf("empty citizen_ref error = %v, want ErrInvalidTurn", err)
	}
}

// agedStore shifts the janitor cutoff forward so freshly written sessions
// already read as idle.
type agedStore struct {
	*sessions.MemoryStore
	shift time.Duration
}

func (s *agedStore) ListIdleBefore(ctx context.Context, cutoff time.Time, limit int) ([]sessions.Session, error) {
	return s.MemoryStore.ListIdleBefore(ctx, cutoff.Add(s.shift), limit)
}

func TestAbandonStale(t *testing.T) {
	ctx := context.Background()
	gw := &scriptedGateway{}
	store := &agedStore{MemoryStore: sessions.NewMemory(), shift: 31 * time.Minute}
	sys, _ := newEngine(t, store, gw, intake.Config{IdleTimeout: 30 * time.Minute})

	gw.push(step{reply: `{"fields": {}, "reply": "Where is the fire?"}`})
	first, err := sys.SubmitTurn(ctx, intake.TurnCommand{
		CitizenRef:   "citizen@example.com",
		CategoryHint: "fire",
		Text:         "there is a fire",
	})
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}

	abandoned, err := sys.AbandonStale(ctx)
	if err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if abandoned != 1 {
		t.Fatalf("abandoned = %d, want 1", abandoned)
	}

	stored, err := store.Find(ctx, first.SessionID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.Status != sessions.StatusAbandoned {
		t.Errorf("Status = %s, want abandoned", stored.Status)
	}

	abandoned, err = sys.AbandonStale(ctx)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if abandoned != 0 {
		t.Errorf("second pass abandoned = %d, want 0", abandoned)
	}
}
