package cases_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) (cases.System, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	sys := cases.NewManager(
		cases.NewMemory(),
		notifier,
		cases.Config{},
		discardLogger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
	return sys, notifier
}

type recordingNotifier struct {
	mu          sync.Mutex
	created     int
	transitions []string
}

func (n *recordingNotifier) CaseCreated(_ context.Context, _ *cases.Case) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
}

func (n *recordingNotifier) CaseTransitioned(_ context.Context, _ *cases.Case, from, to cases.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, string(from)+"->"+string(to))
}

func fireReport() map[string]string {
	return map[string]string{
		"location":    "12 Mill Road",
		"hazard_type": "kitchen fire",
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to cases.Status
		want     bool
	}{
		{cases.StatusOpen, cases.StatusAssigned, true},
		{cases.StatusOpen, cases.StatusResolved, true},
		{cases.StatusAssigned, cases.StatusResolved, true},
		{cases.StatusAssigned, cases.StatusOpen, true},
		{cases.StatusOpen, cases.StatusOpen, false},
		{cases.StatusResolved, cases.StatusOpen, false},
		{cases.StatusResolved, cases.StatusAssigned, false},
		{cases.StatusResolved, cases.StatusResolved, false},
	}

	for _, tt := range tests {
		if got := cases.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCreateSetsInitialHistory(t *testing.T) {
	sys, notifier := newManager(t)

	c, err := sys.Create(context.Background(), schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if c.Status != cases.StatusOpen {
		t.Errorf("Status = %s, want open", c.Status)
	}
	if len(c.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(c.History))
	}
	if c.History[0].Status != cases.StatusOpen || c.History[0].Actor != "citizen@example.com" {
		t.Errorf("initial history entry = %+v", c.History[0])
	}
	if notifier.created != 1 {
		t.Errorf("created notifications = %d, want 1", notifier.created)
	}
}

func TestCreateDuplicateWithinWindow(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	first, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = sys.Create(ctx, schemas.CategoryFire, fireReport(), "citizen@example.com")
	var dup *cases.DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("duplicate create error = %v, want DuplicateError", err)
	}
	if dup.CaseID != first.ID {
		t.Errorf("DuplicateError.CaseID = %s, want %s", dup.CaseID, first.ID)
	}
	if !errors.Is(err, cases.ErrDuplicateSubmission) {
		t.Error("DuplicateError does not unwrap to ErrDuplicateSubmission")
	}
}

func TestCreateSameReportDifferentCitizen(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	if _, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "one@example.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "two@example.com"); err != nil {
		t.Fatalf("create for second citizen failed: %v", err)
	}
}

func TestAssignOnlyFromOpen(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	c, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	assigned, err := sys.Assign(ctx, c.ID, "fire-station-3")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if assigned.Status != cases.StatusAssigned {
		t.Errorf("Status = %s, want assigned", assigned.Status)
	}
	if assigned.AssignedAuthorityRef == nil || *assigned.AssignedAuthorityRef != "fire-station-3" {
		t.Errorf("AssignedAuthorityRef = %v, want fire-station-3", assigned.AssignedAuthorityRef)
	}

	if _, err := sys.Assign(ctx, c.ID, "fire-station-4"); !errors.Is(err, cases.ErrInvalidTransition) {
		t.Errorf("assign from assigned error = %v, want ErrInvalidTransition", err)
	}
}

func TestSetStatusTransitionTable(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	// open -> resolved is legal directly.
	c, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "a@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	resolved, err := sys.SetStatus(ctx, c.ID, cases.StatusResolved, "dispatcher")
	if err != nil {
		t.Fatalf("open->resolved failed: %v", err)
	}

	// resolved is terminal.
	if _, err := sys.SetStatus(ctx, resolved.ID, cases.StatusOpen, "dispatcher"); !errors.Is(err, cases.ErrInvalidTransition) {
		t.Errorf("resolved->open error = %v, want ErrInvalidTransition", err)
	}
}

func TestReopenClearsAuthority(t *testing.T) {
	sys, notifier := newManager(t)
	ctx := context.Background()

	c, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := sys.Assign(ctx, c.ID, "fire-station-3"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	reopened, err := sys.SetStatus(ctx, c.ID, cases.StatusOpen, "citizen@example.com")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.AssignedAuthorityRef != nil {
		t.Errorf("AssignedAuthorityRef = %v, want nil after reopen", reopened.AssignedAuthorityRef)
	}

	want := []string{"open->assigned", "assigned->open"}
	if len(notifier.transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", notifier.transitions, want)
	}
	for i := range want {
		if notifier.transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %s, want %s", i, notifier.transitions[i], want[i])
		}
	}
}

func TestHistoryInvariant(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	c, err := sys.Create(ctx, schemas.CategoryMedical, map[string]string{
		"patient_name":     "Ada Khan",
		"patient_age":      "42",
		"location_address": "7 Canal Street",
		"symptoms":         "chest pain",
	}, "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := sys.Assign(ctx, c.ID, "ambulance-12"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	final, err := sys.SetStatus(ctx, c.ID, cases.StatusResolved, "ambulance-12")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if len(final.History) != 3 {
		t.Fatalf("len(History) = %d, want 3", len(final.History))
	}
	if final.History[len(final.History)-1].Status != final.Status {
		t.Error("last history entry status does not match case status")
	}
	for i := 1; i < len(final.History); i++ {
		if final.History[i].Timestamp.Before(final.History[i-1].Timestamp) {
			t.Error("history timestamps are not non-decreasing")
		}
	}
}

func TestConcurrentSetStatusOneWinner(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	c, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "citizen@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []cases.Status{cases.StatusAssigned, cases.StatusResolved}
	wg.Add(len(targets))
	for i, target := range targets {
		go func() {
			defer wg.Done()
			_, results[i] = sys.SetStatus(ctx, c.ID, target, "racer")
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, cases.ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected race outcome: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("wins = %d, conflicts = %d, want exactly one of each", wins, conflicts)
	}

	final, err := sys.Find(ctx, c.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(final.History) != 2 {
		t.Errorf("len(History) = %d, want 2 after one winning transition", len(final.History))
	}
}

func TestListFilters(t *testing.T) {
	sys, _ := newManager(t)
	ctx := context.Background()

	if _, err := sys.Create(ctx, schemas.CategoryFire, fireReport(), "a@example.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	c2, err := sys.Create(ctx, schemas.CategoryPolice, map[string]string{
		"incident_type":     "theft",
		"incident_location": "9 Harbor Way",
		"incident_time":     "last night",
		"description":       "bicycle stolen",
	}, "b@example.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := sys.Assign(ctx, c2.ID, "precinct-1"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	category := "police"
	status := "assigned"
	result, err := sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10}, cases.Filters{
		Category: &category,
		Status:   &status,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	if result.Data[0].ID != c2.ID {
		t.Errorf("filtered list returned wrong case")
	}
}
