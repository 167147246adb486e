package notifications_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/notifications"
	"github.com/danishmustafa86/aidlink/internal/schemas"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingChannel struct {
	mu    sync.Mutex
	sends int
	fail  bool
}

func (c *countingChannel) Send(_ context.Context, _ string, _ notifications.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends++
	if c.fail {
		return errors.New("channel down")
	}
	return nil
}

func testCase() *cases.Case {
	return &cases.Case{
		ID:         uuid.New(),
		Category:   schemas.CategoryFire,
		Report:     map[string]string{"location": "12 Mill Road", "hazard_type": "kitchen fire"},
		Status:     cases.StatusOpen,
		CitizenRef: "citizen@example.com",
	}
}

func newSystem(channels map[notifications.RecipientClass]notifications.Channel) notifications.System {
	return notifications.NewDispatcher(notifications.NewMemory(), channels, discardLogger())
}

func TestEventIDDeterministic(t *testing.T) {
	caseID := uuid.New()
	tr := notifications.Transition{From: cases.StatusOpen, To: cases.StatusAssigned}

	first := notifications.EventID(caseID, tr)
	second := notifications.EventID(caseID, tr)
	if first != second {
		t.Error("identical inputs produced different event ids")
	}

	other := notifications.EventID(caseID, notifications.Transition{From: cases.StatusAssigned, To: cases.StatusOpen})
	if first == other {
		t.Error("different transitions produced the same event id")
	}

	if notifications.EventID(uuid.New(), tr) == first {
		t.Error("different cases produced the same event id")
	}
}

func TestTransitionString(t *testing.T) {
	created := notifications.Transition{To: cases.StatusOpen}
	if got := created.String(); got != "created->open" {
		t.Errorf("creation transition = %q, want created->open", got)
	}

	tr := notifications.Transition{From: cases.StatusAssigned, To: cases.StatusResolved}
	if got := tr.String(); got != "assigned->resolved" {
		t.Errorf("transition = %q, want assigned->resolved", got)
	}
}

func TestNotifyIdempotent(t *testing.T) {
	channel := &countingChannel{}
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{
		notifications.RecipientCitizen: channel,
	})

	c := testCase()
	tr := notifications.Transition{From: cases.StatusOpen, To: cases.StatusAssigned}
	recipients := []notifications.RecipientClass{notifications.RecipientCitizen}

	for range 3 {
		if err := sys.Notify(context.Background(), c, tr, recipients); err != nil {
			t.Fatalf("notify failed: %v", err)
		}
	}

	if channel.sends != 1 {
		t.Errorf("sends = %d, want 1 after replayed notify", channel.sends)
	}
}

func TestNotifyFailureStaysUndelivered(t *testing.T) {
	channel := &countingChannel{fail: true}
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{
		notifications.RecipientCitizen: channel,
	})

	c := testCase()
	tr := notifications.Transition{From: cases.StatusOpen, To: cases.StatusResolved}
	recipients := []notifications.RecipientClass{notifications.RecipientCitizen}

	err := sys.Notify(context.Background(), c, tr, recipients)
	if !errors.Is(err, notifications.ErrDeliveryFailed) {
		t.Fatalf("notify error = %v, want ErrDeliveryFailed", err)
	}

	// The channel recovers; the retry sweep delivers exactly once.
	channel.fail = false
	delivered, err := sys.RetryUndelivered(context.Background(), 10)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if delivered != 1 {
		t.Errorf("retry delivered = %d, want 1", delivered)
	}

	delivered, err = sys.RetryUndelivered(context.Background(), 10)
	if err != nil {
		t.Fatalf("second retry failed: %v", err)
	}
	if delivered != 0 {
		t.Errorf("second retry delivered = %d, want 0", delivered)
	}
}

func TestNotifyMissingChannel(t *testing.T) {
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{})

	err := sys.Notify(context.Background(), testCase(),
		notifications.Transition{To: cases.StatusOpen},
		[]notifications.RecipientClass{notifications.RecipientAuthority},
	)
	if !errors.Is(err, notifications.ErrNoChannel) {
		t.Errorf("notify error = %v, want ErrNoChannel", err)
	}
}

func TestCaseTransitionedReopenNotifiesAuthority(t *testing.T) {
	citizen := &countingChannel{}
	authority := &countingChannel{}
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{
		notifications.RecipientCitizen:   citizen,
		notifications.RecipientAuthority: authority,
	})

	c := testCase()
	sys.CaseTransitioned(context.Background(), c, cases.StatusAssigned, cases.StatusResolved)
	if citizen.sends != 1 || authority.sends != 0 {
		t.Errorf("resolve fan-out: citizen=%d authority=%d, want 1/0", citizen.sends, authority.sends)
	}

	sys.CaseTransitioned(context.Background(), c, cases.StatusAssigned, cases.StatusOpen)
	if citizen.sends != 2 || authority.sends != 1 {
		t.Errorf("reopen fan-out: citizen=%d authority=%d, want 2/1", citizen.sends, authority.sends)
	}
}

func TestPromptIdempotent(t *testing.T) {
	channel := &countingChannel{}
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{
		notifications.RecipientCitizen: channel,
	})

	c := testCase()
	for range 2 {
		if err := sys.Prompt(context.Background(), c, "followup-request|1700000000", "Resolved?", "Reply yes or no."); err != nil {
			t.Fatalf("prompt failed: %v", err)
		}
	}
	if channel.sends != 1 {
		t.Errorf("sends = %d, want 1 after replayed prompt", channel.sends)
	}

	if err := sys.Prompt(context.Background(), c, "followup-reminder|1700000000", "Reminder", "Still there?"); err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	if channel.sends != 2 {
		t.Errorf("sends = %d, want 2 after distinct prompt kind", channel.sends)
	}
}

func TestFeed(t *testing.T) {
	channel := &countingChannel{}
	sys := newSystem(map[notifications.RecipientClass]notifications.Channel{
		notifications.RecipientCitizen: channel,
	})

	c := testCase()
	sys.CaseCreated(context.Background(), c)
	sys.CaseTransitioned(context.Background(), c, cases.StatusOpen, cases.StatusAssigned)

	events, err := sys.Feed(context.Background(), c.CitizenRef)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.RecipientClass != notifications.RecipientCitizen {
			t.Errorf("feed leaked %s event", e.RecipientClass)
		}
	}

	events, err = sys.Feed(context.Background(), "other@example.com")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("foreign feed returned %d events, want 0", len(events))
	}
}
