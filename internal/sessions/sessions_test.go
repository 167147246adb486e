package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

func TestNewSession(t *testing.T) {
	s := sessions.NewSession("citizen@example.com")

	if s.Category != schemas.CategoryUnclassified {
		t.Errorf("Category = %s, want unclassified", s.Category)
	}
	if s.Status != sessions.StatusCollecting {
		t.Errorf("Status = %s, want collecting", s.Status)
	}
	if s.Archived() {
		t.Error("new session reports archived")
	}
}

func TestAppendTurnOrder(t *testing.T) {
	s := sessions.NewSession("citizen@example.com")
	s.AppendTurn(gateway.RoleCitizen, "help")
	s.AppendTurn(gateway.RoleAssistant, "what happened?")
	s.AppendTurn(gateway.RoleCitizen, "a fire")

	if len(s.Turns) != 3 {
		t.Fatalf("len(Turns) = %d, want 3", len(s.Turns))
	}
	if s.Turns[0].Text != "help" || s.Turns[2].Text != "a fire" {
		t.Errorf("turns out of order: %+v", s.Turns)
	}
}

func TestMergeDiscardsInvalidValues(t *testing.T) {
	schema, err := schemas.For(schemas.CategoryMedical)
	if err != nil {
		t.Fatalf("For(medical) failed: %v", err)
	}

	s := sessions.NewSession("citizen@example.com")
	accepted, rejected := s.Merge(schema, map[string]string{
		"patient_name": "Ada Khan",
		"patient_age":  "not a number",
		"blood_type":   "O+",
	})

	if len(accepted) != 1 || accepted[0] != "patient_name" {
		t.Errorf("accepted = %v, want [patient_name]", accepted)
	}
	if len(rejected) != 2 {
		t.Errorf("rejected = %v, want two entries", rejected)
	}

	if _, ok := s.Collected["patient_age"]; ok {
		t.Error("invalid patient_age was stored")
	}
	if _, ok := s.Collected["blood_type"]; ok {
		t.Error("unknown field was stored")
	}
	if s.Collected["patient_name"] != "Ada Khan" {
		t.Errorf("patient_name = %q, want Ada Khan", s.Collected["patient_name"])
	}
}

func TestMemoryStoreArchivedWriteGuard(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemory()

	s := sessions.NewSession("citizen@example.com")
	if err := store.Insert(ctx, s); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	s.Status = sessions.StatusComplete
	if err := store.Update(ctx, s); err != nil {
		t.Fatalf("archiving update failed: %v", err)
	}

	// A late write against the archived session is rejected, not applied.
	s.Collected["patient_name"] = "late value"
	s.Status = sessions.StatusCollecting
	if err := store.Update(ctx, s); !errors.Is(err, sessions.ErrArchived) {
		t.Fatalf("late update error = %v, want ErrArchived", err)
	}

	stored, err := store.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.Status != sessions.StatusComplete {
		t.Errorf("Status = %s, want complete", stored.Status)
	}
	if _, ok := stored.Collected["patient_name"]; ok {
		t.Error("late write leaked into archived session")
	}
}

func TestMemoryStoreFindNotFound(t *testing.T) {
	store := sessions.NewMemory()
	if _, err := store.Find(context.Background(), sessions.NewSession("x").ID); !errors.Is(err, sessions.ErrNotFound) {
		t.Errorf("Find error = %v, want ErrNotFound", err)
	}
}

func TestListIdleBefore(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewMemory()

	stale := sessions.NewSession("stale@example.com")
	if err := store.Insert(ctx, stale); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	archived := sessions.NewSession("archived@example.com")
	if err := store.Insert(ctx, archived); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	archived.Status = sessions.StatusAbandoned
	if err := store.Update(ctx, archived); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.ListIdleBefore(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Errorf("ListIdleBefore returned %d sessions, want only the collecting one", len(got))
	}

	got, err = store.ListIdleBefore(ctx, time.Now().Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListIdleBefore before activity returned %d sessions, want 0", len(got))
	}
}
