package roster

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// MockParticipant is a test double for the Participant interface.
type MockParticipant struct {
	ID  string
	Pos mgl64.Vec3
}

func (m *MockParticipant) GetID() string                  { return m.ID }
func (m *MockParticipant) GetName() string                { return m.ID }
func (m *MockParticipant) Position() mgl64.Vec3           { return m.Pos }
func (m *MockParticipant) Teleport(pos mgl64.Vec3) error { m.Pos = pos; return nil }

func ids(list []Participant) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.GetID())
	}
	return out
}

func equalIDs(t *testing.T, what string, got []Participant, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s: expected %v, got %v", what, want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s: expected %v, got %v", what, want, g)
		}
	}
}

func assertDisjoint(t *testing.T, r *Roster) {
	t.Helper()
	for _, p := range r.Waiting() {
		if r.IsActive(p.GetID()) {
			t.Fatalf("participant %s is both waiting and active", p.GetID())
		}
	}
}

func TestRoster_AddWaitingIsIdempotent(t *testing.T) {
	r := New()
	a := &MockParticipant{ID: "A"}

	if !r.AddWaiting(a) {
		t.Fatal("first AddWaiting should add")
	}
	if r.AddWaiting(a) {
		t.Error("second AddWaiting should be a no-op")
	}
	equalIDs(t, "waiting", r.Waiting(), "A")
}

func TestRoster_AddWaitingSkipsActive(t *testing.T) {
	r := New()
	a := &MockParticipant{ID: "A"}
	r.AddWaiting(a)
	r.PromoteAllWaitingToActive()

	if r.AddWaiting(a) {
		t.Error("an active participant must not be added to waiting")
	}
	assertDisjoint(t, r)
}

func TestRoster_PromoteAndDemote(t *testing.T) {
	r := New()
	r.AddWaiting(&MockParticipant{ID: "A"})
	r.AddWaiting(&MockParticipant{ID: "B"})

	r.PromoteAllWaitingToActive()
	equalIDs(t, "active after promote", r.Active(), "A", "B")
	if r.WaitingCount() != 0 {
		t.Errorf("Expected empty waiting pool, got %d", r.WaitingCount())
	}

	r.DemoteAllActiveToWaiting()
	equalIDs(t, "waiting after demote", r.Waiting(), "A", "B")
	if r.ActiveCount() != 0 {
		t.Errorf("Expected empty active pool, got %d", r.ActiveCount())
	}
}

func TestRoster_StageAndFlush(t *testing.T) {
	r := New()
	a, b, c := &MockParticipant{ID: "A"}, &MockParticipant{ID: "B"}, &MockParticipant{ID: "C"}
	r.AddWaiting(a)
	r.AddWaiting(b)
	r.AddWaiting(c)
	r.PromoteAllWaitingToActive()

	r.StageForRemoval(c)
	r.StageForRemoval(a)
	r.StageForRemoval(a)

	// Staging must not touch the active pool.
	if r.ActiveCount() != 3 {
		t.Fatalf("Expected 3 active before flush, got %d", r.ActiveCount())
	}

	flushed := r.FlushRemovals()
	equalIDs(t, "flushed", flushed, "C", "A")
	equalIDs(t, "active", r.Active(), "B")
	equalIDs(t, "waiting", r.Waiting(), "C", "A")
	if r.PendingCount() != 0 {
		t.Errorf("Expected empty stage after flush, got %d", r.PendingCount())
	}
}

func TestRoster_StageIgnoresNonActive(t *testing.T) {
	r := New()
	a := &MockParticipant{ID: "A"}
	r.AddWaiting(a)

	r.StageForRemoval(a)
	if r.PendingCount() != 0 {
		t.Error("a waiting participant must not be staged")
	}
}

func TestRoster_RemoveEverywhere(t *testing.T) {
	r := New()
	a, b := &MockParticipant{ID: "A"}, &MockParticipant{ID: "B"}
	r.AddWaiting(a)
	r.PromoteAllWaitingToActive()
	r.AddWaiting(b)
	r.StageForRemoval(a)

	if !r.RemoveEverywhere("A") {
		t.Error("removing an active participant should report a removal")
	}
	if r.ActiveCount() != 0 || r.PendingCount() != 0 {
		t.Errorf("A should be purged from active and stage, active=%d pending=%d", r.ActiveCount(), r.PendingCount())
	}
	if !r.RemoveEverywhere("B") {
		t.Error("removing a waiting participant should report a removal")
	}
	if r.RemoveEverywhere("nobody") {
		t.Error("removing an unknown participant should be a no-op")
	}
	if r.Contains("A") || r.Contains("B") {
		t.Error("roster should be empty")
	}
}

func TestRoster_DisjointUnderRandomEvents(t *testing.T) {
	r := New()
	people := []*MockParticipant{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}

	for step := 0; step < 200; step++ {
		p := people[step%len(people)]
		switch (step * 7) % 5 {
		case 0:
			r.AddWaiting(p)
		case 1:
			r.RemoveEverywhere(p.ID)
		case 2:
			r.PromoteAllWaitingToActive()
		case 3:
			r.StageForRemoval(p)
			r.FlushRemovals()
		case 4:
			r.DemoteAllActiveToWaiting()
		}
		assertDisjoint(t, r)
	}
}
