// Package roster tracks which participants are waiting for a round, which are
// playing it, and which were eliminated during the current tick.
package roster

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Participant is a player owned by the host. The roster only keeps references.
type Participant interface {
	GetID() string
	GetName() string
	Position() mgl64.Vec3
	Teleport(pos mgl64.Vec3) error
}

// Roster holds the waiting, active and pending-removal collections.
// Every operation is idempotent; unknown participants are ignored.
// A Roster is not safe for concurrent use; the owning room serializes access.
type Roster struct {
	waiting []Participant
	active  []Participant
	pending []Participant
}

func New() *Roster {
	return &Roster{}
}

// AddWaiting queues p for the next round unless it is already waiting or playing.
func (r *Roster) AddWaiting(p Participant) bool {
	if p == nil || r.Contains(p.GetID()) {
		return false
	}
	r.waiting = append(r.waiting, p)
	return true
}

// RemoveEverywhere purges id from every collection.
func (r *Roster) RemoveEverywhere(id string) bool {
	var removed bool
	r.waiting, removed = without(r.waiting, id)
	var fromActive bool
	r.active, fromActive = without(r.active, id)
	r.pending, _ = without(r.pending, id)
	return removed || fromActive
}

// PromoteAllWaitingToActive moves the whole waiting pool into the round.
func (r *Roster) PromoteAllWaitingToActive() {
	r.active = append(r.active, r.waiting...)
	r.waiting = nil
}

// DemoteAllActiveToWaiting returns every active participant to the pool.
func (r *Roster) DemoteAllActiveToWaiting() {
	r.waiting = append(r.waiting, r.active...)
	r.active = nil
	r.pending = nil
}

// StageForRemoval marks an active participant for elimination at the next flush.
func (r *Roster) StageForRemoval(p Participant) {
	if p == nil || indexOf(r.active, p.GetID()) < 0 || indexOf(r.pending, p.GetID()) >= 0 {
		return
	}
	r.pending = append(r.pending, p)
}

// FlushRemovals moves every staged participant from active to waiting, in
// staging order, and clears the stage.
func (r *Roster) FlushRemovals() []Participant {
	flushed := r.pending
	for _, p := range flushed {
		var ok bool
		if r.active, ok = without(r.active, p.GetID()); ok {
			r.waiting = append(r.waiting, p)
		}
	}
	r.pending = nil
	return flushed
}

func (r *Roster) Contains(id string) bool {
	return indexOf(r.waiting, id) >= 0 || indexOf(r.active, id) >= 0
}

func (r *Roster) IsActive(id string) bool {
	return indexOf(r.active, id) >= 0
}

func (r *Roster) Waiting() []Participant {
	return append([]Participant(nil), r.waiting...)
}

func (r *Roster) Active() []Participant {
	return append([]Participant(nil), r.active...)
}

func (r *Roster) WaitingCount() int { return len(r.waiting) }

func (r *Roster) ActiveCount() int { return len(r.active) }

func (r *Roster) PendingCount() int { return len(r.pending) }

func indexOf(list []Participant, id string) int {
	for i, p := range list {
		if p.GetID() == id {
			return i
		}
	}
	return -1
}

func without(list []Participant, id string) ([]Participant, bool) {
	i := indexOf(list, id)
	if i < 0 {
		return list, false
	}
	return append(list[:i], list[i+1:]...), true
}
