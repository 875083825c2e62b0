// state/interfaces.go
package state

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/wfunc/fallarena/roster"
)

// Arena is the part of the arena builder the round states drive.
type Arena interface {
	RebuildFloor()
	RandomSpawn() mgl64.Vec3
	EliminationHeight() float64
}

// RoundContext is implemented by the room that owns the round. States only
// touch the roster and phase through it.
// This breaks the import cycle between room and state.
type RoundContext interface {
	GetID() string
	Roster() *roster.Roster
	Arena() Arena
	Settings() Settings
	CurrentState() State
	ChangeState(newState State) error
	Broadcast(text string)
	// Schedule runs fn on the room's event loop once delay has elapsed.
	Schedule(delay time.Duration, fn func())

	RoundStarted(players []roster.Participant)
	Eliminated(p roster.Participant)
	// RoundEnded is called with the winner, or nil when the round was abandoned.
	RoundEnded(winner roster.Participant)
}
