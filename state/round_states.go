package state

import (
	"fmt"

	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/roster"
)

// 等待状态
type WaitingState struct {
	RoundStateBase
	starting bool
}

func NewWaitingState(room RoundContext) *WaitingState {
	return &WaitingState{
		RoundStateBase: RoundStateBase{
			ID:   PhaseWaiting,
			Room: room,
		},
	}
}

func (s *WaitingState) OnUpdate() {
	s.tryStart()
}

func (s *WaitingState) HandleJoin(p roster.Participant) {
	s.Room.Broadcast(fmt.Sprintf("%d/%d", s.Room.Roster().WaitingCount(), s.Room.Settings().MinPlayers))
	s.tryStart()
}

// tryStart schedules the grace period once the pool is large enough. Only one
// grace timer is pending per waiting phase.
func (s *WaitingState) tryStart() {
	if s.starting || s.Room.Roster().WaitingCount() < s.Room.Settings().MinPlayers {
		return
	}
	s.starting = true
	logger.Log.Infof("Room %s starting a round in %v with %d players",
		s.Room.GetID(), s.Room.Settings().GracePeriod, s.Room.Roster().WaitingCount())
	s.Room.Schedule(s.Room.Settings().GracePeriod, s.graceElapsed)
}

func (s *WaitingState) graceElapsed() {
	s.starting = false
	if s.Room.CurrentState() != State(s) {
		return
	}
	if err := s.Room.ChangeState(NewActiveState(s.Room)); err != nil {
		// Players left during the grace period; the next tick checks again.
		logger.Log.Infof("Room %s did not start the round: %v", s.Room.GetID(), err)
	}
}

// 游戏进行状态
type ActiveState struct {
	RoundStateBase
	// eliminable is set once the grace period after the teleport has passed.
	eliminable bool
}

func NewActiveState(room RoundContext) *ActiveState {
	return &ActiveState{
		RoundStateBase: RoundStateBase{
			ID:   PhaseActive,
			Room: room,
		},
	}
}

func (s *ActiveState) OnEnter() {
	r := s.Room.Roster()
	arena := s.Room.Arena()

	arena.RebuildFloor()
	r.PromoteAllWaitingToActive()
	s.Room.Broadcast("Round starting!")

	players := r.Active()
	for _, p := range players {
		if err := p.Teleport(arena.RandomSpawn()); err != nil {
			logger.Log.Warnf("Failed to teleport %s in room %s: %v", p.GetName(), s.Room.GetID(), err)
		}
	}
	logger.Log.Infof("Room %s round started with %d players", s.Room.GetID(), len(players))
	s.Room.RoundStarted(players)
	s.Room.Schedule(s.Room.Settings().GracePeriod, s.graceElapsed)
}

func (s *ActiveState) graceElapsed() {
	if s.Room.CurrentState() != State(s) {
		return
	}
	s.eliminable = true
}

// Eliminable reports whether falling players are knocked out yet.
func (s *ActiveState) Eliminable() bool {
	return s.eliminable
}

// OnUpdate eliminates everyone below the arena's mid height once the grace
// period is over, then settles the round if one or no players remain.
func (s *ActiveState) OnUpdate() {
	r := s.Room.Roster()

	if s.eliminable {
		threshold := s.Room.Arena().EliminationHeight()
		for _, p := range r.Active() {
			if p.Position().Y() < threshold {
				s.Room.Broadcast(fmt.Sprintf("%s fell!", p.GetName()))
				r.StageForRemoval(p)
			}
		}
		for _, p := range r.FlushRemovals() {
			s.Room.Eliminated(p)
		}
	}

	switch r.ActiveCount() {
	case 1:
		winner := r.Active()[0]
		s.Room.Broadcast(fmt.Sprintf("%s won!", winner.GetName()))
		r.DemoteAllActiveToWaiting()
		logger.Log.Infof("Room %s round won by %s", s.Room.GetID(), winner.GetName())
		s.Room.RoundEnded(winner)
		s.change(NewEndingState(s.Room))
	case 0:
		// Everyone left. No winner and no cooldown.
		logger.Log.Infof("Room %s round abandoned", s.Room.GetID())
		s.Room.RoundEnded(nil)
		s.change(NewWaitingState(s.Room))
	}
}

func (s *ActiveState) change(next State) {
	if err := s.Room.ChangeState(next); err != nil {
		logger.Log.Errorf("Room %s failed to leave the active phase: %v", s.Room.GetID(), err)
	}
}

// 结算状态
type EndingState struct {
	RoundStateBase
}

func NewEndingState(room RoundContext) *EndingState {
	return &EndingState{
		RoundStateBase: RoundStateBase{
			ID:   PhaseEnding,
			Room: room,
		},
	}
}

func (s *EndingState) OnEnter() {
	s.Room.Schedule(s.Room.Settings().Cooldown, s.cooldownElapsed)
}

func (s *EndingState) cooldownElapsed() {
	if s.Room.CurrentState() != State(s) {
		return
	}
	if err := s.Room.ChangeState(NewWaitingState(s.Room)); err != nil {
		logger.Log.Errorf("Room %s failed to leave the ending phase: %v", s.Room.GetID(), err)
	}
}
