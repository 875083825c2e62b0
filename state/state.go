package state

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/fallarena/roster"
)

// Phase identifies a round state.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseActive  Phase = "active"
	PhaseEnding  Phase = "ending"
)

func (p Phase) String() string {
	return string(p)
}

// Settings are the fixed round rules.
type Settings struct {
	MinPlayers  int
	GracePeriod time.Duration
	Cooldown    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MinPlayers:  2,
		GracePeriod: 3 * time.Second,
		Cooldown:    10 * time.Second,
	}
}

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from Phase, to Phase, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	// OnUpdate is called once per server tick.
	OnUpdate()
	GetID() Phase
	// HandleJoin is called after p has been added to the waiting pool.
	HandleJoin(p roster.Participant)
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// BaseStateMachine only moves along registered transitions. Enter and exit
// hooks run outside the lock so they may read the current state.
type BaseStateMachine struct {
	currentState State
	transitions  map[Phase]map[Phase]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[Phase]map[Phase]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	oldState := sm.currentState
	conditions, exists := sm.transitions[oldState.GetID()]
	if !exists {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}
	condition, exists := conditions[newState.GetID()]
	if !exists || (condition != nil && !condition()) {
		sm.mutex.Unlock()
		return ErrTransitionNotAllowed
	}
	sm.currentState = newState
	sm.mutex.Unlock()

	oldState.OnExit()
	newState.OnEnter()
	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// AddTransition allows from -> to. A nil condition always passes.
func (sm *BaseStateMachine) AddTransition(from Phase, to Phase, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Phase]func() bool)
	}

	sm.transitions[from][to] = condition
	return nil
}

// NewRoundStateMachine starts in Waiting with the round transitions registered.
func NewRoundStateMachine(room RoundContext) *BaseStateMachine {
	sm := NewBaseStateMachine(NewWaitingState(room))
	sm.AddTransition(PhaseWaiting, PhaseActive, func() bool {
		return room.Roster().WaitingCount() >= room.Settings().MinPlayers
	})
	sm.AddTransition(PhaseActive, PhaseEnding, nil)
	sm.AddTransition(PhaseActive, PhaseWaiting, nil)
	sm.AddTransition(PhaseEnding, PhaseWaiting, nil)
	return sm
}

// 房间状态基础结构
type RoundStateBase struct {
	ID   Phase
	Room RoundContext
}

func (s *RoundStateBase) GetID() Phase {
	return s.ID
}

func (s *RoundStateBase) OnEnter() {}

func (s *RoundStateBase) OnExit() {}

func (s *RoundStateBase) OnUpdate() {}

func (s *RoundStateBase) HandleJoin(p roster.Participant) {}
