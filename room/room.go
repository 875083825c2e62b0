// room/room.go
package room

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/fallarena/arena"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/models"
	"github.com/wfunc/fallarena/roster"
	"github.com/wfunc/fallarena/state"
	"github.com/wfunc/fallarena/world"
)

// Options configures a Room. World, Broadcaster and Scheduler are required.
type Options struct {
	ID          string
	World       *world.World
	Dimensions  arena.Dimensions
	Settings    state.Settings
	Broadcaster Broadcaster
	Scheduler   Scheduler
	Recorder    Recorder
	Metrics     Metrics
	TickRate    int
	Rand        *rand.Rand
}

// Status is a point-in-time view of the room, safe to read from any goroutine.
type Status struct {
	Room    string   `json:"room"`
	Phase   string   `json:"phase"`
	Round   string   `json:"round,omitempty"`
	Waiting []string `json:"waiting"`
	Active  []string `json:"active"`
	Ticks   uint64   `json:"ticks"`
}

// Room owns the roster and the round state machine. All mutation happens on
// the goroutine running Run; other goroutines talk to it through Join, Leave
// and Dig, and timers deliver their callbacks through the same inbox.
type Room struct {
	ID           string
	StateMachine state.StateMachine

	world       *world.World
	arena       *arena.Builder
	roster      *roster.Roster
	settings    state.Settings
	broadcaster Broadcaster
	scheduler   Scheduler
	recorder    Recorder
	metrics     Metrics
	tickRate    int

	round  *roundTracker
	ticks  uint64
	status atomic.Pointer[Status]

	inbox     chan any
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewRoom builds the arena walls and floor and starts in the waiting phase.
func NewRoom(opts Options) *Room {
	if opts.ID == "" {
		opts.ID = "arena"
	}
	if opts.Dimensions == (arena.Dimensions{}) {
		opts.Dimensions = arena.DefaultDimensions
	}
	if opts.Settings == (state.Settings{}) {
		opts.Settings = state.DefaultSettings()
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 20
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	r := &Room{
		ID:          opts.ID,
		world:       opts.World,
		arena:       arena.NewBuilder(opts.World, opts.Dimensions, opts.Rand),
		roster:      roster.New(),
		settings:    opts.Settings,
		broadcaster: opts.Broadcaster,
		scheduler:   opts.Scheduler,
		recorder:    opts.Recorder,
		metrics:     opts.Metrics,
		tickRate:    opts.TickRate,
		inbox:       make(chan any, 256),
		closeChan:   make(chan struct{}),
	}
	r.StateMachine = state.NewRoundStateMachine(r)
	r.publishStatus()
	return r
}

// --- 命令 ---

type joinCmd struct{ p roster.Participant }

type leaveCmd struct{ id string }

type digCmd struct {
	p   roster.Participant
	pos world.Pos
}

type timerCmd struct{ fn func() }

// Join queues a participant entering the shared space.
func (r *Room) Join(p roster.Participant) { r.post(joinCmd{p: p}) }

// Leave queues a participant leaving the shared space.
func (r *Room) Leave(id string) { r.post(leaveCmd{id: id}) }

// Dig queues a request from p to break the block at pos.
func (r *Room) Dig(p roster.Participant, pos world.Pos) { r.post(digCmd{p: p, pos: pos}) }

func (r *Room) post(cmd any) {
	select {
	case r.inbox <- cmd:
	case <-r.closeChan:
	}
}

// Run is the room's event loop. It returns when ctx is done or Close is called.
func (r *Room) Run(ctx context.Context) {
	interval := time.Second / time.Duration(r.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.closeChan:
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.OnTick(interval)
		}
	}
}

// Close stops Run. Pending posts are dropped.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		r.OnParticipantJoined(c.p)
	case leaveCmd:
		r.OnParticipantLeft(c.id)
	case digCmd:
		r.handleDig(c.p, c.pos)
	case timerCmd:
		r.runTimer(c.fn)
		r.publishStatus()
	default:
		logger.Log.Warnf("Room %s ignoring unknown command %T", r.ID, cmd)
	}
}

// runTimer runs a delayed callback on the loop. A panic is logged and the loop
// keeps going.
func (r *Room) runTimer(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.Log.Errorf("Room %s timer callback panicked: %v", r.ID, err)
		}
	}()
	fn()
}

// --- 事件桥 ---

// OnParticipantJoined adds p to the waiting pool and lets the current phase react.
// Must be called on the room's loop.
func (r *Room) OnParticipantJoined(p roster.Participant) {
	if !r.roster.AddWaiting(p) {
		return
	}
	logger.Log.Infof("Player %s joined room %s", p.GetName(), r.ID)
	r.StateMachine.GetCurrentState().HandleJoin(p)
	r.publishStatus()
}

// OnParticipantLeft purges id from every pool, whatever the phase.
// Must be called on the room's loop.
func (r *Room) OnParticipantLeft(id string) {
	if r.round != nil && r.roster.IsActive(id) {
		r.round.mark(id, models.OutcomeLeft)
	}
	if r.roster.RemoveEverywhere(id) {
		logger.Log.Infof("Player %s left room %s", id, r.ID)
	}
	r.publishStatus()
}

// OnTick advances the current phase by one server tick. It always asks the
// host to keep ticking.
func (r *Room) OnTick(delta time.Duration) bool {
	start := time.Now()
	r.ticks++
	r.StateMachine.GetCurrentState().OnUpdate()
	r.metrics.ObserveTick(time.Since(start))
	r.metrics.SetRoster(r.roster.WaitingCount(), r.roster.ActiveCount())
	r.publishStatus()
	return true
}

func (r *Room) handleDig(p roster.Participant, pos world.Pos) {
	if r.Phase() != state.PhaseActive || !r.roster.IsActive(p.GetID()) || !r.arena.Destructible(pos) {
		return
	}
	if err := r.world.SetBlock(pos, world.Air); err != nil {
		logger.Log.Warnf("Dig by %s at %v failed: %v", p.GetName(), pos, err)
	}
}

// --- 实现 state.RoundContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Roster() *roster.Roster {
	return r.roster
}

func (r *Room) Arena() state.Arena {
	return r.arena
}

func (r *Room) Settings() state.Settings {
	return r.settings
}

func (r *Room) CurrentState() state.State {
	return r.StateMachine.GetCurrentState()
}

func (r *Room) ChangeState(newState state.State) error {
	from := r.Phase()
	if err := r.StateMachine.ChangeState(newState); err != nil {
		return err
	}
	logger.Log.Infof("Room %s phase %s -> %s", r.ID, from, newState.GetID())
	r.publishStatus()
	return nil
}

// Broadcast logs and swallows delivery errors.
func (r *Room) Broadcast(text string) {
	if err := r.broadcaster.Broadcast(text); err != nil {
		logger.Log.Warnf("Room %s broadcast %q failed: %v", r.ID, text, err)
	}
}

// Schedule hands fn back to the room's loop once delay has elapsed.
func (r *Room) Schedule(delay time.Duration, fn func()) {
	r.scheduler.AddTimer(delay, func() {
		r.post(timerCmd{fn: fn})
	})
}

func (r *Room) RoundStarted(players []roster.Participant) {
	r.round = newRoundTracker(r.ID, players)
	r.metrics.RoundStarted()
}

func (r *Room) Eliminated(p roster.Participant) {
	if r.round != nil {
		r.round.mark(p.GetID(), models.OutcomeFell)
	}
	r.metrics.Eliminated()
}

func (r *Room) RoundEnded(winner roster.Participant) {
	if r.round == nil {
		return
	}
	record := r.round.finish(winner)
	r.round = nil
	r.metrics.RoundEnded(record.Aborted, record.Duration())

	if r.recorder != nil {
		go r.record(record)
	}
}

func (r *Room) record(record models.RoundRecord) {
	if err := r.recorder.RecordRound(record); err != nil {
		logger.Log.Errorf("Failed to record round %s: %v", record.RoundID, err)
	}
}

// --- 查询 ---

func (r *Room) Phase() state.Phase {
	return r.StateMachine.GetCurrentState().GetID()
}

// Status returns the latest published snapshot.
func (r *Room) Status() Status {
	return *r.status.Load()
}

func (r *Room) publishStatus() {
	s := &Status{
		Room:    r.ID,
		Phase:   r.Phase().String(),
		Waiting: names(r.roster.Waiting()),
		Active:  names(r.roster.Active()),
		Ticks:   r.ticks,
	}
	if r.round != nil {
		s.Round = r.round.id
	}
	r.status.Store(s)
}

func names(list []roster.Participant) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.GetName())
	}
	return out
}

// roundTracker collects what happened to each participant during one round.
type roundTracker struct {
	id       string
	roomID   string
	started  time.Time
	players  []roster.Participant
	outcomes map[string]models.Outcome
}

func newRoundTracker(roomID string, players []roster.Participant) *roundTracker {
	return &roundTracker{
		id:       uuid.NewString(),
		roomID:   roomID,
		started:  time.Now(),
		players:  players,
		outcomes: make(map[string]models.Outcome),
	}
}

func (t *roundTracker) mark(id string, outcome models.Outcome) {
	if _, done := t.outcomes[id]; !done {
		t.outcomes[id] = outcome
	}
}

func (t *roundTracker) finish(winner roster.Participant) models.RoundRecord {
	record := models.RoundRecord{
		RoundID:   t.id,
		RoomID:    t.roomID,
		Aborted:   winner == nil,
		StartedAt: t.started,
		EndedAt:   time.Now(),
	}
	if winner != nil {
		record.WinnerID = winner.GetID()
		t.mark(winner.GetID(), models.OutcomeWon)
	}
	for _, p := range t.players {
		outcome, ok := t.outcomes[p.GetID()]
		if !ok {
			outcome = models.OutcomeLeft
		}
		record.Participants = append(record.Participants, models.RoundParticipant{
			ParticipantID: p.GetID(),
			Name:          p.GetName(),
			Outcome:       outcome,
		})
	}
	return record
}
