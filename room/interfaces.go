package room

import (
	"time"

	"github.com/wfunc/fallarena/models"
)

// Broadcaster delivers chat text to everyone in the shared space.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	Broadcast(text string) error
}

// Scheduler runs callback once after delay, on its own goroutine.
type Scheduler interface {
	AddTimer(delay time.Duration, callback func()) int64
}

// Recorder stores finished rounds.
type Recorder interface {
	RecordRound(record models.RoundRecord) error
}

type Metrics interface {
	SetRoster(waiting, active int)
	RoundStarted()
	RoundEnded(aborted bool, duration time.Duration)
	Eliminated()
	ObserveTick(duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) SetRoster(int, int)             {}
func (nopMetrics) RoundStarted()                  {}
func (nopMetrics) RoundEnded(bool, time.Duration) {}
func (nopMetrics) Eliminated()                    {}
func (nopMetrics) ObserveTick(time.Duration)      {}
