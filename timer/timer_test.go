package timer

import (
	"testing"
	"time"
)

func TestTimerManager_FiresInOrder(t *testing.T) {
	m := NewTimerManager(5 * time.Millisecond)
	defer m.Stop()

	fired := make(chan int, 2)
	m.AddTimer(40*time.Millisecond, func() { fired <- 2 })
	m.AddTimer(10*time.Millisecond, func() { fired <- 1 })

	for want := 1; want <= 2; want++ {
		select {
		case got := <-fired:
			if got != want {
				t.Fatalf("Expected timer %d to fire, got %d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timer %d never fired", want)
		}
	}
	if m.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", m.Pending())
	}
}

func TestTimerManager_PanicDoesNotStopLaterTimers(t *testing.T) {
	m := NewTimerManager(5 * time.Millisecond)
	defer m.Stop()

	fired := make(chan struct{}, 1)
	m.AddTimer(5*time.Millisecond, func() { panic("boom") })
	m.AddTimer(20*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer after a panicking callback never fired")
	}
}

func TestTimerManager_StopPreventsFiring(t *testing.T) {
	m := NewTimerManager(5 * time.Millisecond)
	fired := make(chan struct{}, 1)
	m.AddTimer(30*time.Millisecond, func() { fired <- struct{}{} })
	m.Stop()

	select {
	case <-fired:
		t.Fatal("a stopped manager must not fire timers")
	case <-time.After(80 * time.Millisecond):
	}
}
