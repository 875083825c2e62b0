// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/wfunc/fallarena/logger"
)

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager runs one-shot callbacks after a delay. Callbacks run on the
// manager's goroutine; they should hand work off rather than block.
type TimerManager struct {
	queue      TimerQueue
	mutex      sync.Mutex
	nextId     int64
	resolution time.Duration
	stopChan   chan struct{}
	stopOnce   sync.Once
}

func NewTimerManager(resolution time.Duration) *TimerManager {
	if resolution <= 0 {
		resolution = 50 * time.Millisecond
	}
	manager := &TimerManager{
		queue:      make(TimerQueue, 0),
		nextId:     1,
		resolution: resolution,
		stopChan:   make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

func (m *TimerManager) AddTimer(delay time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  time.Now().Add(delay),
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	return task.Id
}

// Pending returns the number of timers that have not fired yet.
func (m *TimerManager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

func (m *TimerManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(m.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case now := <-ticker.C:
			for _, task := range m.due(now) {
				run(task)
			}
		}
	}
}

func (m *TimerManager) due(now time.Time) []*TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var tasks []*TimerTask
	for m.queue.Len() > 0 && !m.queue[0].Execute.After(now) {
		tasks = append(tasks, heap.Pop(&m.queue).(*TimerTask))
	}
	return tasks
}

// run swallows panics so one bad callback cannot stop later timers.
func run(task *TimerTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("Timer %d callback panicked: %v", task.Id, r)
		}
	}()
	task.Callback()
}
