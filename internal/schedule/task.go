// Package schedule provides cancellable timers for Bubble Tea models.
//
// A Task delivers FireMsg values tagged with its own id and a generation. Stopping
// or restarting a Task bumps the generation, so ticks already in flight are
// recognised as stale and dropped by Owns. Tasks sharing a name never own each
// other's fires. All methods are meant to be called from Update.
package schedule

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// FireMsg is delivered when a Task interval elapses.
type FireMsg struct {
	Name string
	Task uuid.UUID
	Gen  uint64
}

// Task is a named, re-armable interval timer.
type Task struct {
	id       uuid.UUID
	name     string
	interval time.Duration
	gen      uint64
	active   bool
}

// New returns an inactive Task.
func New(name string, interval time.Duration) *Task {
	return &Task{id: uuid.New(), name: name, interval: interval}
}

// Name returns the task name carried by its messages.
func (t *Task) Name() string {
	return t.name
}

// Interval returns the delay between fires.
func (t *Task) Interval() time.Duration {
	return t.interval
}

// Active reports whether the task is armed.
func (t *Task) Active() bool {
	return t.active
}

// Start arms the task, cancelling any previous arming.
func (t *Task) Start() tea.Cmd {
	t.gen++
	t.active = true
	return t.tick()
}

// StartIn arms the task for a single delay d instead of the interval.
// Next still re-arms with the regular interval.
func (t *Task) StartIn(d time.Duration) tea.Cmd {
	t.gen++
	t.active = true
	return t.tickAfter(d)
}

// Stop cancels the task; pending fires become stale.
func (t *Task) Stop() {
	t.gen++
	t.active = false
}

// Owns reports whether msg belongs to the current arming.
func (t *Task) Owns(msg FireMsg) bool {
	return t.active && msg.Task == t.id && msg.Gen == t.gen
}

// Next re-arms for one more interval. Returns nil when stopped.
func (t *Task) Next() tea.Cmd {
	if !t.active {
		return nil
	}
	return t.tick()
}

// Pending returns the message the current arming will deliver.
func (t *Task) Pending() (FireMsg, bool) {
	if !t.active {
		return FireMsg{}, false
	}
	return t.fire(), true
}

func (t *Task) tick() tea.Cmd {
	return t.tickAfter(t.interval)
}

func (t *Task) tickAfter(d time.Duration) tea.Cmd {
	msg := t.fire()
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg
	})
}

func (t *Task) fire() FireMsg {
	return FireMsg{Name: t.name, Task: t.id, Gen: t.gen}
}
