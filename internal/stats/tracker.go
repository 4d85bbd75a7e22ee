package stats

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/schedule"
)

// DefaultPollInterval is how often the tracker refetches results.
const DefaultPollInterval = 3 * time.Second

// ResultLister fetches the result list of a user.
type ResultLister interface {
	ListResults(ctx context.Context, s model.Session) ([]model.TypingResult, error)
}

type resultsMsg struct {
	gen     uint64
	fetch   uint64
	results []model.TypingResult
	err     error
}

// Tracker keeps the summary of the current user up to date by polling the backend.
// It is driven from a Bubble Tea Update loop and is not safe for concurrent use.
type Tracker struct {
	lister ResultLister
	logger *log.Logger
	task   *schedule.Task

	session model.Session
	gen     uint64
	fetches uint64
	applied uint64

	summary model.Summary
	results []model.TypingResult
	err     error
	loaded  bool
}

// NewTracker returns a tracker without a session. A non-positive interval uses
// DefaultPollInterval.
func NewTracker(lister ResultLister, interval time.Duration, logger *log.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Tracker{
		lister:  lister,
		logger:  logger,
		task:    schedule.New("stats-poll", interval),
		summary: model.EmptySummary(),
	}
}

// SetSession switches the tracked user. The previous poll is cancelled and the
// aggregates reset. An active session is fetched at once and then on every interval.
func (t *Tracker) SetSession(s model.Session) tea.Cmd {
	t.task.Stop()
	t.gen++
	t.session = s
	t.reset()
	t.loaded = false
	if !s.Active() {
		return nil
	}
	return tea.Batch(t.fetch(), t.task.Start())
}

// Refresh fetches once outside the poll schedule.
func (t *Tracker) Refresh() tea.Cmd {
	if !t.session.Active() {
		return nil
	}
	return t.fetch()
}

// Stop cancels polling. In-flight fetches are discarded when they land.
func (t *Tracker) Stop() {
	t.task.Stop()
	t.gen++
}

// Update handles poll ticks and fetch results. Other messages are ignored.
func (t *Tracker) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case schedule.FireMsg:
		if !t.task.Owns(msg) {
			return nil
		}
		return tea.Batch(t.fetch(), t.task.Next())
	case resultsMsg:
		if msg.gen != t.gen || msg.fetch <= t.applied {
			return nil
		}
		t.applied = msg.fetch
		t.loaded = true
		if msg.err != nil {
			t.logger.Warn("fetch results failed", "user", t.session.Username, "err", msg.err)
			t.reset()
			t.err = msg.err
			return nil
		}
		t.err = nil
		t.results = msg.results
		t.summary = Aggregate(msg.results)
	}
	return nil
}

func (t *Tracker) reset() {
	t.summary = model.EmptySummary()
	t.results = nil
	t.err = nil
}

func (t *Tracker) fetch() tea.Cmd {
	t.fetches++
	gen, fetch, s, lister := t.gen, t.fetches, t.session, t.lister
	return func() tea.Msg {
		results, err := lister.ListResults(context.Background(), s)
		return resultsMsg{gen: gen, fetch: fetch, results: results, err: err}
	}
}

// Summary returns the current aggregates.
func (t *Tracker) Summary() model.Summary {
	return t.summary
}

// Results returns the last fetched result list.
func (t *Tracker) Results() []model.TypingResult {
	return t.results
}

// Err returns the error of the last fetch, if it failed.
func (t *Tracker) Err() error {
	return t.err
}

// Loaded reports whether a fetch has completed for the current session.
func (t *Tracker) Loaded() bool {
	return t.loaded
}

// Polling reports whether the poll task is armed.
func (t *Tracker) Polling() bool {
	return t.task.Active()
}
