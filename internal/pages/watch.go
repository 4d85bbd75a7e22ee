package pages

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

// Watch is a small live view of the summary, refreshed by the stats tracker.
type Watch struct {
	tracker  *stats.Tracker
	session  model.Session
	interval time.Duration
	width    int
}

// NewWatch returns a Watch for s polling lister at interval.
func NewWatch(lister stats.ResultLister, s model.Session, interval time.Duration, logger *log.Logger) *Watch {
	if interval <= 0 {
		interval = stats.DefaultPollInterval
	}
	return &Watch{
		tracker:  stats.NewTracker(lister, interval, logger),
		session:  s,
		interval: interval,
	}
}

// Summary returns the latest aggregates.
func (w *Watch) Summary() model.Summary {
	return w.tracker.Summary()
}

// Init implements tea.Model.
func (w *Watch) Init() tea.Cmd {
	return w.tracker.SetSession(w.session)
}

// Update implements tea.Model.
func (w *Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			w.tracker.Stop()
			return w, tea.Quit
		case "r":
			return w, w.tracker.Refresh()
		}
		return w, nil
	}
	return w, w.tracker.Update(msg)
}

// View implements tea.Model.
func (w *Watch) View() string {
	sections := []string{
		brandStyle.Render(fmt.Sprintf("Stats for %s", w.session.Username)),
		"",
		renderSummaryCards(w.tracker.Summary(), w.width),
	}
	if w.tracker.Err() != nil {
		sections = append(sections, errorStyle.Render("Last refresh failed: "+w.tracker.Err().Error()))
	}
	if trend := stats.WPMTrend(w.tracker.Results(), trendWindow, max(10, w.width-4)); trend != "" {
		sections = append(sections, "", cardTitleStyle.Render("WPM trend"), trend)
	}
	sections = append(sections, "", headerStyle.Render(fmt.Sprintf("refreshing every %s · [r] refresh · [q] quit", w.interval)))
	return strings.Join(sections, "\n")
}
