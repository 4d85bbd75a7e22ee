package pages

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

// trendWindow smooths the dashboard WPM trend.
const trendWindow = 3

// Home is the dashboard.
type Home struct {
	tracker    *stats.Tracker
	username   string
	difficulty model.Difficulty

	width  int
	height int
}

func newHome(tracker *stats.Tracker, difficulty model.Difficulty) *Home {
	if difficulty == "" {
		difficulty = model.DifficultyEasy
	}
	return &Home{tracker: tracker, difficulty: difficulty}
}

// Difficulty is the difficulty new tests start with.
func (h *Home) Difficulty() model.Difficulty {
	return h.difficulty
}

func (h *Home) setSize(width, height int) {
	h.width = width
	h.height = height
}

// Update handles the dashboard keys.
func (h *Home) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "d" {
		h.difficulty = h.difficulty.Next()
	}
	return nil
}

// View renders the summary cards, WPM trend and difficulty picker.
func (h *Home) View() string {
	name := h.username
	if name == "" {
		name = "typist"
	}
	sections := []string{
		brandStyle.Render(fmt.Sprintf("Welcome back, %s!", name)),
		"",
		renderSummaryCards(h.tracker.Summary(), h.width),
	}
	if h.tracker.Err() != nil {
		sections = append(sections, errorStyle.Render("Could not load your stats. Retrying..."))
	} else if !h.tracker.Loaded() {
		sections = append(sections, headerStyle.Render("Loading stats..."))
	}

	sections = append(sections, "", cardTitleStyle.Render("WPM trend"))
	trend := stats.WPMTrend(h.tracker.Results(), trendWindow, max(10, h.width-4))
	if trend == "" {
		trend = headerStyle.Render("No tests yet. Press t to take your first one.")
	}
	sections = append(sections, trend, "")
	sections = append(sections, fmt.Sprintf("Difficulty: %s", cardValueStyle.Render(string(h.difficulty))))
	sections = append(sections, headerStyle.Render("[t] start test   [d] change difficulty"))
	return strings.Join(sections, "\n")
}

func renderSummaryCards(s model.Summary, width int) string {
	cards := []string{
		metricCard("Tests Taken", fmt.Sprintf("%d", s.TestsTaken)),
		metricCard("Average WPM", fmt.Sprintf("%d", s.AverageWPM)),
		metricCard("Average Accuracy", fmt.Sprintf("%d%%", s.AverageAccuracy)),
		metricCard("Most Played", s.MostPlayedDifficulty),
	}
	if width > 0 && width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
