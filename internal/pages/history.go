package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/api"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
)

type historyLoadedMsg struct {
	gen     uint64
	results []model.TypingResult
	err     error
}

type historyClearedMsg struct {
	gen uint64
	err error
}

// History lists past results and clears them after confirmation.
type History struct {
	backend Backend
	logger  *log.Logger
	now     func() time.Time

	session    model.Session
	gen        uint64
	results    []model.TypingResult
	table      table.Model
	loading    bool
	confirming bool
	clearing   bool

	width  int
	height int
}

func newHistory(backend Backend, logger *log.Logger, now func() time.Time) *History {
	h := &History{backend: backend, logger: logger, now: now}
	h.table = table.New(
		table.WithColumns(historyColumns()),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	h.table.SetStyles(resultTableStyles())
	return h
}

func historyColumns() []table.Column {
	widths := []int{4, 5, 9, 9, 10, 16}
	cols := make([]table.Column, len(stats.HistoryHeaders))
	for i, title := range stats.HistoryHeaders {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

// Capturing reports whether the confirm modal has the keyboard.
func (h *History) Capturing() bool {
	return h.confirming
}

// Results returns the listed results.
func (h *History) Results() []model.TypingResult {
	return h.results
}

func (h *History) setSize(width, height int) {
	h.width = width
	h.height = height
	h.table.SetWidth(max(20, width))
	h.table.SetHeight(max(3, height-3))
}

// Load fetches the result list of s.
func (h *History) Load(s model.Session) tea.Cmd {
	h.session = s
	h.gen++
	h.loading = true
	h.confirming = false
	gen, backend := h.gen, h.backend
	return func() tea.Msg {
		results, err := backend.ListResults(context.Background(), s)
		return historyLoadedMsg{gen: gen, results: results, err: err}
	}
}

func (h *History) clear() tea.Cmd {
	h.clearing = true
	gen, backend, s := h.gen, h.backend, h.session
	return func() tea.Msg {
		return historyClearedMsg{gen: gen, err: backend.ClearResults(context.Background(), s)}
	}
}

func (h *History) setResults(results []model.TypingResult) {
	h.results = results
	rows := stats.HistoryRows(results, h.now())
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	h.table.SetRows(tableRows)
	h.table.GotoTop()
}

// Update applies backend answers and handles the list keys.
func (h *History) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.gen != h.gen {
			return nil
		}
		h.loading = false
		if msg.err != nil {
			h.logger.Error("fetch typing history failed", "user", h.session.Username, "err", msg.err)
			h.setResults(nil)
			return errorAlert(api.UserMessage(msg.err, "Failed to fetch typing history"))
		}
		h.setResults(msg.results)
		return nil
	case historyClearedMsg:
		if msg.gen != h.gen {
			return nil
		}
		h.clearing = false
		h.confirming = false
		if msg.err != nil {
			h.logger.Error("clear history failed", "user", h.session.Username, "err", msg.err)
			return errorAlert(api.UserMessage(msg.err, "Failed to clear history"))
		}
		h.setResults(nil)
		return showAlert(alertSuccess, "History cleared", 0)
	case tea.KeyMsg:
		return h.handleKey(msg)
	}
	return nil
}

func (h *History) handleKey(msg tea.KeyMsg) tea.Cmd {
	if h.confirming {
		if h.clearing {
			return nil
		}
		switch msg.String() {
		case "y", "enter":
			return h.clear()
		case "n", "esc":
			h.confirming = false
		}
		return nil
	}
	switch msg.String() {
	case "c":
		h.confirming = true
		return nil
	case "r":
		return h.Load(h.session)
	}
	var cmd tea.Cmd
	h.table, cmd = h.table.Update(msg)
	return cmd
}

// View renders the table, or the confirm modal on top of the page.
func (h *History) View() string {
	if h.confirming {
		body := []string{
			errorStyle.Bold(true).Render("Confirm Delete"),
			"",
			"Are you sure you want to clear your typing history?",
			"This action cannot be undone.",
			"",
		}
		if h.clearing {
			body = append(body, headerStyle.Render("Deleting..."))
		} else {
			body = append(body, headerStyle.Render("[y] delete   [n] cancel"))
		}
		return renderModal(dangerModalStyle, body, h.width, h.height)
	}

	title := brandStyle.Render(fmt.Sprintf("Typing History (%d)", len(h.results)))
	var body string
	switch {
	case h.loading:
		body = headerStyle.Render("Loading typing history...")
	case len(h.results) == 0:
		body = headerStyle.Render("No typing history yet. Take a test to get started!")
	default:
		body = tableMutedStyle.Render(h.table.View())
	}
	help := headerStyle.Render(truncateLine("up/down scroll · [c] clear history · [r] reload", h.width))
	return strings.Join([]string{title, "", body, "", help}, "\n")
}
