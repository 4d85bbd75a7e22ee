// Package tui provides the Bubble Tea typing-test overlay.
package tui

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/schedule"
	"github.com/verte-zerg/typemaster/internal/typing"
)

const progressWidth = 20

// TextFetcher loads a sample text for a difficulty.
type TextFetcher interface {
	TypingText(ctx context.Context, difficulty model.Difficulty) (string, error)
}

// ResultSaver stores a finished test.
type ResultSaver interface {
	SaveResult(ctx context.Context, s model.Session, sub model.ResultSubmission) error
}

// Options configures a Model.
type Options struct {
	Fetcher    TextFetcher
	Saver      ResultSaver
	Session    model.Session
	Difficulty model.Difficulty
	Logger     *log.Logger
	// Standalone makes esc quit the program instead of closing the overlay.
	Standalone bool
	// Tick overrides the countdown step. Defaults to one second.
	Tick time.Duration
}

// ClosedMsg tells the parent that the overlay was dismissed.
type ClosedMsg struct {
	// Saved is set when a result of this overlay reached the backend.
	Saved bool
}

type textLoadedMsg struct {
	req  typing.TextRequest
	text string
	err  error
}

type savedMsg struct {
	err error
}

type saveState int

const (
	saveNone saveState = iota
	saveSkipped
	saving
	saveDone
	saveFailed
)

// Model implements the typing-test overlay.
type Model struct {
	engine     *typing.Engine
	fetcher    TextFetcher
	saver      ResultSaver
	session    model.Session
	logger     *log.Logger
	standalone bool

	countdown *schedule.Task
	spinner   spinner.Model

	width  int
	height int

	fetchErr  error
	save      saveState
	everSaved bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	overflowStyle    = incorrectStyle.Strikethrough(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	resultStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7CB342"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// New constructs an overlay. Call Init, or Start, to request the first text.
func New(opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	return &Model{
		engine:     typing.NewEngine(opts.Difficulty),
		fetcher:    opts.Fetcher,
		saver:      opts.Saver,
		session:    opts.Session,
		logger:     opts.Logger,
		standalone: opts.Standalone,
		countdown:  schedule.New("countdown", opts.Tick),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle)),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.Start()
}

// Start resets the test and fetches a new text.
func (m *Model) Start() tea.Cmd {
	m.countdown.Stop()
	m.fetchErr = nil
	m.save = saveNone
	return tea.Batch(m.fetch(m.engine.Start()), m.spinner.Tick)
}

// SetSize sets the area available to the overlay.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Snapshot exposes the engine state.
func (m *Model) Snapshot() typing.Snapshot {
	return m.engine.Snapshot()
}

// CountdownActive reports whether the one-second countdown is armed.
func (m *Model) CountdownActive() bool {
	return m.countdown.Active()
}

// PendingTick returns the countdown fire currently in flight.
func (m *Model) PendingTick() (schedule.FireMsg, bool) {
	return m.countdown.Pending()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case textLoadedMsg:
		if !m.engine.ApplyText(msg.req, msg.text, msg.err) {
			return m, nil
		}
		m.fetchErr = msg.err
		if msg.err != nil {
			m.logger.Error("fetch typing text failed", "difficulty", msg.req.Difficulty, "err", msg.err)
		}
		return m, nil
	case schedule.FireMsg:
		if !m.countdown.Owns(msg) {
			return m, nil
		}
		if outcome := m.engine.Tick(); outcome != nil {
			m.countdown.Stop()
			return m, m.submit(*outcome)
		}
		return m, m.countdown.Next()
	case savedMsg:
		if msg.err != nil {
			m.save = saveFailed
			m.logger.Error("save result failed", "user", m.session.Username, "err", msg.err)
			return m, nil
		}
		m.save = saveDone
		m.everSaved = true
		return m, nil
	case spinner.TickMsg:
		if !m.engine.Snapshot().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.countdown.Stop()
		return tea.Quit
	case tea.KeyEsc:
		m.countdown.Stop()
		if m.standalone {
			return tea.Quit
		}
		saved := m.everSaved
		return func() tea.Msg { return ClosedMsg{Saved: saved} }
	case tea.KeyCtrlR:
		return m.Start()
	case tea.KeyTab:
		m.fetchErr = nil
		return tea.Batch(m.fetch(m.engine.SetDifficulty(m.engine.Difficulty().Next())), m.spinner.Tick)
	case tea.KeyBackspace:
		m.engine.Backspace()
	case tea.KeySpace:
		ev := m.engine.Space()
		var cmds []tea.Cmd
		if ev.TimerStarted {
			cmds = append(cmds, m.countdown.Start())
		}
		if ev.Outcome != nil {
			m.countdown.Stop()
			cmds = append(cmds, m.submit(*ev.Outcome))
		}
		return tea.Batch(cmds...)
	case tea.KeyRunes:
		m.engine.TypeRunes(msg.Runes)
	}
	return nil
}

func (m *Model) fetch(req typing.TextRequest) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		text, err := fetcher.TypingText(context.Background(), req.Difficulty)
		return textLoadedMsg{req: req, text: text, err: err}
	}
}

func (m *Model) submit(outcome typing.Outcome) tea.Cmd {
	m.logger.Info("test finished", "wpm", outcome.WPM, "accuracy", outcome.Accuracy, "duration", outcome.Duration)
	if m.saver == nil || !m.session.Active() {
		m.save = saveSkipped
		return nil
	}
	m.save = saving
	saver, s := m.saver, m.session
	sub := outcome.Submission(s.Username)
	return func() tea.Msg {
		return savedMsg{err: saver.SaveResult(context.Background(), s, sub)}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.engine.Snapshot()
	contentWidth := m.width * 7 / 10

	sections := []string{titleStyle.Render(fmt.Sprintf("Typing Test · %s", snap.Difficulty)), ""}
	sections = append(sections, m.renderText(snap, contentWidth), "")
	if snap.InputEnabled() {
		sections = append(sections, pendingStyle.Render("> ")+snap.Input)
	}
	if snap.State == typing.StateEnded && snap.Outcome != nil {
		sections = append(sections, m.renderResult(*snap.Outcome))
	}
	content := strings.Join(sections, "\n")
	if contentWidth > 0 {
		content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	}

	footer := m.renderFooter(snap)
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderText(snap typing.Snapshot, width int) string {
	switch {
	case snap.SampleText == "" && snap.Loading:
		return m.spinner.View() + " Loading text..."
	case snap.SampleText == "" && m.fetchErr != nil:
		return errorStyle.Render("Could not load a text. Press ctrl+r to retry.")
	case snap.SampleText == "":
		return pendingStyle.Render("No text available. Press ctrl+r to retry.")
	}
	runes := buildStyledRunes(snap.Words, snap.Marks, snap.CurrentWordIndex, []rune(snap.Input))
	return wrapStyledRunes(runes, width)
}

func (m *Model) renderResult(o typing.Outcome) string {
	line := resultStyle.Render(fmt.Sprintf("Test finished! %d WPM · %d%% accuracy · %ds", o.WPM, o.Accuracy, o.Duration))
	return line + "\n" + footerStyle.Render("ctrl+r restart · esc close")
}

func (m *Model) renderFooter(snap typing.Snapshot) string {
	elapsed := float64(typing.TestSeconds-snap.TimeRemaining) / float64(typing.TestSeconds)
	segments := []string{
		fmt.Sprintf("Time %ds", snap.TimeRemaining),
		fmt.Sprintf("WPM %d", snap.WPM),
		fmt.Sprintf("Accuracy %d%%", snap.Accuracy),
		fmt.Sprintf("%s %d%%", progressBar(elapsed, progressWidth), int(math.Round(elapsed*100))),
	}
	switch m.save {
	case saving:
		segments = append(segments, "saving...")
	case saveDone:
		segments = append(segments, "saved")
	case saveFailed:
		segments = append(segments, "result not saved")
	case saveSkipped:
		segments = append(segments, "not logged in, result not saved")
	}
	if snap.State != typing.StateEnded {
		segments = append(segments, "tab difficulty · ctrl+r restart · esc close")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func progressBar(fraction float64, width int) string {
	fraction = math.Max(0, math.Min(1, fraction))
	filled := int(math.Round(fraction * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
