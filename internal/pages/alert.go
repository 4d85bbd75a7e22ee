package pages

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemaster/internal/schedule"
)

// Alert display times.
const (
	DefaultAlertDelay = 3 * time.Second
	signupAlertDelay  = 3 * time.Second
	loginAlertDelay   = 1500 * time.Millisecond
)

type alertKind int

const (
	alertInfo alertKind = iota
	alertSuccess
	alertError
)

// alertMsg asks the App to show a transient message. A zero delay means the
// configured default.
type alertMsg struct {
	kind  alertKind
	text  string
	delay time.Duration
}

func showAlert(kind alertKind, text string, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		return alertMsg{kind: kind, text: text, delay: delay}
	}
}

func errorAlert(text string) tea.Cmd {
	return showAlert(alertError, text, 0)
}

// Alert is a single inline message that dismisses itself.
type Alert struct {
	task         *schedule.Task
	defaultDelay time.Duration
	kind         alertKind
	text         string
}

func newAlert(defaultDelay time.Duration) *Alert {
	if defaultDelay <= 0 {
		defaultDelay = DefaultAlertDelay
	}
	return &Alert{task: schedule.New("alert", defaultDelay), defaultDelay: defaultDelay}
}

// Show replaces the current message and restarts the dismiss timer.
func (a *Alert) Show(kind alertKind, text string, delay time.Duration) tea.Cmd {
	if delay <= 0 {
		delay = a.defaultDelay
	}
	a.kind = kind
	a.text = text
	return a.task.StartIn(delay)
}

// Update handles alert requests and the dismiss timer.
func (a *Alert) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case alertMsg:
		return a.Show(msg.kind, msg.text, msg.delay)
	case schedule.FireMsg:
		if a.task.Owns(msg) {
			a.task.Stop()
			a.text = ""
		}
	}
	return nil
}

// Text returns the visible message, if any.
func (a *Alert) Text() string {
	return a.text
}

// View renders the message in the colour of its kind.
func (a *Alert) View() string {
	if a.text == "" {
		return ""
	}
	switch a.kind {
	case alertSuccess:
		return successStyle.Render(a.text)
	case alertError:
		return errorStyle.Render(a.text)
	default:
		return infoStyle.Render(a.text)
	}
}
