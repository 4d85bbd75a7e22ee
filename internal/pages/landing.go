package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/api"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/session"
)

type landingMode int

const (
	landingMenu landingMode = iota
	landingLogin
	landingSignup
)

// Form field indexes.
const (
	fieldUsername = iota
	fieldPassword
	fieldConfirm
)

var errSaveSession = errors.New("could not save session")

// LoggedInMsg is emitted once a login was accepted and persisted.
type LoggedInMsg struct {
	Session model.Session
}

type loginDoneMsg struct {
	session model.Session
	err     error
}

type signupDoneMsg struct {
	username string
	err      error
}

// Landing is the logged-out screen with the login and signup forms.
type Landing struct {
	backend  Backend
	sessions SessionStore
	logger   *log.Logger

	mode      landingMode
	inputs    []textinput.Model
	focus     int
	inlineErr string
	busy      bool

	width  int
	height int
}

func newLanding(backend Backend, sessions SessionStore, logger *log.Logger) *Landing {
	return &Landing{backend: backend, sessions: sessions, logger: logger}
}

// Capturing reports whether a form has the keyboard.
func (l *Landing) Capturing() bool {
	return l.mode != landingMenu
}

func (l *Landing) setSize(width, height int) {
	l.width = width
	l.height = height
	for i := range l.inputs {
		l.inputs[i].Width = max(10, modalInnerWidth(width)-lipgloss.Width(l.inputs[i].Prompt)-1)
	}
}

func (l *Landing) openLogin(username string) tea.Cmd {
	l.mode = landingLogin
	l.inputs = []textinput.Model{
		newInput("Username: ", "your username"),
		newPasswordInput("Password: "),
	}
	l.inputs[fieldUsername].SetValue(username)
	return l.focusField(0, username != "")
}

func (l *Landing) openSignup() tea.Cmd {
	l.mode = landingSignup
	l.inputs = []textinput.Model{
		newInput("Username: ", "pick a username"),
		newPasswordInput("Password: "),
		newPasswordInput("Confirm:  "),
	}
	return l.focusField(0, false)
}

// focusField focuses idx, or the field after it when skip is set.
func (l *Landing) focusField(idx int, skip bool) tea.Cmd {
	if skip && idx+1 < len(l.inputs) {
		idx++
	}
	l.setSize(l.width, l.height)
	l.inlineErr = ""
	l.focus = idx
	for i := range l.inputs {
		l.inputs[i].Blur()
	}
	return l.inputs[idx].Focus()
}

func (l *Landing) closeForm() {
	l.mode = landingMenu
	l.inputs = nil
	l.inlineErr = ""
	l.busy = false
}

// Update routes keys to the forms and applies backend answers.
func (l *Landing) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginDoneMsg:
		l.busy = false
		if msg.err != nil {
			l.logger.Warn("login failed", "err", msg.err)
			return errorAlert(LoginMessage(msg.err))
		}
		l.closeForm()
		s := msg.session
		return tea.Batch(
			showAlert(alertSuccess, "Login successful!", loginAlertDelay),
			func() tea.Msg { return LoggedInMsg{Session: s} },
		)
	case signupDoneMsg:
		l.busy = false
		if msg.err != nil {
			l.logger.Warn("signup failed", "user", msg.username, "err", msg.err)
			return errorAlert(SignupMessage(msg.err))
		}
		return tea.Batch(
			showAlert(alertSuccess, "User created successfully!", signupAlertDelay),
			l.openLogin(msg.username),
		)
	case tea.KeyMsg:
		return l.handleKey(msg)
	}
	if l.mode == landingMenu {
		return nil
	}
	var cmd tea.Cmd
	l.inputs[l.focus], cmd = l.inputs[l.focus].Update(msg)
	return cmd
}

func (l *Landing) handleKey(msg tea.KeyMsg) tea.Cmd {
	if l.mode == landingMenu {
		switch msg.String() {
		case "l", "enter":
			return l.openLogin("")
		case "s":
			return l.openSignup()
		}
		return nil
	}
	if l.busy {
		return nil
	}
	switch msg.String() {
	case "esc":
		l.closeForm()
		return nil
	case "tab", "down":
		return l.focusField((l.focus+1)%len(l.inputs), false)
	case "shift+tab", "up":
		return l.focusField((l.focus+len(l.inputs)-1)%len(l.inputs), false)
	case "enter":
		if l.focus < len(l.inputs)-1 {
			return l.focusField(l.focus+1, false)
		}
		return l.submit()
	}
	var cmd tea.Cmd
	l.inputs[l.focus], cmd = l.inputs[l.focus].Update(msg)
	if l.inlineErr != "" && l.mode == landingSignup {
		l.inlineErr = ""
	}
	return cmd
}

func (l *Landing) value(field int) string {
	return l.inputs[field].Value()
}

func (l *Landing) submit() tea.Cmd {
	username := strings.TrimSpace(l.value(fieldUsername))
	password := l.value(fieldPassword)
	backend, sessions := l.backend, l.sessions

	if l.mode == landingLogin {
		if err := session.ValidateLogin(username, password); err != nil {
			return errorAlert("Please fill in all fields")
		}
		l.busy = true
		return func() tea.Msg {
			ctx := context.Background()
			s, err := backend.Login(ctx, username, password)
			if err != nil {
				return loginDoneMsg{err: err}
			}
			if err := sessions.Begin(ctx, s); err != nil {
				return loginDoneMsg{err: fmt.Errorf("%w: %v", errSaveSession, err)}
			}
			return loginDoneMsg{session: s}
		}
	}

	switch err := session.ValidateSignup(username, password, l.value(fieldConfirm)); {
	case errors.Is(err, session.ErrPasswordMismatch):
		l.inlineErr = "Passwords do not match!"
		return nil
	case err != nil:
		return errorAlert("Please fill in all fields")
	}
	l.inlineErr = ""
	l.busy = true
	return func() tea.Msg {
		return signupDoneMsg{username: username, err: backend.Signup(context.Background(), username, password)}
	}
}

// LoginMessage picks the alert text for a failed login.
func LoginMessage(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	case errors.Is(err, errSaveSession):
		return "Could not save session"
	case api.IsNetwork(err):
		return "Network error"
	}
	return "Invalid username or password"
}

// SignupMessage picks the alert text for a failed signup.
func SignupMessage(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Field("username") != "":
		return apiErr.Field("username")
	case api.IsNetwork(err):
		return "Network error"
	}
	return "Error creating user"
}

// View renders the menu, or the open form as a modal.
func (l *Landing) View() string {
	if l.mode == landingMenu {
		body := []string{
			brandStyle.Render("TypeMaster"),
			"",
			"Test your typing speed and track your progress.",
			"",
			headerStyle.Render("[l] Log in   [s] Sign up   [q] Quit"),
		}
		content := strings.Join(body, "\n")
		if l.width <= 0 || l.height <= 0 {
			return content
		}
		return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, content)
	}

	title := "Log in"
	if l.mode == landingSignup {
		title = "Sign up"
	}
	body := []string{cardValueStyle.Render(title), ""}
	for _, input := range l.inputs {
		body = append(body, input.View())
	}
	if l.inlineErr != "" {
		body = append(body, errorStyle.Render(l.inlineErr))
	}
	body = append(body, "")
	if l.busy {
		body = append(body, headerStyle.Render("Please wait..."))
	} else {
		body = append(body, headerStyle.Render("enter next/submit · tab switch field · esc back"))
	}
	return renderModal(modalStyle, body, l.width, l.height)
}
