package pages

import (
	"context"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/stats"
	"github.com/verte-zerg/typemaster/internal/tui"
)

type screen int

const (
	screenLanding screen = iota
	screenHome
	screenHistory
	screenProfile
)

var navTabs = []struct {
	key    string
	label  string
	screen screen
}{
	{"1", "Dashboard", screenHome},
	{"2", "History", screenHistory},
	{"3", "Profile", screenProfile},
}

// Options configures an App.
type Options struct {
	Backend      Backend
	Sessions     SessionStore
	Session      model.Session
	Difficulty   model.Difficulty
	PollInterval time.Duration
	AlertDelay   time.Duration
	Logger       *log.Logger
	// Now is the clock used for relative times. Defaults to time.Now.
	Now func() time.Time
}

type loggedOutMsg struct {
	err error
}

// App is the root model. It owns the session, the stats tracker and the alert,
// and forwards messages to the active screen and the typing overlay.
type App struct {
	backend  Backend
	sessions SessionStore
	logger   *log.Logger

	session model.Session
	screen  screen

	tracker *stats.Tracker
	alert   *Alert
	landing *Landing
	home    *Home
	history *History
	profile *Profile
	overlay *tui.Model

	width  int
	height int
}

// NewApp builds the App. With an active session it opens on the dashboard.
func NewApp(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	tracker := stats.NewTracker(opts.Backend, opts.PollInterval, opts.Logger)
	a := &App{
		backend:  opts.Backend,
		sessions: opts.Sessions,
		logger:   opts.Logger,
		session:  opts.Session,
		tracker:  tracker,
		alert:    newAlert(opts.AlertDelay),
		landing:  newLanding(opts.Backend, opts.Sessions, opts.Logger),
		home:     newHome(tracker, opts.Difficulty),
		history:  newHistory(opts.Backend, opts.Logger, opts.Now),
		profile:  newProfile(opts.Backend, opts.Logger),
	}
	if opts.Session.Active() {
		a.screen = screenHome
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.session.Active() {
		return a.enter(a.session)
	}
	return nil
}

// Session returns the logged-in identity.
func (a *App) Session() model.Session {
	return a.session
}

// Overlay returns the open typing test, if any.
func (a *App) Overlay() *tui.Model {
	return a.overlay
}

func (a *App) enter(s model.Session) tea.Cmd {
	a.session = s
	a.home.username = s.Username
	a.screen = screenHome
	return a.tracker.SetSession(s)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	case LoggedInMsg:
		a.logger.Info("logged in", "user", msg.Session.Username)
		return a, a.enter(msg.Session)
	case loggedOutMsg:
		if msg.err != nil {
			a.logger.Error("clear session failed", "err", msg.err)
		}
		a.session = model.Session{}
		a.overlay = nil
		a.screen = screenLanding
		return a, tea.Batch(a.tracker.SetSession(model.Session{}), showAlert(alertInfo, "Logged out", 0))
	case tui.ClosedMsg:
		a.overlay = nil
		cmds := []tea.Cmd{a.tracker.Refresh()}
		if msg.Saved && a.screen == screenHistory {
			cmds = append(cmds, a.history.Load(a.session))
		}
		return a, tea.Batch(cmds...)
	}
	return a, a.broadcast(msg)
}

// broadcast hands non-key messages to every component. Each one ignores
// messages and timer fires it does not own.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	cmds := []tea.Cmd{
		a.tracker.Update(msg),
		a.alert.Update(msg),
		a.landing.Update(msg),
		a.home.Update(msg),
		a.history.Update(msg),
		a.profile.Update(msg),
	}
	if a.overlay != nil {
		_, cmd := a.overlay.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}
	if a.overlay != nil {
		_, cmd := a.overlay.Update(msg)
		return cmd
	}
	if a.screen == screenLanding {
		if !a.landing.Capturing() && msg.String() == "q" {
			return a.quit()
		}
		return a.landing.Update(msg)
	}
	if a.capturing() {
		return a.current().Update(msg)
	}
	switch msg.String() {
	case "q":
		return a.quit()
	case "t":
		return a.openTest()
	case "L":
		return a.logout()
	}
	for _, tab := range navTabs {
		if msg.String() == tab.key {
			return a.show(tab.screen)
		}
	}
	return a.current().Update(msg)
}

type page interface {
	Update(tea.Msg) tea.Cmd
	View() string
}

func (a *App) current() page {
	switch a.screen {
	case screenHistory:
		return a.history
	case screenProfile:
		return a.profile
	case screenLanding:
		return a.landing
	default:
		return a.home
	}
}

func (a *App) capturing() bool {
	switch a.screen {
	case screenHistory:
		return a.history.Capturing()
	case screenProfile:
		return a.profile.Capturing()
	case screenLanding:
		return a.landing.Capturing()
	}
	return false
}

func (a *App) show(s screen) tea.Cmd {
	a.screen = s
	switch s {
	case screenHistory:
		return a.history.Load(a.session)
	case screenProfile:
		return a.profile.Load(a.session)
	}
	return nil
}

func (a *App) openTest() tea.Cmd {
	a.overlay = tui.New(tui.Options{
		Fetcher:    a.backend,
		Saver:      a.backend,
		Session:    a.session,
		Difficulty: a.home.Difficulty(),
		Logger:     a.logger,
	})
	a.overlay.SetSize(a.width, a.bodyHeight())
	return a.overlay.Init()
}

func (a *App) logout() tea.Cmd {
	backend, sessions, s, logger := a.backend, a.sessions, a.session, a.logger
	a.tracker.Stop()
	return func() tea.Msg {
		ctx := context.Background()
		if err := backend.Logout(ctx, s); err != nil {
			logger.Warn("backend logout failed", "user", s.Username, "err", err)
		}
		return loggedOutMsg{err: sessions.End(ctx)}
	}
}

func (a *App) quit() tea.Cmd {
	a.tracker.Stop()
	return tea.Quit
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.landing.setSize(width, height-1)
	body := a.bodyHeight()
	a.home.setSize(width, body)
	a.history.setSize(width, body)
	a.profile.setSize(width, body)
	if a.overlay != nil {
		a.overlay.SetSize(width, body)
	}
}

func (a *App) navHeight() int {
	return lipgloss.Height(activeNavStyle.Render("X"))
}

// bodyHeight leaves room for the nav bar, the alert line and the help line.
func (a *App) bodyHeight() int {
	return max(1, a.height-a.navHeight()-2)
}

// View implements tea.Model.
func (a *App) View() string {
	alert := a.alert.View()
	if a.screen == screenLanding {
		return fitLines(a.landing.View(), a.width, a.height-1) + "\n" + alert
	}
	var body string
	if a.overlay != nil {
		body = a.overlay.View()
	} else {
		body = a.current().View()
	}
	parts := []string{
		a.renderNav(),
		fitLines(body, a.width, a.bodyHeight()),
		padLine(alert, a.width),
		headerStyle.Render(truncateLine(a.helpLine(), a.width)),
	}
	return strings.Join(parts, "\n")
}

func (a *App) renderNav() string {
	parts := make([]string, 0, len(navTabs)+1)
	for _, tab := range navTabs {
		label := tab.key + " " + tab.label
		if tab.screen == a.screen {
			parts = append(parts, activeNavStyle.Render(label))
		} else {
			parts = append(parts, inactiveNavStyle.Render(label))
		}
	}
	user := headerStyle.Render("  signed in as " + a.session.Username)
	return lipgloss.JoinHorizontal(lipgloss.Center, append(parts, user)...)
}

func (a *App) helpLine() string {
	if a.overlay != nil {
		return "type the words · space next word · tab difficulty · ctrl+r restart · esc close"
	}
	return "1/2/3 switch · t test · L log out · q quit"
}
