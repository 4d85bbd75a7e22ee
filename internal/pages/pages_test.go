package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemaster/internal/model"
)

type fakeBackend struct {
	loginSession model.Session
	loginErr     error
	signupErr    error
	logoutErr    error
	results      []model.TypingResult
	listErr      error
	clearErr     error
	profile      model.ProfileStats
	profileErr   error
	updateErr    error

	signups []string
	logouts []model.Session
	cleared int
	updates []model.ProfileUpdate
	saved   []model.ResultSubmission
}

func (f *fakeBackend) Signup(_ context.Context, username, _ string) error {
	f.signups = append(f.signups, username)
	return f.signupErr
}

func (f *fakeBackend) Login(_ context.Context, username, _ string) (model.Session, error) {
	if f.loginErr != nil {
		return model.Session{}, f.loginErr
	}
	if f.loginSession.Username == "" {
		return model.Session{Username: username, Token: "tok"}, nil
	}
	return f.loginSession, nil
}

func (f *fakeBackend) Logout(_ context.Context, s model.Session) error {
	f.logouts = append(f.logouts, s)
	return f.logoutErr
}

func (f *fakeBackend) ListResults(context.Context, model.Session) ([]model.TypingResult, error) {
	return f.results, f.listErr
}

func (f *fakeBackend) SaveResult(_ context.Context, _ model.Session, sub model.ResultSubmission) error {
	f.saved = append(f.saved, sub)
	return nil
}

func (f *fakeBackend) ClearResults(context.Context, model.Session) error {
	f.cleared++
	return f.clearErr
}

func (f *fakeBackend) TypingText(context.Context, model.Difficulty) (string, error) {
	return "cat dog", nil
}

func (f *fakeBackend) Profile(context.Context, model.Session) (model.ProfileStats, error) {
	return f.profile, f.profileErr
}

func (f *fakeBackend) UpdateProfile(_ context.Context, s model.Session, update model.ProfileUpdate) (model.Profile, error) {
	f.updates = append(f.updates, update)
	if f.updateErr != nil {
		return model.Profile{}, f.updateErr
	}
	return model.Profile{Username: s.Username, Bio: update.Bio, AvatarRef: "/media/a.png"}, nil
}

func (f *fakeBackend) AvatarURL(ref string) string {
	return "http://backend" + ref
}

type fakeSessions struct {
	begun  []model.Session
	ended  int
	endErr error
}

func (f *fakeSessions) Begin(_ context.Context, s model.Session) error {
	f.begun = append(f.begun, s)
	return nil
}

func (f *fakeSessions) End(context.Context) error {
	f.ended++
	return f.endErr
}

// run executes cmd and flattens batches. Timer commands do not finish within the
// wait and are dropped, so nothing in a test sleeps for a poll interval.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, run(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// settle feeds the messages produced by cmd back into m until it goes quiet.
// It reports whether a quit was requested.
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) bool {
	t.Helper()
	queue := run(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatalf("model did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
		_, next := m.Update(msg)
		queue = append(queue, run(next)...)
	}
	return false
}

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) bool {
	t.Helper()
	quit := false
	for _, k := range keys {
		_, cmd := m.Update(k)
		if settle(t, m, cmd) {
			quit = true
		}
	}
	return quit
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func newTestApp(t *testing.T, backend *fakeBackend, sessions *fakeSessions, s model.Session) *App {
	t.Helper()
	a := NewApp(Options{
		Backend:      backend,
		Sessions:     sessions,
		Session:      s,
		PollInterval: time.Hour,
		AlertDelay:   time.Hour,
		Now:          func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	settle(t, a, a.Init())
	return a
}

var errBoom = errors.New("boom")
