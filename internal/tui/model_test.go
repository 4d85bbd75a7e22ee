package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/schedule"
	"github.com/verte-zerg/typemaster/internal/typing"
)

type fakeFetcher struct {
	text  string
	err   error
	asked []model.Difficulty
}

func (f *fakeFetcher) TypingText(_ context.Context, d model.Difficulty) (string, error) {
	f.asked = append(f.asked, d)
	return f.text, f.err
}

type fakeSaver struct {
	subs []model.ResultSubmission
	err  error
}

func (f *fakeSaver) SaveResult(_ context.Context, _ model.Session, sub model.ResultSubmission) error {
	f.subs = append(f.subs, sub)
	return f.err
}

// runCmd executes cmd and flattens batches. The countdown uses a tiny Tick in tests.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// feed dispatches the results of cmd back into m, skipping timer messages.
func feed(m *Model, cmd tea.Cmd) []tea.Msg {
	var rest []tea.Msg
	for _, msg := range runCmd(cmd) {
		switch msg.(type) {
		case textLoadedMsg, savedMsg:
			_, next := m.Update(msg)
			rest = append(rest, feed(m, next)...)
		default:
			rest = append(rest, msg)
		}
	}
	return rest
}

func newTestModel(t *testing.T, text string) (*Model, *fakeFetcher, *fakeSaver) {
	t.Helper()
	fetcher := &fakeFetcher{text: text}
	saver := &fakeSaver{}
	m := New(Options{
		Fetcher:    fetcher,
		Saver:      saver,
		Session:    model.Session{Username: "alice", Token: "tok"},
		Difficulty: model.DifficultyEasy,
		Tick:       time.Millisecond,
	})
	feed(m, m.Init())
	if m.Snapshot().SampleText != text {
		t.Fatalf("expected text to load, got %q", m.Snapshot().SampleText)
	}
	return m, fetcher, saver
}

func typeWord(m *Model, word string) tea.Cmd {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(word)})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	return cmd
}

func fireCountdown(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	msg, ok := m.countdown.Pending()
	if !ok {
		t.Fatalf("expected countdown armed")
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestFirstWordStartsCountdown(t *testing.T) {
	m, _, _ := newTestModel(t, "cat dog bird")
	if m.CountdownActive() {
		t.Fatalf("countdown must wait for the first word")
	}
	if cmd := typeWord(m, "cat"); cmd == nil {
		t.Fatalf("expected countdown command")
	}
	if !m.CountdownActive() {
		t.Fatalf("expected countdown armed")
	}
	fireCountdown(t, m)
	if got := m.Snapshot().TimeRemaining; got != typing.TestSeconds-1 {
		t.Fatalf("expected one second elapsed, got %d", got)
	}
}

func TestExpirySubmitsOnce(t *testing.T) {
	m, _, saver := newTestModel(t, "cat dog bird")
	typeWord(m, "cat")
	typeWord(m, "dgo")
	var last tea.Cmd
	for i := 0; i < typing.TestSeconds; i++ {
		last = fireCountdown(t, m)
	}
	feed(m, last)
	if m.CountdownActive() {
		t.Fatalf("countdown must stop at zero")
	}
	if len(saver.subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(saver.subs))
	}
	want := model.ResultSubmission{Username: "alice", WPM: 1, Accuracy: 50, Duration: 60, Difficulty: model.DifficultyEasy}
	if saver.subs[0] != want {
		t.Fatalf("unexpected submission %+v", saver.subs[0])
	}
	if !strings.Contains(m.View(), "saved") {
		t.Fatalf("expected saved note in view")
	}
	feed(m, typeWord(m, "bird"))
	if len(saver.subs) != 1 {
		t.Fatalf("ended test must not submit again")
	}
}

func TestCompletingTextSubmits(t *testing.T) {
	m, _, saver := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	fireCountdown(t, m)
	fireCountdown(t, m)
	feed(m, typeWord(m, "dog"))
	if len(saver.subs) != 1 || saver.subs[0].Duration != 2 || saver.subs[0].WPM != 2 {
		t.Fatalf("unexpected submissions %+v", saver.subs)
	}
	if m.CountdownActive() {
		t.Fatalf("countdown must stop when the text is done")
	}
	if !strings.Contains(m.View(), "Test finished!") {
		t.Fatalf("expected result in view")
	}
}

func TestSaveFailureKeepsScore(t *testing.T) {
	m, _, saver := newTestModel(t, "cat")
	saver.err = errors.New("boom")
	feed(m, typeWord(m, "cat"))
	view := m.View()
	if !strings.Contains(view, "result not saved") || !strings.Contains(view, "1 WPM") {
		t.Fatalf("expected score and failure note, got %q", view)
	}
}

func TestWithoutSessionSkipsSave(t *testing.T) {
	fetcher := &fakeFetcher{text: "cat"}
	saver := &fakeSaver{}
	m := New(Options{Fetcher: fetcher, Saver: saver, Tick: time.Millisecond})
	feed(m, m.Init())
	feed(m, typeWord(m, "cat"))
	if len(saver.subs) != 0 {
		t.Fatalf("anonymous run must not submit")
	}
	if !strings.Contains(m.View(), "not logged in") {
		t.Fatalf("expected anonymous note")
	}
}

func TestTabChangesDifficulty(t *testing.T) {
	m, fetcher, _ := newTestModel(t, "cat dog")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	feed(m, cmd)
	if m.Snapshot().Difficulty != model.DifficultyMedium {
		t.Fatalf("expected Medium, got %s", m.Snapshot().Difficulty)
	}
	if got := fetcher.asked[len(fetcher.asked)-1]; got != model.DifficultyMedium {
		t.Fatalf("expected refetch for Medium, got %s", got)
	}
}

func TestRestartResets(t *testing.T) {
	m, _, _ := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.CountdownActive() {
		t.Fatalf("restart must cancel the countdown")
	}
	feed(m, cmd)
	snap := m.Snapshot()
	if snap.State != typing.StateAwaiting || snap.CurrentWordIndex != 0 || snap.TimeRemaining != typing.TestSeconds {
		t.Fatalf("unexpected snapshot after restart %+v", snap)
	}
}

func TestEscClosesOverlay(t *testing.T) {
	m, _, _ := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	stale, _ := m.countdown.Pending()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %#v", msgs)
	}
	if _, ok := msgs[0].(ClosedMsg); !ok {
		t.Fatalf("expected ClosedMsg, got %#v", msgs[0])
	}
	if _, next := m.Update(stale); next != nil {
		t.Fatalf("countdown must be cancelled on close")
	}
	if m.Snapshot().TimeRemaining != typing.TestSeconds {
		t.Fatalf("cancelled tick must not count down")
	}
}

func TestEscQuitsStandalone(t *testing.T) {
	m := New(Options{Fetcher: &fakeFetcher{text: "cat"}, Standalone: true})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit in standalone mode")
	}
}

func TestFetchFailureShowsError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("offline")}
	m := New(Options{Fetcher: fetcher, Tick: time.Millisecond})
	feed(m, m.Init())
	if m.Snapshot().InputEnabled() {
		t.Fatalf("input must be disabled without a text")
	}
	if !strings.Contains(m.View(), "Could not load a text") {
		t.Fatalf("expected error in view")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	if m.Snapshot().Input != "" {
		t.Fatalf("input must be ignored")
	}
}

func TestForeignTimerIgnored(t *testing.T) {
	m, _, _ := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	poll := schedule.New("stats-poll", time.Second)
	poll.Start()
	foreign, _ := poll.Pending()
	if _, cmd := m.Update(foreign); cmd != nil {
		t.Fatalf("foreign timer must be ignored")
	}
}

func TestPreviousOverlayTickIgnored(t *testing.T) {
	old, _, _ := newTestModel(t, "cat dog")
	typeWord(old, "cat")
	stale, ok := old.PendingTick()
	if !ok {
		t.Fatalf("expected countdown armed")
	}

	m, _, _ := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	if _, cmd := m.Update(stale); cmd != nil {
		t.Fatalf("tick of another overlay must not re-arm the countdown")
	}
	if got := m.Snapshot().TimeRemaining; got != typing.TestSeconds {
		t.Fatalf("tick of another overlay moved the countdown to %d", got)
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m, _, _ := newTestModel(t, "cat dog")
	typeWord(m, "cat")
	for i := 0; i < 30; i++ {
		fireCountdown(t, m)
	}
	out := m.renderFooter(m.Snapshot())
	for _, want := range []string{"Time 30s", "WPM 1", "Accuracy 100%", "50%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0.5, 4); got != "██░░" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(2, 2); got != "██" {
		t.Fatalf("bar must clamp, got %q", got)
	}
}
