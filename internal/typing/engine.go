// Package typing implements the timed typing-test state machine.
package typing

import (
	"math"
	"strings"

	"github.com/verte-zerg/typemaster/internal/model"
)

// TestSeconds is the length of one test.
const TestSeconds = 60

// State is the engine lifecycle stage.
type State int

// Engine states.
const (
	StateIdle State = iota
	StateAwaiting
	StateRunning
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TextRequest asks the caller to fetch a sample text.
// Seq identifies the request so late answers can be discarded.
type TextRequest struct {
	Seq        uint64
	Difficulty model.Difficulty
}

// Outcome is the score of a finished test.
type Outcome struct {
	WPM        int
	Accuracy   int
	Duration   int
	Difficulty model.Difficulty
}

// Submission builds the save body for username.
func (o Outcome) Submission(username string) model.ResultSubmission {
	return model.ResultSubmission{
		Username:   username,
		WPM:        o.WPM,
		Accuracy:   o.Accuracy,
		Duration:   o.Duration,
		Difficulty: o.Difficulty,
	}
}

// Event reports side effects of a space keystroke.
type Event struct {
	// TimerStarted is set when this keystroke moved the test to running.
	TimerStarted bool
	// Outcome is set when this keystroke ended the test.
	Outcome *Outcome
}

// Snapshot exposes every field of the engine for rendering.
type Snapshot struct {
	State            State
	Difficulty       model.Difficulty
	SampleText       string
	Words            []string
	Marks            []bool
	CurrentWordIndex int
	CorrectWordCount int
	Input            string
	TimeRemaining    int
	Started          bool
	Running          bool
	Loading          bool
	WPM              int
	Accuracy         int
	Outcome          *Outcome
}

// InputEnabled reports whether keystrokes are accepted.
func (s Snapshot) InputEnabled() bool {
	return s.CurrentWordIndex < len(s.Words) && (s.State == StateAwaiting || s.State == StateRunning)
}

// Engine owns one typing attempt at a time. It is not safe for concurrent use.
type Engine struct {
	state      State
	difficulty model.Difficulty

	sampleText string
	words      []string
	marks      []bool

	currentWordIndex int
	correctWordCount int
	input            []rune

	timeRemaining int
	started       bool
	running       bool

	seq     uint64
	loading bool
	outcome *Outcome
}

// NewEngine returns an idle engine.
func NewEngine(difficulty model.Difficulty) *Engine {
	if difficulty == "" {
		difficulty = model.DifficultyEasy
	}
	return &Engine{
		state:         StateIdle,
		difficulty:    difficulty,
		timeRemaining: TestSeconds,
	}
}

// Start resets the attempt and requests a fresh text.
func (e *Engine) Start() TextRequest {
	e.state = StateAwaiting
	e.sampleText = ""
	e.words = nil
	e.marks = nil
	e.currentWordIndex = 0
	e.correctWordCount = 0
	e.input = nil
	e.timeRemaining = TestSeconds
	e.started = false
	e.running = false
	e.outcome = nil
	return e.request()
}

// SetDifficulty switches difficulty and requests a text for it.
// Counters and the timer are left alone.
func (e *Engine) SetDifficulty(d model.Difficulty) TextRequest {
	e.difficulty = d
	e.input = nil
	return e.request()
}

func (e *Engine) request() TextRequest {
	e.seq++
	e.loading = true
	return TextRequest{Seq: e.seq, Difficulty: e.difficulty}
}

// ApplyText installs the answer to req. Stale answers are ignored and reported false.
// A failed fetch leaves the text empty, which disables input.
func (e *Engine) ApplyText(req TextRequest, text string, err error) bool {
	if req.Seq != e.seq {
		return false
	}
	e.loading = false
	if err != nil {
		text = ""
	}
	fresh := strings.Fields(text)
	if e.currentWordIndex > 0 {
		// Words already typed keep their place so the counters stay valid.
		typed := append([]string(nil), e.words[:e.currentWordIndex]...)
		e.words = append(typed, fresh...)
		e.sampleText = strings.Join(e.words, " ")
		return true
	}
	e.sampleText = strings.Join(fresh, " ")
	e.words = fresh
	return true
}

// acceptsInput needs a word left to type. A failed fetch mid-run leaves only
// the typed prefix, so input stays disabled until the timer ends the test.
func (e *Engine) acceptsInput() bool {
	return e.currentWordIndex < len(e.words) && (e.state == StateAwaiting || e.state == StateRunning)
}

// TypeRunes appends printable input to the current word.
func (e *Engine) TypeRunes(runes []rune) {
	if !e.acceptsInput() {
		return
	}
	for _, r := range runes {
		if r == ' ' {
			continue
		}
		e.input = append(e.input, r)
	}
}

// Backspace removes the last typed rune of the current word.
func (e *Engine) Backspace() {
	if !e.acceptsInput() || len(e.input) == 0 {
		return
	}
	e.input = e.input[:len(e.input)-1]
}

// Space closes the current word.
func (e *Engine) Space() Event {
	var ev Event
	if !e.acceptsInput() {
		return ev
	}
	typed := strings.TrimSpace(string(e.input))
	if e.state == StateAwaiting {
		if typed == "" {
			return ev
		}
		e.state = StateRunning
		e.started = true
		e.running = true
		ev.TimerStarted = true
	}
	if e.currentWordIndex >= len(e.words) {
		return ev
	}

	correct := typed == e.words[e.currentWordIndex]
	if correct {
		e.correctWordCount++
	}
	e.marks = append(e.marks, correct)
	e.currentWordIndex++
	e.input = nil

	if e.currentWordIndex >= len(e.words) {
		ev.Outcome = e.end(TestSeconds - e.timeRemaining)
	}
	return ev
}

// Tick advances the countdown by one second and ends the test at zero.
func (e *Engine) Tick() *Outcome {
	if !e.running || e.timeRemaining <= 0 {
		return nil
	}
	e.timeRemaining--
	if e.timeRemaining == 0 {
		return e.end(TestSeconds)
	}
	return nil
}

func (e *Engine) end(elapsed int) *Outcome {
	if e.state == StateEnded {
		return nil
	}
	e.state = StateEnded
	e.running = false
	outcome := Outcome{
		WPM:        e.wpm(),
		Accuracy:   e.accuracy(),
		Duration:   elapsed,
		Difficulty: e.difficulty,
	}
	e.outcome = &outcome
	return &outcome
}

// The test lasts one minute, so the correct-word count is reported as WPM.
func (e *Engine) wpm() int {
	return e.correctWordCount
}

func (e *Engine) accuracy() int {
	if e.currentWordIndex == 0 {
		return 100
	}
	return int(math.Round(100 * float64(e.correctWordCount) / float64(e.currentWordIndex)))
}

// Difficulty returns the selected difficulty.
func (e *Engine) Difficulty() model.Difficulty {
	return e.difficulty
}

// State returns the lifecycle stage.
func (e *Engine) State() State {
	return e.state
}

// Snapshot copies the engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:            e.state,
		Difficulty:       e.difficulty,
		SampleText:       e.sampleText,
		Words:            append([]string(nil), e.words...),
		Marks:            append([]bool(nil), e.marks...),
		CurrentWordIndex: e.currentWordIndex,
		CorrectWordCount: e.correctWordCount,
		Input:            string(e.input),
		TimeRemaining:    e.timeRemaining,
		Started:          e.started,
		Running:          e.running,
		Loading:          e.loading,
		WPM:              e.wpm(),
		Accuracy:         e.accuracy(),
		Outcome:          e.outcomeCopy(),
	}
}

func (e *Engine) outcomeCopy() *Outcome {
	if e.outcome == nil {
		return nil
	}
	o := *e.outcome
	return &o
}
