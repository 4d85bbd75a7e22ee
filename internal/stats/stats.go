// Package stats contains result aggregation, the polling tracker and text reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/typemaster/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as one line of ASCII levels. When width is positive
// only the last width values are drawn.
func Sparkline(values []float64, width int) string {
	if width > 0 && len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	last := len(sparkChars) - 1
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Chronological returns a copy of results ordered oldest first.
func Chronological(results []model.TypingResult) []model.TypingResult {
	out := append([]model.TypingResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// WPMTrend draws the smoothed WPM history as a sparkline of at most width cells.
func WPMTrend(results []model.TypingResult, window, width int) string {
	ordered := Chronological(results)
	values := make([]float64, len(ordered))
	for i, r := range ordered {
		values[i] = float64(r.WPM)
	}
	return Sparkline(MovingAverage(values, window), width)
}

// RenderSummary prints the dashboard aggregates.
func RenderSummary(w io.Writer, s model.Summary) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests taken: %d", s.TestsTaken),
		fmt.Sprintf("Average WPM: %d", s.AverageWPM),
		fmt.Sprintf("Average accuracy: %d%%", s.AverageAccuracy),
		fmt.Sprintf("Most played: %s", s.MostPlayedDifficulty),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HistoryHeaders are the column titles of a result table.
var HistoryHeaders = []string{"#", "WPM", "Accuracy", "Duration", "Difficulty", "Created"}

// HistoryRows formats results as table cells, newest first.
func HistoryRows(results []model.TypingResult, now time.Time) [][]string {
	ordered := Chronological(results)
	rows := make([][]string, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		r := ordered[i]
		rows = append(rows, []string{
			fmt.Sprintf("%d", len(ordered)-i),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			fmt.Sprintf("%ds", r.Duration),
			string(r.Difficulty),
			Created(r.CreatedAt, now),
		})
	}
	return rows
}

// Created renders a result timestamp relative to now.
func Created(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// RenderHistory prints an aligned table of results.
func RenderHistory(w io.Writer, results []model.TypingResult, now time.Time) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No typing results yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Typing History"); err != nil {
		return err
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true}
	for _, line := range formatTable(HistoryHeaders, HistoryRows(results, now), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderProfile prints a profile with its best scores.
func RenderProfile(w io.Writer, p model.ProfileStats, avatarURL string) error {
	bio := p.Bio
	if strings.TrimSpace(bio) == "" {
		bio = "(no bio)"
	}
	if avatarURL == "" {
		avatarURL = "(none)"
	}
	preferred := p.PreferredDifficulty
	if preferred == "" {
		preferred = model.NoDifficulty
	}
	rows := [][]string{
		{"Username", p.Username},
		{"Bio", bio},
		{"Avatar", avatarURL},
		{"Best WPM", fmt.Sprintf("%d", p.BestWPM)},
		{"Best accuracy", fmt.Sprintf("%d%%", p.BestAccuracy)},
		{"Preferred difficulty", preferred},
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
