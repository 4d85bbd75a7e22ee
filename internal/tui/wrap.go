package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes lays out the sample words. Finished words take the style of
// their mark, the current word is compared rune by rune against input, and the
// rest is pending. Input running past the current word is shown as overflow.
func buildStyledRunes(words []string, marks []bool, current int, input []rune) []styledRune {
	out := make([]styledRune, 0, len(words)*6)
	for i, word := range words {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		switch {
		case i < current:
			style := incorrectStyle
			if i < len(marks) && marks[i] {
				style = correctStyle
			}
			out = appendWord(out, []rune(word), style)
		case i == current:
			out = appendCurrentWord(out, []rune(word), input)
		default:
			out = appendWord(out, []rune(word), pendingStyle)
		}
	}
	return out
}

func appendWord(out []styledRune, word []rune, style lipgloss.Style) []styledRune {
	for _, r := range word {
		out = append(out, newStyledRune(r, style))
	}
	return out
}

func appendCurrentWord(out []styledRune, word, input []rune) []styledRune {
	for j, r := range word {
		style := currentWordStyle
		switch {
		case j < len(input) && input[j] == r:
			style = correctStyle
		case j < len(input):
			style = incorrectStyle
		case j == len(input):
			style = cursorStyle
		}
		out = append(out, newStyledRune(r, style))
	}
	if len(input) > len(word) {
		out = appendWord(out, input[len(word):], overflowStyle)
	}
	return out
}

func newStyledRune(r rune, style lipgloss.Style) styledRune {
	return styledRune{s: style.Render(string(r)), width: runewidth.RuneWidth(r)}
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits in width. A space
// falling on the break is dropped.
// Words longer than a line are split hard.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	flush := func(upTo int) {
		out.WriteString(renderStyledRunes(line[:upTo]))
		out.WriteByte('\n')
	}
	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			switch {
			case item.isSpace:
				flush(len(line))
				line = line[:0]
				i++
			case lastSpace >= 0:
				flush(lastSpace)
				line = append([]styledRune{}, line[lastSpace+1:]...)
			default:
				flush(len(line))
				line = line[:0]
			}
			lineWidth, lastSpace = measure(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

// measure returns the cell width of line and the index of its last space, or -1.
func measure(line []styledRune) (width, lastSpace int) {
	lastSpace = -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
