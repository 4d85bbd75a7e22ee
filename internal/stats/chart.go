package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/typemaster/internal/model"
)

// ChartSeries is one named line of a chart.
type ChartSeries struct {
	Label  string
	Values []float64
}

// dashPattern decides which x positions of a series get dots.
type dashPattern struct {
	name   string
	period int
	on     int
}

func (p dashPattern) draws(x int) bool {
	if p.period <= 1 {
		return true
	}
	return abs(x)%p.period < p.on
}

const (
	defaultChartHeight = 8
	minChartWidth      = 10
	fallbackTermWidth  = 80
	axisTop            = "max"
	axisBottom         = "min"
	axisGap            = " │ "
)

var dashPatterns = []dashPattern{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

// ResultSeries returns the WPM and accuracy of results, oldest first.
func ResultSeries(results []model.TypingResult) []ChartSeries {
	ordered := Chronological(results)
	wpm := make([]float64, len(ordered))
	acc := make([]float64, len(ordered))
	for i, r := range ordered {
		wpm[i] = float64(r.WPM)
		acc[i] = float64(r.Accuracy)
	}
	return []ChartSeries{{Label: "WPM", Values: wpm}, {Label: "Accuracy", Values: acc}}
}

// RenderChart draws every series on a braille canvas, each scaled to its own range.
// A non-positive width fits the chart to the terminal.
func RenderChart(w io.Writer, title string, series []ChartSeries, width, height int) error {
	var visible []ChartSeries
	for _, s := range series {
		if len(s.Values) > 0 {
			visible = append(visible, s)
		}
	}
	if len(visible) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	if width <= 0 {
		width = ChartWidth(terminalWidth())
	}
	width = max(width, minChartWidth)

	c := newCanvas(width, height)
	ranges := make([][2]float64, len(visible))
	for si, s := range visible {
		values := resample(s.Values, width)
		lo, hi := bounds(values)
		if hi-lo < 1e-9 {
			lo, hi = lo-1, hi+1
		}
		ranges[si] = [2]float64{lo, hi}
		pattern := dashPatterns[si%len(dashPatterns)]
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, c.row(v, lo, hi)
			plot := func(dx, dy int) {
				if pattern.draws(dx) {
					c.set(dx, dy)
				}
			}
			if prevX < 0 {
				plot(px, py)
			} else {
				bresenham(prevX, prevY, px, py, plot)
			}
			prevX, prevY = px, py
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	for si, s := range visible {
		fmt.Fprintf(&b, "%s: %s, min %.0f max %.0f\n", s.Label, dashPatterns[si%len(dashPatterns)].name, ranges[si][0], ranges[si][1])
	}
	labelWidth := utf8.RuneCountInString(axisTop)
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = axisTop
		case height - 1:
			label = axisBottom
		}
		fmt.Fprintf(&b, "%*s%s", labelWidth, label, axisGap)
		for x := 0; x < width; x++ {
			b.WriteRune(rune(0x2800 + int(c.cells[y][x])))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// ChartWidth is the canvas width that fits next to the axis within totalWidth.
func ChartWidth(totalWidth int) int {
	axis := utf8.RuneCountInString(axisTop) + utf8.RuneCountInString(axisGap)
	return max(totalWidth-axis, minChartWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

// canvas is a grid of braille cells, each holding 2x4 dots.
type canvas struct {
	cells  [][]uint8
	height int
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells, height: height}
}

// row maps v onto a dot row, top being hi.
func (c *canvas) row(v, lo, hi float64) int {
	dots := c.height * 4
	pos := (v - lo) / (hi - lo)
	r := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(r, dots-1))
}

// Dot bits of a braille cell by column then row.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(c.cells) || cx >= len(c.cells[cy]) {
		return
	}
	c.cells[cy][cx] |= brailleBits[x%2][y%4]
}

// resample stretches or shrinks values to n points. Shrinking averages buckets,
// stretching interpolates linearly.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == n:
		copy(out, values)
	case len(values) > n:
		for i := range out {
			start := i * len(values) / n
			end := max((i+1)*len(values)/n, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		last := len(values) - 1
		for i := range out {
			pos := float64(i) * float64(last) / float64(n-1)
			idx := min(int(pos), last-1)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
