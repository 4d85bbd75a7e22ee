package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Difficulty", "WPM", "Accuracy"}
	rows := [][]string{
		{"Easy", "97", "100%"},
		{"Medium", "8", "50%"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Difficulty WPM Accuracy" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Easy        97     100%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Medium       8      50%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable(nil, [][]string{{"日本", "x"}, {"ab", "y"}}, nil)
	if lines[0] != "日本 x" || lines[1] != "ab   y" {
		t.Fatalf("unexpected lines %q", lines)
	}
}
