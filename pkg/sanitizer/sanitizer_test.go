package sanitizer

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Main Hall", "Main Hall"},
		{"collapses whitespace", "Main \t  Hall", "Main Hall"},
		{"trims", "  Main Hall  ", "Main Hall"},
		{"newlines become spaces", "Main\nHall", "Main Hall"},
		{"strips control characters", "Main\x00Hall", "MainHall"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	if got := Line("  some   note  ", 100); got != "some note" {
		t.Errorf("Line() = %q, want %q", got, "some note")
	}

	long := "aaaaaaaaaa"
	if got := Line(long, 4); got != "aaaa" {
		t.Errorf("Line() = %q, want %q", got, "aaaa")
	}

	if got := Line("abc   ", 0); got != "abc" {
		t.Errorf("Line() with no cap = %q, want %q", got, "abc")
	}
}
