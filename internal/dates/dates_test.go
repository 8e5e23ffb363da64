package dates

import (
	"testing"
	"time"
)

// Wednesday.
var now = time.Date(2025, 6, 11, 15, 4, 30, 0, time.Local)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-07-01", "2025-07-01 00:00"},
		{"2025-07-01 09:30", "2025-07-01 09:30"},
		{"today", "2025-06-11 00:00"},
		{"Tomorrow", "2025-06-12 00:00"},
		{"tomorrow 17:00", "2025-06-12 17:00"},
		{"tomorrow 5pm", "2025-06-12 17:00"},
		{"today at 9am", "2025-06-11 09:00"},
		{"yesterday", "2025-06-10 00:00"},
		{"+3d", "2025-06-14 00:00"},
		{"-1w", "2025-06-04 00:00"},
		{"+1m", "2025-07-11 00:00"},
		{"in 2 weeks", "2025-06-25 00:00"},
		{"friday", "2025-06-13 00:00"},
		{"wednesday", "2025-06-18 00:00"},
		{"next monday", "2025-06-16 00:00"},
		{"next week", "2025-06-16 00:00"},
		{"next month", "2025-07-01 00:00"},
		{"eow", "2025-06-13 00:00"},
		{"eom", "2025-06-30 00:00"},
		{"now", "2025-06-11 15:04"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, now)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got.HostString() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got.HostString(), tt.want)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "someday", "tomorrow 25:00", "next", "2025-13-01", "today 13pm"} {
		if _, err := Parse(in, now); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestParsePtrEmpty(t *testing.T) {
	got, err := ParsePtr("  ", now)
	if got != nil || err != nil {
		t.Errorf("ParsePtr(blank) = %v, %v", got, err)
	}
}

func TestWindow(t *testing.T) {
	from, to := Window(now, 0, 7)
	if from.HostString() != "2025-06-11 00:00" || to.HostString() != "2025-06-18 00:00" {
		t.Errorf("Window() = %s, %s", from.HostString(), to.HostString())
	}
}
