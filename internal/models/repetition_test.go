package models

import "testing"

func TestRepetitionRuleRRule(t *testing.T) {
	tests := []struct {
		rule    RepetitionRule
		want    string
		wantErr bool
	}{
		{RepetitionRule{Unit: "weeks", Steps: 1}, "FREQ=WEEKLY;INTERVAL=1", false},
		{RepetitionRule{Unit: "Month", Steps: 3}, "FREQ=MONTHLY;INTERVAL=3", false},
		{RepetitionRule{RuleString: "FREQ=DAILY"}, "FREQ=DAILY", false},
		{RepetitionRule{Unit: "fortnights", Steps: 1}, "", true},
		{RepetitionRule{Unit: "days", Steps: 0}, "", true},
	}
	for _, tt := range tests {
		got, err := tt.rule.RRule()
		if (err != nil) != tt.wantErr {
			t.Errorf("RRule(%+v) error = %v, wantErr %v", tt.rule, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("RRule(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

func TestParseRRule(t *testing.T) {
	tests := []struct {
		in        string
		wantUnit  string
		wantSteps int
	}{
		{"FREQ=WEEKLY;INTERVAL=2", "weeks", 2},
		{"RRULE:FREQ=YEARLY", "years", 1},
		{"FREQ=DAILY;INTERVAL=0", "days", 1},
		{"garbage", "", 0},
	}
	for _, tt := range tests {
		unit, steps := ParseRRule(tt.in)
		if unit != tt.wantUnit || steps != tt.wantSteps {
			t.Errorf("ParseRRule(%q) = (%q, %d), want (%q, %d)", tt.in, unit, steps, tt.wantUnit, tt.wantSteps)
		}
	}
}

func TestNormalizeMethod(t *testing.T) {
	tests := map[string]string{
		"":                       RepeatFixed,
		"Fixed":                  RepeatFixed,
		"DueDate":                RepeatDueAfterCompletion,
		"start_after_completion": RepeatStartAfterCompletion,
		"DeferUntilDate":         RepeatStartAfterCompletion,
	}
	for in, want := range tests {
		if got := NormalizeMethod(in); got != want {
			t.Errorf("NormalizeMethod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-04 17:30")
	if err != nil {
		t.Fatalf("ParseTimestamp error = %v", err)
	}
	if ts.String() != "2025-03-04 17:30" {
		t.Errorf("String() = %q", ts.String())
	}
	day, _ := ParseTimestamp("2025-03-04")
	if day.String() != "2025-03-04" {
		t.Errorf("String() for midnight = %q, want date only", day.String())
	}
	if day.HostString() != "2025-03-04 00:00" {
		t.Errorf("HostString() = %q", day.HostString())
	}
	if _, err := ParseTimestamp("03/04/2025"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
