package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Repetition methods, normalized from the host's enum names.
const (
	RepeatFixed                = "fixed"
	RepeatDueAfterCompletion   = "due-after-completion"
	RepeatStartAfterCompletion = "start-after-completion"
	RepeatNone                 = "none"
)

// RepetitionRule describes how a task repeats. Unit and Steps are derived from
// the host's RRULE string when the host only reports that.
type RepetitionRule struct {
	Unit       string `json:"unit"`
	Steps      int    `json:"steps"`
	Anchor     string `json:"anchor,omitempty"`
	Method     string `json:"method,omitempty"`
	RuleString string `json:"ruleString,omitempty"`
}

var unitToFreq = map[string]string{
	"minutes": "MINUTELY",
	"hours":   "HOURLY",
	"days":    "DAILY",
	"weeks":   "WEEKLY",
	"months":  "MONTHLY",
	"years":   "YEARLY",
}

// NormalizeUnit maps singular and abbreviated unit names to their canonical plural.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "minute", "minutes", "min", "mins":
		return "minutes"
	case "hour", "hours", "hr", "hrs":
		return "hours"
	case "day", "days", "daily":
		return "days"
	case "week", "weeks", "weekly":
		return "weeks"
	case "month", "months", "monthly":
		return "months"
	case "year", "years", "yearly", "annually":
		return "years"
	}
	return u
}

// IsValid reports whether the rule names a known unit and a positive step count.
func (r RepetitionRule) IsValid() bool {
	_, ok := unitToFreq[NormalizeUnit(r.Unit)]
	return ok && r.Steps > 0
}

// RRule renders the rule in the iCalendar subset the host accepts.
func (r RepetitionRule) RRule() (string, error) {
	if r.RuleString != "" && r.Unit == "" {
		return r.RuleString, nil
	}
	freq, ok := unitToFreq[NormalizeUnit(r.Unit)]
	if !ok {
		return "", fmt.Errorf("unknown repetition unit %q", r.Unit)
	}
	if r.Steps <= 0 {
		return "", fmt.Errorf("repetition steps must be positive, got %d", r.Steps)
	}
	return fmt.Sprintf("FREQ=%s;INTERVAL=%d", freq, r.Steps), nil
}

// ParseRRule extracts unit and steps from an RRULE string. INTERVAL defaults to 1.
func ParseRRule(rule string) (unit string, steps int) {
	steps = 1
	for _, part := range strings.Split(strings.TrimPrefix(strings.ToUpper(rule), "RRULE:"), ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch k {
		case "FREQ":
			for u, f := range unitToFreq {
				if f == v {
					unit = u
				}
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				steps = n
			}
		}
	}
	if unit == "" {
		steps = 0
	}
	return unit, steps
}

// NormalizeMethod maps host and caller spellings of the repetition method.
func NormalizeMethod(method string) string {
	m := strings.ToLower(strings.TrimSpace(method))
	m = strings.NewReplacer("_", "-", " ", "-").Replace(m)
	switch m {
	case "", "fixed", "fixed-repetition", "regularly":
		return RepeatFixed
	case "due-after-completion", "duedate", "due-date", "due":
		return RepeatDueAfterCompletion
	case "start-after-completion", "defer-after-completion", "deferuntildate", "defer-until-date", "defer", "start":
		return RepeatStartAfterCompletion
	case "none":
		return RepeatNone
	}
	return m
}

// UnitDays approximates a unit's length in days.
func UnitDays(unit string) float64 {
	switch NormalizeUnit(unit) {
	case "minutes":
		return 1.0 / (24 * 60)
	case "hours":
		return 1.0 / 24
	case "days":
		return 1
	case "weeks":
		return 7
	case "months":
		return 30
	case "years":
		return 365
	}
	return 0
}

// IntervalDays is the rule's period in days, or 0 for an invalid rule.
func (r RepetitionRule) IntervalDays() float64 {
	if r.Steps <= 0 {
		return 0
	}
	return float64(r.Steps) * UnitDays(r.Unit)
}
