// Package dates parses the date expressions accepted on the command line and
// in tool arguments: host timestamps plus a few relative forms such as
// "tomorrow", "+3d", "next friday" and "eom 17:00".
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

var (
	offsetRe = regexp.MustCompile(`^([+-]\d+)\s*([dwmy])$`)
	inRe     = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months|year|years)$`)
	clockRe  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Parse resolves s relative to now. Relative day expressions resolve to local
// midnight unless a clock time follows them.
func Parse(s string, now time.Time) (models.Timestamp, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return models.Timestamp{}, fmt.Errorf("empty date")
	}
	if ts, err := models.ParseTimestamp(in); err == nil {
		return ts, nil
	}
	if in == "now" {
		return models.NewTimestamp(now.Truncate(time.Minute)), nil
	}

	day, rest, err := parseDay(in, now)
	if err != nil {
		return models.Timestamp{}, err
	}
	if rest != "" {
		h, m, err := parseClock(rest)
		if err != nil {
			return models.Timestamp{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		day = day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}
	return models.NewTimestamp(day), nil
}

// parseDay resolves the day part and returns any trailing clock text.
func parseDay(in string, now time.Time) (time.Time, string, error) {
	today := models.StartOfDay(now)
	if m := offsetRe.FindStringSubmatch(in); m != nil {
		n, _ := strconv.Atoi(m[1])
		return shift(today, m[2], n), "", nil
	}
	if m := inRe.FindStringSubmatch(in); m != nil {
		n, _ := strconv.Atoi(m[1])
		return shift(today, m[2][:1], n), "", nil
	}

	words := strings.Fields(in)
	head, rest := words[0], strings.Join(words[1:], " ")
	switch head {
	case "today", "tod":
		return today, rest, nil
	case "tomorrow", "tom", "tmr":
		return today.AddDate(0, 0, 1), rest, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), rest, nil
	case "eow":
		return nextWeekday(today, time.Friday, true), rest, nil
	case "eom":
		return time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.Local), rest, nil
	case "next":
		if len(words) < 2 {
			break
		}
		rest = strings.Join(words[2:], " ")
		switch words[1] {
		case "week":
			return nextWeekday(today, time.Monday, false), rest, nil
		case "month":
			return time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.Local), rest, nil
		}
		if wd, ok := weekdays[words[1]]; ok {
			return nextWeekday(today, wd, false), rest, nil
		}
	}
	if wd, ok := weekdays[head]; ok {
		return nextWeekday(today, wd, false), rest, nil
	}
	return time.Time{}, "", fmt.Errorf("unrecognized date %q: use YYYY-MM-DD, YYYY-MM-DD HH:mm, today, tomorrow, +3d, next friday", in)
}

func shift(t time.Time, unit string, n int) time.Time {
	switch unit {
	case "w":
		return t.AddDate(0, 0, 7*n)
	case "m":
		return t.AddDate(0, n, 0)
	case "y":
		return t.AddDate(n, 0, 0)
	}
	return t.AddDate(0, 0, n)
}

// nextWeekday returns the next wd after today, or today itself when
// includeToday is set and today is wd.
func nextWeekday(today time.Time, wd time.Weekday, includeToday bool) time.Time {
	d := (int(wd) - int(today.Weekday()) + 7) % 7
	if d == 0 && !includeToday {
		d = 7
	}
	return today.AddDate(0, 0, d)
}

func parseClock(s string) (int, int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "at ")
	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		if h < 1 || h > 12 {
			return 0, 0, fmt.Errorf("invalid time %q", s)
		}
		if h == 12 {
			h = 0
		}
		if m[3] == "pm" {
			h += 12
		}
	}
	if h > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	return h, minute, nil
}

// ParsePtr parses s, returning nil for empty input.
func ParsePtr(s string, now time.Time) (*models.Timestamp, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ts, err := Parse(s, now)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// Window returns [start of today + fromDays, start of today + toDays).
func Window(now time.Time, fromDays, toDays int) (models.Timestamp, models.Timestamp) {
	today := models.StartOfDay(now)
	return models.NewTimestamp(today.AddDate(0, 0, fromDays)), models.NewTimestamp(today.AddDate(0, 0, toDays))
}
