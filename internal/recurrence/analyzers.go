package recurrence

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

// deviationFactor is how many intervals may pass before a task counts as
// off schedule.
const deviationFactor = 1.5

// RepetitionRule analyzes tasks that carry an explicit repetition rule.
//
// The reference date is the due date, or the added date for undated tasks.
// A task deviates when the time since the reference reaches the interval
// times 1.5; day-based rules compare whole calendar days against the rounded
// down window. After-completion rules and deviating tasks are rescheduled;
// the rest spawn new instances.
func RepetitionRule() Analyzer {
	return Analyzer{
		Name:     "repetition-rule",
		Priority: 50,
		CanAnalyze: func(t models.Task, rule *models.RepetitionRule) bool {
			return rule != nil && rule.IsValid()
		},
		Analyze: func(t models.Task, rule *models.RepetitionRule, now time.Time) (*models.RecurrenceStatus, error) {
			st := &models.RecurrenceStatus{
				IsRecurring: true,
				Type:        models.RecurrenceNewInstance,
				Frequency:   Frequency(rule.Unit, rule.Steps),
				Confidence:  0.9,
			}
			ref := t.DueDate
			if ref == nil {
				ref = t.Added
			}
			if ref != nil {
				st.ScheduleDeviation = deviates(ref.Time, now, rule)
				st.NextExpectedDate = tsPtr(advance(ref.Time, rule.Unit, rule.Steps))
			}
			switch models.NormalizeMethod(rule.Method) {
			case models.RepeatDueAfterCompletion, models.RepeatStartAfterCompletion:
				st.Type = models.RecurrenceRescheduled
			}
			if st.ScheduleDeviation {
				st.Type = models.RecurrenceRescheduled
			}
			return st, nil
		},
	}
}

func deviates(ref, now time.Time, rule *models.RepetitionRule) bool {
	interval := rule.IntervalDays()
	if interval <= 0 || !now.After(ref) {
		return false
	}
	if interval < 1 {
		return now.Sub(ref).Hours()/24 > interval*deviationFactor
	}
	return calendarDays(ref, now) >= int(math.Floor(interval*deviationFactor))
}

var subscriptionRe = regexp.MustCompile(`(?i)\b(renew(al|s)?|subscriptions?|licen[cs]es?|memberships?|domain|insurance)\b`)

// SubscriptionRenewal recognizes renewals and infers their cadence from the
// gap between the defer (or added) date and the due date.
func SubscriptionRenewal() Analyzer {
	return Analyzer{
		Name:     "subscription-renewal",
		Priority: 100,
		CanAnalyze: func(t models.Task, rule *models.RepetitionRule) bool {
			return subscriptionRe.MatchString(t.Name)
		},
		Analyze: func(t models.Task, rule *models.RepetitionRule, now time.Time) (*models.RecurrenceStatus, error) {
			start := t.DeferDate
			if start == nil {
				start = t.Added
			}
			unit, steps, label := "", 0, ""
			if start != nil && t.DueDate != nil {
				gap := calendarDays(start.Time, t.DueDate.Time)
				switch {
				case gap >= 700 && gap <= 1100:
					unit, steps = "years", int(math.Round(float64(gap)/365))
					label = "multi-year"
				case gap >= 330 && gap <= 400:
					unit, steps, label = "years", 1, "yearly"
				case gap >= 25 && gap <= 35:
					unit, steps, label = "months", 1, "monthly"
				}
			}
			if unit == "" {
				if rule != nil {
					// Let the rule analyzer handle it.
					return nil, nil
				}
				unit, steps, label = "years", 1, "yearly"
			}
			st := &models.RecurrenceStatus{
				IsRecurring: true,
				Type:        models.RecurrenceNewInstance,
				Frequency:   label,
				Confidence:  0.8,
			}
			if label == "multi-year" {
				st.Frequency = Frequency(unit, steps)
			}
			if start == nil || t.DueDate == nil {
				st.Confidence = 0.5
			}
			if t.DueDate != nil {
				st.NextExpectedDate = tsPtr(advance(t.DueDate.Time, unit, steps))
			}
			if rule != nil && models.NormalizeMethod(rule.Method) != models.RepeatFixed {
				st.Type = models.RecurrenceRescheduled
			}
			return st, nil
		},
	}
}

var gamePatterns = []struct {
	re        *regexp.Regexp
	unit      string
	steps     int
	frequency string
}{
	{regexp.MustCompile(`(?i)\b(daily (login|reward|quest|bonus|check-?in)s?|dailies)\b`), "days", 1, "daily"},
	{regexp.MustCompile(`(?i)\bweekly (reset|quest|challenge|boss)(es|s)?\b`), "weeks", 1, "weekly"},
	{regexp.MustCompile(`(?i)\b(battle ?pass|season (pass|reset|rewards?))\b`), "months", 3, "seasonal"},
	{regexp.MustCompile(`(?i)\b(in-game|limited|seasonal|weekend) events?\b`), "weeks", 2, "event cycle"},
}

// GameCadence recognizes game chores that follow a publisher's schedule
// rather than the user's.
func GameCadence() Analyzer {
	return Analyzer{
		Name:     "game-cadence",
		Priority: 90,
		CanAnalyze: func(t models.Task, rule *models.RepetitionRule) bool {
			for _, p := range gamePatterns {
				if p.re.MatchString(t.Name) {
					return true
				}
			}
			return false
		},
		Analyze: func(t models.Task, rule *models.RepetitionRule, now time.Time) (*models.RecurrenceStatus, error) {
			for _, p := range gamePatterns {
				if !p.re.MatchString(t.Name) {
					continue
				}
				base := now
				if t.DueDate != nil {
					base = t.DueDate.Time
				}
				return &models.RecurrenceStatus{
					IsRecurring:      true,
					Type:             models.RecurrenceNewInstance,
					Frequency:        p.frequency,
					NextExpectedDate: tsPtr(advance(base, p.unit, p.steps)),
					Confidence:       0.7,
				}, nil
			}
			return nil, nil
		},
	}
}

var keywordPatterns = []struct {
	re    *regexp.Regexp
	unit  string
	steps int
}{
	{regexp.MustCompile(`(?i)\b(daily|every ?day|each day|nightly)\b`), "days", 1},
	{regexp.MustCompile(`(?i)\b(bi-?weekly|every (other|2) weeks?|fortnightly)\b`), "weeks", 2},
	{regexp.MustCompile(`(?i)\b(weekly|every ?week|each week)\b`), "weeks", 1},
	{regexp.MustCompile(`(?i)\b(quarterly|every (3|three) months)\b`), "months", 3},
	{regexp.MustCompile(`(?i)\b(monthly|every ?month|each month)\b`), "months", 1},
	{regexp.MustCompile(`(?i)\b(annual(ly)?|yearly|every ?year|each year)\b`), "years", 1},
}

var routineRe = regexp.MustCompile(`(?i)\b(recurring|repeat(ing)?|routine)\b`)

// KeywordHeuristic guesses cadence from the task name, and for tasks that only
// say they repeat, from the defer-to-due gap.
func KeywordHeuristic() Analyzer {
	return Analyzer{
		Name:     "keyword-heuristic",
		Priority: 10,
		CanAnalyze: func(t models.Task, rule *models.RepetitionRule) bool {
			return strings.TrimSpace(t.Name) != ""
		},
		Analyze: func(t models.Task, rule *models.RepetitionRule, now time.Time) (*models.RecurrenceStatus, error) {
			unit, steps := "", 0
			for _, p := range keywordPatterns {
				if p.re.MatchString(t.Name) {
					unit, steps = p.unit, p.steps
					break
				}
			}
			confidence := 0.4
			if unit == "" && routineRe.MatchString(t.Name) && t.DeferDate != nil && t.DueDate != nil {
				unit, steps = gapUnit(calendarDays(t.DeferDate.Time, t.DueDate.Time))
				confidence = 0.3
			}
			if unit == "" {
				return nil, nil
			}
			st := &models.RecurrenceStatus{
				IsRecurring: true,
				Type:        models.RecurrenceNewInstance,
				Frequency:   Frequency(unit, steps),
				Confidence:  confidence,
			}
			if t.DueDate != nil {
				st.NextExpectedDate = tsPtr(advance(t.DueDate.Time, unit, steps))
			}
			return st, nil
		},
	}
}

func gapUnit(days int) (string, int) {
	switch {
	case days == 1:
		return "days", 1
	case days >= 6 && days <= 8:
		return "weeks", 1
	case days >= 13 && days <= 15:
		return "weeks", 2
	case days >= 28 && days <= 31:
		return "months", 1
	case days >= 360 && days <= 370:
		return "years", 1
	case days >= 700 && days <= 1100:
		return "years", int(math.Round(float64(days) / 365))
	}
	return "", 0
}
