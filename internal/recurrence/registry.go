// Package recurrence infers whether and how tasks repeat. A fixed list of
// analyzers is consulted in priority order; the first one that recognizes a
// task decides its status.
package recurrence

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

// Analyzer recognizes one family of recurring tasks.
type Analyzer struct {
	Name     string
	Priority int
	// CanAnalyze is a cheap check; Analyze may still decline with a nil status.
	CanAnalyze func(t models.Task, rule *models.RepetitionRule) bool
	Analyze    func(t models.Task, rule *models.RepetitionRule, now time.Time) (*models.RecurrenceStatus, error)
}

// FallbackSource marks statuses produced when no analyzer answered.
const FallbackSource = "fallback"

// Registry holds analyzers sorted by descending priority.
type Registry struct {
	analyzers []Analyzer
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the logger used for analyzer failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry sorts analyzers by priority. Ties keep their given order.
func NewRegistry(analyzers []Analyzer, opts ...Option) *Registry {
	r := &Registry{
		analyzers: append([]Analyzer(nil), analyzers...),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	sort.SliceStable(r.analyzers, func(i, j int) bool {
		return r.analyzers[i].Priority > r.analyzers[j].Priority
	})
	return r
}

// Default returns the registry with the built-in analyzers.
func Default(opts ...Option) *Registry {
	return NewRegistry([]Analyzer{
		SubscriptionRenewal(),
		GameCadence(),
		RepetitionRule(),
		KeywordHeuristic(),
	}, opts...)
}

// Names lists the analyzers in evaluation order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.analyzers))
	for i, a := range r.analyzers {
		out[i] = a.Name
	}
	return out
}

// AnalyzeTask returns the first answer from an analyzer that accepts the
// task. Failing analyzers are logged and skipped. With no answer, the task is
// recurring exactly when rule names a unit and a positive step count.
func (r *Registry) AnalyzeTask(t models.Task, rule *models.RepetitionRule) models.RecurrenceStatus {
	now := r.now()
	for _, a := range r.analyzers {
		st, err := r.try(a, t, rule, now)
		if err != nil {
			r.logger.Warn("recurrence analyzer failed", "analyzer", a.Name, "task", t.ID, "error", err)
			continue
		}
		if st != nil {
			st.Source = a.Name
			return *st
		}
	}
	return fallback(rule)
}

func (r *Registry) try(a Analyzer, t models.Task, rule *models.RepetitionRule, now time.Time) (st *models.RecurrenceStatus, err error) {
	defer func() {
		if p := recover(); p != nil {
			st, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	if !a.CanAnalyze(t, rule) {
		return nil, nil
	}
	return a.Analyze(t, rule, now)
}

// Annotate sets Recurrence on every task in place.
func (r *Registry) Annotate(tasks []models.Task) {
	for i := range tasks {
		st := r.AnalyzeTask(tasks[i], tasks[i].RepetitionRule)
		tasks[i].Recurrence = &st
	}
}

func fallback(rule *models.RepetitionRule) models.RecurrenceStatus {
	if rule != nil && rule.Unit != "" && rule.Steps > 0 {
		return models.RecurrenceStatus{
			IsRecurring: true,
			Type:        models.RecurrenceNewInstance,
			Frequency:   Frequency(rule.Unit, rule.Steps),
			Confidence:  0.5,
			Source:      FallbackSource,
		}
	}
	return models.RecurrenceStatus{Type: models.RecurrenceNone, Confidence: 1, Source: FallbackSource}
}

// Frequency renders a unit and step count for people.
func Frequency(unit string, steps int) string {
	unit = models.NormalizeUnit(unit)
	if steps == 1 {
		switch unit {
		case "minutes":
			return "every minute"
		case "hours":
			return "hourly"
		case "days":
			return "daily"
		case "weeks":
			return "weekly"
		case "months":
			return "monthly"
		case "years":
			return "yearly"
		}
	}
	return fmt.Sprintf("every %d %s", steps, unit)
}

// advance moves t forward by steps units using calendar arithmetic.
func advance(t time.Time, unit string, steps int) time.Time {
	switch models.NormalizeUnit(unit) {
	case "minutes":
		return t.Add(time.Duration(steps) * time.Minute)
	case "hours":
		return t.Add(time.Duration(steps) * time.Hour)
	case "days":
		return t.AddDate(0, 0, steps)
	case "weeks":
		return t.AddDate(0, 0, 7*steps)
	case "months":
		return t.AddDate(0, steps, 0)
	case "years":
		return t.AddDate(steps, 0, 0)
	}
	return t
}

// calendarDays counts midnights crossed between a and b in local time.
func calendarDays(a, b time.Time) int {
	a, b = a.In(time.Local), b.In(time.Local)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func tsPtr(t time.Time) *models.Timestamp {
	ts := models.NewTimestamp(t)
	return &ts
}
