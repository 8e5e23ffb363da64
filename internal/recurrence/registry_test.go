package recurrence

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

var fixedNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)

func testRegistry(analyzers ...Analyzer) *Registry {
	opts := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if analyzers == nil {
		return Default(opts...)
	}
	return NewRegistry(analyzers, opts...)
}

func ts(t time.Time) *models.Timestamp {
	v := models.NewTimestamp(t)
	return &v
}

func TestRegistryOrdersByPriority(t *testing.T) {
	want := []string{"subscription-renewal", "game-cadence", "repetition-rule", "keyword-heuristic"}
	if got := testRegistry().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestWeeklyRuleAddedTenDaysAgoIsRescheduled(t *testing.T) {
	rule := &models.RepetitionRule{Unit: "weeks", Steps: 1}
	task := models.Task{ID: "t1", Name: "Water plants", Added: ts(fixedNow.AddDate(0, 0, -10)), RepetitionRule: rule}

	got := testRegistry().AnalyzeTask(task, rule)
	if !got.IsRecurring || got.Type != models.RecurrenceRescheduled || !got.ScheduleDeviation {
		t.Fatalf("status = %+v, want rescheduled with deviation", got)
	}
	if got.Source != "repetition-rule" {
		t.Errorf("source = %q, want repetition-rule", got.Source)
	}
	if got.Frequency != "weekly" {
		t.Errorf("frequency = %q, want weekly", got.Frequency)
	}
}

func TestRepetitionRuleOnSchedule(t *testing.T) {
	rule := &models.RepetitionRule{Unit: "weeks", Steps: 1, Method: "fixed"}
	due := fixedNow.AddDate(0, 0, 2)
	task := models.Task{ID: "t2", Name: "Team sync", DueDate: ts(due)}

	got := testRegistry().AnalyzeTask(task, rule)
	if got.Type != models.RecurrenceNewInstance || got.ScheduleDeviation {
		t.Fatalf("status = %+v, want on-schedule new instance", got)
	}
	if got.NextExpectedDate == nil || !got.NextExpectedDate.Equal(due.AddDate(0, 0, 7)) {
		t.Errorf("next expected = %v, want due + 1 week", got.NextExpectedDate)
	}

	rule.Method = "due-after-completion"
	if got := testRegistry().AnalyzeTask(task, rule); got.Type != models.RecurrenceRescheduled {
		t.Errorf("after-completion rule type = %q, want rescheduled", got.Type)
	}
}

func TestRegistryFallback(t *testing.T) {
	never := Analyzer{
		Name:       "never",
		Priority:   1,
		CanAnalyze: func(models.Task, *models.RepetitionRule) bool { return false },
	}
	r := testRegistry(never)

	got := r.AnalyzeTask(models.Task{ID: "x"}, &models.RepetitionRule{Unit: "days", Steps: 2})
	if !got.IsRecurring || got.Source != FallbackSource || got.Frequency != "every 2 days" {
		t.Errorf("fallback with rule = %+v", got)
	}
	got = r.AnalyzeTask(models.Task{ID: "x"}, &models.RepetitionRule{Unit: "days"})
	if got.IsRecurring || got.Type != models.RecurrenceNone {
		t.Errorf("fallback with zero steps = %+v, want non-recurring", got)
	}
	if got := r.AnalyzeTask(models.Task{ID: "x"}, nil); got.IsRecurring {
		t.Errorf("fallback without rule = %+v, want non-recurring", got)
	}
}

func TestRegistrySkipsFailingAnalyzers(t *testing.T) {
	boom := Analyzer{
		Name:       "boom",
		Priority:   30,
		CanAnalyze: func(models.Task, *models.RepetitionRule) bool { return true },
		Analyze: func(models.Task, *models.RepetitionRule, time.Time) (*models.RecurrenceStatus, error) {
			panic("bad input")
		},
	}
	failing := Analyzer{
		Name:       "failing",
		Priority:   20,
		CanAnalyze: func(models.Task, *models.RepetitionRule) bool { return true },
		Analyze: func(models.Task, *models.RepetitionRule, time.Time) (*models.RecurrenceStatus, error) {
			return nil, errors.New("nope")
		},
	}
	ok := Analyzer{
		Name:       "ok",
		Priority:   10,
		CanAnalyze: func(models.Task, *models.RepetitionRule) bool { return true },
		Analyze: func(models.Task, *models.RepetitionRule, time.Time) (*models.RecurrenceStatus, error) {
			return &models.RecurrenceStatus{IsRecurring: true, Type: models.RecurrenceNewInstance}, nil
		},
	}
	got := testRegistry(ok, failing, boom).AnalyzeTask(models.Task{ID: "x"}, nil)
	if got.Source != "ok" {
		t.Errorf("source = %q, want ok", got.Source)
	}
}

func TestDefaultAnalyzers(t *testing.T) {
	tests := []struct {
		name      string
		task      models.Task
		rule      *models.RepetitionRule
		source    string
		frequency string
		recurring bool
	}{
		{
			name: "yearly subscription",
			task: models.Task{Name: "Renew domain", DeferDate: ts(fixedNow.AddDate(-1, 0, 0)), DueDate: ts(fixedNow)},
			source: "subscription-renewal", frequency: "yearly", recurring: true,
		},
		{
			name: "multi-year license",
			task: models.Task{Name: "Software license renewal", DeferDate: ts(fixedNow.AddDate(-2, 0, 0)), DueDate: ts(fixedNow)},
			source: "subscription-renewal", frequency: "every 2 years", recurring: true,
		},
		{
			name:   "subscription with rule defers to rule",
			task:   models.Task{Name: "Netflix subscription"},
			rule:   &models.RepetitionRule{Unit: "months", Steps: 1},
			source: "repetition-rule", frequency: "monthly", recurring: true,
		},
		{
			name:   "game daily",
			task:   models.Task{Name: "Claim daily login reward"},
			source: "game-cadence", frequency: "daily", recurring: true,
		},
		{
			name:   "keyword weekly",
			task:   models.Task{Name: "Weekly review"},
			source: "keyword-heuristic", frequency: "weekly", recurring: true,
		},
		{
			name:   "plain task",
			task:   models.Task{Name: "Buy milk"},
			source: FallbackSource, recurring: false,
		},
	}
	r := testRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.AnalyzeTask(tt.task, tt.rule)
			if got.Source != tt.source || got.IsRecurring != tt.recurring {
				t.Fatalf("status = %+v, want source %s recurring %v", got, tt.source, tt.recurring)
			}
			if tt.frequency != "" && got.Frequency != tt.frequency {
				t.Errorf("frequency = %q, want %q", got.Frequency, tt.frequency)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Name: "Buy milk"},
		{ID: "b", Name: "Stretch", RepetitionRule: &models.RepetitionRule{Unit: "days", Steps: 1}, DueDate: ts(fixedNow)},
	}
	testRegistry().Annotate(tasks)
	if tasks[0].Recurrence == nil || tasks[0].Recurrence.IsRecurring {
		t.Errorf("a = %+v", tasks[0].Recurrence)
	}
	if tasks[1].Recurrence == nil || !tasks[1].Recurrence.IsRecurring {
		t.Errorf("b = %+v", tasks[1].Recurrence)
	}
}

func TestGapUnit(t *testing.T) {
	tests := []struct {
		days  int
		unit  string
		steps int
	}{
		{1, "days", 1},
		{7, "weeks", 1},
		{14, "weeks", 2},
		{30, "months", 1},
		{365, "years", 1},
		{730, "years", 2},
		{1095, "years", 3},
		{200, "", 0},
		{1200, "", 0},
	}
	for _, tt := range tests {
		unit, steps := gapUnit(tt.days)
		if unit != tt.unit || steps != tt.steps {
			t.Errorf("gapUnit(%d) = %q, %d; want %q, %d", tt.days, unit, steps, tt.unit, tt.steps)
		}
	}
}

func TestRoutineWithMultiYearGap(t *testing.T) {
	start := fixedNow.AddDate(0, 0, -1)
	task := models.Task{ID: "r1", Name: "Routine passport check", DeferDate: ts(start), DueDate: ts(start.AddDate(0, 0, 730))}
	got := testRegistry().AnalyzeTask(task, nil)
	if !got.IsRecurring || got.Source != "keyword-heuristic" {
		t.Fatalf("status = %+v, want keyword-heuristic recurrence", got)
	}
	if got.NextExpectedDate == nil || !got.NextExpectedDate.Equal(task.DueDate.AddDate(2, 0, 0)) {
		t.Errorf("next expected = %v, want due + 2 years", got.NextExpectedDate)
	}
}
