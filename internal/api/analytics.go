package api

import (
	"context"
	"sort"
	"time"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/normalize"
)

// NoProject groups tasks without a project in analytic breakdowns.
const (
	NoProject = "(inbox)"
	NoTag     = "(untagged)"
)

// OverdueReport groups open overdue tasks.
type OverdueReport struct {
	Total       int            `json:"total"`
	ByProject   map[string]int `json:"byProject"`
	ByTag       map[string]int `json:"byTag"`
	OldestDays  int            `json:"oldestDays"`
	AverageDays float64        `json:"averageDays"`
	Tasks       []models.Task  `json:"tasks"`
}

// AnalyzeOverdue collects overdue tasks and groups them by project and tag.
func (c *Client) AnalyzeOverdue(ctx context.Context, limit int) (*OverdueReport, error) {
	if limit < 0 {
		return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "limit must not be negative, got %d", limit)
	}
	s, err := build(c.scripts.OverdueTasks(limit))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	dec, err := normalize.DecodeTasks(v)
	if err != nil {
		return nil, err
	}
	c.recurrence.Annotate(dec.Records)

	today := models.StartOfDay(c.now())
	r := &OverdueReport{
		Total:     len(dec.Records),
		ByProject: map[string]int{},
		ByTag:     map[string]int{},
		Tasks:     dec.Records,
	}
	var sum int
	for _, t := range dec.Records {
		r.ByProject[groupName(t.ProjectName(), NoProject)]++
		if len(t.Tags) == 0 {
			r.ByTag[NoTag]++
		}
		for _, tag := range t.Tags {
			r.ByTag[tag]++
		}
		if t.DueDate != nil {
			days := daysBetween(models.StartOfDay(t.DueDate.Time), today)
			sum += days
			if days > r.OldestDays {
				r.OldestDays = days
			}
		}
	}
	if r.Total > 0 {
		r.AverageDays = float64(sum) / float64(r.Total)
	}
	sort.SliceStable(r.Tasks, func(i, j int) bool {
		return dueBefore(r.Tasks[i], r.Tasks[j])
	})
	return r, nil
}

// OpenCounts is a snapshot of open work.
type OpenCounts struct {
	Open    int `json:"open"`
	Overdue int `json:"overdue"`
	Flagged int `json:"flagged"`
	Inbox   int `json:"inbox"`
}

// ProductivityReport summarizes completions over a trailing window.
type ProductivityReport struct {
	Days         int            `json:"days"`
	Since        string         `json:"since"`
	Completed    int            `json:"completed"`
	DailyAverage float64        `json:"dailyAverage"`
	PerDay       map[string]int `json:"perDay"`
	ByProject    map[string]int `json:"byProject"`
	BestDay      string         `json:"bestDay,omitempty"`
	Open         OpenCounts     `json:"open"`
}

// ProductivityStats counts completions over the last days days, today included.
func (c *Client) ProductivityStats(ctx context.Context, days int) (*ProductivityReport, error) {
	if days <= 0 || days > 365 {
		return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "days must be between 1 and 365, got %d", days)
	}
	today := models.StartOfDay(c.now())
	since := today.AddDate(0, 0, -(days - 1))
	until := today.AddDate(0, 0, 1)
	s, err := build(c.scripts.CompletedInWindow(models.NewTimestamp(since), models.NewTimestamp(until)))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	dec, err := normalize.DecodeTasks(v)
	if err != nil {
		return nil, err
	}

	done := make([]models.Task, 0, len(dec.Records))
	for _, t := range dec.Records {
		if t.CompletionDate != nil && !t.CompletionDate.Before(since) && t.CompletionDate.Before(until) {
			done = append(done, t)
		}
	}
	r := &ProductivityReport{
		Days:      days,
		Since:     since.Format("2006-01-02"),
		Completed: len(done),
		PerDay:    map[string]int{},
		ByProject: map[string]int{},
	}
	for d := 0; d < days; d++ {
		r.PerDay[since.AddDate(0, 0, d).Format("2006-01-02")] = 0
	}
	for _, t := range done {
		r.PerDay[t.CompletionDate.Format("2006-01-02")]++
		r.ByProject[groupName(t.ProjectName(), NoProject)]++
	}
	best := 0
	for day, n := range r.PerDay {
		if n > best || (n == best && n > 0 && day < r.BestDay) {
			best, r.BestDay = n, day
		}
	}
	r.DailyAverage = float64(r.Completed) / float64(days)
	if m, ok := v.(map[string]any); ok {
		counts := normalize.Object(m, "counts")
		r.Open = OpenCounts{
			Open:    normalize.IntOr(counts, "open", 0),
			Overdue: normalize.IntOr(counts, "overdue", 0),
			Flagged: normalize.IntOr(counts, "flagged", 0),
			Inbox:   normalize.IntOr(counts, "inbox", 0),
		}
	}
	return r, nil
}

// RecurringOptions selects the tasks AnalyzeRecurring looks at.
type RecurringOptions struct {
	IncludeCompleted bool
	// IncludeUnruled runs name heuristics over open tasks without a rule.
	IncludeUnruled bool
	Limit          int
}

// RecurringReport groups tasks by inferred recurrence.
type RecurringReport struct {
	Total       int            `json:"total"`
	Recurring   int            `json:"recurring"`
	ByType      map[string]int `json:"byType"`
	ByFrequency map[string]int `json:"byFrequency"`
	BySource    map[string]int `json:"bySource"`
	Deviating   []models.Task  `json:"deviating"`
	Tasks       []models.Task  `json:"tasks"`
}

// AnalyzeRecurring runs the recurrence analyzers over candidate tasks.
func (c *Client) AnalyzeRecurring(ctx context.Context, opts RecurringOptions) (*RecurringReport, error) {
	if opts.Limit < 0 {
		return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "limit must not be negative, got %d", opts.Limit)
	}
	s, err := build(c.scripts.RecurringCandidates(opts.IncludeCompleted, opts.IncludeUnruled, opts.Limit))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	dec, err := normalize.DecodeTasks(v)
	if err != nil {
		return nil, err
	}
	c.recurrence.Annotate(dec.Records)

	r := &RecurringReport{
		ByType:      map[string]int{},
		ByFrequency: map[string]int{},
		BySource:    map[string]int{},
		Deviating:   []models.Task{},
		Tasks:       []models.Task{},
	}
	for _, t := range dec.Records {
		st := t.Recurrence
		if st == nil || !st.IsRecurring {
			continue
		}
		r.Tasks = append(r.Tasks, t)
		r.ByType[st.Type]++
		r.BySource[st.Source]++
		if st.Frequency != "" {
			r.ByFrequency[st.Frequency]++
		}
		if st.ScheduleDeviation {
			r.Deviating = append(r.Deviating, t)
		}
	}
	r.Total = len(dec.Records)
	r.Recurring = len(r.Tasks)
	return r, nil
}

func groupName(name, empty string) string {
	if name == "" {
		return empty
	}
	return name
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// dueBefore orders tasks by due date, undated last, then by name.
func dueBefore(a, b models.Task) bool {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return a.Name < b.Name
	case a.DueDate == nil:
		return false
	case b.DueDate == nil:
		return true
	case !a.DueDate.Equal(b.DueDate.Time):
		return a.DueDate.Before(b.DueDate.Time)
	}
	return a.Name < b.Name
}
