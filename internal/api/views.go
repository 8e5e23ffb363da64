package api

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// DueSoonDays is how far ahead the agenda and suggestions look.
const DueSoonDays = 2

// Agenda is today's working set.
type Agenda struct {
	Overdue []models.Task `json:"overdue"`
	DueSoon []models.Task `json:"dueSoon"`
	Flagged []models.Task `json:"flagged"`
	// Tasks merges the three lists, first occurrence wins.
	Tasks []models.Task `json:"tasks"`
}

// TodaysAgenda runs the overdue, due-soon and flagged queries concurrently and
// merges them.
func (c *Client) TodaysAgenda(ctx context.Context, limit int) (*Agenda, error) {
	if limit < 0 {
		return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "limit must not be negative, got %d", limit)
	}
	open := func(f models.TaskFilter) models.TaskFilter {
		f.Completed = models.Bool(false)
		f.Dropped = models.Bool(false)
		f.Limit = limit
		return f
	}
	horizon := models.NewTimestamp(models.StartOfDay(c.now()).AddDate(0, 0, DueSoonDays))
	today := models.NewTimestamp(models.StartOfDay(c.now()).Add(-time.Minute))

	queries := []models.TaskFilter{
		open(models.TaskFilter{Overdue: true}),
		open(models.TaskFilter{DueBefore: &horizon, DueAfter: &today}),
		open(models.TaskFilter{Flagged: models.Bool(true)}),
	}
	results := make([][]models.Task, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range queries {
		g.Go(func() error {
			res, err := c.ListTasks(gctx, f)
			if err != nil {
				return err
			}
			results[i] = res.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a := &Agenda{Overdue: results[0], DueSoon: results[1], Flagged: results[2]}
	a.Tasks = models.MergeTasks(a.Overdue, a.DueSoon, a.Flagged)
	if a.Tasks == nil {
		a.Tasks = []models.Task{}
	}
	return a, nil
}

// Inbox lists open inbox tasks.
func (c *Client) Inbox(ctx context.Context, limit int) (*List[models.Task], error) {
	return c.ListTasks(ctx, models.TaskFilter{
		InInbox:   models.Bool(true),
		Completed: models.Bool(false),
		Dropped:   models.Bool(false),
		Limit:     limit,
	})
}

// Flagged lists open flagged tasks.
func (c *Client) Flagged(ctx context.Context, limit int) (*List[models.Task], error) {
	return c.ListTasks(ctx, models.TaskFilter{
		Flagged:   models.Bool(true),
		Completed: models.Bool(false),
		Dropped:   models.Bool(false),
		Limit:     limit,
	})
}

// Upcoming lists open tasks due from today through the next days days,
// ordered by due date.
func (c *Client) Upcoming(ctx context.Context, days, limit int) (*List[models.Task], error) {
	if days <= 0 {
		return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "days must be positive, got %d", days)
	}
	start := models.StartOfDay(c.now())
	after := models.NewTimestamp(start.Add(-time.Minute))
	before := models.NewTimestamp(start.AddDate(0, 0, days+1))
	res, err := c.ListTasks(ctx, models.TaskFilter{
		Completed: models.Bool(false),
		Dropped:   models.Bool(false),
		DueAfter:  &after,
		DueBefore: &before,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res.Items, func(i, j int) bool { return dueBefore(res.Items[i], res.Items[j]) })
	if limit > 0 && len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}
	return res, nil
}

// Review lists active and on-hold projects whose review date has passed,
// most overdue first.
func (c *Client) Review(ctx context.Context, limit int) (*List[models.Project], error) {
	res, err := c.ListProjects(ctx, models.ProjectFilter{
		Statuses:    []string{models.ProjectStatusActive, models.ProjectStatusOnHold},
		NeedsReview: true,
	}, false)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(res.Items, func(i, j int) bool {
		a, b := res.Items[i].NextReviewDate, res.Items[j].NextReviewDate
		return a != nil && b != nil && a.Before(b.Time)
	})
	if limit > 0 && len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}
	return res, nil
}

// Suggestion is a ranked next action.
type Suggestion struct {
	Task   models.Task `json:"task"`
	Score  int         `json:"score"`
	Reason string      `json:"reason"`
}

// Suggest ranks available tasks: flagged first, then overdue, then due soon,
// then the oldest.
func (c *Client) Suggest(ctx context.Context, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 10
	}
	res, err := c.ListTasks(ctx, models.TaskFilter{
		Available:      models.Bool(true),
		Blocked:        models.Bool(false),
		Completed:      models.Bool(false),
		Dropped:        models.Bool(false),
		IncludeDetails: true,
	})
	if err != nil {
		return nil, err
	}
	now := c.nowTS()
	horizon := models.StartOfDay(c.now()).AddDate(0, 0, DueSoonDays)
	out := make([]Suggestion, 0, len(res.Items))
	for _, t := range res.Items {
		out = append(out, score(t, now, horizon))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return olderThan(out[i].Task, out[j].Task)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func score(t models.Task, now models.Timestamp, horizon time.Time) Suggestion {
	s := Suggestion{Task: t, Reason: "available"}
	switch {
	case t.IsOverdue(now):
		s.Score += 50
		s.Reason = "overdue"
	case t.DueDate != nil && t.DueDate.Before(horizon):
		s.Score += 25
		s.Reason = "due soon"
	}
	if t.Flagged {
		s.Score += 100
		s.Reason = "flagged"
		if t.IsOverdue(now) {
			s.Reason = "flagged, overdue"
		}
	}
	return s
}

func olderThan(a, b models.Task) bool {
	switch {
	case a.Added == nil:
		return false
	case b.Added == nil:
		return true
	}
	return a.Added.Before(b.Added.Time)
}
