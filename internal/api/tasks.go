package api

import (
	"context"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/normalize"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

// ListTasks returns the tasks matching f. The host applies the filter; the
// result is re-checked in process and annotated with recurrence status.
func (c *Client) ListTasks(ctx context.Context, f models.TaskFilter) (*List[models.Task], error) {
	s, err := build(c.scripts.ListTasks(f))
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

	check := f
	if !check.IncludeDetails {
		// notes are not fetched, so the host's search result stands
		check.Search = ""
	}
	check.Limit = 0
	items := models.FilterTasks(dec.Records, check, c.nowTS())
	filtered := len(dec.Records) - len(items)
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	c.recurrence.Annotate(items)
	return &List[models.Task]{
		Items: items,
		Meta:  Meta{Scanned: dec.Scanned, Dropped: dec.Dropped, Filtered: filtered},
	}, nil
}

// GetTask returns one task with its note and dates.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return c.taskOp(ctx, func(b *script.Builder) (script.Script, error) { return b.GetTask(id) })
}

// CreateTask adds a task to the inbox, a project, or under a parent task.
func (c *Client) CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.ProjectID != "" && in.ParentTaskID != "" {
		return nil, bridgeerr.New(bridgeerr.ConflictingTargetSpecified, "set either projectId or parentTaskId, not both")
	}
	if in.RepetitionRule != nil && !in.RepetitionRule.IsValid() {
		return nil, invalidRule(*in.RepetitionRule)
	}
	return c.taskOp(ctx, func(b *script.Builder) (script.Script, error) { return b.CreateTask(in) })
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, in models.TaskUpdate) (*models.Task, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return nil, bridgeerr.New(bridgeerr.MissingRequiredField, "no fields to update").
			WithSuggestion("pass at least one field to change")
	}
	if in.RepetitionRule != nil && !in.RepetitionRule.IsValid() {
		return nil, invalidRule(*in.RepetitionRule)
	}
	return c.taskOp(ctx, func(b *script.Builder) (script.Script, error) { return b.UpdateTask(in) })
}

// CompleteTask marks a task complete. For repeating tasks the host spawns the
// next occurrence.
func (c *Client) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	return c.taskOp(ctx, func(b *script.Builder) (script.Script, error) { return b.CompleteTask(id) })
}

// DropTask drops a task, or every future occurrence when allOccurrences is set.
func (c *Client) DropTask(ctx context.Context, id string, allOccurrences bool) (*models.Task, error) {
	return c.taskOp(ctx, func(b *script.Builder) (script.Script, error) { return b.DropTask(id, allOccurrences) })
}

// Deleted identifies a removed record.
type Deleted struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeleteTask removes a task permanently.
func (c *Client) DeleteTask(ctx context.Context, id string) (*Deleted, error) {
	s, err := build(c.scripts.DeleteTask(id))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := normalize.CheckReported(v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, bridgeerr.Newf(bridgeerr.UnexpectedShape, "unexpected delete reply %T", v)
	}
	c.invalidate(taskDerivedKeys...)
	return &Deleted{ID: normalize.String(m, "deleted"), Name: normalize.String(m, "name")}, nil
}

// BulkDeleteTasks removes several tasks. Missing ids are reported per id and
// do not fail the call.
func (c *Client) BulkDeleteTasks(ctx context.Context, ids []string) (*models.BulkResult, error) {
	return c.bulkOp(ctx, func(b *script.Builder) (script.Script, error) { return b.BulkDeleteTasks(ids) })
}

// MoveTasks relocates tasks to the inbox, a project, or under a parent task.
func (c *Client) MoveTasks(ctx context.Context, in models.TaskMove) (*models.BulkResult, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	return c.bulkOp(ctx, func(b *script.Builder) (script.Script, error) { return b.MoveTasks(in) })
}

func (c *Client) taskOp(ctx context.Context, mk func(*script.Builder) (script.Script, error)) (*models.Task, error) {
	s, err := build(mk(c.scripts))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	t, err := normalize.DecodeTask(v)
	if err != nil {
		return nil, err
	}
	if t.RepetitionRule != nil && t.Added == nil && !s.Mutates && s.Fallback != nil {
		// the direct path may not expose the added date recurrence needs
		if bt, err := c.readThroughBridge(ctx, *s.Fallback); err == nil {
			t = bt
		} else {
			c.logger.Debug("bridge reread failed", "script", s.Name, "error", bridgeerr.Describe(err))
		}
	}
	if s.Mutates {
		c.invalidate(taskDerivedKeys...)
	}
	st := c.recurrence.AnalyzeTask(t, t.RepetitionRule)
	t.Recurrence = &st
	return &t, nil
}

func (c *Client) readThroughBridge(ctx context.Context, s script.Script) (models.Task, error) {
	res, err := c.runner.Run(ctx, s)
	if err != nil {
		return models.Task{}, err
	}
	return normalize.DecodeTask(res.Value)
}

func (c *Client) bulkOp(ctx context.Context, mk func(*script.Builder) (script.Script, error)) (*models.BulkResult, error) {
	s, err := build(mk(c.scripts))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	res, err := normalize.DecodeBulk(v)
	if err != nil {
		return nil, err
	}
	if len(res.Succeeded) > 0 {
		c.invalidate(taskDerivedKeys...)
	}
	return &res, nil
}

func invalidRule(r models.RepetitionRule) error {
	return bridgeerr.Newf(bridgeerr.InvalidValue, "invalid repetition rule %q every %d", r.Unit, r.Steps).
		WithSuggestion("use minutes, hours, days, weeks, months or years with steps >= 1")
}
