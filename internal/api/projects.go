package api

import (
	"context"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/normalize"
	"github.com/kutbudev/ofocus-cli/internal/script"
)

var projectKeys = []string{keyProjects, keyProjectsCounts, keyFolders}

// ListProjects returns projects matching f. With the cache enabled the full
// list is fetched once per TTL and filtered in process.
func (c *Client) ListProjects(ctx context.Context, f models.ProjectFilter, counts bool) (*List[models.Project], error) {
	if err := script.ValidateProjectFilter(f); err != nil {
		return nil, err
	}
	key := keyProjects
	if counts {
		key = keyProjectsCounts
	}

	var all []models.Project
	meta := Meta{}
	switch {
	case c.cache == nil:
		dec, err := c.fetchProjects(ctx, f, counts)
		if err != nil {
			return nil, err
		}
		all, meta.Scanned, meta.Dropped = dec.Records, dec.Scanned, dec.Dropped
	case c.cacheGet(key, &all):
		meta.FromCache = true
	default:
		dec, err := c.fetchProjects(ctx, models.ProjectFilter{}, counts)
		if err != nil {
			return nil, err
		}
		all, meta.Scanned, meta.Dropped = dec.Records, dec.Scanned, dec.Dropped
		c.cachePut(key, all, c.ttl.Projects)
	}

	now := c.nowTS()
	items := make([]models.Project, 0, len(all))
	for _, p := range all {
		if f.Matches(p, now) {
			items = append(items, p)
		}
	}
	meta.Filtered = len(all) - len(items)
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return &List[models.Project]{Items: items, Meta: meta}, nil
}

func (c *Client) fetchProjects(ctx context.Context, f models.ProjectFilter, counts bool) (normalize.Decoded[models.Project], error) {
	s, err := build(c.scripts.ListProjects(f, counts))
	if err != nil {
		return normalize.Decoded[models.Project]{}, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return normalize.Decoded[models.Project]{}, err
	}
	return normalize.DecodeProjects(v)
}

// GetProject returns one project with its task counts.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return c.projectOp(ctx, func(b *script.Builder) (script.Script, error) { return b.GetProject(id) })
}

// CreateProject adds a project, creating its folder when missing.
func (c *Client) CreateProject(ctx context.Context, in models.ProjectCreate) (*models.Project, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.ReviewInterval != nil && !validInterval(*in.ReviewInterval) {
		return nil, invalidInterval(*in.ReviewInterval)
	}
	return c.projectOp(ctx, func(b *script.Builder) (script.Script, error) { return b.CreateProject(in) })
}

// UpdateProject applies a partial update.
func (c *Client) UpdateProject(ctx context.Context, in models.ProjectUpdate) (*models.Project, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return nil, bridgeerr.New(bridgeerr.MissingRequiredField, "no fields to update").
			WithSuggestion("pass at least one field to change")
	}
	if in.ReviewInterval != nil && !validInterval(*in.ReviewInterval) {
		return nil, invalidInterval(*in.ReviewInterval)
	}
	return c.projectOp(ctx, func(b *script.Builder) (script.Script, error) { return b.UpdateProject(in) })
}

// CompleteProject marks a project done.
func (c *Client) CompleteProject(ctx context.Context, id string) (*models.Project, error) {
	return c.projectOp(ctx, func(b *script.Builder) (script.Script, error) { return b.CompleteProject(id) })
}

// ProjectDeleted reports a dropped project.
type ProjectDeleted struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	TaskAction    string `json:"taskAction"`
	TasksAffected int    `json:"tasksAffected"`
}

// DeleteProject drops a project, handling its open tasks per in.TaskAction.
func (c *Client) DeleteProject(ctx context.Context, in models.ProjectDelete) (*ProjectDeleted, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	s, err := build(c.scripts.DeleteProject(in))
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
	c.invalidate(append(projectKeys, keyTags)...)
	return &ProjectDeleted{
		ID:            normalize.String(m, "id"),
		Name:          normalize.String(m, "name"),
		Status:        normalize.String(m, "status"),
		TaskAction:    normalize.String(m, "taskAction"),
		TasksAffected: normalize.IntOr(m, "tasksAffected", 0),
	}, nil
}

func (c *Client) projectOp(ctx context.Context, mk func(*script.Builder) (script.Script, error)) (*models.Project, error) {
	s, err := build(mk(c.scripts))
	if err != nil {
		return nil, err
	}
	v, err := c.run(ctx, s)
	if err != nil {
		return nil, err
	}
	p, err := normalize.DecodeProject(v)
	if err != nil {
		return nil, err
	}
	if s.Mutates {
		c.invalidate(projectKeys...)
	}
	return &p, nil
}

func validInterval(ri models.ReviewInterval) bool {
	switch models.NormalizeUnit(ri.Unit) {
	case "days", "weeks", "months", "years":
		return ri.Steps > 0
	}
	return false
}

func invalidInterval(ri models.ReviewInterval) error {
	return bridgeerr.Newf(bridgeerr.InvalidValue, "invalid review interval %q every %d", ri.Unit, ri.Steps).
		WithSuggestion("use days, weeks, months or years with steps >= 1")
}
