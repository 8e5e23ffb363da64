package mcp

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/envelope"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

func (s *Server) registerProjectTools() {
	addTool(s, &mcp.Tool{
		Name:        "list_projects",
		Description: "List projects, optionally by status, folder, flag or review due. Set counts for task totals.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleListProjects)
	addTool(s, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a project, optionally inside a folder (created if missing).",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)},
	}, s.handleCreateProject)
	addTool(s, &mcp.Tool{
		Name:        "update_project",
		Description: "Change project fields or status, or mark it reviewed. Accepts a project name or id.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleUpdateProject)
	addTool(s, &mcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project by dropping it. task_action decides the fate of its open tasks: keep (stay in the dropped project), drop, or inbox.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
	}, s.handleDeleteProject)
	addTool(s, &mcp.Tool{
		Name:        "list_tags",
		Description: "List tags with their hierarchy and available task counts.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleListTags)
	addTool(s, &mcp.Tool{
		Name:        "manage_tag",
		Description: "Create, rename, delete or nest a tag.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
	}, s.handleManageTag)
	addTool(s, &mcp.Tool{
		Name:        "list_folders",
		Description: "List folders with their depth, children and projects.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleListFolders)
}

// ============================================================================
// Projects
// ============================================================================

type ListProjectsInput struct {
	Status      any    `json:"status,omitempty" jsonschema:"active, onHold, dropped or done; array or comma-separated"`
	Flagged     any    `json:"flagged,omitempty"`
	Folder      string `json:"folder,omitempty" jsonschema:"folder name"`
	Search      string `json:"search,omitempty"`
	NeedsReview any    `json:"needs_review,omitempty" jsonschema:"only projects whose next review date has passed"`
	Counts      any    `json:"counts,omitempty" jsonschema:"include task counts (slower)"`
	Limit       any    `json:"limit,omitempty"`
}

func projectStatuses(v any) ([]string, error) {
	list, err := stringList("status", v)
	if err != nil {
		return nil, err
	}
	for i, st := range list {
		list[i] = normalizeStatus(st)
		if !slices.Contains(models.ProjectStatuses, list[i]) {
			return nil, bridgeerr.Newf(bridgeerr.InvalidValue, "invalid status: %s", st).
				WithSuggestion("use one of: " + strings.Join(models.ProjectStatuses, ", ")).
				WithDetails(map[string]any{"field": "status"})
		}
	}
	return list, nil
}

func normalizeStatus(s string) string {
	switch k := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)); k {
	case "onhold":
		return models.ProjectStatusOnHold
	case "completed", "complete":
		return models.ProjectStatusDone
	default:
		return k
	}
}

func (s *Server) handleListProjects(ctx context.Context, t *envelope.Timer, in ListProjectsInput) envelope.Envelope {
	var f models.ProjectFilter
	var err error
	if f.Statuses, err = projectStatuses(in.Status); err != nil {
		return t.Failure(err, nil)
	}
	if f.Flagged, err = optBool("flagged", in.Flagged); err != nil {
		return t.Failure(err, nil)
	}
	if f.NeedsReview, err = boolOr("needs_review", in.NeedsReview, false); err != nil {
		return t.Failure(err, nil)
	}
	if f.Limit, err = intOr("limit", in.Limit, 0); err != nil {
		return t.Failure(err, nil)
	}
	counts, err := boolOr("counts", in.Counts, false)
	if err != nil {
		return t.Failure(err, nil)
	}
	f.FolderName = strings.TrimSpace(in.Folder)
	f.Search = strings.TrimSpace(in.Search)
	res, err := s.client.ListProjects(ctx, f, counts)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"projects": res.Items}, listMeta(len(res.Items), res.Meta, nil))
}

type CreateProjectInput struct {
	Name                string `json:"name"`
	Note                string `json:"note,omitempty"`
	Folder              string `json:"folder,omitempty"`
	Status              string `json:"status,omitempty" jsonschema:"active (default) or onHold"`
	Flagged             any    `json:"flagged,omitempty"`
	Sequential          any    `json:"sequential,omitempty"`
	DueDate             string `json:"due_date,omitempty"`
	DeferDate           string `json:"defer_date,omitempty"`
	ReviewIntervalUnit  string `json:"review_interval_unit,omitempty" jsonschema:"days, weeks, months or years"`
	ReviewIntervalSteps any    `json:"review_interval_steps,omitempty"`
	Tags                any    `json:"tags,omitempty"`
}

func reviewInterval(unit string, steps any) (*models.ReviewInterval, error) {
	if strings.TrimSpace(unit) == "" {
		return nil, nil
	}
	n, err := intOr("review_interval_steps", steps, 1)
	if err != nil {
		return nil, err
	}
	return &models.ReviewInterval{Unit: models.NormalizeUnit(unit), Steps: n}, nil
}

func (s *Server) handleCreateProject(ctx context.Context, t *envelope.Timer, in CreateProjectInput) envelope.Envelope {
	now := time.Now()
	p := models.ProjectCreate{
		Name:       strings.TrimSpace(in.Name),
		Note:       in.Note,
		FolderName: strings.TrimSpace(in.Folder),
	}
	if in.Status != "" {
		p.Status = normalizeStatus(in.Status)
	}
	var err error
	if p.Flagged, err = boolOr("flagged", in.Flagged, false); err != nil {
		return t.Failure(err, nil)
	}
	if p.Sequential, err = boolOr("sequential", in.Sequential, false); err != nil {
		return t.Failure(err, nil)
	}
	if p.DueDate, err = optDate("due_date", in.DueDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if p.DeferDate, err = optDate("defer_date", in.DeferDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if p.ReviewInterval, err = reviewInterval(in.ReviewIntervalUnit, in.ReviewIntervalSteps); err != nil {
		return t.Failure(err, nil)
	}
	if p.Tags, err = stringList("tags", in.Tags); err != nil {
		return t.Failure(err, nil)
	}
	proj, err := s.client.CreateProject(ctx, p)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"project": proj}, nil)
}

type UpdateProjectInput struct {
	Project             string  `json:"project" jsonschema:"project name or id"`
	Name                *string `json:"name,omitempty"`
	Note                *string `json:"note,omitempty"`
	Status              string  `json:"status,omitempty" jsonschema:"active, onHold, dropped or done"`
	Flagged             any     `json:"flagged,omitempty"`
	Sequential          any     `json:"sequential,omitempty"`
	Folder              *string `json:"folder,omitempty" jsonschema:"move into this folder; empty string moves to the top level"`
	DueDate             *string `json:"due_date,omitempty" jsonschema:"empty string clears"`
	DeferDate           *string `json:"defer_date,omitempty" jsonschema:"empty string clears"`
	ReviewIntervalUnit  string  `json:"review_interval_unit,omitempty"`
	ReviewIntervalSteps any     `json:"review_interval_steps,omitempty"`
	MarkReviewed        any     `json:"mark_reviewed,omitempty" jsonschema:"set the last review to now"`
}

func (s *Server) handleUpdateProject(ctx context.Context, t *envelope.Timer, in UpdateProjectInput) envelope.Envelope {
	now := time.Now()
	u := models.ProjectUpdate{Name: in.Name, Note: in.Note, FolderName: in.Folder}
	var err error
	if in.Status != "" {
		u.Status = models.String(normalizeStatus(in.Status))
	}
	if u.Flagged, err = optBool("flagged", in.Flagged); err != nil {
		return t.Failure(err, nil)
	}
	if u.Sequential, err = optBool("sequential", in.Sequential); err != nil {
		return t.Failure(err, nil)
	}
	if u.DueDate, err = dateChange("due_date", in.DueDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if u.DeferDate, err = dateChange("defer_date", in.DeferDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if u.ReviewInterval, err = reviewInterval(in.ReviewIntervalUnit, in.ReviewIntervalSteps); err != nil {
		return t.Failure(err, nil)
	}
	if u.MarkReviewed, err = boolOr("mark_reviewed", in.MarkReviewed, false); err != nil {
		return t.Failure(err, nil)
	}
	proj, err := s.client.ResolveProject(ctx, in.Project)
	if err != nil {
		return t.Failure(err, nil)
	}
	u.ID = proj.ID
	updated, err := s.client.UpdateProject(ctx, u)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"project": updated}, nil)
}

type DeleteProjectInput struct {
	Project    string `json:"project" jsonschema:"project name or id"`
	TaskAction string `json:"task_action,omitempty" jsonschema:"keep (default), drop or inbox"`
}

func (s *Server) handleDeleteProject(ctx context.Context, t *envelope.Timer, in DeleteProjectInput) envelope.Envelope {
	proj, err := s.client.ResolveProject(ctx, in.Project)
	if err != nil {
		return t.Failure(err, nil)
	}
	res, err := s.client.DeleteProject(ctx, models.ProjectDelete{
		ID:         proj.ID,
		TaskAction: strings.ToLower(strings.TrimSpace(in.TaskAction)),
	})
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(res, nil)
}

// ============================================================================
// Tags and folders
// ============================================================================

type ListTagsInput struct {
	Search       string `json:"search,omitempty"`
	TopLevelOnly any    `json:"top_level_only,omitempty"`
}

func (s *Server) handleListTags(ctx context.Context, t *envelope.Timer, in ListTagsInput) envelope.Envelope {
	top, err := boolOr("top_level_only", in.TopLevelOnly, false)
	if err != nil {
		return t.Failure(err, nil)
	}
	res, err := s.client.ListTags(ctx, models.TagFilter{Search: strings.TrimSpace(in.Search), TopLevelOnly: top})
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"tags": res.Items}, listMeta(len(res.Items), res.Meta, nil))
}

type ManageTagInput struct {
	Action  string `json:"action" jsonschema:"create, rename, delete or nest"`
	Name    string `json:"name" jsonschema:"tag name"`
	NewName string `json:"new_name,omitempty" jsonschema:"for rename"`
	Parent  string `json:"parent,omitempty" jsonschema:"parent tag for create or nest; empty with nest moves to the top level"`
}

func (s *Server) handleManageTag(ctx context.Context, t *envelope.Timer, in ManageTagInput) envelope.Envelope {
	res, err := s.client.ManageTag(ctx, models.TagOperation{
		Action:     strings.ToLower(strings.TrimSpace(in.Action)),
		Name:       strings.TrimSpace(in.Name),
		NewName:    strings.TrimSpace(in.NewName),
		ParentName: strings.TrimSpace(in.Parent),
	})
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(res, nil)
}

type EmptyInput struct{}

func (s *Server) handleListFolders(ctx context.Context, t *envelope.Timer, _ EmptyInput) envelope.Envelope {
	res, err := s.client.ListFolders(ctx)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"folders": res.Items}, listMeta(len(res.Items), res.Meta, nil))
}
