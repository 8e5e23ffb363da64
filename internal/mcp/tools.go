package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/ofocus-cli/internal/bridgeerr"
	"github.com/kutbudev/ofocus-cli/internal/envelope"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// registerTools registers every tool. Input schemas are inferred from the
// input structs.
func (s *Server) registerTools() {
	// Tasks
	addTool(s, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks matching filters. Booleans filter only when set. Date bounds are exclusive.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleListTasks)
	addTool(s, &mcp.Tool{
		Name:        "get_task",
		Description: "Get one task with its note, dates and recurrence status.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleGetTask)
	addTool(s, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task in the inbox, a project (name or id) or under a parent task.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)},
	}, s.handleCreateTask)
	addTool(s, &mcp.Tool{
		Name:        "update_task",
		Description: "Change only the given fields of a task. Pass an empty string to clear a date.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleUpdateTask)
	addTool(s, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task complete. Repeating tasks spawn their next occurrence.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)},
	}, s.handleCompleteTask)
	addTool(s, &mcp.Tool{
		Name:        "drop_task",
		Description: "Drop a task without completing it. all_occurrences stops a repeating task for good.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), OpenWorldHint: boolPtr(false)},
	}, s.handleDropTask)
	addTool(s, &mcp.Tool{
		Name:        "delete_task",
		Description: "Permanently delete a task.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
	}, s.handleDeleteTask)
	addTool(s, &mcp.Tool{
		Name:        "bulk_delete_tasks",
		Description: "Permanently delete several tasks. Missing ids are reported per id; the rest are still deleted.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(true), OpenWorldHint: boolPtr(false)},
	}, s.handleBulkDeleteTasks)
	addTool(s, &mcp.Tool{
		Name:        "move_task",
		Description: "Move tasks to the inbox, a project or under a parent task. Set exactly one target.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: boolPtr(false), IdempotentHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleMoveTask)
	addTool(s, &mcp.Tool{
		Name:        "todays_agenda",
		Description: "Overdue, due-soon and flagged tasks, merged without duplicates. The best first call of a session.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
	}, s.handleTodaysAgenda)

	s.registerProjectTools()
	s.registerAnalyticsTools()
}

// ============================================================================
// Task tools
// ============================================================================

type ListTasksInput struct {
	Completed       any    `json:"completed,omitempty" jsonschema:"true or false"`
	Flagged         any    `json:"flagged,omitempty" jsonschema:"true or false"`
	Dropped         any    `json:"dropped,omitempty" jsonschema:"true or false"`
	Available       any    `json:"available,omitempty" jsonschema:"true or false"`
	Blocked         any    `json:"blocked,omitempty" jsonschema:"true or false"`
	InInbox         any    `json:"in_inbox,omitempty" jsonschema:"true or false"`
	Project         string `json:"project,omitempty" jsonschema:"project name or id"`
	Search          string `json:"search,omitempty" jsonschema:"case-insensitive text in name (and note with details)"`
	Tags            any    `json:"tags,omitempty" jsonschema:"tag names, array or comma-separated"`
	TagMode         string `json:"tag_mode,omitempty" jsonschema:"AND, OR (default) or NOT_IN"`
	DueBefore       string `json:"due_before,omitempty"`
	DueAfter        string `json:"due_after,omitempty"`
	DeferBefore     string `json:"defer_before,omitempty"`
	DeferAfter      string `json:"defer_after,omitempty"`
	PlannedBefore   string `json:"planned_before,omitempty"`
	PlannedAfter    string `json:"planned_after,omitempty"`
	CompletedBefore string `json:"completed_before,omitempty"`
	CompletedAfter  string `json:"completed_after,omitempty"`
	HasDueDate      any    `json:"has_due_date,omitempty" jsonschema:"true or false"`
	Overdue         any    `json:"overdue,omitempty" jsonschema:"only open tasks due before today"`
	Details         any    `json:"details,omitempty" jsonschema:"include notes and added/modified dates"`
	Limit           any    `json:"limit,omitempty" jsonschema:"maximum tasks to return"`
}

func (s *Server) taskFilter(ctx context.Context, in ListTasksInput) (models.TaskFilter, error) {
	var f models.TaskFilter
	var err error
	bools := []struct {
		name string
		v    any
		dst  **bool
	}{
		{"completed", in.Completed, &f.Completed},
		{"flagged", in.Flagged, &f.Flagged},
		{"dropped", in.Dropped, &f.Dropped},
		{"available", in.Available, &f.Available},
		{"blocked", in.Blocked, &f.Blocked},
		{"in_inbox", in.InInbox, &f.InInbox},
		{"has_due_date", in.HasDueDate, &f.HasDueDate},
	}
	for _, b := range bools {
		if *b.dst, err = optBool(b.name, b.v); err != nil {
			return f, err
		}
	}
	now := time.Now()
	datesIn := []struct {
		name string
		v    string
		dst  **models.Timestamp
	}{
		{"due_before", in.DueBefore, &f.DueBefore},
		{"due_after", in.DueAfter, &f.DueAfter},
		{"defer_before", in.DeferBefore, &f.DeferBefore},
		{"defer_after", in.DeferAfter, &f.DeferAfter},
		{"planned_before", in.PlannedBefore, &f.PlannedBefore},
		{"planned_after", in.PlannedAfter, &f.PlannedAfter},
		{"completed_before", in.CompletedBefore, &f.CompletedBefore},
		{"completed_after", in.CompletedAfter, &f.CompletedAfter},
	}
	for _, d := range datesIn {
		if *d.dst, err = optDate(d.name, d.v, now); err != nil {
			return f, err
		}
	}
	if f.Tags, err = stringList("tags", in.Tags); err != nil {
		return f, err
	}
	if f.Overdue, err = boolOr("overdue", in.Overdue, false); err != nil {
		return f, err
	}
	if f.IncludeDetails, err = boolOr("details", in.Details, false); err != nil {
		return f, err
	}
	if f.Limit, err = intOr("limit", in.Limit, 0); err != nil {
		return f, err
	}
	f.TagMode = strings.ToUpper(strings.TrimSpace(in.TagMode))
	f.Search = strings.TrimSpace(in.Search)
	if p := strings.TrimSpace(in.Project); p != "" {
		proj, err := s.client.ResolveProject(ctx, p)
		if err != nil {
			return f, err
		}
		f.ProjectID = proj.ID
	}
	return f, nil
}

func (s *Server) handleListTasks(ctx context.Context, t *envelope.Timer, in ListTasksInput) envelope.Envelope {
	f, err := s.taskFilter(ctx, in)
	if err != nil {
		return t.Failure(err, nil)
	}
	res, err := s.client.ListTasks(ctx, f)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"tasks": res.Items}, listMeta(len(res.Items), res.Meta, map[string]any{"filters": f}))
}

type TaskIDInput struct {
	ID string `json:"id" jsonschema:"task id"`
}

func (s *Server) handleGetTask(ctx context.Context, t *envelope.Timer, in TaskIDInput) envelope.Envelope {
	task, err := s.client.GetTask(ctx, in.ID)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"task": task}, nil)
}

type CreateTaskInput struct {
	Name             string `json:"name" jsonschema:"task name"`
	Note             string `json:"note,omitempty"`
	Project          string `json:"project,omitempty" jsonschema:"project name or id; omit for the inbox"`
	ParentTaskID     string `json:"parent_task_id,omitempty" jsonschema:"create as a subtask of this task"`
	Flagged          any    `json:"flagged,omitempty"`
	DueDate          string `json:"due_date,omitempty"`
	DeferDate        string `json:"defer_date,omitempty"`
	PlannedDate      string `json:"planned_date,omitempty"`
	EstimatedMinutes any    `json:"estimated_minutes,omitempty"`
	Tags             any    `json:"tags,omitempty" jsonschema:"tag names; missing tags are created"`
	RepeatUnit       string `json:"repeat_unit,omitempty" jsonschema:"minutes, hours, days, weeks, months or years"`
	RepeatEvery      any    `json:"repeat_every,omitempty" jsonschema:"repeat interval in units (default 1)"`
	RepeatMethod     string `json:"repeat_method,omitempty" jsonschema:"fixed, due-after-completion or start-after-completion"`
}

func (s *Server) handleCreateTask(ctx context.Context, t *envelope.Timer, in CreateTaskInput) envelope.Envelope {
	now := time.Now()
	out := models.TaskCreate{
		Name:         strings.TrimSpace(in.Name),
		Note:         in.Note,
		ParentTaskID: strings.TrimSpace(in.ParentTaskID),
	}
	var err error
	if out.Flagged, err = boolOr("flagged", in.Flagged, false); err != nil {
		return t.Failure(err, nil)
	}
	if out.DueDate, err = optDate("due_date", in.DueDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if out.DeferDate, err = optDate("defer_date", in.DeferDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if out.PlannedDate, err = optDate("planned_date", in.PlannedDate, now); err != nil {
		return t.Failure(err, nil)
	}
	if out.EstimatedMinutes, err = optInt("estimated_minutes", in.EstimatedMinutes); err != nil {
		return t.Failure(err, nil)
	}
	if out.Tags, err = stringList("tags", in.Tags); err != nil {
		return t.Failure(err, nil)
	}
	if out.RepetitionRule, err = ruleFrom(in.RepeatUnit, in.RepeatEvery, in.RepeatMethod); err != nil {
		return t.Failure(err, nil)
	}
	if p := strings.TrimSpace(in.Project); p != "" {
		if out.ParentTaskID != "" {
			return t.Failure(bridgeerr.New(bridgeerr.ConflictingTargetSpecified, "set either project or parent_task_id, not both"), nil)
		}
		proj, err := s.client.ResolveProject(ctx, p)
		if err != nil {
			return t.Failure(err, nil)
		}
		out.ProjectID = proj.ID
	}
	task, err := s.client.CreateTask(ctx, out)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"task": task}, nil)
}

type UpdateTaskInput struct {
	ID               string  `json:"id"`
	Name             *string `json:"name,omitempty"`
	Note             *string `json:"note,omitempty"`
	Flagged          any     `json:"flagged,omitempty"`
	DueDate          *string `json:"due_date,omitempty" jsonschema:"new due date; empty string clears"`
	DeferDate        *string `json:"defer_date,omitempty" jsonschema:"new defer date; empty string clears"`
	PlannedDate      *string `json:"planned_date,omitempty" jsonschema:"new planned date; empty string clears"`
	EstimatedMinutes any     `json:"estimated_minutes,omitempty" jsonschema:"minutes; 0 or empty clears"`
	Tags             any     `json:"tags,omitempty" jsonschema:"replace all tags with these"`
	AddTags          any     `json:"add_tags,omitempty"`
	RemoveTags       any     `json:"remove_tags,omitempty"`
	RepeatUnit       string  `json:"repeat_unit,omitempty" jsonschema:"set a repetition rule; 'none' removes it"`
	RepeatEvery      any     `json:"repeat_every,omitempty"`
	RepeatMethod     string  `json:"repeat_method,omitempty"`
}

func (s *Server) taskUpdate(in UpdateTaskInput) (models.TaskUpdate, error) {
	now := time.Now()
	u := models.TaskUpdate{ID: strings.TrimSpace(in.ID), Name: in.Name, Note: in.Note}
	var err error
	if u.Flagged, err = optBool("flagged", in.Flagged); err != nil {
		return u, err
	}
	if u.DueDate, err = dateChange("due_date", in.DueDate, now); err != nil {
		return u, err
	}
	if u.DeferDate, err = dateChange("defer_date", in.DeferDate, now); err != nil {
		return u, err
	}
	if u.PlannedDate, err = dateChange("planned_date", in.PlannedDate, now); err != nil {
		return u, err
	}
	if in.EstimatedMinutes == "" {
		u.ClearEstimate = true
	} else if u.EstimatedMinutes, err = optInt("estimated_minutes", in.EstimatedMinutes); err != nil {
		return u, err
	} else if u.EstimatedMinutes != nil && *u.EstimatedMinutes == 0 {
		u.EstimatedMinutes, u.ClearEstimate = nil, true
	}
	if in.Tags != nil {
		if u.Tags, err = stringList("tags", in.Tags); err != nil {
			return u, err
		}
		u.ReplaceTags = true
	}
	if u.AddTags, err = stringList("add_tags", in.AddTags); err != nil {
		return u, err
	}
	if u.RemoveTags, err = stringList("remove_tags", in.RemoveTags); err != nil {
		return u, err
	}
	if strings.EqualFold(strings.TrimSpace(in.RepeatUnit), "none") {
		u.ClearRepetition = true
	} else if u.RepetitionRule, err = ruleFrom(in.RepeatUnit, in.RepeatEvery, in.RepeatMethod); err != nil {
		return u, err
	}
	return u, nil
}

func (s *Server) handleUpdateTask(ctx context.Context, t *envelope.Timer, in UpdateTaskInput) envelope.Envelope {
	u, err := s.taskUpdate(in)
	if err != nil {
		return t.Failure(err, nil)
	}
	task, err := s.client.UpdateTask(ctx, u)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"task": task}, nil)
}

func (s *Server) handleCompleteTask(ctx context.Context, t *envelope.Timer, in TaskIDInput) envelope.Envelope {
	task, err := s.client.CompleteTask(ctx, in.ID)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"task": task}, nil)
}

type DropTaskInput struct {
	ID             string `json:"id"`
	AllOccurrences any    `json:"all_occurrences,omitempty" jsonschema:"for repeating tasks, stop every future occurrence"`
}

func (s *Server) handleDropTask(ctx context.Context, t *envelope.Timer, in DropTaskInput) envelope.Envelope {
	all, err := boolOr("all_occurrences", in.AllOccurrences, false)
	if err != nil {
		return t.Failure(err, nil)
	}
	task, err := s.client.DropTask(ctx, in.ID, all)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(map[string]any{"task": task}, nil)
}

func (s *Server) handleDeleteTask(ctx context.Context, t *envelope.Timer, in TaskIDInput) envelope.Envelope {
	res, err := s.client.DeleteTask(ctx, in.ID)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(res, nil)
}

type BulkIDsInput struct {
	IDs any `json:"ids" jsonschema:"task ids, array or comma-separated"`
}

func (s *Server) handleBulkDeleteTasks(ctx context.Context, t *envelope.Timer, in BulkIDsInput) envelope.Envelope {
	ids, err := stringList("ids", in.IDs)
	if err != nil {
		return t.Failure(err, nil)
	}
	res, err := s.client.BulkDeleteTasks(ctx, ids)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(res, map[string]any{"count": len(res.Succeeded), "failed": len(res.Errors)})
}

type MoveTaskInput struct {
	IDs          any    `json:"ids" jsonschema:"task ids, array or comma-separated"`
	ToInbox      any    `json:"to_inbox,omitempty"`
	Project      string `json:"project,omitempty" jsonschema:"target project name or id"`
	ParentTaskID string `json:"parent_task_id,omitempty" jsonschema:"target parent task id"`
}

func (s *Server) handleMoveTask(ctx context.Context, t *envelope.Timer, in MoveTaskInput) envelope.Envelope {
	var m models.TaskMove
	var err error
	if m.IDs, err = stringList("ids", in.IDs); err != nil {
		return t.Failure(err, nil)
	}
	if m.ToInbox, err = boolOr("to_inbox", in.ToInbox, false); err != nil {
		return t.Failure(err, nil)
	}
	m.ToParentTaskID = strings.TrimSpace(in.ParentTaskID)
	if p := strings.TrimSpace(in.Project); p != "" {
		if m.ToInbox || m.ToParentTaskID != "" {
			return t.Failure(bridgeerr.New(bridgeerr.ConflictingTargetSpecified, "set exactly one of to_inbox, project, parent_task_id"), nil)
		}
		proj, err := s.client.ResolveProject(ctx, p)
		if err != nil {
			return t.Failure(err, nil)
		}
		m.ToProjectID = proj.ID
	}
	res, err := s.client.MoveTasks(ctx, m)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(res, map[string]any{"count": len(res.Succeeded), "failed": len(res.Errors)})
}

type AgendaInput struct {
	Limit any `json:"limit,omitempty" jsonschema:"per-list limit"`
}

func (s *Server) handleTodaysAgenda(ctx context.Context, t *envelope.Timer, in AgendaInput) envelope.Envelope {
	limit, err := intOr("limit", in.Limit, 0)
	if err != nil {
		return t.Failure(err, nil)
	}
	a, err := s.client.TodaysAgenda(ctx, limit)
	if err != nil {
		return t.Failure(err, nil)
	}
	return t.Success(a, map[string]any{
		"count":    len(a.Tasks),
		"overdue":  len(a.Overdue),
		"due_soon": len(a.DueSoon),
		"flagged":  len(a.Flagged),
	})
}
