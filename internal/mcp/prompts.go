package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds the GTD workflow prompts.
func (s *Server) registerPrompts() {
	// Weekly Review - walk projects due for review, then stale and overdue work
	s.srv.AddPrompt(&mcp.Prompt{
		Name:        "weekly_review",
		Title:       "Weekly Review",
		Description: "Walk through projects due for review, overdue work and the week's completions",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "folder",
				Description: "Limit the review to projects in this folder",
				Required:    false,
			},
			{
				Name:        "days",
				Description: "How many days of completions to look back over (default 7)",
				Required:    false,
			},
		},
	}, handleWeeklyReviewPrompt)

	// Inbox Processing - clarify and organize every inbox item
	s.srv.AddPrompt(&mcp.Prompt{
		Name:        "inbox_processing",
		Title:       "Inbox Processing",
		Description: "Clarify each inbox task and move it to a project, schedule it or drop it",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "project",
				Description: "Default project for items that clearly belong together",
				Required:    false,
			},
		},
	}, handleInboxProcessingPrompt)
}

func handleWeeklyReviewPrompt(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	folder := strings.TrimSpace(req.Params.Arguments["folder"])
	days := strings.TrimSpace(req.Params.Arguments["days"])
	if days == "" {
		days = "7"
	}

	scope := "all projects"
	projectArgs := `needs_review=true`
	if folder != "" {
		scope = fmt.Sprintf("projects in folder %q", folder)
		projectArgs = fmt.Sprintf(`needs_review=true and folder=%q`, folder)
	}

	promptText := fmt.Sprintf(`Run a GTD weekly review over %s.

## Step 1: Get Clear
- Call list_tasks with in_inbox=true. If anything is there, process it first (see the inbox_processing prompt).

## Step 2: Review Projects
- Call list_projects with %s and counts=true.
- For each project: does it have a next action? Is it still active, or should it go on hold or be dropped?
- After discussing a project, call update_project with mark_reviewed=true.

## Step 3: Overdue and Stale Work
- Call analyze_overdue and go through the key findings project by project.
- Reschedule with update_task (due_date), or drop_task what will not be done.

## Step 4: Look Back
- Call productivity_stats with days=%s and summarize what got done.

## Step 5: Look Ahead
- Call list_tasks with completed=false and due_before="+7d" to preview the coming week.

## Notes
- Ask before deleting anything; prefer drop_task.
- Keep the summary short: decisions made, projects changed, open questions.`,
		scope, projectArgs, days)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Weekly review of %s", scope),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}

func handleInboxProcessingPrompt(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	project := strings.TrimSpace(req.Params.Arguments["project"])

	var defaultSection string
	if project != "" {
		defaultSection = fmt.Sprintf(`

## Default Project
Items that belong together and have no better home go to %q
(move_task with project=%q).`, project, project)
	}

	promptText := fmt.Sprintf(`Process the inbox one item at a time.

## Step 1: Collect
- Call list_tasks with in_inbox=true, completed=false and details=true.
- Call list_projects with status="active" and list_tags so you know where things can go.

## Step 2: Clarify Each Item
For every task ask: is it actionable?
- Not actionable: drop_task (or delete_task if it was a mistake, after asking).
- Under two minutes: suggest doing it now, then complete_task.
- Needs a date: update_task with due_date or defer_date.
- Belongs to a project: move_task with project set.
- Needs context: update_task with add_tags.

## Step 3: Confirm
- Call list_tasks with in_inbox=true again; it should be empty or hold only items the user chose to keep.%s`,
		defaultSection)

	return &mcp.GetPromptResult{
		Description: "Process the inbox",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}
