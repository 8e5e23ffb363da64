package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

var projectColumns = []string{"id", "name", "status", "folder", "dueDate", "nextReviewDate"}

// NewProjectCommand creates all subcommands for the 'project' command group.
func NewProjectCommand() *cli.Command {
	return &cli.Command{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Manage projects",
		Subcommands: []*cli.Command{
			projectListCmd(),
			projectGetCmd(),
			projectCreateCmd(),
			projectUpdateCmd(),
			projectDeleteCmd(),
		},
	}
}

// projectListCmd lists projects.
func projectListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List projects",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "comma-separated: active, onHold, dropped, done"},
			&cli.BoolFlag{Name: "flagged", Usage: "flagged projects only"},
			&cli.StringFlag{Name: "folder", Usage: "folder name"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
			&cli.BoolFlag{Name: "needs-review", Usage: "projects due for review"},
			&cli.BoolFlag{Name: "counts", Usage: "include task counts"},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			f := models.ProjectFilter{
				Flagged:     boolFlag(c, "flagged"),
				FolderName:  c.String("folder"),
				Search:      c.String("search"),
				NeedsReview: c.Bool("needs-review"),
			}
			for _, s := range splitList(c.String("status")) {
				f.Statuses = append(f.Statuses, normalizeStatus(s))
			}
			res, err := runtimeFrom(c).Client.ListProjects(c.Context, f, c.Bool("counts"))
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			cols := projectColumns
			if c.Bool("counts") {
				cols = append(cols[:len(cols):len(cols)], "taskCounts.total", "taskCounts.available")
			}
			return p.List(res.Items, cols)
		},
	}
}

// projectGetCmd shows a project by name or id.
func projectGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"show"},
		Usage:     "Show details for a project",
		ArgsUsage: "[project name or id]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			ref, err := firstArg(c, "project name or ID")
			if err != nil {
				return err
			}
			rt := runtimeFrom(c)
			proj, err := rt.Client.ResolveProject(c.Context, ref)
			if err != nil {
				return err
			}
			full, err := rt.Client.GetProject(c.Context, proj.ID)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Object(full)
		},
	}
}

func reviewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "review-every", Usage: "review interval unit: days, weeks, months or years"},
		&cli.IntFlag{Name: "review-steps", Usage: "review interval in units", Value: 1},
	}
}

func reviewInterval(c *cli.Context) *models.ReviewInterval {
	if c.String("review-every") == "" {
		return nil
	}
	return &models.ReviewInterval{Unit: models.NormalizeUnit(c.String("review-every")), Steps: c.Int("review-steps")}
}

// projectCreateCmd creates a new project.
func projectCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Aliases:   []string{"add"},
		Usage:     "Create a new project",
		ArgsUsage: "[name]",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{Name: "note"},
			&cli.StringFlag{Name: "folder", Usage: "folder name (created if missing)"},
			&cli.StringFlag{Name: "status", Usage: "active or onHold"},
			&cli.BoolFlag{Name: "flag"},
			&cli.BoolFlag{Name: "sequential"},
			&cli.StringFlag{Name: "due"},
			&cli.StringFlag{Name: "defer"},
			&cli.StringFlag{Name: "tags"},
		}, reviewFlags()...), outputFlags()...),
		Action: func(c *cli.Context) error {
			name, err := firstArg(c, "project name")
			if err != nil {
				return err
			}
			in := models.ProjectCreate{
				Name:           name,
				Note:           c.String("note"),
				FolderName:     c.String("folder"),
				Flagged:        c.Bool("flag"),
				Sequential:     c.Bool("sequential"),
				Tags:           splitList(c.String("tags")),
				ReviewInterval: reviewInterval(c),
			}
			if s := c.String("status"); s != "" {
				in.Status = normalizeStatus(s)
			}
			if in.DueDate, err = dateFlag(c, "due"); err != nil {
				return err
			}
			if in.DeferDate, err = dateFlag(c, "defer"); err != nil {
				return err
			}
			proj, err := runtimeFrom(c).Client.CreateProject(c.Context, in)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(proj, "✅ Project '%s' created successfully! (%s)", proj.Name, proj.ID)
		},
	}
}

// projectUpdateCmd changes project fields.
func projectUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Aliases:   []string{"edit"},
		Usage:     "Update a project's fields or status",
		ArgsUsage: "[project name or id]",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "note"},
			&cli.StringFlag{Name: "status", Usage: "active, onHold, dropped or done"},
			&cli.BoolFlag{Name: "flag"},
			&cli.BoolFlag{Name: "sequential"},
			&cli.StringFlag{Name: "folder", Usage: "move into this folder; empty for top level"},
			&cli.StringFlag{Name: "due"},
			&cli.StringFlag{Name: "defer"},
			&cli.BoolFlag{Name: "reviewed", Usage: "mark reviewed now"},
		}, reviewFlags()...), outputFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := firstArg(c, "project name or ID")
			if err != nil {
				return err
			}
			rt := runtimeFrom(c)
			proj, err := rt.Client.ResolveProject(c.Context, ref)
			if err != nil {
				return err
			}
			u := models.ProjectUpdate{
				ID:             proj.ID,
				Name:           stringFlag(c, "name"),
				Note:           stringFlag(c, "note"),
				Flagged:        boolFlag(c, "flag"),
				Sequential:     boolFlag(c, "sequential"),
				FolderName:     stringFlag(c, "folder"),
				ReviewInterval: reviewInterval(c),
				MarkReviewed:   c.Bool("reviewed"),
			}
			if c.IsSet("status") {
				u.Status = models.String(normalizeStatus(c.String("status")))
			}
			if u.DueDate, err = dateChangeFlag(c, "due"); err != nil {
				return err
			}
			if u.DeferDate, err = dateChangeFlag(c, "defer"); err != nil {
				return err
			}
			updated, err := rt.Client.UpdateProject(c.Context, u)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(updated, "✅ Project '%s' updated", updated.Name)
		},
	}
}

// projectDeleteCmd deletes a project.
func projectDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a project (marks it dropped)",
		ArgsUsage: "[project name or id]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "tasks", Usage: "open tasks: keep (stay in the dropped project), drop or inbox", Value: models.ProjectTasksKeep},
			yesFlag(),
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			ref, err := firstArg(c, "project name or ID")
			if err != nil {
				return err
			}
			rt := runtimeFrom(c)
			proj, err := rt.Client.ResolveProject(c.Context, ref)
			if err != nil {
				return err
			}
			ok, err := confirm(c, "Delete project '%s'?", proj.Name)
			if err != nil || !ok {
				return err
			}
			res, err := rt.Client.DeleteProject(c.Context, models.ProjectDelete{ID: proj.ID, TaskAction: c.String("tasks")})
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(res, "🗑️  Project '%s' dropped (%d open task(s): %s)", res.Name, res.TasksAffected, res.TaskAction)
		},
	}
}
