package commands

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/output"
)

var taskColumns = []string{"id", "name", "project", "dueDate", "flagged", "tags"}

// NewTaskCommand creates all subcommands for the 'task' command group.
func NewTaskCommand() *cli.Command {
	return &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Manage tasks",
		Subcommands: []*cli.Command{
			taskListCmd(),
			taskGetCmd(),
			taskCreateCmd(),
			taskUpdateCmd(),
			taskCompleteCmd(),
			taskDropCmd(),
			taskDeleteCmd(),
			taskMoveCmd(),
		},
	}
}

// taskListCmd lists tasks matching filters.
func taskListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List tasks",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "completed", Usage: "completed tasks only (--completed=false for open)"},
			&cli.BoolFlag{Name: "flagged", Usage: "flagged tasks only"},
			&cli.BoolFlag{Name: "dropped", Usage: "dropped tasks only"},
			&cli.BoolFlag{Name: "available", Usage: "available tasks only"},
			&cli.BoolFlag{Name: "blocked", Usage: "blocked tasks only"},
			&cli.BoolFlag{Name: "inbox", Usage: "inbox tasks only"},
			&cli.BoolFlag{Name: "overdue", Usage: "open tasks due before today"},
			&cli.BoolFlag{Name: "has-due", Usage: "tasks with a due date"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "project name or id"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "text in the name (and note with --details)"},
			&cli.StringFlag{Name: "tags", Usage: "comma-separated tag names"},
			&cli.StringFlag{Name: "tag-mode", Usage: "AND, OR or NOT_IN", Value: models.TagModeOr},
			&cli.StringFlag{Name: "due-before"},
			&cli.StringFlag{Name: "due-after"},
			&cli.StringFlag{Name: "defer-before"},
			&cli.StringFlag{Name: "defer-after"},
			&cli.StringFlag{Name: "completed-before"},
			&cli.StringFlag{Name: "completed-after"},
			&cli.BoolFlag{Name: "details", Usage: "include notes and added/modified dates"},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			rt := runtimeFrom(c)
			f := models.TaskFilter{
				Completed:      boolFlag(c, "completed"),
				Flagged:        boolFlag(c, "flagged"),
				Dropped:        boolFlag(c, "dropped"),
				Available:      boolFlag(c, "available"),
				Blocked:        boolFlag(c, "blocked"),
				InInbox:        boolFlag(c, "inbox"),
				HasDueDate:     boolFlag(c, "has-due"),
				Overdue:        c.Bool("overdue"),
				Search:         c.String("search"),
				Tags:           splitList(c.String("tags")),
				TagMode:        strings.ToUpper(c.String("tag-mode")),
				IncludeDetails: c.Bool("details"),
			}
			var err error
			for name, dst := range map[string]**models.Timestamp{
				"due-before":       &f.DueBefore,
				"due-after":        &f.DueAfter,
				"defer-before":     &f.DeferBefore,
				"defer-after":      &f.DeferAfter,
				"completed-before": &f.CompletedBefore,
				"completed-after":  &f.CompletedAfter,
			} {
				if *dst, err = dateFlag(c, name); err != nil {
					return err
				}
			}
			if p := c.String("project"); p != "" {
				proj, err := rt.Client.ResolveProject(c.Context, p)
				if err != nil {
					return err
				}
				f.ProjectID = proj.ID
			}

			res, err := rt.Client.ListTasks(c.Context, f)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.List(res.Items, taskColumns)
		},
	}
}

// taskGetCmd shows one task.
func taskGetCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"show"},
		Usage:     "Show details for a task",
		ArgsUsage: "[task-id]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			task, err := runtimeFrom(c).Client.GetTask(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Object(task)
		},
	}
}

func repeatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "repeat", Usage: "repeat unit: minutes, hours, days, weeks, months or years"},
		&cli.IntFlag{Name: "every", Usage: "repeat interval in units", Value: 1},
		&cli.StringFlag{Name: "repeat-method", Usage: "fixed, due-after-completion or start-after-completion"},
	}
}

func repeatRule(c *cli.Context) *models.RepetitionRule {
	if c.String("repeat") == "" {
		return nil
	}
	return &models.RepetitionRule{
		Unit:   models.NormalizeUnit(c.String("repeat")),
		Steps:  c.Int("every"),
		Method: models.NormalizeMethod(c.String("repeat-method")),
	}
}

// taskCreateCmd creates a new task.
func taskCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Aliases:   []string{"add"},
		Usage:     "Create a new task (in the inbox unless --project or --parent is given)",
		ArgsUsage: "[name]",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{Name: "note", Usage: "task note"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "project name or id"},
			&cli.StringFlag{Name: "parent", Usage: "parent task id"},
			&cli.BoolFlag{Name: "flag", Aliases: []string{"f"}, Usage: "flag the task"},
			&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "due date"},
			&cli.StringFlag{Name: "defer", Usage: "defer date"},
			&cli.StringFlag{Name: "planned", Usage: "planned date"},
			&cli.IntFlag{Name: "estimate", Usage: "estimated minutes"},
			&cli.StringFlag{Name: "tags", Usage: "comma-separated tag names"},
		}, repeatFlags()...), outputFlags()...),
		Action: func(c *cli.Context) error {
			name, err := firstArg(c, "task name")
			if err != nil {
				return err
			}
			rt := runtimeFrom(c)
			in := models.TaskCreate{
				Name:           name,
				Note:           c.String("note"),
				ParentTaskID:   c.String("parent"),
				Flagged:        c.Bool("flag"),
				Tags:           splitList(c.String("tags")),
				RepetitionRule: repeatRule(c),
			}
			if c.IsSet("estimate") {
				n := c.Int("estimate")
				in.EstimatedMinutes = &n
			}
			if in.DueDate, err = dateFlag(c, "due"); err != nil {
				return err
			}
			if in.DeferDate, err = dateFlag(c, "defer"); err != nil {
				return err
			}
			if in.PlannedDate, err = dateFlag(c, "planned"); err != nil {
				return err
			}
			if p := c.String("project"); p != "" {
				proj, err := rt.Client.ResolveProject(c.Context, p)
				if err != nil {
					return err
				}
				in.ProjectID = proj.ID
			}

			task, err := rt.Client.CreateTask(c.Context, in)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(task, "✅ Task '%s' created (%s)", task.Name, task.ID)
		},
	}
}

// taskUpdateCmd changes only the given fields.
func taskUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Aliases:   []string{"edit"},
		Usage:     "Update task fields; pass an empty date to clear it",
		ArgsUsage: "[task-id]",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "note"},
			&cli.BoolFlag{Name: "flag", Usage: "--flag or --flag=false"},
			&cli.StringFlag{Name: "due"},
			&cli.StringFlag{Name: "defer"},
			&cli.StringFlag{Name: "planned"},
			&cli.IntFlag{Name: "estimate", Usage: "estimated minutes; 0 clears"},
			&cli.StringFlag{Name: "tags", Usage: "replace all tags"},
			&cli.StringFlag{Name: "add-tags"},
			&cli.StringFlag{Name: "remove-tags"},
			&cli.BoolFlag{Name: "no-repeat", Usage: "remove the repetition rule"},
		}, repeatFlags()...), outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			u := models.TaskUpdate{
				ID:              c.Args().First(),
				Name:            stringFlag(c, "name"),
				Note:            stringFlag(c, "note"),
				Flagged:         boolFlag(c, "flag"),
				AddTags:         splitList(c.String("add-tags")),
				RemoveTags:      splitList(c.String("remove-tags")),
				RepetitionRule:  repeatRule(c),
				ClearRepetition: c.Bool("no-repeat"),
			}
			var err error
			if u.DueDate, err = dateChangeFlag(c, "due"); err != nil {
				return err
			}
			if u.DeferDate, err = dateChangeFlag(c, "defer"); err != nil {
				return err
			}
			if u.PlannedDate, err = dateChangeFlag(c, "planned"); err != nil {
				return err
			}
			if c.IsSet("estimate") {
				if n := c.Int("estimate"); n > 0 {
					u.EstimatedMinutes = &n
				} else {
					u.ClearEstimate = true
				}
			}
			if c.IsSet("tags") {
				u.Tags, u.ReplaceTags = splitList(c.String("tags")), true
			}

			task, err := runtimeFrom(c).Client.UpdateTask(c.Context, u)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(task, "✅ Task '%s' updated", task.Name)
		},
	}
}

// taskCompleteCmd marks tasks complete.
func taskCompleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Aliases:   []string{"done"},
		Usage:     "Mark one or more tasks complete",
		ArgsUsage: "[task-id...]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			for _, id := range c.Args().Slice() {
				task, err := runtimeFrom(c).Client.CompleteTask(c.Context, id)
				if err != nil {
					return err
				}
				if err := p.Result(task, "✅ Completed '%s'", task.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// taskDropCmd drops a task.
func taskDropCmd() *cli.Command {
	return &cli.Command{
		Name:      "drop",
		Usage:     "Drop a task without completing it",
		ArgsUsage: "[task-id]",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "stop every future occurrence of a repeating task"},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			task, err := runtimeFrom(c).Client.DropTask(c.Context, c.Args().First(), c.Bool("all"))
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Result(task, "Dropped '%s'", task.Name)
		},
	}
}

// taskDeleteCmd permanently deletes one or more tasks.
func taskDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Permanently delete tasks",
		ArgsUsage: "[task-id...]",
		Flags:     append([]cli.Flag{yesFlag()}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			ids := c.Args().Slice()
			ok, err := confirm(c, "Permanently delete %d task(s)?", len(ids))
			if err != nil || !ok {
				return err
			}
			rt := runtimeFrom(c)
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			if len(ids) == 1 {
				res, err := rt.Client.DeleteTask(c.Context, ids[0])
				if err != nil {
					return err
				}
				return p.Result(res, "🗑️  Deleted '%s'", res.Name)
			}
			res, err := rt.Client.BulkDeleteTasks(c.Context, ids)
			if err != nil {
				return err
			}
			return printBulk(p, res, "Deleted")
		},
	}
}

// taskMoveCmd relocates tasks.
func taskMoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Aliases:   []string{"mv"},
		Usage:     "Move tasks to the inbox, a project or under a parent task",
		ArgsUsage: "[task-id...]",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "inbox", Usage: "move to the inbox"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "project name or id"},
			&cli.StringFlag{Name: "parent", Usage: "parent task id"},
		}, outputFlags()...),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("task ID is required")
			}
			rt := runtimeFrom(c)
			m := models.TaskMove{
				IDs:            c.Args().Slice(),
				ToInbox:        c.Bool("inbox"),
				ToParentTaskID: c.String("parent"),
			}
			if name := c.String("project"); name != "" {
				proj, err := rt.Client.ResolveProject(c.Context, name)
				if err != nil {
					return err
				}
				m.ToProjectID = proj.ID
			}
			res, err := rt.Client.MoveTasks(c.Context, m)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return printBulk(p, res, "Moved")
		},
	}
}

// printBulk reports per-id outcomes. Partial failure still exits 0.
func printBulk(p *output.Printer, res *models.BulkResult, verb string) error {
	if err := p.Result(res, "✅ %s %d of %d task(s)", verb, len(res.Succeeded), res.Requested); err != nil {
		return err
	}
	for _, e := range res.Errors {
		p.Message("   %s: %s", e.ID, e.Error)
	}
	return nil
}
