package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/models"
	"github.com/kutbudev/ofocus-cli/internal/output"
)

// Views are shortcuts for the task lists used day to day.

func listFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra, outputFlags()...)
}

func printTasks(c *cli.Context, res *api.List[models.Task], err error) error {
	if err != nil {
		return err
	}
	p, err := printerFor(c)
	if err != nil {
		return err
	}
	return p.List(res.Items, taskColumns)
}

// NewInboxCommand lists open inbox tasks.
func NewInboxCommand() *cli.Command {
	return &cli.Command{
		Name:  "inbox",
		Usage: "Open tasks in the inbox",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			res, err := runtimeFrom(c).Client.Inbox(c.Context, 0)
			return printTasks(c, res, err)
		},
	}
}

// NewFlaggedCommand lists open flagged tasks.
func NewFlaggedCommand() *cli.Command {
	return &cli.Command{
		Name:  "flagged",
		Usage: "Open flagged tasks",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			res, err := runtimeFrom(c).Client.Flagged(c.Context, 0)
			return printTasks(c, res, err)
		},
	}
}

// NewOverdueCommand lists open tasks due before today.
func NewOverdueCommand() *cli.Command {
	return &cli.Command{
		Name:  "overdue",
		Usage: "Open tasks past their due date",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			res, err := runtimeFrom(c).Client.ListTasks(c.Context, models.TaskFilter{
				Completed: models.Bool(false),
				Dropped:   models.Bool(false),
				Overdue:   true,
			})
			return printTasks(c, res, err)
		},
	}
}

// NewUpcomingCommand lists tasks due in the next few days.
func NewUpcomingCommand() *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "Open tasks due from today through the next N days",
		Flags: listFlags(&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7}),
		Action: func(c *cli.Context) error {
			res, err := runtimeFrom(c).Client.Upcoming(c.Context, c.Int("days"), 0)
			return printTasks(c, res, err)
		},
	}
}

// NewTodayCommand prints the agenda: overdue, due soon and flagged.
func NewTodayCommand() *cli.Command {
	return &cli.Command{
		Name:    "today",
		Aliases: []string{"agenda"},
		Usage:   "Overdue, due-soon and flagged tasks",
		Flags:   listFlags(),
		Action: func(c *cli.Context) error {
			a, err := runtimeFrom(c).Client.TodaysAgenda(c.Context, 0)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			opts := p.Options()
			switch {
			case opts.Format == output.FormatJSON && !opts.Quiet:
				return p.Object(a)
			case opts.Format != output.FormatText || opts.Quiet:
				return p.List(a.Tasks, taskColumns)
			}
			sections := []struct {
				title string
				tasks []models.Task
			}{
				{"⏰ Overdue", a.Overdue},
				{"📅 Due soon", a.DueSoon},
				{"🚩 Flagged", a.Flagged},
			}
			for _, s := range sections {
				p.Heading("%s (%d)", s.title, len(s.tasks))
				if err := p.List(s.tasks, taskColumns); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// NewReviewCommand lists projects due for review.
func NewReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Projects whose next review date has passed",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			res, err := runtimeFrom(c).Client.Review(c.Context, 0)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.List(res.Items, []string{"id", "name", "status", "folder", "lastReviewDate", "nextReviewDate"})
		},
	}
}

// NewSuggestCommand ranks what to work on next.
func NewSuggestCommand() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Suggest next actions: flagged, then overdue, then due soon, then oldest",
		Flags: listFlags(&cli.IntFlag{Name: "count", Aliases: []string{"c"}, Value: 10, Usage: "how many suggestions"}),
		Action: func(c *cli.Context) error {
			out, err := runtimeFrom(c).Client.Suggest(c.Context, c.Int("count"))
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.List(out, []string{"task.id", "task.name", "reason", "score", "task.dueDate", "task.project"})
		},
	}
}
