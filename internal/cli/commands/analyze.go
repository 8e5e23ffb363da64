package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/envelope"
	"github.com/kutbudev/ofocus-cli/internal/output"
)

// NewAnalyzeCommand groups the reports.
func NewAnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Reports over overdue, completed and repeating tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "overdue",
				Usage: "Overdue tasks grouped by project and tag",
				Flags: outputFlags(),
				Action: func(c *cli.Context) error {
					r, err := runtimeFrom(c).Client.AnalyzeOverdue(c.Context, 0)
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					if !textMode(p) {
						return p.Object(r)
					}
					p.Message("%d overdue task(s), oldest %d day(s), average %.1f", r.Total, r.OldestDays, r.AverageDays)
					if err := printGroups(p, "By project", r.ByProject); err != nil {
						return err
					}
					if err := printGroups(p, "By tag", r.ByTag); err != nil {
						return err
					}
					p.Heading("Tasks")
					return p.List(r.Tasks, taskColumns)
				},
			},
			{
				Name:    "productivity",
				Aliases: []string{"stats"},
				Usage:   "Completions over the last N days",
				Flags:   listFlags(&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7}),
				Action: func(c *cli.Context) error {
					r, err := runtimeFrom(c).Client.ProductivityStats(c.Context, c.Int("days"))
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					if !textMode(p) {
						return p.Object(r)
					}
					p.Message("%d completed since %s (%.1f/day)", r.Completed, r.Since, r.DailyAverage)
					if r.BestDay != "" {
						p.Message("Best day: %s (%d)", r.BestDay, r.PerDay[r.BestDay])
					}
					p.Message("Open: %d, overdue: %d, flagged: %d, inbox: %d", r.Open.Open, r.Open.Overdue, r.Open.Flagged, r.Open.Inbox)
					if err := printGroups(p, "Per day", r.PerDay); err != nil {
						return err
					}
					return printGroups(p, "By project", r.ByProject)
				},
			},
			{
				Name:  "recurring",
				Usage: "Infer recurrence for repeating tasks and flag schedule drift",
				Flags: listFlags(
					&cli.BoolFlag{Name: "completed", Usage: "include completed tasks"},
					&cli.BoolFlag{Name: "unruled", Usage: "also guess from names of tasks without a rule"},
				),
				Action: func(c *cli.Context) error {
					r, err := runtimeFrom(c).Client.AnalyzeRecurring(c.Context, api.RecurringOptions{
						IncludeCompleted: c.Bool("completed"),
						IncludeUnruled:   c.Bool("unruled"),
					})
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					if !textMode(p) {
						return p.Object(r)
					}
					p.Message("%d of %d task(s) recurring, %d off schedule", r.Recurring, r.Total, len(r.Deviating))
					if err := printGroups(p, "By frequency", r.ByFrequency); err != nil {
						return err
					}
					if err := printGroups(p, "By type", r.ByType); err != nil {
						return err
					}
					p.Heading("Tasks")
					return p.List(r.Tasks, []string{"id", "name", "recurrence.type", "recurrence.frequency", "recurrence.scheduleDeviation", "dueDate"})
				},
			},
		},
	}
}

func textMode(p *output.Printer) bool {
	o := p.Options()
	return o.Format == output.FormatText && !o.Quiet
}

// printGroups prints counts ordered by size.
func printGroups(p *output.Printer, title string, groups map[string]int) error {
	if len(groups) == 0 {
		return nil
	}
	p.Heading("%s", title)
	return p.List(envelope.KeyFindings(groups, 0), []string{"name", "count"})
}
