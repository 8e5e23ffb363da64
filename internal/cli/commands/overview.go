package commands

import (
	"github.com/urfave/cli/v2"
)

const overviewMarkdown = `# ofocus

OmniFocus from the terminal and from MCP clients.

## Tasks
| Command | What it does |
|---|---|
| ` + "`ofocus task list --flagged --completed=false`" + ` | List tasks by flag, project, tags, dates |
| ` + "`ofocus task create \"Call Bob\" -p Work --due tomorrow`" + ` | Create a task (inbox by default) |
| ` + "`ofocus task update <id> --due \"\"`" + ` | Change fields; an empty date clears it |
| ` + "`ofocus task complete <id>...`" + ` | Complete; repeating tasks roll forward |
| ` + "`ofocus task drop <id> [--all]`" + ` | Drop without completing |
| ` + "`ofocus task delete <id>...`" + ` | Delete permanently (asks first) |
| ` + "`ofocus task move <id>... --project Home`" + ` | Move to the inbox, a project or a parent |

## Projects, tags, folders
| Command | What it does |
|---|---|
| ` + "`ofocus project list --status active --counts`" + ` | List projects |
| ` + "`ofocus project update Work --reviewed`" + ` | Change fields or mark reviewed |
| ` + "`ofocus project delete Old --tasks inbox`" + ` | Delete; keep, drop or rescue open tasks |
| ` + "`ofocus tag create|rename|delete|nest`" + ` | Manage tags |
| ` + "`ofocus folder list|create`" + ` | Manage folders |

## Views and reports
| Command | What it does |
|---|---|
| ` + "`ofocus today`" + ` | Overdue, due soon and flagged |
| ` + "`ofocus inbox` / `flagged` / `overdue`" + ` | Quick lists |
| ` + "`ofocus upcoming -d 14`" + ` | Due in the next N days |
| ` + "`ofocus review`" + ` | Projects due for review |
| ` + "`ofocus suggest`" + ` | What to do next |
| ` + "`ofocus analyze overdue|productivity|recurring`" + ` | Reports |

## Output
Every list accepts ` + "`--format text|json|csv|markdown`" + `, ` + "`--fields id,name`" + `,
` + "`--sort dueDate:desc`" + `, ` + "`--limit`" + `, ` + "`--offset`" + `, ` + "`--quiet`" + ` (ids only) and ` + "`--copy`" + `.

Dates accept ` + "`2025-06-01`" + `, ` + "`2025-06-01 14:30`" + `, ` + "`today`" + `, ` + "`tomorrow 9am`" + `, ` + "`+3d`" + `, ` + "`next friday`" + `.

## Setup
| Command | What it does |
|---|---|
| ` + "`ofocus status`" + ` | Check that OmniFocus answers |
| ` + "`ofocus mcp config`" + ` | Print the MCP client snippet |
| ` + "`ofocus config show|set|keys|path`" + ` | Settings in ~/.ofocus/config.yaml |
| ` + "`ofocus cache clear`" + ` | Drop cached project, tag and folder lists |

Use ` + "`ofocus <command> --help`" + ` for details.
`

// NewOverviewCommand creates the overview command.
func NewOverviewCommand() *cli.Command {
	return &cli.Command{
		Name:    "overview",
		Aliases: []string{"help-all"},
		Usage:   "Show all available features and commands",
		Action: func(c *cli.Context) error {
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			return p.Markdown(overviewMarkdown)
		},
	}
}
