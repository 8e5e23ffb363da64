package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/api"
	"github.com/kutbudev/ofocus-cli/internal/config"
	"github.com/kutbudev/ofocus-cli/internal/executor"
	"github.com/kutbudev/ofocus-cli/internal/output"
)

const runtimeKey = "runtime"

// Runtime carries what every command needs. It is built once per invocation
// from the config file and global flags.
type Runtime struct {
	Loader  *config.Loader
	Config  *config.Config
	Client  *api.Client
	// Exec is nil when the client runs on an injected runner.
	Exec    *executor.Executor
	Logger  *slog.Logger
	// Confirm asks a yes/no question before destructive changes.
	Confirm func(message string) (bool, error)
}

// NewApp builds the ofocus command tree.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:     "ofocus",
		Usage:    "OmniFocus from the terminal and from MCP clients",
		Version:  version,
		Flags:    globalFlags(),
		Metadata: map[string]interface{}{},
		Before:   setupRuntime,
		Commands: []*cli.Command{
			// Core commands
			NewTaskCommand(),
			NewProjectCommand(),
			NewTagCommand(),
			NewFolderCommand(),

			// Views
			NewInboxCommand(),
			NewTodayCommand(),
			NewOverdueCommand(),
			NewFlaggedCommand(),
			NewUpcomingCommand(),
			NewReviewCommand(),
			NewSuggestCommand(),
			NewAnalyzeCommand(),

			// Meta
			NewStatusCommand(),
			NewOverviewCommand(),
			NewMcpCommand(),
			NewConfigCommand(),
			NewCacheCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "config file (default ~/.ofocus/config.yaml)",
			EnvVars: []string{"OFOCUS_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log script execution to stderr",
		},
	}, outputFlags()...)
}

// outputFlags are accepted globally and on every command that prints records.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"o"},
			Usage:   "output format (" + strings.Join(output.Formats, "|") + ")",
		},
		&cli.StringFlag{Name: "fields", Usage: "comma-separated fields to show"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "show at most this many records"},
		&cli.IntFlag{Name: "offset", Usage: "skip this many records"},
		&cli.StringFlag{Name: "sort", Usage: "sort by field[:asc|desc]"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "print ids only"},
		&cli.BoolFlag{Name: "copy", Usage: "also copy the output to the clipboard"},
	}
}

// setupRuntime loads configuration and wires the client, unless a runtime was
// already placed in the app metadata.
func setupRuntime(c *cli.Context) error {
	if _, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return nil
	}
	loader, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg := loader.Config()
	level, _ := config.ParseLevel(cfg.LogLevel)
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	client, exec := api.NewClientFromConfig(cfg, logger)
	c.App.Metadata[runtimeKey] = &Runtime{
		Loader:  loader,
		Config:  cfg,
		Client:  client,
		Exec:    exec,
		Logger:  logger,
		Confirm: surveyConfirm,
	}
	return nil
}

func runtimeFrom(c *cli.Context) *Runtime {
	rt, _ := c.App.Metadata[runtimeKey].(*Runtime)
	return rt
}

// printerFor builds a printer from the output flags, falling back to the
// configured default format.
func printerFor(c *cli.Context) (*output.Printer, error) {
	rt := runtimeFrom(c)
	name := c.String("format")
	if name == "" && rt != nil && rt.Config != nil {
		name = rt.Config.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	color := "auto"
	if rt != nil && rt.Config != nil && !rt.Config.Output.Color {
		color = "never"
	}
	return output.New(c.App.Writer, output.Options{
		Format: format,
		Fields: splitList(c.String("fields")),
		Sort:   c.String("sort"),
		Limit:  c.Int("limit"),
		Offset: c.Int("offset"),
		Quiet:  c.Bool("quiet"),
		Copy:   c.Bool("copy"),
		Color:  color,
	}), nil
}

func surveyConfirm(message string) (bool, error) {
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
		return false, fmt.Errorf("confirmation aborted: %w", err)
	}
	return ok, nil
}

// confirm asks before a destructive change unless --yes was given.
func confirm(c *cli.Context, format string, args ...any) (bool, error) {
	if c.Bool("yes") {
		return true, nil
	}
	rt := runtimeFrom(c)
	if rt == nil || rt.Confirm == nil {
		return false, fmt.Errorf("refusing to continue without confirmation (use --yes)")
	}
	return rt.Confirm(fmt.Sprintf(format, args...))
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"}
}
