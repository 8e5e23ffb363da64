package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/output"
)

// NewConfigCommand shows and edits ~/.ofocus/config.yaml.
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings as YAML",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					if rt.Loader == nil {
						return fmt.Errorf("no configuration loaded")
					}
					b, err := rt.Loader.YAML()
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(b)
					return err
				},
			},
			{
				Name:      "set",
				Usage:     "Change one setting and save it",
				ArgsUsage: "[key] [value]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return fmt.Errorf("key and value are required (see 'ofocus config keys')")
					}
					rt := runtimeFrom(c)
					if rt.Loader == nil {
						return fmt.Errorf("no configuration loaded")
					}
					key, value := c.Args().Get(0), c.Args().Get(1)
					if err := rt.Loader.Set(key, value); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "✅ %s = %s (saved to %s)\n", key, value, rt.Loader.Path())
					return nil
				},
			},
			{
				Name:  "keys",
				Usage: "List setting names",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					if rt.Loader == nil {
						return fmt.Errorf("no configuration loaded")
					}
					for _, k := range rt.Loader.Keys() {
						fmt.Fprintln(c.App.Writer, k)
					}
					return nil
				},
			},
			{
				Name:  "path",
				Usage: "Print the config file path",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					if rt.Loader == nil {
						return fmt.Errorf("no configuration loaded")
					}
					fmt.Fprintln(c.App.Writer, rt.Loader.Path())
					return nil
				},
			},
		},
	}
}

// NewCacheCommand manages the list cache.
func NewCacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the project, tag and folder cache",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Remove every cached list",
				Action: func(c *cli.Context) error {
					n, err := runtimeFrom(c).Client.ClearCache()
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "✅ Removed %d cache entr%s\n", n, plural(n, "y", "ies"))
					return nil
				},
			},
		},
	}
}

// NewStatusCommand checks that the task manager answers.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check that OmniFocus answers and show its version",
		Flags: outputFlags(),
		Action: func(c *cli.Context) error {
			st, err := runtimeFrom(c).Client.Ping(c.Context)
			if err != nil {
				return err
			}
			p, err := printerFor(c)
			if err != nil {
				return err
			}
			if p.Options().Format != output.FormatText {
				return p.Object(st)
			}
			p.Message("✅ %s %s is reachable (%s, %dms)", st.App, st.Version, st.Strategy, st.LatencyMS)
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
