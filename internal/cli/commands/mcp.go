package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/config"
	"github.com/kutbudev/ofocus-cli/internal/mcp"
)

func NewMcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "MCP (Model Context Protocol) server management",
		Subcommands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start MCP server (stdio)",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					srv, err := mcp.NewServer(rt.Client, c.App.Version, rt.Logger)
					if err != nil {
						return err
					}
					if rt.Loader != nil && rt.Exec != nil {
						rt.Loader.Watch(rt.Logger, func(cfg *config.Config) {
							rt.Exec.SetLimits(cfg.Executor())
						})
					}
					rt.Logger.Info("mcp server starting", "tools", len(srv.Tools()))
					return srv.Run(c.Context)
				},
			},
			{
				Name:  "config",
				Usage: "Print MCP config examples for clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client",
						Aliases: []string{"c"},
						Usage:   "target client (generic|codex)",
						Value:   "generic",
					},
				},
				Action: func(c *cli.Context) error {
					switch strings.ToLower(c.String("client")) {
					case "codex":
						printCodexConfig(c.App.Writer)
					default:
						printGenericConfig(c.App.Writer)
					}
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "List available MCP tools",
				Flags: outputFlags(),
				Action: func(c *cli.Context) error {
					srv, err := mcp.NewServer(runtimeFrom(c).Client, c.App.Version, nil)
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					return p.List(srv.Tools(), []string{"name", "description"})
				},
			},
		},
	}
}

func printGenericConfig(w io.Writer) {
	cfg := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"ofocus": map[string]interface{}{
				"command": "ofocus",
				"args":    []string{"mcp", "serve"},
			},
		},
	}
	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Fprintln(w, string(b))
}

func printCodexConfig(w io.Writer) {
	fmt.Fprintln(w, "# Add the following to ~/.codex/config.toml (merge with existing settings)")
	fmt.Fprintln(w, "[mcp_servers.ofocus]")
	fmt.Fprintln(w, "command = \"ofocus\"")
	fmt.Fprintln(w, "args = [\"mcp\", \"serve\"]")
	fmt.Fprintln(w, "enabled = true")
}
