package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/models"
)

// NewTagCommand creates the 'tag' command group.
func NewTagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tags",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
					&cli.BoolFlag{Name: "top", Usage: "top-level tags only"},
				}, outputFlags()...),
				Action: func(c *cli.Context) error {
					res, err := runtimeFrom(c).Client.ListTags(c.Context, models.TagFilter{
						Search:       c.String("search"),
						TopLevelOnly: c.Bool("top"),
					})
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					return p.List(res.Items, []string{"id", "name", "parent", "availableTaskCount"})
				},
			},
			{
				Name:      "create",
				Aliases:   []string{"add"},
				Usage:     "Create a tag",
				ArgsUsage: "[name]",
				Flags:     append([]cli.Flag{&cli.StringFlag{Name: "parent", Usage: "parent tag name"}}, outputFlags()...),
				Action: func(c *cli.Context) error {
					name, err := firstArg(c, "tag name")
					if err != nil {
						return err
					}
					return manageTag(c, models.TagOperation{Action: models.TagActionCreate, Name: name, ParentName: c.String("parent")})
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a tag",
				ArgsUsage: "[name] [new-name]",
				Flags:     outputFlags(),
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return fmt.Errorf("tag name and new name are required")
					}
					return manageTag(c, models.TagOperation{Action: models.TagActionRename, Name: c.Args().Get(0), NewName: c.Args().Get(1)})
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a tag",
				ArgsUsage: "[name]",
				Flags:     append([]cli.Flag{yesFlag()}, outputFlags()...),
				Action: func(c *cli.Context) error {
					name, err := firstArg(c, "tag name")
					if err != nil {
						return err
					}
					ok, err := confirm(c, "Delete tag '%s'?", name)
					if err != nil || !ok {
						return err
					}
					return manageTag(c, models.TagOperation{Action: models.TagActionDelete, Name: name})
				},
			},
			{
				Name:      "nest",
				Usage:     "Move a tag under a parent (no parent moves it to the top level)",
				ArgsUsage: "[name] [parent]",
				Flags:     outputFlags(),
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("tag name is required")
					}
					return manageTag(c, models.TagOperation{Action: models.TagActionSetParent, Name: c.Args().Get(0), ParentName: c.Args().Get(1)})
				},
			},
		},
	}
}

func manageTag(c *cli.Context, op models.TagOperation) error {
	res, err := runtimeFrom(c).Client.ManageTag(c.Context, op)
	if err != nil {
		return err
	}
	p, err := printerFor(c)
	if err != nil {
		return err
	}
	switch op.Action {
	case models.TagActionDelete:
		return p.Result(res, "🗑️  Tag '%s' deleted", op.Name)
	case models.TagActionCreate:
		if !res.Created {
			return p.Result(res, "Tag '%s' already exists", res.Tag.Name)
		}
		return p.Result(res, "✅ Tag '%s' created", res.Tag.Name)
	}
	return p.Result(res, "✅ Tag '%s' updated", res.Tag.Name)
}

// NewFolderCommand creates the 'folder' command group.
func NewFolderCommand() *cli.Command {
	return &cli.Command{
		Name:  "folder",
		Usage: "Manage folders",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List folders",
				Flags:   outputFlags(),
				Action: func(c *cli.Context) error {
					res, err := runtimeFrom(c).Client.ListFolders(c.Context)
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					return p.List(res.Items, []string{"id", "name", "parent", "depth", "projects"})
				},
			},
			{
				Name:      "create",
				Aliases:   []string{"add"},
				Usage:     "Create a folder",
				ArgsUsage: "[name]",
				Flags:     append([]cli.Flag{&cli.StringFlag{Name: "parent", Usage: "parent folder name"}}, outputFlags()...),
				Action: func(c *cli.Context) error {
					name, err := firstArg(c, "folder name")
					if err != nil {
						return err
					}
					f, err := runtimeFrom(c).Client.CreateFolder(c.Context, name, c.String("parent"))
					if err != nil {
						return err
					}
					p, err := printerFor(c)
					if err != nil {
						return err
					}
					return p.Result(f, "✅ Folder '%s' created", f.Name)
				},
			},
		},
	}
}
