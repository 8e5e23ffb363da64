package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/ofocus-cli/internal/dates"
	"github.com/kutbudev/ofocus-cli/internal/models"
)

// Helper functions shared across commands

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// boolFlag returns nil unless the flag was given.
func boolFlag(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	return models.Bool(c.Bool(name))
}

// dateFlag parses a date flag; empty means unset.
func dateFlag(c *cli.Context, name string) (*models.Timestamp, error) {
	ts, err := dates.ParsePtr(c.String(name), time.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return ts, nil
}

// dateChangeFlag maps an update flag: unset leaves the date alone, "" or
// "none" clears it.
func dateChangeFlag(c *cli.Context, name string) (*models.DateChange, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	v := strings.TrimSpace(c.String(name))
	if v == "" || strings.EqualFold(v, "none") {
		return &models.DateChange{Clear: true}, nil
	}
	ts, err := dateFlag(c, name)
	if err != nil {
		return nil, err
	}
	return &models.DateChange{Value: ts}, nil
}

func stringFlag(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	return models.String(c.String(name))
}

// firstArg joins the arguments so unquoted names work.
func firstArg(c *cli.Context, what string) (string, error) {
	if c.NArg() == 0 {
		return "", fmt.Errorf("%s is required", what)
	}
	return strings.Join(c.Args().Slice(), " "), nil
}

func normalizeStatus(s string) string {
	switch k := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)); k {
	case "onhold", "hold":
		return models.ProjectStatusOnHold
	case "completed", "complete":
		return models.ProjectStatusDone
	default:
		return k
	}
}
