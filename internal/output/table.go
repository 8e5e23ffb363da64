package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

// DisableColor strips all styling.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	keyStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	okStyle = lipgloss.NewStyle()
	warnStyle = lipgloss.NewStyle()
	flagStyle = lipgloss.NewStyle()
}

// headerName turns "dueDate" or "recurrence.type" into "DUE DATE" / "RECURRENCE TYPE".
func headerName(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '.' || r == '_':
			b.WriteByte(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

func renderTable(recs []map[string]any, fields []string, f Format, width int) string {
	t := table.NewWriter()
	header := make(table.Row, len(fields))
	for i, field := range fields {
		if f == FormatText {
			header[i] = headerStyle.Render(headerName(field))
		} else {
			header[i] = field
		}
	}
	t.AppendHeader(header)
	for _, r := range recs {
		row := make(table.Row, len(fields))
		for i, field := range fields {
			row[i] = styleCell(field, Cell(Lookup(r, field)), f)
		}
		t.AppendRow(row)
	}

	switch f {
	case FormatCSV:
		return t.RenderCSV() + "\n"
	case FormatMarkdown:
		return t.RenderMarkdown() + "\n"
	}
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Format.Header = text.FormatDefault
	if width > 0 && len(fields) > 0 {
		limit := max(2*width/len(fields), 16)
		cfgs := make([]table.ColumnConfig, len(fields))
		for i := range fields {
			cfgs[i] = table.ColumnConfig{Number: i + 1, WidthMax: limit, WidthMaxEnforcer: text.Trim}
		}
		t.SetColumnConfigs(cfgs)
	}
	return t.Render() + "\n"
}

func styleCell(field, v string, f Format) string {
	if f != FormatText || v == "" {
		return v
	}
	switch field {
	case "flagged":
		return flagStyle.Render("⚑")
	case "completed":
		return okStyle.Render("✓")
	case "dropped", "blocked":
		return warnStyle.Render(v)
	}
	return v
}

func renderDetail(rec map[string]any, fields []string) string {
	width := 0
	for _, f := range fields {
		if len(f) > width {
			width = len(f)
		}
	}
	var b strings.Builder
	for _, f := range fields {
		v := Cell(Lookup(rec, f))
		if v == "" {
			v = dimStyle.Render("-")
		}
		label := fmt.Sprintf("%-*s", width, f)
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(label), v)
	}
	return b.String()
}
