package output

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Markdown prints a markdown document, rendered when writing text to a terminal.
func (p *Printer) Markdown(md string) error {
	if p.opts.Format != FormatText || !p.IsTerminal() || p.opts.Color == "never" {
		return p.emit(md)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(min(p.Width(), 100)),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	return p.emit(out)
}
