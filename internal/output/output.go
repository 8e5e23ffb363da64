// Package output renders command results as text tables, JSON, CSV or
// markdown, with field selection, sorting and paging applied uniformly.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/term"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names.
var Formats = []string{string(FormatText), string(FormatJSON), string(FormatCSV), string(FormatMarkdown)}

// ParseFormat accepts a format name; "" means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (use %s)", s, strings.Join(Formats, ", "))
}

// Options control how results are printed.
type Options struct {
	Format Format
	Fields []string
	// Sort is "field" or "field:asc|desc".
	Sort   string
	Limit  int
	Offset int
	// Quiet prints only record ids.
	Quiet bool
	// Copy also places the rendered output on the clipboard.
	Copy bool
	// Color is auto, always or never.
	Color string
}

// Printer writes results to one stream.
type Printer struct {
	w    io.Writer
	opts Options
	clip func(string) error
}

// New returns a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Color == "never" {
		DisableColor()
	}
	return &Printer{w: w, opts: opts, clip: clipboard.WriteAll}
}

// Options returns the printer's settings.
func (p *Printer) Options() Options { return p.opts }

// IsTerminal reports whether the printer writes to a terminal.
func (p *Printer) IsTerminal() bool {
	f, ok := p.w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width is the terminal width, or 120 when not on a terminal.
func (p *Printer) Width() int {
	if f, ok := p.w.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 120
}

// List prints a slice of records. defaults are the text columns used when no
// fields were requested.
func (p *Printer) List(items any, defaults []string) error {
	recs, err := Records(items)
	if err != nil {
		return err
	}
	if err := SortRecords(recs, p.opts.Sort); err != nil {
		return err
	}
	recs = Page(recs, p.opts.Offset, p.opts.Limit)

	if p.opts.Quiet {
		var b strings.Builder
		for _, r := range recs {
			b.WriteString(Cell(Lookup(r, "id")))
			b.WriteByte('\n')
		}
		return p.emit(b.String())
	}

	fields := p.opts.Fields
	switch p.opts.Format {
	case FormatJSON:
		if len(fields) > 0 {
			recs = Project(recs, fields)
		}
		return p.emitJSON(recs)
	case FormatCSV, FormatMarkdown:
		if len(fields) == 0 {
			fields = defaults
		}
		return p.emit(renderTable(recs, fields, p.opts.Format, 0))
	}
	if len(recs) == 0 {
		return p.emit(dimStyle.Render("No results.") + "\n")
	}
	if len(fields) == 0 {
		fields = defaults
	}
	return p.emit(renderTable(recs, fields, FormatText, p.Width()))
}

// Object prints a single record.
func (p *Printer) Object(v any) error {
	if p.opts.Format == FormatJSON {
		if len(p.opts.Fields) > 0 {
			recs, err := Records([]any{v})
			if err != nil {
				return err
			}
			return p.emitJSON(Project(recs, p.opts.Fields)[0])
		}
		return p.emitJSON(v)
	}
	recs, err := Records([]any{v})
	if err != nil {
		return err
	}
	rec := recs[0]
	if p.opts.Quiet {
		return p.emit(Cell(Lookup(rec, "id")) + "\n")
	}
	fields := p.opts.Fields
	if len(fields) == 0 {
		fields = Keys(rec)
	}
	if p.opts.Format == FormatCSV || p.opts.Format == FormatMarkdown {
		return p.emit(renderTable(recs, fields, p.opts.Format, 0))
	}
	return p.emit(renderDetail(rec, fields))
}

// Message prints a confirmation line unless quiet or machine output is on.
func (p *Printer) Message(format string, args ...any) {
	if p.opts.Quiet || p.opts.Format != FormatText {
		return
	}
	fmt.Fprintln(p.w, okStyle.Render(fmt.Sprintf(format, args...)))
}

// Heading prints a section title in text mode.
func (p *Printer) Heading(format string, args ...any) {
	if p.opts.Quiet || p.opts.Format != FormatText {
		return
	}
	fmt.Fprintln(p.w, "\n"+keyStyle.Render(fmt.Sprintf(format, args...)))
}

// Result prints a mutation result: a confirmation in text mode, the record
// otherwise.
func (p *Printer) Result(v any, format string, args ...any) error {
	if p.opts.Format == FormatText && !p.opts.Quiet {
		p.Message(format, args...)
		return nil
	}
	return p.Object(v)
}

func (p *Printer) emitJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return p.emit(buf.String())
}

func (p *Printer) emit(s string) error {
	if _, err := io.WriteString(p.w, s); err != nil {
		return err
	}
	if p.opts.Copy {
		if err := p.clip(StripANSI(s)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}
	return nil
}
