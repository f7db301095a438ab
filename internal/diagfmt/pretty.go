package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"monogen/internal/diag"
	"monogen/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes diagnostics in human-readable form, in bag order (callers
// sort the bag first). Each diagnostic is printed as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with the span underlined ^~~~, then its notes
// in the same layout.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for i := range items {
		d := &items[i]
		loc := location(fs, d.Primary, opts.PathMode)
		if loc != "" {
			fmt.Fprint(w, p.path.Sprint(loc), ": ")
		}
		fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), d.Message)
		excerpt(w, p, fs, d.Primary, opts.Width, "")

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			loc := location(fs, n.Span, opts.PathMode)
			fmt.Fprint(w, "  ", p.note.Sprint("note"), ": ")
			if loc != "" {
				fmt.Fprint(w, p.path.Sprint(loc), ": ")
			}
			fmt.Fprintln(w, n.Msg)
			excerpt(w, p, fs, n.Span, opts.Width, "  ")
		}
	}
}

// location renders path:line:col, or "" for spans without a position.
func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	if span == source.NoSpan || fs == nil {
		return ""
	}
	f := fs.Get(span.File)
	if f == nil {
		return ""
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.mode(), fs.BaseDir()), start.Line, start.Col)
}

func excerpt(w io.Writer, p palette, fs *source.FileSet, span source.Span, width int, indent string) {
	if span == source.NoSpan || fs == nil {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	line := strings.TrimRight(f.Line(start.Line), "\r")
	if line == "" {
		return
	}

	// underline in terminal cells, not bytes
	col := int(start.Col) - 1
	col = min(max(col, 0), len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(max(int(end.Col)-1, col), len(line))
	}
	prefix := expandTabs(line[:col])
	marked := expandTabs(line[col:stop])
	text := expandTabs(line)
	if width > 0 {
		text = truncate(text, width)
	}

	gutter := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(w, "%s %s %s %s\n", indent, p.gutter.Sprint(gutter), p.gutter.Sprint("|"), text)

	underline := "^"
	if n := runewidth.StringWidth(marked); n > 1 {
		underline += strings.Repeat("~", n-1)
	}
	fmt.Fprintf(w, "%s %s %s %s%s\n", indent, pad, p.gutter.Sprint("|"),
		strings.Repeat(" ", runewidth.StringWidth(prefix)), p.caret.Sprint(underline))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
