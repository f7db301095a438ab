package diagfmt

import (
	"encoding/json"
	"io"

	"monogen/internal/diag"
	"monogen/internal/source"
)

// LocationJSON points into a program file. Line and column fields are only
// set with IncludePositions.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput is the document written by JSON. Count is the number of
// entries emitted; Omitted counts those cut by JSONOpts.Max.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Omitted     int              `json:"omitted,omitempty"`
}

type locator struct {
	fs        *source.FileSet
	mode      string
	base      string
	positions bool
}

// locate returns nil for spans that point nowhere.
func (l locator) locate(span source.Span) *LocationJSON {
	if l.fs == nil || span == source.NoSpan {
		return nil
	}
	f := l.fs.Get(span.File)
	if f == nil {
		return nil
	}
	loc := &LocationJSON{File: f.FormatPath(l.mode, l.base), StartByte: span.Start, EndByte: span.End}
	if l.positions {
		start, end := l.fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDiagnosticsOutput converts the bag without encoding it. Timing
// diagnostics keep their notes even without IncludeNotes.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	loc := locator{fs: fs, mode: opts.PathMode.mode(), positions: opts.IncludePositions}
	if fs != nil {
		loc.base = fs.BaseDir()
	}

	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			out.Errors++
		case diag.SevWarning:
			out.Warnings++
		}
		if opts.Max > 0 && len(out.Diagnostics) == opts.Max {
			out.Omitted++
			continue
		}
		entry := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: loc.locate(d.Primary),
		}
		if opts.IncludeNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				entry.Notes = append(entry.Notes, NoteJSON{Message: n.Msg, Location: loc.locate(n.Span)})
			}
		}
		out.Diagnostics = append(out.Diagnostics, entry)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the diagnostics as one indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
