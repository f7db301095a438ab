package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "SEM3106" || first.Severity != "ERROR" || first.Title != "Method duplicated" {
		t.Fatalf("unexpected first diagnostic %+v", first)
	}
	if first.Location == nil || first.Location.File != "app.yaml" || first.Location.StartLine != 3 || first.Location.StartCol != 4 {
		t.Fatalf("unexpected location %+v", first.Location)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location == nil {
		t.Fatalf("unexpected notes %+v", first.Notes)
	}
	if out.Diagnostics[1].Location != nil {
		t.Fatalf("diagnostics without a span must not have a location")
	}
}

func TestJSONMaxAndNotes(t *testing.T) {
	bag, fs := sampleBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("Max ignored: %d", out.Count)
	}
	if out.Omitted != 1 || out.Errors != 1 || out.Warnings != 1 {
		t.Fatalf("totals must cover omitted entries: %+v", out)
	}
	if len(out.Diagnostics[0].Notes) != 0 {
		t.Fatalf("notes should be omitted")
	}
	if out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("positions should be omitted")
	}
}
