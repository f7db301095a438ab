package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"monogen/internal/diag"
	"monogen/internal/source"
)

const program = "module: app\ninstantiations:\n\t- Dict of (Integer, Integer)\n"

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.AddVirtual("/home/user/project/src/app.yaml", []byte(program))

	start := uint32(strings.Index(program, "Dict"))
	end := uint32(strings.Index(program, ")") + 1)
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaMethodDuplicated,
		Message:  "method set is duplicated in Dict of (Integer, Integer)",
		Primary:  source.Span{File: id, Start: start, End: end},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 0, End: 6}, Msg: "declared here"},
		},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ProjNoSources,
		Message:  "no program files",
	})
	return bag, fs
}

func TestPrettyLayout(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, ShowNotes: true})
	lines := strings.Split(buf.String(), "\n")

	want := []string{
		"src/app.yaml:3:4: ERROR SEM3106: method set is duplicated in Dict of (Integer, Integer)",
		" 3 |     - Dict of (Integer, Integer)",
		"   |       ^~~~~~~~~~~~~~~~~~~~~~~~~~",
		"  note: src/app.yaml:1:1: declared here",
		"   1 | module: app",
		"     | ^~~~~~",
		"WARNING PRJ5002: no program files",
	}
	if len(lines) < len(want) {
		t.Fatalf("short output:\n%s", buf.String())
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d:\n got %q\nwant %q\nfull output:\n%s", i, lines[i], w, buf.String())
		}
	}
}

func TestPrettyWithoutNotesAndLimit(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Max: 1})
	out := buf.String()
	if strings.Contains(out, "note:") {
		t.Fatalf("notes should be hidden:\n%s", out)
	}
	if strings.Contains(out, "PRJ5002") {
		t.Fatalf("Max should cut the output:\n%s", out)
	}
	if !strings.HasPrefix(out, "app.yaml:3:4:") {
		t.Fatalf("basename path expected:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escapes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escapes")
	}
}

func TestParsePathMode(t *testing.T) {
	if m, ok := ParsePathMode("relative"); !ok || m != PathModeRelative {
		t.Fatalf("relative: %v %v", m, ok)
	}
	if _, ok := ParsePathMode("sideways"); ok {
		t.Fatalf("unknown mode accepted")
	}
}
