package source

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
)

// FileID identifies a file inside its FileSet.
type FileID uint32

// FileFlags record how a file entered the set.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory, or a placeholder for an unreadable path
	FileHadBOM                               // a UTF-8 byte order mark was stripped
	FileNormalizedCRLF                       // CRLF line endings were rewritten to LF
)

// File is one program file with its line index.
type File struct {
	ID      FileID
	Path    string // cleaned, slash-separated
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalize strips a BOM and rewrites CRLF to LF. Lone CRs are kept.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if bytes.HasPrefix(content, utf8BOM) {
		content = content[len(utf8BOM):]
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// indexLines requires len(content) to fit in uint32; Add checks it.
func indexLines(content []byte) []uint32 {
	idx := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i
		idx = append(idx, uint32(off)) // #nosec G115 -- bounded by the content length check
		off++
	}
}

// lineStart is the offset of the first byte of line (1-based).
func (f *File) lineStart(line int) (uint32, bool) {
	switch {
	case line == 1:
		return 0, true
	case line >= 2 && line-2 < len(f.LineIdx):
		return f.LineIdx[line-2] + 1, true
	}
	return 0, false
}

// lineEnd is the offset of the newline ending line, or the content length.
func (f *File) lineEnd(line int) uint32 {
	if line-1 < len(f.LineIdx) {
		return f.LineIdx[line-1]
	}
	return uint32(len(f.Content)) // #nosec G115 -- bounded by the content length check
}

// Position converts a byte offset to a line and column.
func (f *File) Position(off uint32) LineCol {
	// number of newlines strictly before off
	line := sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] >= off })
	start, _ := f.lineStart(line + 1)
	return LineCol{Line: uint32(line + 1), Col: off - start + 1} // #nosec G115 -- line count fits uint32
}

// Offset converts a 1-based position back into a byte offset. Columns past
// the end of a line clamp to its newline; lines past the end clamp to EOF.
func (f *File) Offset(pos LineCol) uint32 {
	if pos.Line == 0 {
		return 0
	}
	start, ok := f.lineStart(int(pos.Line))
	if !ok {
		return uint32(len(f.Content)) // #nosec G115 -- bounded by the content length check
	}
	off := start
	if pos.Col > 1 {
		off += pos.Col - 1
	}
	return min(off, f.lineEnd(int(pos.Line)))
}

// Line returns the text of a 1-based line without its newline, or "" when
// the file is shorter.
func (f *File) Line(n uint32) string {
	start, ok := f.lineStart(int(n))
	if n == 0 || !ok || int(start) > len(f.Content) {
		return ""
	}
	return string(f.Content[start:f.lineEnd(int(n))])
}

// FormatPath renders the path for output. mode is "absolute", "relative"
// (to baseDir, or the working directory), "basename" or "auto", which keeps
// short and relative paths and shortens long absolute ones to their base
// name.
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case "relative":
		if baseDir == "" {
			baseDir, _ = os.Getwd()
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			if rel, err := filepath.Rel(baseDir, abs); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	case "basename":
		return filepath.Base(f.Path)
	case "auto":
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}

func cleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
