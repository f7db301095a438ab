package source

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet owns every file of a run. Adding a path twice creates a new
// version; Latest resolves a path to its newest one.
type FileSet struct {
	mu      sync.RWMutex
	files   []File
	latest  map[string]FileID
	baseDir string
}

func NewFileSet() *FileSet {
	return &FileSet{latest: make(map[string]FileID)}
}

// NewFileSetWithBase sets the directory relative paths are printed against.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir falls back to the working directory when no base was set.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir != "" {
		return fs.baseDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// Add stores already normalized content under a fresh FileID.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if len(content) > math.MaxUint32 {
		panic(fmt.Errorf("source: %s is larger than 4GiB", path))
	}
	f := File{
		Path:    cleanPath(path),
		Content: content,
		LineIdx: indexLines(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	id, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("source: too many files: %w", err))
	}
	f.ID = FileID(id)
	fs.files = append(fs.files, f)
	fs.latest[f.Path] = f.ID
	return f.ID
}

// Load reads path from disk and adds its normalized content.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- paths come from the project walker or the command line
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := normalize(content)
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content, for tests and unreadable inputs.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, flags := normalize(content)
	return fs.Add(name, content, flags|FileVirtual)
}

// Get returns nil for an unknown id.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Files lists every version in insertion order.
func (fs *FileSet) Files() []*File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]*File, len(fs.files))
	for i := range fs.files {
		out[i] = &fs.files[i]
	}
	return out
}

func (fs *FileSet) Latest(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.latest[cleanPath(path)]
	return id, ok
}

// Resolve converts both ends of span to line and column. Spans into unknown
// files resolve to zero positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.Position(span.Start), f.Position(span.End)
}
