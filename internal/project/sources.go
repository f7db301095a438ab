package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// IsProgramFile reports whether path has a program file extension.
func IsProgramFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Sources expands the [build].sources entries into a sorted, duplicate-free
// list of program files. Entries may be files, directories (walked
// recursively) or glob patterns, all relative to the project root. An empty
// list means the whole root.
func (m *Manifest) Sources() ([]string, error) {
	entries := m.Config.Build.Sources
	if len(entries) == 0 {
		entries = []string{"."}
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern := filepath.Join(m.Root, filepath.FromSlash(entry))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: bad source pattern %q: %w", m.Path, entry, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: source %q matches nothing", m.Path, entry)
		}
		for _, match := range matches {
			files, err := CollectFiles(match)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// CollectFiles returns path itself when it is a file, or every program file
// below it when it is a directory. Hidden directories are skipped.
func CollectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsProgramFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", path, err)
	}
	slices.Sort(files)
	return files, nil
}
