package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"monogen/internal/project"
	"monogen/internal/source"
	"monogen/internal/version"
)

// ErrNoManifest is returned when no path was given and no monogen.toml
// governs the working directory.
var ErrNoManifest = errors.New("no monogen.toml found\nplease pass the program files explicitly, e.g.:\n  monogen check path/to/program.yaml")

// Inputs is the resolved set of program files for a run.
type Inputs struct {
	Root     string
	Package  string
	Files    []string
	Manifest *project.Manifest
}

// ResolveInputs turns explicit paths, or the manifest found from opts.Dir,
// into a sorted list of program files. Manifest settings fill in options the
// caller left at zero.
func ResolveInputs(opts *Options) (*Inputs, error) {
	if len(opts.Paths) > 0 {
		return explicitInputs(opts)
	}
	m, ok, err := project.LoadManifest(opts.Dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	files, err := m.Sources()
	if err != nil {
		return nil, err
	}
	if opts.Jobs == 0 {
		opts.Jobs = m.Config.Build.Jobs
	}
	if opts.MaxDiagnostics == 0 {
		opts.MaxDiagnostics = m.Config.Build.MaxDiagnostics
	}
	if !m.Config.Cache.CacheEnabled() {
		opts.NoCache = true
	}
	if opts.CacheDir == "" {
		opts.CacheDir = m.CacheDir()
	}
	return &Inputs{
		Root:     m.Root,
		Package:  m.Config.Package.Name,
		Files:    files,
		Manifest: m,
	}, nil
}

func explicitInputs(opts *Options) (*Inputs, error) {
	root := opts.Dir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}
	var files []string
	for _, p := range opts.Paths {
		collected, err := project.CollectFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", p, err)
		}
		files = append(files, collected...)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	first := filepath.Base(opts.Paths[0])
	return &Inputs{
		Root:    root,
		Package: strings.TrimSuffix(first, filepath.Ext(first)),
		Files:   files,
	}, nil
}

// inputKey digests everything that can change the outcome of a run: the tool
// version, the file paths relative to the root and their contents.
func inputKey(in *Inputs, fs *source.FileSet) project.Digest {
	parts := make([]project.Digest, 0, 2*len(fs.Files())+1)
	parts = append(parts, project.Salt(in.Package))
	for _, f := range fs.Files() {
		rel, err := filepath.Rel(in.Root, f.Path)
		if err != nil {
			rel = f.Path
		}
		parts = append(parts, project.Salt(filepath.ToSlash(rel)), project.Digest(f.Hash))
	}
	seed := project.Salt(fmt.Sprintf("monogen %s schema %d", version.Plain(), snapshotSchemaVersion))
	return project.Combine(seed, parts...)
}
