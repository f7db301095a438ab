package driver

import (
	"monogen/internal/project"
	"monogen/internal/source"
)

// LoadSnapshot returns the snapshot of a previous clean run over the same
// inputs, if the cache holds one. Nothing is instantiated.
func LoadSnapshot(opts Options) (*Snapshot, bool, error) {
	inputs, err := ResolveInputs(&opts)
	if err != nil {
		return nil, false, err
	}
	if opts.NoCache || len(inputs.Files) == 0 {
		return nil, false, nil
	}
	fs := source.NewFileSetWithBase(inputs.Root)
	for _, path := range inputs.Files {
		if _, err := fs.Load(path); err != nil {
			return nil, false, nil
		}
	}
	cache, err := OpenSnapshotCache("monogen", opts.CacheDir)
	if err != nil {
		return nil, false, err
	}
	return cache.Get(inputKey(inputs, fs))
}

// CleanCache drops every stored snapshot and returns the cache directory.
func CleanCache(opts Options) (string, error) {
	if opts.CacheDir == "" && len(opts.Paths) == 0 {
		// only [cache].dir matters here, the sources may be gone
		m, ok, err := project.LoadManifest(opts.Dir)
		if err != nil {
			return "", err
		}
		if ok {
			opts.CacheDir = m.CacheDir()
		}
	}
	cache, err := OpenSnapshotCache("monogen", opts.CacheDir)
	if err != nil {
		return "", err
	}
	return cache.Dir(), cache.DropAll()
}
