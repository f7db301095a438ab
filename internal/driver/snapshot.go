package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"monogen/internal/mono"
	"monogen/internal/project"
	"monogen/internal/symbols"
)

// Current schema version - increment when Snapshot format changes
const snapshotSchemaVersion uint16 = 1

// Snapshot is the persisted view of a registry after a clean run.
type Snapshot struct {
	// Schema version for safe invalidation when format changes
	Schema  uint16
	RunID   uuid.UUID
	Created time.Time
	Key     project.Digest
	Package string
	Files   []string
	Entries []SnapshotEntry
}

// SnapshotEntry is one registered instantiation.
type SnapshotEntry struct {
	Name    string // canonical name
	Display string // `List of Integer`
	Kind    string // type or fn
	Generic string
	Args    []string
	State   string
	Members int
}

// NewSnapshot captures every registry row in creation order.
func NewSnapshot(key project.Digest, pkg string, files []string, reg *mono.Registry) *Snapshot {
	table := reg.Table()
	snap := &Snapshot{
		Schema:  snapshotSchemaVersion,
		RunID:   uuid.New(),
		Created: time.Now().UTC(),
		Key:     key,
		Package: pkg,
		Files:   files,
	}
	for _, e := range reg.Entries() {
		row := SnapshotEntry{
			Name:    e.Name,
			Display: table.DisplayName(e.Shell),
			Kind:    mono.InstType.String(),
			Generic: table.QualifiedName(e.Generic),
			State:   e.State.String(),
			Members: len(table.Members(e.Shell)),
		}
		if sym := table.Symbols.Get(e.Shell); sym != nil && sym.Kind.IsFunction() {
			row.Kind = mono.InstFn.String()
		}
		row.Args = snapshotArgs(table, e.Args)
		snap.Entries = append(snap.Entries, row)
	}
	return snap
}

// SnapshotCache stores snapshots on disk keyed by the digest of a run's
// inputs. Thread-safe for concurrent access.
type SnapshotCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenSnapshotCache opens the cache at dir, or at the user cache directory
// for app when dir is empty.
func OpenSnapshotCache(app, dir string) (*SnapshotCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &SnapshotCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *SnapshotCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *SnapshotCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "snapshots", key.Hex()+".mp")
}

// Put serializes and writes a snapshot, replacing any previous one atomically.
func (c *SnapshotCache) Put(snap *Snapshot) (err error) {
	if c == nil || snap == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(snap.Key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if renamed {
			return
		}
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	renamed = true
	return nil
}

// Get reads the snapshot stored under key. A snapshot written by another
// schema version is treated as a miss.
func (c *SnapshotCache) Get(key project.Digest) (*Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != snapshotSchemaVersion || snap.Key != key {
		return nil, false, nil
	}
	return &snap, true, nil
}

// DropAll removes every stored snapshot.
func (c *SnapshotCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func snapshotArgs(table *symbols.Table, ids []symbols.SymbolID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = table.DisplayName(id)
	}
	return out
}
