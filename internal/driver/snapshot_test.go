package driver

import (
	"testing"

	"monogen/internal/project"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache, err := OpenSnapshotCache("monogen", t.TempDir())
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	key := project.Salt("inputs")
	if _, ok, err := cache.Get(key); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	snap := &Snapshot{
		Schema:  snapshotSchemaVersion,
		Key:     key,
		Package: "demo",
		Entries: []SnapshotEntry{{Name: "_List_AB12", Display: "List of Integer", Kind: "type", Generic: "app::List", Args: []string{"Integer"}, State: "populated", Members: 3}},
	}
	if err := cache.Put(snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := cache.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Package != "demo" || len(got.Entries) != 1 || got.Entries[0].Args[0] != "Integer" {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := cache.Get(key); ok {
		t.Fatalf("DropAll should remove snapshots")
	}
}

func TestSnapshotSchemaMismatchIsAMiss(t *testing.T) {
	cache, err := OpenSnapshotCache("monogen", t.TempDir())
	if err != nil {
		t.Fatalf("OpenSnapshotCache: %v", err)
	}
	key := project.Salt("old")
	if err := cache.Put(&Snapshot{Schema: snapshotSchemaVersion + 1, Key: key}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := cache.Get(key); err != nil || ok {
		t.Fatalf("foreign schema should miss: ok=%v err=%v", ok, err)
	}
}
