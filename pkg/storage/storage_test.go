package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordFileChangeTypes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	entry := FileEntry{Path: "/ts/txt/2/gen/en/resources.json", Kind: "resources", Checksum: "aaa", Size: 10}

	c, err := db.RecordFile(ctx, 1, entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if c == nil || c.ChangeType != "added" {
		t.Fatalf("expected added change, got %#v", c)
	}

	c, err = db.RecordFile(ctx, 2, entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if c != nil {
		t.Fatalf("expected no change for identical content, got %#v", c)
	}

	entry.Checksum = "bbb"
	c, err = db.RecordFile(ctx, 3, entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if c == nil || c.ChangeType != "updated" {
		t.Fatalf("expected updated change, got %#v", c)
	}

	changes, err := db.ListRecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 logged changes, got %d: %#v", len(changes), changes)
	}
	if changes[0].ChangeType != "updated" || changes[1].ChangeType != "added" {
		t.Fatalf("expected newest first, got %s then %s", changes[0].ChangeType, changes[1].ChangeType)
	}
}

func TestRecordFileRejectsIncompleteEntries(t *testing.T) {
	db := openTestDB(t)
	_, err := db.RecordFile(context.Background(), 1, FileEntry{Path: "x"})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestSweepRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, p := range []string{"/ts/a.json", "/ts/b.json", "/uw/catalog.json"} {
		if _, err := db.RecordFile(ctx, 1, FileEntry{Path: p, Kind: "resources", Checksum: "x", Size: 1}); err != nil {
			t.Fatalf("record %s: %v", p, err)
		}
	}
	if _, err := db.RecordFile(ctx, 2, FileEntry{Path: "/ts/a.json", Kind: "resources", Checksum: "x", Size: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}

	removed, err := db.SweepRun(ctx, 2, "/ts/")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(removed) != 1 || removed[0].Path != "/ts/b.json" {
		t.Fatalf("expected only /ts/b.json removed, got %#v", removed)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].FileCount != 2 {
		t.Fatalf("expected 2 tracked files left, got %#v", stats)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`/ts_2/100%`); got != `/ts\_2/100\%` {
		t.Fatalf("unexpected escape: %s", got)
	}
}
