package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unfoldingWord-dev/uwcatalog/pkg/storage"
)

func TestEncode(t *testing.T) {
	b, err := Encode([]ProjectEntry{})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))

	b, err = Encode(map[string]int{"mod": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"mod\": 1\n}\n", string(b))
}

func TestFileWriterRecordsChanges(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "ledger.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	var changes []storage.Change
	w := &FileWriter{Ledger: db, RunID: 1, OnChange: func(c storage.Change) { changes = append(changes, c) }}
	path := filepath.Join(dir, "ts", "gen", "en", "resources.json")
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, Document{Path: path, Kind: KindResources, Value: []string{"a"}}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := Encode([]string{"a"})
	assert.Equal(t, string(want), string(got))

	w.RunID = 2
	require.NoError(t, w.Write(ctx, Document{Path: path, Kind: KindResources, Value: []string{"a"}}))
	require.NoError(t, w.Write(ctx, Document{Path: path, Kind: KindResources, Value: []string{"b"}}))

	require.Len(t, changes, 2)
	assert.Equal(t, "added", changes[0].ChangeType)
	assert.Equal(t, "updated", changes[1].ChangeType)
	assert.Equal(t, KindResources, changes[1].Kind)

	// No temp files are left behind.
	ents, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, ents, 1)
}

func TestFileWriterWithoutLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uw", "catalog.json")
	w := &FileWriter{}
	require.NoError(t, w.Write(context.Background(), Document{Path: path, Kind: KindLegacy, Value: LegacyCatalog{Cat: []LegacySection{}, Mod: 5}}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"cat\": [],\n  \"mod\": 5\n}\n", string(got))
}

func TestFileWriterUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := (&FileWriter{}).Write(context.Background(), Document{Path: path, Value: make(chan int)})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
