package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/unfoldingWord-dev/uwcatalog/pkg/storage"
)

// Kinds of generated documents.
const (
	KindResources = "resources"
	KindLanguages = "languages"
	KindProjects  = "projects"
	KindLegacy    = "legacy"
)

// Document is one generated catalog file.
type Document struct {
	Path  string
	Kind  string
	Value any
}

// Writer persists generated documents.
type Writer interface {
	Write(ctx context.Context, doc Document) error
}

// Encode renders a document the way it is stored on disk.
func Encode(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// FileWriter writes documents as JSON files. Each file is replaced
// atomically; a run as a whole is not.
type FileWriter struct {
	// Ledger, when set, records every write of run RunID.
	Ledger *storage.DB
	RunID  int64
	// OnChange is called for every ledger change. Optional.
	OnChange func(storage.Change)
}

func (w *FileWriter) Write(ctx context.Context, doc Document) error {
	data, err := Encode(doc.Value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.Path, err)
	}
	if err := writeFileAtomic(doc.Path, data); err != nil {
		return err
	}
	if w.Ledger == nil {
		return nil
	}

	sum := sha256.Sum256(data)
	change, err := w.Ledger.RecordFile(ctx, w.RunID, storage.FileEntry{
		Path:     doc.Path,
		Kind:     doc.Kind,
		Checksum: hex.EncodeToString(sum[:]),
		Size:     int64(len(data)),
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", doc.Path, err)
	}
	if change != nil && w.OnChange != nil {
		w.OnChange(*change)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MemoryWriter keeps encoded documents in memory. Used for dry runs.
type MemoryWriter struct {
	files map[string][]byte
	kinds map[string]string
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: make(map[string][]byte), kinds: make(map[string]string)}
}

func (w *MemoryWriter) Write(_ context.Context, doc Document) error {
	data, err := Encode(doc.Value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.Path, err)
	}
	w.files[doc.Path] = data
	w.kinds[doc.Path] = doc.Kind
	return nil
}

// File returns the encoded document written at path.
func (w *MemoryWriter) File(path string) ([]byte, bool) {
	b, ok := w.files[path]
	return b, ok
}

// Kind returns the kind of the document written at path.
func (w *MemoryWriter) Kind(path string) string {
	return w.kinds[path]
}

// Paths returns every written path in sorted order.
func (w *MemoryWriter) Paths() []string {
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
