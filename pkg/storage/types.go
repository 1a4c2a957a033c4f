package storage

import "time"

// FileEntry is one generated catalog file as written by a run.
type FileEntry struct {
	Path     string
	Kind     string
	Checksum string
	Size     int64
}

// Change captures a single change event for auditing or printing.
type Change struct {
	OccurredAt time.Time
	RunID      int64

	Path       string
	Kind       string
	Checksum   string
	ChangeType string // added | updated | removed
}

// KindStats counts the tracked files of one kind.
type KindStats struct {
	Kind      string
	FileCount int
	Bytes     int64
}
