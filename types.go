package shelf

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes an entry under the storage root. Kind checks follow
// symbolic links.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
	Regular bool
}

type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// EntryKind tells callers what a delete removed.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

type Operation string

const (
	OpUpload     Operation = "upload"
	OpCopy       Operation = "copy"
	OpDeleteFile Operation = "delete_file"
	OpDeleteDir  Operation = "delete_dir"
)

func (o Operation) IsValid() bool {
	switch o {
	case OpUpload, OpCopy, OpDeleteFile, OpDeleteDir:
		return true
	default:
		return false
	}
}

func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.IsValid() {
		return "", fmt.Errorf("invalid operation: %s (valid operations: upload, copy, delete_file, delete_dir)", s)
	}
	return op, nil
}

// JournalEntry is one recorded mutation of the storage tree.
type JournalEntry struct {
	ID        uuid.UUID `json:"id"`
	Op        Operation `json:"op"`
	Path      string    `json:"path"`
	Source    string    `json:"source,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type JournalQuery struct {
	PathPrefix string
	Op         Operation
	Limit      int
	Cursor     string
}

type JournalPage struct {
	Items      []JournalEntry `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Tables holds configurable table names for the journal.
// This allows several servers to share one database.
type Tables struct {
	Journal string `mapstructure:"journal"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Journal == "" {
		return errors.New("validate tables: journal table name cannot be empty")
	}

	if !IsValidTableName(t.Journal) {
		return fmt.Errorf("validate tables: invalid journal table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Journal)
	}

	return nil
}
