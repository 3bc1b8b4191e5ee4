package shelf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// FileStorage defines the filesystem operations the service needs.
//
// All paths are resolved paths (see ResolvePath). All methods accept a
// context and should return its error once it is cancelled.
type FileStorage interface {
	// Stat describes the entry at path, following symbolic links.
	// Returns ErrNotFound if nothing exists there.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// Open opens a regular file for reading.
	// Returns ErrNotFound if path is missing or is not a regular file.
	// The caller must close the returned reader.
	Open(ctx context.Context, path string) (io.ReadSeekCloser, FileInfo, error)

	// Write stores content at path, replacing any existing file.
	// Missing parent directories are created with mode 0755.
	Write(ctx context.Context, path string, content io.Reader) (SaveResult, error)

	// Copy writes a byte-for-byte copy of src to dst, creating dst's parent
	// directories. Returns ErrNotFound if src cannot be opened as a regular file.
	Copy(ctx context.Context, src, dst string) (SaveResult, error)

	// Remove unlinks a single non-directory entry.
	Remove(ctx context.Context, path string) error

	// List returns the recursive listing of the directory at path.
	List(ctx context.Context, path string) (*DirectoryTree, error)

	// RemoveTree deletes the directory at path and everything below it.
	// Symbolic links inside the tree are unlinked, never followed.
	RemoveTree(ctx context.Context, path string) error
}

// Journal records mutations of the storage tree.
//
// Implementations must be safe for concurrent use.
type Journal interface {
	// Record persists entry. Implementations assign ID and CreatedAt.
	Record(ctx context.Context, entry JournalEntry) (JournalEntry, error)

	// List returns entries ordered by creation time, one page at a time.
	List(ctx context.Context, q JournalQuery) (JournalPage, error)

	// Prune deletes entries created before the given time and reports how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// StorageService maps storage requests onto filesystem operations.
type StorageService struct {
	storage        FileStorage
	journal        Journal
	journalTimeout time.Duration
}

// ServiceConfig holds configuration options for StorageService.
type ServiceConfig struct {
	Journal        Journal       // optional, nil disables recording
	JournalTimeout time.Duration // Timeout for journal writes (default: 5s)
}

func NewStorageService(storage FileStorage, cfg ServiceConfig) (*StorageService, error) {
	if storage == nil {
		return nil, errors.New("new storage service: storage cannot be nil")
	}
	journalTimeout := cfg.JournalTimeout
	if journalTimeout <= 0 {
		journalTimeout = 5 * time.Second
	}
	return &StorageService{
		storage:        storage,
		journal:        cfg.Journal,
		journalTimeout: journalTimeout,
	}, nil
}

// Stat describes the entry at path.
func (s *StorageService) Stat(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, fmt.Errorf("stat: %w", err)
	}

	info, err := s.storage.Stat(ctx, path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	return info, nil
}

// Open opens the regular file at path for download.
func (s *StorageService) Open(ctx context.Context, path string) (io.ReadSeekCloser, FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, FileInfo{}, fmt.Errorf("open: %w", err)
	}

	f, info, err := s.storage.Open(ctx, path)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("open %s: %w", path, err)
	}

	return f, info, nil
}

// List returns the recursive listing of the directory at path.
// Returns ErrNotFound if path is not a directory.
func (s *StorageService) List(ctx context.Context, path string) (*DirectoryTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	info, err := s.storage.Stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if !info.IsDir {
		return nil, fmt.Errorf("list %s: %w", path, ErrNotFound)
	}

	tree, err := s.storage.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	return tree, nil
}

// Put uploads content to path. Content must hold at least one byte;
// an empty upload returns ErrEmptyBody and writes nothing.
func (s *StorageService) Put(ctx context.Context, path string, content io.Reader) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, fmt.Errorf("put: %w", err)
	}

	if IsRoot(path) {
		return SaveResult{}, fmt.Errorf("put: %w: cannot write to storage root", ErrInvalidPath)
	}

	if content == nil {
		return SaveResult{}, fmt.Errorf("put %s: %w", path, ErrEmptyBody)
	}

	br := bufio.NewReader(content)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return SaveResult{}, fmt.Errorf("put %s: %w", path, ErrEmptyBody)
		}
		return SaveResult{}, fmt.Errorf("put %s: read body: %w", path, err)
	}

	result, err := s.storage.Write(ctx, path, br)
	if err != nil {
		return SaveResult{}, fmt.Errorf("put %s: %w", path, err)
	}

	s.record(ctx, JournalEntry{Op: OpUpload, Path: path, SizeBytes: result.BytesWritten})

	return result, nil
}

// Copy copies the file named by source onto target. Source is a raw path
// relative to the storage root and is resolved with ResolvePath.
//
// Returns ErrMissingCopySource if source is empty, ErrInvalidPath if either
// side escapes the root, and ErrNotFound if source is not a readable file.
func (s *StorageService) Copy(ctx context.Context, source, target string) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, fmt.Errorf("copy: %w", err)
	}

	if source == "" {
		return SaveResult{}, fmt.Errorf("copy: %w", ErrMissingCopySource)
	}

	if IsRoot(target) {
		return SaveResult{}, fmt.Errorf("copy: %w: cannot write to storage root", ErrInvalidPath)
	}

	src, err := ResolvePath(source)
	if err != nil {
		return SaveResult{}, fmt.Errorf("copy from %q: %w", source, err)
	}

	result, err := s.storage.Copy(ctx, src, target)
	if err != nil {
		return SaveResult{}, fmt.Errorf("copy %s to %s: %w", src, target, err)
	}

	s.record(ctx, JournalEntry{Op: OpCopy, Path: target, Source: src, SizeBytes: result.BytesWritten})

	return result, nil
}

// Delete removes the file or directory tree at path and reports which it was.
// Entries that are neither regular files nor directories return ErrNotFound.
func (s *StorageService) Delete(ctx context.Context, path string) (EntryKind, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("delete: %w", err)
	}

	if IsRoot(path) {
		return "", fmt.Errorf("delete: %w: cannot delete storage root", ErrInvalidPath)
	}

	info, err := s.storage.Stat(ctx, path)
	if err != nil {
		return "", fmt.Errorf("delete %s: %w", path, err)
	}

	switch {
	case info.Regular:
		if err := s.storage.Remove(ctx, path); err != nil {
			return "", fmt.Errorf("delete file %s: %w", path, err)
		}
		s.record(ctx, JournalEntry{Op: OpDeleteFile, Path: path, SizeBytes: info.Size})
		return KindFile, nil

	case info.IsDir:
		if err := s.storage.RemoveTree(ctx, path); err != nil {
			return "", fmt.Errorf("delete directory %s: %w", path, err)
		}
		s.record(ctx, JournalEntry{Op: OpDeleteDir, Path: path})
		return KindDirectory, nil

	default:
		return "", fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
}

// record writes a journal entry if a journal is configured. Failures are
// logged and never reach the caller, since the filesystem change already happened.
func (s *StorageService) record(ctx context.Context, entry JournalEntry) {
	if s.journal == nil {
		return
	}

	journalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.journalTimeout)
	defer cancel()

	if _, err := s.journal.Record(journalCtx, entry); err != nil {
		slog.Warn("failed to record journal entry", "op", entry.Op, "path", entry.Path, "err", err)
	}
}
