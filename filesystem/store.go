// Package filesystem provides the file system backend for shelf.
// All access goes through an *os.Root so nothing outside the storage root
// can be touched. Writes are atomic: content lands in a temp file that is
// synced and then renamed over the target.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/sagarc03/shelf"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Stat describes the entry at p, following symbolic links.
// Returns shelf.ErrNotFound if nothing exists there.
func (s *Store) Stat(ctx context.Context, p string) (shelf.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return shelf.FileInfo{}, err
	}

	fi, err := s.root.Stat(filepath.FromSlash(p))
	if err != nil {
		if isNotFound(err) {
			return shelf.FileInfo{}, shelf.ErrNotFound
		}
		return shelf.FileInfo{}, fmt.Errorf("could not stat: %w", err)
	}

	return toFileInfo(p, fi), nil
}

// Open opens a regular file for reading. Returns shelf.ErrNotFound if the
// file does not exist or is not a regular file.
func (s *Store) Open(ctx context.Context, p string) (io.ReadSeekCloser, shelf.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, shelf.FileInfo{}, err
	}

	f, fi, err := s.openRegular(p)
	if err != nil {
		return nil, shelf.FileInfo{}, err
	}

	return f, toFileInfo(p, fi), nil
}

func (s *Store) openRegular(p string) (*os.File, fs.FileInfo, error) {
	f, err := s.root.Open(filepath.FromSlash(p))
	if err != nil {
		if isNotFound(err) {
			return nil, nil, shelf.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", p, "err", closeErr)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to stat open file: %w", err)
		}
		return nil, nil, shelf.ErrNotFound
	}

	return f, fi, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to the given path using a temp file and rename.
// It creates intermediate directories as needed and returns a SaveResult containing
// the number of bytes written and SHA256-based etag. The operation respects context cancellation.
func (s *Store) Write(ctx context.Context, p string, content io.Reader) (shelf.SaveResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shelf.SaveResult{}, ctxErr
	}

	return s.writeAtomic(ctx, filepath.FromSlash(p), content)
}

// Copy writes a copy of src to dst through the same atomic path as Write.
// Returns shelf.ErrNotFound if src is missing or is not a regular file.
func (s *Store) Copy(ctx context.Context, src, dst string) (shelf.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return shelf.SaveResult{}, err
	}

	f, _, err := s.openRegular(src)
	if err != nil {
		if errors.Is(err, shelf.ErrNotFound) {
			return shelf.SaveResult{}, err
		}
		// unreadable sources are reported the same as missing ones
		slog.Debug("copy source not readable", "path", src, "err", err)
		return shelf.SaveResult{}, shelf.ErrNotFound
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", src, "err", closeErr)
		}
	}()

	return s.writeAtomic(ctx, filepath.FromSlash(dst), f)
}

func (s *Store) writeAtomic(ctx context.Context, dst string, content io.Reader) (shelf.SaveResult, error) {
	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return shelf.SaveResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	fileSizeBytes, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return shelf.SaveResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return shelf.SaveResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(dst)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return shelf.SaveResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, dst); renameErr != nil {
		return shelf.SaveResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	success = true

	return shelf.SaveResult{BytesWritten: fileSizeBytes, Etag: etag}, nil
}

// Remove unlinks a single entry. Returns shelf.ErrNotFound if it does not exist.
func (s *Store) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(filepath.FromSlash(p))
	if err != nil {
		if isNotFound(err) {
			return shelf.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

type listFrame struct {
	dir  string
	tree *shelf.DirectoryTree
}

// List scans the directory at p and everything below it. Symbolic links to
// directories are followed; there is no cycle detection.
func (s *Store) List(ctx context.Context, p string) (*shelf.DirectoryTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := shelf.NewDirectoryTree()
	stack := []listFrame{{dir: p, tree: top}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := s.readDir(frame.dir)
		if err != nil {
			if isNotFound(err) && frame.dir == p {
				return nil, shelf.ErrNotFound
			}
			return nil, fmt.Errorf("failed to list %s: %w", frame.dir, err)
		}

		for _, entry := range entries {
			child := path.Join(frame.dir, entry.Name())
			if !s.isDir(child, entry) {
				frame.tree.AddFile(entry.Name())
				continue
			}
			stack = append(stack, listFrame{dir: child, tree: frame.tree.AddDir(entry.Name())})
		}
	}

	return top, nil
}

// isDir reports whether entry is a directory once symbolic links are resolved.
// Links that cannot be resolved count as files.
func (s *Store) isDir(p string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}

	fi, err := s.root.Stat(filepath.FromSlash(p))
	if err != nil {
		slog.Debug("unresolvable symlink listed as file", "path", p, "err", err)
		return false
	}
	return fi.IsDir()
}

// readDir returns the entries of dir in the order the file system reports them.
func (s *Store) readDir(dir string) ([]fs.DirEntry, error) {
	d, err := s.root.Open(filepath.FromSlash(dir))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			slog.Warn("failed to close directory", "path", dir, "err", closeErr)
		}
	}()

	return d.ReadDir(-1)
}

// RemoveTree deletes the directory at p and everything below it. Symbolic
// links found inside the tree are unlinked, never followed.
func (s *Store) RemoveTree(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.removeDir(ctx, p); err != nil {
		if isNotFound(err) {
			return shelf.ErrNotFound
		}
		return fmt.Errorf("failed to remove directory: %w", err)
	}

	return nil
}

func (s *Store) removeDir(ctx context.Context, dir string) error {
	entries, err := s.readDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		child := path.Join(dir, entry.Name())

		// DirEntry types come from lstat, so a link to a directory is not IsDir.
		if entry.IsDir() {
			if err := s.removeDir(ctx, child); err != nil {
				return err
			}
			continue
		}

		if err := s.root.Remove(filepath.FromSlash(child)); err != nil {
			return err
		}
	}

	return s.root.Remove(filepath.FromSlash(dir))
}

func toFileInfo(p string, fi fs.FileInfo) shelf.FileInfo {
	return shelf.FileInfo{
		Path:    p,
		Name:    fi.Name(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		IsDir:   fi.IsDir(),
		Regular: fi.Mode().IsRegular(),
	}
}

// isNotFound treats a path running through a regular file the same as a
// missing one.
func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
