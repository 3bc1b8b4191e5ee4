package filesystem_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/shelf"
	"github.com/sagarc03/shelf/filesystem"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	tempDir := t.TempDir()
	osDir, err := os.OpenRoot(tempDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = osDir.Close() })
	return filesystem.NewFileStorage(osDir), tempDir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestStore_Stat(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "docs/a.txt", "hello")

	ctx := context.Background()

	info, err := store.Stat(ctx, "docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/a.txt", info.Path)
	assert.Equal(t, "a.txt", info.Name)
	assert.Equal(t, int64(5), info.Size)
	assert.True(t, info.Regular)
	assert.False(t, info.IsDir)

	info, err = store.Stat(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, info.IsDir)
	assert.False(t, info.Regular)

	info, err = store.Stat(ctx, shelf.RootPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir)
}

func TestStore_Stat_NotFound(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "a.txt", "x")

	ctx := context.Background()

	_, err := store.Stat(ctx, "missing.txt")
	assert.ErrorIs(t, err, shelf.ErrNotFound)

	_, err = store.Stat(ctx, "a.txt/below")
	assert.ErrorIs(t, err, shelf.ErrNotFound, "path through a file")
}

func TestStore_Open_Success(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "test.txt", "test content")

	f, info, err := store.Open(context.Background(), "test.txt")
	require.NoError(t, err)

	data, err := io.ReadAll(f)
	assert.NoError(t, err)
	assert.Equal(t, []byte("test content"), data)
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "test.txt", info.Name)

	assert.NoError(t, f.Close())
}

func TestStore_Open_NotFound(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir"), 0o755))

	ctx := context.Background()

	f, _, err := store.Open(ctx, "nonexistent.txt")
	assert.ErrorIs(t, err, shelf.ErrNotFound)
	assert.Nil(t, f)

	f, _, err = store.Open(ctx, "dir")
	assert.ErrorIs(t, err, shelf.ErrNotFound, "directories are not files")
	assert.Nil(t, f)
}

func TestStore_Open_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, _, err := store.Open(ctx, "test.txt")
	assert.Nil(t, f)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_Write_Success(t *testing.T) {
	store, tempDir := newStore(t)

	result, err := store.Write(context.Background(), "test.txt", bytes.NewReader([]byte("test content")))

	assert.NoError(t, err)
	assert.Equal(t, int64(12), result.BytesWritten)
	assert.Equal(t, 64, len(result.Etag)) // SHA256 hex length

	data, err := os.ReadFile(filepath.Join(tempDir, "test.txt"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("test content"), data)
}

func TestStore_Write_WithSubdirectory(t *testing.T) {
	store, tempDir := newStore(t)

	result, err := store.Write(context.Background(), "subdir/nested/test.txt", bytes.NewReader([]byte("nested content")))

	assert.NoError(t, err)
	assert.Equal(t, int64(14), result.BytesWritten)

	info, err := os.Stat(filepath.Join(tempDir, "subdir", "nested"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile(filepath.Join(tempDir, "subdir", "nested", "test.txt"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("nested content"), data)
}

func TestStore_Write_Overwrites(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "a.txt", "a much longer original body")

	_, err := store.Write(context.Background(), "a.txt", bytes.NewReader([]byte("short")))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tempDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestStore_Write_ContextCanceledBefore(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := store.Write(ctx, "test.txt", bytes.NewReader([]byte("test")))

	assert.Equal(t, int64(0), result.BytesWritten)
	assert.Empty(t, result.Etag)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_Write_ContextCanceledDuringCopy(t *testing.T) {
	store, tempDir := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())

	slowReader := &slowReader{
		data:   []byte("test content"),
		cancel: cancel,
	}

	result, err := store.Write(ctx, "test.txt", slowReader)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), result.BytesWritten)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no target and no temp file left behind")
}

type slowReader struct {
	data   []byte
	pos    int
	cancel context.CancelFunc
}

func (r *slowReader) Read(p []byte) (n int, err error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	r.cancel()
	n = copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func TestStore_Write_ETagConsistency(t *testing.T) {
	store, _ := newStore(t)

	content := []byte("test content for etag")
	ctx := context.Background()

	result1, err := store.Write(ctx, "file1.txt", bytes.NewReader(content))
	assert.NoError(t, err)

	result2, err := store.Write(ctx, "file2.txt", bytes.NewReader(content))
	assert.NoError(t, err)

	assert.Equal(t, result1.Etag, result2.Etag, "Same content should produce same ETag")
}

func TestStore_Write_LargeFile(t *testing.T) {
	store, tempDir := newStore(t)

	largeContent := bytes.Repeat([]byte("a"), 1024*1024)

	result, err := store.Write(context.Background(), "large.bin", bytes.NewReader(largeContent))

	assert.NoError(t, err)
	assert.Equal(t, int64(1024*1024), result.BytesWritten)

	info, err := os.Stat(filepath.Join(tempDir, "large.bin"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1024*1024), info.Size())
}

func TestStore_Copy(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "src/a.txt", "copy me")

	result, err := store.Copy(context.Background(), "src/a.txt", "dst/deep/b.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.BytesWritten)

	data, err := os.ReadFile(filepath.Join(tempDir, "dst", "deep", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "copy me", string(data))

	data, err = os.ReadFile(filepath.Join(tempDir, "src", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "copy me", string(data), "source untouched")
}

func TestStore_Copy_OntoItself(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "a.txt", "same")

	_, err := store.Copy(context.Background(), "a.txt", "a.txt")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tempDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "same", string(data))
}

func TestStore_Copy_SourceNotFound(t *testing.T) {
	store, tempDir := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir"), 0o755))

	ctx := context.Background()

	_, err := store.Copy(ctx, "missing.txt", "b.txt")
	assert.ErrorIs(t, err, shelf.ErrNotFound)

	_, err = store.Copy(ctx, "dir", "b.txt")
	assert.ErrorIs(t, err, shelf.ErrNotFound, "directory source")

	_, err = os.Stat(filepath.Join(tempDir, "b.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Remove(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "test.txt", "content")

	ctx := context.Background()

	require.NoError(t, store.Remove(ctx, "test.txt"))

	_, err := os.Stat(filepath.Join(tempDir, "test.txt"))
	assert.True(t, os.IsNotExist(err))

	err = store.Remove(ctx, "test.txt")
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestStore_Remove_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, store.Remove(ctx, "test.txt"))
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestStore_List(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "file1.txt", "content1")
	writeFile(t, tempDir, "file2.txt", "content2")
	writeFile(t, tempDir, "a/inner.txt", "x")
	writeFile(t, tempDir, "a/b/c/deep.txt", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "empty"), 0o755))

	tree, err := store.List(context.Background(), shelf.RootPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"file1.txt", "file2.txt"}, sorted(tree.Files()))
	assert.Equal(t, []string{"a", "empty"}, sorted(tree.DirNames()))

	a, ok := tree.Dir("a")
	require.True(t, ok)
	assert.Equal(t, []string{"inner.txt"}, a.Files())

	b, ok := a.Dir("b")
	require.True(t, ok)
	assert.Empty(t, b.Files())

	c, ok := b.Dir("c")
	require.True(t, ok)
	assert.Equal(t, []string{"deep.txt"}, c.Files())

	empty, ok := tree.Dir("empty")
	require.True(t, ok)
	assert.Equal(t, 0, empty.Len())
}

func TestStore_List_Subdirectory(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "outside.txt", "x")
	writeFile(t, tempDir, "docs/readme.md", "x")

	tree, err := store.List(context.Background(), "docs")
	require.NoError(t, err)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `["readme.md"]`, string(out))
}

func TestStore_List_EmptyDirectory(t *testing.T) {
	store, _ := newStore(t)

	tree, err := store.List(context.Background(), shelf.RootPath)
	require.NoError(t, err)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}

func TestStore_List_NotFound(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.List(context.Background(), "missing")
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestStore_List_ContextCanceled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree, err := store.List(ctx, shelf.RootPath)
	assert.Nil(t, tree)
	assert.Equal(t, context.Canceled, err)
}

func TestStore_List_FollowsSymlinks(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "real/a.txt", "x")
	writeFile(t, tempDir, "file.txt", "x")
	require.NoError(t, os.Symlink("real", filepath.Join(tempDir, "linkdir")))
	require.NoError(t, os.Symlink("file.txt", filepath.Join(tempDir, "linkfile")))
	require.NoError(t, os.Symlink("nowhere", filepath.Join(tempDir, "dangling")))

	tree, err := store.List(context.Background(), shelf.RootPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"linkdir", "real"}, sorted(tree.DirNames()))
	assert.Equal(t, []string{"dangling", "file.txt", "linkfile"}, sorted(tree.Files()))

	linked, ok := tree.Dir("linkdir")
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt"}, linked.Files())
}

func TestStore_RemoveTree(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "dir/a.txt", "x")
	writeFile(t, tempDir, "dir/sub/b.txt", "x")
	writeFile(t, tempDir, "dir/sub/deeper/c.txt", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "dir", "empty"), 0o755))
	writeFile(t, tempDir, "keep.txt", "x")

	require.NoError(t, store.RemoveTree(context.Background(), "dir"))

	_, err := os.Stat(filepath.Join(tempDir, "dir"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(tempDir, "keep.txt"))
	assert.NoError(t, err)
}

func TestStore_RemoveTree_DoesNotFollowSymlinks(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "precious/data.txt", "keep me")
	writeFile(t, tempDir, "dir/a.txt", "x")
	require.NoError(t, os.Symlink(filepath.Join("..", "precious"), filepath.Join(tempDir, "dir", "link")))

	require.NoError(t, store.RemoveTree(context.Background(), "dir"))

	_, err := os.Lstat(filepath.Join(tempDir, "dir"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(tempDir, "precious", "data.txt"))
	require.NoError(t, err, "link target survives")
	assert.Equal(t, "keep me", string(data))
}

func TestStore_RemoveTree_NotFound(t *testing.T) {
	store, _ := newStore(t)

	err := store.RemoveTree(context.Background(), "missing")
	assert.ErrorIs(t, err, shelf.ErrNotFound)
}

func TestStore_RemoveTree_ContextCanceled(t *testing.T) {
	store, tempDir := newStore(t)
	writeFile(t, tempDir, "dir/a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, store.RemoveTree(ctx, "dir"))

	_, err := os.Stat(filepath.Join(tempDir, "dir", "a.txt"))
	assert.NoError(t, err)
}

func TestStore_Integration_WriteListDelete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	content := []byte("integration test content")

	result, err := store.Write(ctx, "a/b/test.txt", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), result.BytesWritten)

	reader, _, err := store.Open(ctx, "a/b/test.txt")
	require.NoError(t, err)
	readContent, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Equal(t, content, readContent)
	assert.NoError(t, reader.Close())

	tree, err := store.List(ctx, shelf.RootPath)
	require.NoError(t, err)
	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":["test.txt"]}}`, string(out))

	require.NoError(t, store.RemoveTree(ctx, "a"))

	tree, err = store.List(ctx, shelf.RootPath)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	done := make(chan bool, 10)
	for i := range 10 {
		go func(n int) {
			content := fmt.Appendf(nil, "content-%d", n)
			p := fmt.Sprintf("file-%d.txt", n)
			_, err := store.Write(ctx, p, bytes.NewReader(content))
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for range 10 {
		<-done
	}

	tree, err := store.List(ctx, shelf.RootPath)
	assert.NoError(t, err)
	assert.Len(t, tree.Files(), 10)
}
