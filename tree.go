package shelf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// TreeEntry is one slot of a DirectoryTree. Exactly one of File and Dir is set.
type TreeEntry struct {
	Key  string
	File string
	Dir  *DirectoryTree
}

// IsDir reports whether the entry holds a subdirectory.
func (e TreeEntry) IsDir() bool {
	return e.Dir != nil
}

// DirectoryTree is the listing of one directory level: file names under
// sequential integer keys and subdirectories under their own names, in scan
// order.
//
// Keys follow associative-array rules. A directory whose name is a
// non-negative decimal integer takes that integer key, and the next file
// always gets one more than the largest integer key seen so far. A directory
// that lands on a key held by a file takes the slot, and the file moves to
// the next free integer key so no name is lost.
//
// The zero value is an empty tree ready to use.
type DirectoryTree struct {
	entries []TreeEntry
	index   map[string]int
	nextKey int
}

// NewDirectoryTree returns an empty tree.
func NewDirectoryTree() *DirectoryTree {
	return &DirectoryTree{}
}

// AddFile appends a file name under the next integer key.
func (t *DirectoryTree) AddFile(name string) {
	key := strconv.Itoa(t.nextKey)
	t.put(TreeEntry{Key: key, File: name})
}

// AddDir stores an empty subtree under name and returns it for filling.
func (t *DirectoryTree) AddDir(name string) *DirectoryTree {
	child := NewDirectoryTree()
	t.put(TreeEntry{Key: name, Dir: child})
	return child
}

func (t *DirectoryTree) put(e TreeEntry) {
	if t.index == nil {
		t.index = make(map[string]int)
	}

	if n, ok := integerKey(e.Key); ok && n >= t.nextKey {
		t.nextKey = n + 1
	}

	if i, ok := t.index[e.Key]; ok {
		displaced := t.entries[i]
		t.entries[i] = e
		if e.IsDir() && !displaced.IsDir() {
			t.AddFile(displaced.File)
		}
		return
	}

	t.index[e.Key] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Len returns the number of entries at this level.
func (t *DirectoryTree) Len() int {
	return len(t.entries)
}

// Entries returns the entries at this level in order.
func (t *DirectoryTree) Entries() []TreeEntry {
	out := make([]TreeEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Files returns the file names at this level in order.
func (t *DirectoryTree) Files() []string {
	files := []string{}
	for _, e := range t.entries {
		if !e.IsDir() {
			files = append(files, e.File)
		}
	}
	return files
}

// DirNames returns the subdirectory names at this level in order.
func (t *DirectoryTree) DirNames() []string {
	names := []string{}
	for _, e := range t.entries {
		if e.IsDir() {
			names = append(names, e.Key)
		}
	}
	return names
}

// Dir returns the subtree stored under name.
func (t *DirectoryTree) Dir(name string) (*DirectoryTree, bool) {
	i, ok := t.index[name]
	if !ok || !t.entries[i].IsDir() {
		return nil, false
	}
	return t.entries[i].Dir, true
}

// isList reports whether the keys are exactly 0..n-1 in order, which is
// when the tree encodes as a JSON array.
func (t *DirectoryTree) isList() bool {
	for i, e := range t.entries {
		if e.Key != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the tree as an array of names when its keys are
// sequential from zero, and as an ordered object otherwise.
func (t *DirectoryTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	list := t.isList()
	if list {
		buf.WriteByte('[')
	} else {
		buf.WriteByte('{')
	}

	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}

		if !list {
			key, err := json.Marshal(e.Key)
			if err != nil {
				return nil, fmt.Errorf("marshal tree key: %w", err)
			}
			buf.Write(key)
			buf.WriteByte(':')
		}

		var value []byte
		var err error
		if e.IsDir() {
			value, err = e.Dir.MarshalJSON()
		} else {
			value, err = json.Marshal(e.File)
		}
		if err != nil {
			return nil, fmt.Errorf("marshal tree entry %q: %w", e.Key, err)
		}
		buf.Write(value)
	}

	if list {
		buf.WriteByte(']')
	} else {
		buf.WriteByte('}')
	}

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either encoding produced by MarshalJSON, keeping
// object key order.
func (t *DirectoryTree) UnmarshalJSON(data []byte) error {
	*t = DirectoryTree{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("unmarshal tree: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return errors.New("unmarshal tree: expected array or object")
	}

	for i := 0; dec.More(); i++ {
		key := strconv.Itoa(i)
		if delim == '{' {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("unmarshal tree: %w", err)
			}
			key, ok = keyTok.(string)
			if !ok {
				return errors.New("unmarshal tree: object key is not a string")
			}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("unmarshal tree entry %q: %w", key, err)
		}

		entry, err := decodeTreeEntry(key, raw)
		if err != nil {
			return err
		}
		t.put(entry)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("unmarshal tree: %w", err)
	}

	return nil
}

func decodeTreeEntry(key string, raw json.RawMessage) (TreeEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return TreeEntry{}, fmt.Errorf("unmarshal tree entry %q: %w", key, err)
		}
		return TreeEntry{Key: key, File: name}, nil
	}

	child := NewDirectoryTree()
	if err := child.UnmarshalJSON(raw); err != nil {
		return TreeEntry{}, fmt.Errorf("unmarshal tree entry %q: %w", key, err)
	}
	return TreeEntry{Key: key, Dir: child}, nil
}

// integerKey reports whether key is a canonical non-negative decimal integer.
func integerKey(key string) (int, bool) {
	if key == "" || len(key) > 18 {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}
