package clientcli

import (
	"time"

	"github.com/sagarc03/shelf"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath  string
	RemotePath string
	Recursive  bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size_bytes"`
	Err        error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	RemotePath string
	LocalPath  string // empty = derive from remote, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	RemotePath   string    `json:"remote_path"`
	LocalPath    string    `json:"local_path"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

// CopyResult represents the result of a server-side copy.
type CopyResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// FileInfo is the metadata the server reports for a regular file.
type FileInfo struct {
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	Size           int64     `json:"size_bytes"`
	LastChangeTime time.Time `json:"last_change_time"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Paths []string
}

// DeleteResult represents the result of deleting a single path.
type DeleteResult struct {
	Path      string `json:"path"`
	Deleted   bool   `json:"deleted"`
	Directory bool   `json:"directory,omitempty"`
	Err       error  `json:"-"` // nil on success
}

// ListResult is the listing of a remote directory.
type ListResult struct {
	Path string               `json:"path"`
	Tree *shelf.DirectoryTree `json:"tree"`
}

// FileCount returns the number of files anywhere below the listed directory.
func (r *ListResult) FileCount() int {
	if r.Tree == nil {
		return 0
	}

	count := 0
	stack := []*shelf.DirectoryTree{r.Tree}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range t.Entries() {
			if e.IsDir() {
				stack = append(stack, e.Dir)
				continue
			}
			count++
		}
	}
	return count
}
