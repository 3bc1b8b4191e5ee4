package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/shelf"
	shelfhttp "github.com/sagarc03/shelf/http"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a shelf server.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	endpoint, err := ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// storageURL returns the URL of remotePath under the storage endpoint.
func (c *Client) storageURL(remotePath string) string {
	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + shelfhttp.StoragePrefix + strings.TrimPrefix(remotePath, "/")
	u.RawPath = ""
	return u.String()
}

func (c *Client) do(ctx context.Context, method, remotePath string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.storageURL(remotePath), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// Upload uploads file(s) to the server.
// For recursive uploads, walks directory and preserves relative paths.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.RemotePath)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files.
// Failures are collected per file and the walk continues.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.RemotePath)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	baseDir := opts.LocalPath
	remotePrefix := strings.TrimSuffix(opts.RemotePath, "/")

	walkErr := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(baseDir, p)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: p,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		remotePath := filepath.ToSlash(relPath)
		if remotePrefix != "" {
			remotePath = remotePrefix + "/" + remotePath
		}

		result, uploadErr := c.uploadSingle(ctx, p, remotePath)
		if uploadErr != nil {
			result = UploadResult{
				LocalPath:  p,
				RemotePath: remotePath,
				Err:        uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle uploads a single file to the server.
func (c *Client) uploadSingle(ctx context.Context, localPath, remotePath string) (UploadResult, error) {
	if remotePath == "" {
		remotePath = NormalizeLocalToRemotePath(localPath)
	}
	remotePath = normalizePath(remotePath)
	if remotePath == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() == 0 {
		return UploadResult{}, fmt.Errorf("upload %s: %w", localPath, ErrEmptyFile)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.storageURL(remotePath), file)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", detectContentType(localPath))
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, readServerError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return UploadResult{
		LocalPath:  localPath,
		RemotePath: remotePath,
		Size:       info.Size(),
	}, nil
}

// Download downloads a file from the server.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
// Returns ErrIsDirectory when the remote path is a directory.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	remotePath := normalizePath(opts.RemotePath)
	if remotePath == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	resp, err := c.do(ctx, http.MethodGet, remotePath, http.NoBody, nil)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, nil, readServerError(resp)
	}

	if isJSON(resp) {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("download %s: %w", remotePath, ErrIsDirectory)
	}

	result := &DownloadResult{
		RemotePath: remotePath,
		Size:       resp.ContentLength,
	}
	if lm, parseErr := http.ParseTime(resp.Header.Get("Last-Modified")); parseErr == nil {
		result.LastModified = lm
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = path.Base(remotePath)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Copy asks the server to copy source to target. Both are remote paths.
func (c *Client) Copy(ctx context.Context, source, target string) (*CopyResult, error) {
	source = normalizePath(source)
	target = normalizePath(target)
	if source == "" || target == "" {
		return nil, fmt.Errorf("copy: %w", ErrEmptyPath)
	}

	header := http.Header{}
	header.Set(shelfhttp.CopySourceHeader, source)

	resp, err := c.do(ctx, http.MethodPost, target, http.NoBody, header)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readServerError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return &CopyResult{Source: source, Target: target}, nil
}

// Info fetches file metadata with a HEAD request. Directories are reported
// by the server as not found.
func (c *Client) Info(ctx context.Context, remotePath string) (*FileInfo, error) {
	remotePath = normalizePath(remotePath)
	if remotePath == "" {
		return nil, fmt.Errorf("info: %w", ErrEmptyPath)
	}

	resp, err := c.do(ctx, http.MethodHead, remotePath, http.NoBody, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	return parseFileInfo(remotePath, resp.Header)
}

func parseFileInfo(remotePath string, h http.Header) (*FileInfo, error) {
	info := &FileInfo{
		Path: remotePath,
		Name: h.Get(shelfhttp.HeaderFilename),
	}

	size, err := strconv.ParseInt(h.Get(shelfhttp.HeaderFilesize), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", shelfhttp.HeaderFilesize, err)
	}
	info.Size = size

	// The server formats the time in its own zone without an offset.
	changed, err := time.ParseInLocation(shelfhttp.LastChangeTimeLayout, h.Get(shelfhttp.HeaderLastChangeTime), time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", shelfhttp.HeaderLastChangeTime, err)
	}
	info.LastChangeTime = changed

	return info, nil
}

// Delete deletes one or more files or directories from the server.
// Continues on error, collecting results for all paths.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Paths) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]DeleteResult, 0, len(opts.Paths))

	for _, p := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.deleteSingle(ctx, p))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, p string) DeleteResult {
	remotePath := normalizePath(p)
	if remotePath == "" {
		return DeleteResult{Path: p, Err: fmt.Errorf("delete: %w", ErrEmptyPath)}
	}

	resp, err := c.do(ctx, http.MethodDelete, remotePath, http.NoBody, nil)
	if err != nil {
		return DeleteResult{Path: p, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return DeleteResult{Path: p, Err: readServerError(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DeleteResult{Path: p, Err: fmt.Errorf("read response: %w", err)}
	}

	return DeleteResult{
		Path:      p,
		Deleted:   true,
		Directory: string(body) == shelfhttp.MsgDirectoryDeleted,
	}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List returns the recursive listing of a remote directory. An empty path
// lists the storage root. Returns ErrNotDirectory for regular files.
func (c *Client) List(ctx context.Context, remotePath string) (*ListResult, error) {
	remotePath = normalizePath(remotePath)
	target := remotePath
	if target == "" {
		target = "."
	}

	resp, err := c.do(ctx, http.MethodGet, target, http.NoBody, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, readServerError(resp)
	}

	if !isJSON(resp) {
		return nil, fmt.Errorf("list %s: %w", remotePath, ErrNotDirectory)
	}

	tree := shelf.NewDirectoryTree()
	if err := json.NewDecoder(resp.Body).Decode(tree); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &ListResult{Path: remotePath, Tree: tree}, nil
}

// CheckServer lists the storage root to check that the endpoint serves shelf.
// Returns ErrNotShelfServer when something else answers.
func (c *Client) CheckServer(ctx context.Context) error {
	_, err := c.List(ctx, "")

	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotDirectory):
		return fmt.Errorf("%w: %s answered without a listing", ErrNotShelfServer, c.endpoint)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s has no %s route", ErrNotShelfServer, c.endpoint, shelfhttp.StoragePrefix)
	default:
		return fmt.Errorf("check %s: %w", c.endpoint, err)
	}
}

func isJSON(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// normalizePath returns a clean remote path without leading or trailing slashes.
func normalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// NormalizeLocalToRemotePath converts a local path to a clean remote path.
// It handles:
//   - Leading "./" is stripped (./foo/bar.txt -> foo/bar.txt)
//   - Leading "/" is stripped (/abs/path/file.txt -> abs/path/file.txt)
//   - Parent traversal is resolved (../sibling/file.txt -> sibling/file.txt)
//   - Multiple slashes are collapsed
//   - Backslashes are converted to forward slashes (Windows)
func NormalizeLocalToRemotePath(localPath string) string {
	p := filepath.ToSlash(localPath)
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}

	if p == ".." || p == "." {
		return ""
	}

	return p
}

// detectContentType returns MIME type based on file extension.
func detectContentType(p string) string {
	ext := filepath.Ext(p)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// readServerError drains resp and wraps the status and body in an APIError.
func readServerError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := "server error: " + strconv.Itoa(e.StatusCode)
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested path does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is returned for invalid paths, empty uploads and
	// copies without a source (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrTooLarge is returned when an upload exceeds the server limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}
)
