package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/shelf"
)

// CopySourceHeader names the request header that turns a POST into a copy.
const CopySourceHeader = "X-Copy-From"

// Headers set on HEAD responses for regular files.
const (
	HeaderFilename       = "Filename"
	HeaderFilesize       = "Filesize"
	HeaderLastChangeTime = "Last-Change-Time"

	// LastChangeTimeLayout formats Last-Change-Time in the server's local zone.
	LastChangeTimeLayout = "02.01.2006 15:04:05"
)

type Service interface {
	Stat(ctx context.Context, path string) (shelf.FileInfo, error)
	Open(ctx context.Context, path string) (io.ReadSeekCloser, shelf.FileInfo, error)
	List(ctx context.Context, path string) (*shelf.DirectoryTree, error)
	Put(ctx context.Context, path string, content io.Reader) (shelf.SaveResult, error)
	Copy(ctx context.Context, source, target string) (shelf.SaveResult, error)
	Delete(ctx context.Context, path string) (shelf.EntryKind, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	MaxUploadSize int64 // bytes, 0 means unlimited
	CORS          CORSConfig
}

// Handler maps HTTP verbs under StoragePrefix onto storage operations.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler serving the storage routes. Anything that
// does not match a route, or uses a method the route does not support,
// gets the 404 text response.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Group(func(r chi.Router) {
		r.Use(ResolvePathMiddleware)
		r.Get(StoragePrefix+"*", h.handleGet)
		r.Head(StoragePrefix+"*", h.handleHead)
		r.Put(StoragePrefix+"*", h.handlePut)
		r.Post(StoragePrefix+"*", h.handleCopy)
		r.Delete(StoragePrefix+"*", h.handleDelete)
	})

	return r
}

func resolvedPath(r *http.Request) string {
	path, ok := ResolvedPathFromContext(r.Context())
	if !ok {
		// only reachable if a route skips ResolvePathMiddleware
		panic("http: storage route without resolved path")
	}
	return path
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	path := resolvedPath(r)

	info, err := h.service.Stat(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}

	switch {
	case info.Regular:
		h.serveFile(w, r, path)
	case info.IsDir:
		tree, err := h.service.List(r.Context(), path)
		if err != nil {
			HandleError(w, err)
			return
		}
		if err := WriteJSON(w, http.StatusOK, tree); err != nil {
			slog.Error("failed to write directory listing", "path", path, "error", err)
		}
	default:
		notFound(w, r)
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	content, info, err := h.service.Open(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		slog.Warn("failed to stream file", "path", path, "error", err)
	}
}

// handleHead reports file metadata in headers. Only regular files exist for
// HEAD; everything else gets an empty 404.
func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	path := resolvedPath(r)

	info, err := h.service.Stat(r.Context(), path)
	if err != nil {
		code, _ := ErrorStatus(err)
		if code == http.StatusInternalServerError {
			slog.Error("request error", "error", err)
		}
		w.WriteHeader(code)
		return
	}
	if !info.Regular {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set(HeaderFilename, info.Name)
	w.Header().Set(HeaderFilesize, strconv.FormatInt(info.Size, 10))
	w.Header().Set(HeaderLastChangeTime, info.ModTime.Local().Format(LastChangeTimeLayout))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	path := resolvedPath(r)

	body := io.Reader(r.Body)
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if _, err := h.service.Put(r.Context(), path, body); err != nil {
		HandleError(w, err)
		return
	}

	WriteText(w, http.StatusOK, MsgUploaded)
}

func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {
	path := resolvedPath(r)

	if _, err := h.service.Copy(r.Context(), copySource(r), path); err != nil {
		HandleError(w, err)
		return
	}

	WriteText(w, http.StatusOK, MsgCopied)
}

// copySource returns the copy source relative to the storage root. A value
// starting with StoragePrefix names the same file as that request URL would.
func copySource(r *http.Request) string {
	src := r.Header.Get(CopySourceHeader)
	if rest, ok := strings.CutPrefix(src, StoragePrefix); ok {
		return rest
	}
	return src
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := resolvedPath(r)

	kind, err := h.service.Delete(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}

	if kind == shelf.KindDirectory {
		WriteText(w, http.StatusOK, MsgDirectoryDeleted)
		return
	}
	WriteText(w, http.StatusOK, MsgFileDeleted)
}
