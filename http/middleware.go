package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sagarc03/shelf"
)

// StoragePrefix is the URL prefix under which the storage tree is exposed.
const StoragePrefix = "/storage/"

// ResolvePathMiddleware turns the part of the URL after StoragePrefix into a
// resolved storage path and stores it in the request context.
// An empty capture is not a storage route and gets the 404 response.
func ResolvePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, ok := strings.CutPrefix(r.URL.Path, StoragePrefix)
		if !ok || captured == "" {
			notFound(w, r)
			return
		}

		resolved, err := shelf.ResolvePath(captured)
		if err != nil {
			HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithResolvedPath(r.Context(), resolved)))
	})
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
