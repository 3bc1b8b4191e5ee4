// Package http exposes a shelf storage tree over HTTP.
//
// Every route lives under StoragePrefix ("/storage/"). The rest of the URL
// path is the captured path; it is resolved against the storage root by
// ResolvePathMiddleware before any handler runs, and paths that would leave
// the root are rejected with 400.
//
// # Verbs
//
//   - GET on a regular file streams its bytes as application/octet-stream.
//     GET on a directory returns the recursive listing as JSON.
//   - HEAD on a regular file returns Filename, Filesize and Last-Change-Time
//     headers and no body.
//   - PUT stores the request body at the captured path, creating parent
//     directories. An empty body is rejected.
//   - POST copies the file named by the X-Copy-From header onto the captured
//     path.
//   - DELETE removes a file, or a directory with everything below it.
//
// Responses other than file downloads and listings are short plain text
// messages (see the Msg constants). Unknown routes and unsupported methods
// get the same 404 text.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{MaxUploadSize: 64 << 20}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":5708", handler.Router())
//
// The service parameter must implement the Service interface; in practice it
// is a *shelf.StorageService.
//
// # Middleware
//
// Router installs chi's RequestID and Recoverer, a RequestLogger that writes
// one slog line per request, and CORS handling when HandlerConfig.CORS is
// enabled.
package http
