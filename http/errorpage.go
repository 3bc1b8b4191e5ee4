package http

import "net/http"

// Response bodies. Clients match on these, so they must not change.
const (
	MsgNotFound         = "404 Error: Not Found."
	MsgBadRequest       = "400 Error: Bad Request."
	MsgTooLarge         = "413 Error: Request Entity Too Large."
	MsgInternal         = "500 Error: Internal Server Error."
	MsgCopied           = "Copied."
	MsgUploaded         = "Successfully Uploaded."
	MsgFileDeleted      = "File Deleted."
	MsgDirectoryDeleted = "Directory Deleted."
)

// notFound answers every request that matches no storage route,
// including known paths with an unsupported method.
func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteText(w, http.StatusNotFound, MsgNotFound)
}
