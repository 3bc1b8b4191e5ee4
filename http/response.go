package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/shelf"
)

// WriteText writes a plain text response
func WriteText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, message); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(body)
	return err
}

// ErrorStatus maps an error to the status code and body sent to the client.
func ErrorStatus(err error) (int, string) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, shelf.ErrNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, MsgTooLarge
	case errors.Is(err, shelf.ErrBadRequest):
		return http.StatusBadRequest, MsgBadRequest
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	code, message := ErrorStatus(err)
	if code == http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", code, "error", err)
	}

	WriteText(w, code, message)
}
