// Package handlers implements the JSON API served under /api.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tvrelay/work/bridge"
	"tvrelay/work/client"
	"tvrelay/work/inspect"
	"tvrelay/work/logger"
	"tvrelay/work/mapping"
	"tvrelay/work/parser"
	"tvrelay/work/sources"
)

// maxBodyBytes bounds request bodies; FILE_CONTENT sources carry whole playlists.
const maxBodyBytes = 32 << 20

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("{handlers/handlers - writeJSON} failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFailure writes err with the status StatusFor assigns it.
func writeFailure(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("{handlers/handlers - writeFailure} %d: %v", status, err)
	}
	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is empty")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		}
		return false
	}
	return true
}

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	var fe *client.FetchError

	switch {
	case errors.Is(err, sources.ErrNotFound), errors.Is(err, mapping.ErrUnknownID):
		return http.StatusNotFound
	case errors.Is(err, sources.ErrEmptyURL), errors.Is(err, bridge.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrNoEntriesFound), errors.Is(err, inspect.ErrUndecodable), errors.Is(err, client.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sources.ErrUpstreamStatus):
		return http.StatusBadGateway
	case errors.As(err, &fe) && fe.IsUpstream():
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
