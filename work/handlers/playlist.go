package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/inspect"
	"tvrelay/work/logger"
	"tvrelay/work/mapping"
	"tvrelay/work/parser"
	"tvrelay/work/rewrite"
	"tvrelay/work/sources"
	"tvrelay/work/utils"
)

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	Content   string `json:"content"`
	SourceURL string `json:"sourceUrl"`
}

// HandleParse serves POST /api/parse: classify playlist text and return its
// channels. Text with no entries is 422.
func HandleParse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParseRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := parser.Parse(req.Content, req.SourceURL)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleRequest is the body of POST /api/handles.
type HandleRequest struct {
	URL string `json:"url"`
}

// HandleResponse describes a registered proxy handle.
type HandleResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	ProxyURL string `json:"proxyUrl"`
}

func handleResponse(cfg *config.Config, id, target string) HandleResponse {
	return HandleResponse{
		ID:       id,
		URL:      target,
		ProxyURL: strings.TrimRight(cfg.RelayOrigin, "/") + rewrite.ProxyPath + "/" + id,
	}
}

// HandleRegisterHandle serves POST /api/handles.
func HandleRegisterHandle(cfg *config.Config, table *mapping.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HandleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "URL is required")
			return
		}

		id := table.Register(req.URL)
		logger.Debug("{handlers/playlist - HandleRegisterHandle} %s -> %s", id, utils.LogURL(cfg, req.URL))

		writeJSON(w, http.StatusCreated, handleResponse(cfg, id, ""))
	}
}

// HandleResolveHandle serves GET /api/handles/{id}.
func HandleResolveHandle(cfg *config.Config, table *mapping.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		target, err := table.Resolve(id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, handleResponse(cfg, id, target))
	}
}

// HandleInspect serves GET /api/inspect?url=: fetch a manifest and report
// its HLS structure.
func HandleInspect(cfg *config.Config, fetcher *client.Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		if target == "" {
			writeError(w, http.StatusBadRequest, "url parameter is required")
			return
		}

		resp, err := fetcher.Fetch(r.Context(), target, nil)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if resp.Status >= http.StatusBadRequest {
			writeFailure(w, fmt.Errorf("%w: %d", sources.ErrUpstreamStatus, resp.Status))
			return
		}

		text, err := resp.Text()
		if err != nil {
			writeFailure(w, err)
			return
		}

		report, err := inspect.Inspect(text)
		if err != nil {
			logger.Debug("{handlers/playlist - HandleInspect} %s: %v", utils.LogURL(cfg, target), err)
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
