package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tvrelay/work/filter"
	"tvrelay/work/logger"
	"tvrelay/work/sources"
	"tvrelay/work/types"
)

// SourceRequest is the body of source create and update calls.
type SourceRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (req *SourceRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.URL = strings.TrimSpace(req.URL)

	switch {
	case req.Name == "":
		return "Source name is required"
	case req.URL == "":
		return "Source URL is required"
	}
	return ""
}

// HandleListSources serves GET /api/sources.
func HandleListSources(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := reg.List()
		logger.Debug("{handlers/sources - HandleListSources} returning %d sources", len(list))
		writeJSON(w, http.StatusOK, list)
	}
}

// HandleGetSource serves GET /api/sources/{id}.
func HandleGetSource(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := reg.Get(mux.Vars(r)["id"])
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, src)
	}
}

// HandleSourceChannels serves GET /api/sources/{id}/channels, optionally
// narrowed by ?include=<re>&exclude=<re>&group=<name>.
func HandleSourceChannels(reg *sources.Registry, filters *filter.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := reg.Get(mux.Vars(r)["id"])
		if err != nil {
			writeFailure(w, err)
			return
		}

		q := r.URL.Query()
		f, err := filters.Compile(q.Get("include"), q.Get("exclude"), q.Get("group"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		channels := f.Apply(src.Channels)
		if channels == nil {
			channels = []types.Channel{}
		}
		writeJSON(w, http.StatusOK, channels)
	}
}

// HandleAddSource serves POST /api/sources. The source URL may also be
// TEST_DATA or FILE_CONTENT:<playlist text>.
func HandleAddSource(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		src, err := reg.Add(r.Context(), req.Name, req.URL)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, src)
	}
}

// HandleUpdateSource serves PUT /api/sources/{id}.
func HandleUpdateSource(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		src, err := reg.Update(r.Context(), mux.Vars(r)["id"], req.Name, req.URL)
		if err != nil {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, src)
	}
}

// HandleDeleteSource serves DELETE /api/sources/{id}.
func HandleDeleteSource(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reg.Delete(mux.Vars(r)["id"]); err != nil {
			writeFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RefreshResponse reports a manual refresh.
type RefreshResponse struct {
	Refreshed int             `json:"refreshed"`
	Sources   []*types.Source `json:"sources"`
}

// HandleRefreshSources serves POST /api/sources/refresh, re-fetching every
// remote source before answering.
func HandleRefreshSources(reg *sources.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := reg.RefreshAll(r.Context())
		writeJSON(w, http.StatusOK, RefreshResponse{Refreshed: n, Sources: reg.List()})
	}
}
