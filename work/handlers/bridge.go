package handlers

import (
	"net/http"
	"strconv"

	"tvrelay/work/bridge"
	"tvrelay/work/logger"
)

// HandleBridge serves GET /api/bridge?uri=<scheme>://<encoded URL> for hosts
// that forward custom-scheme requests over HTTP. The upstream status and
// bytes are passed through.
func HandleBridge(b *bridge.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("uri")

		resp, err := b.Handle(r.Context(), raw)
		if err != nil {
			writeFailure(w, err)
			return
		}

		for k, v := range resp.Headers {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
		w.WriteHeader(resp.Status)

		if _, err := w.Write(resp.Body); err != nil {
			logger.Debug("{handlers/bridge - HandleBridge} client went away: %v", err)
		}
	}
}
