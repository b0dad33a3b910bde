package relay

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/logger"
	"tvrelay/work/mapping"
	"tvrelay/work/metrics"
	"tvrelay/work/middleware"
	"tvrelay/work/rewrite"
	"tvrelay/work/utils"
)

// RelayError is a failed relay request together with the status it maps to.
type RelayError struct {
	Status  int
	Message string
	Err     error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RelayError) Unwrap() error { return e.Err }

var (
	ErrMissingURL = errors.New("missing url parameter")
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
)

// Service is the local relay: it fetches a target on the caller's behalf,
// rewrites manifests so their unreachable links come back through the relay,
// and serves the bytes with permissive CORS headers.
type Service struct {
	Config   *config.Config
	Fetcher  *client.Fetcher
	Mappings *mapping.Table
}

// New creates a relay Service.
//
// Parameters:
//   - cfg: supplies the relay origin links are rewritten to
//   - fetcher: upstream client configured with the relay header set and timeout
//   - mappings: proxy handle table for /proxy/{id}
func New(cfg *config.Config, fetcher *client.Fetcher, mappings *mapping.Table) *Service {
	return &Service{
		Config:   cfg,
		Fetcher:  fetcher,
		Mappings: mappings,
	}
}

// Routes registers the relay routes on router.
func (s *Service) Routes(router *mux.Router) {
	methods := []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	router.HandleFunc(rewrite.ProxyPath, middleware.CORSMiddleware(middleware.RelayCORS, s.HandleProxy)).Methods(methods...)
	router.HandleFunc(rewrite.ProxyPath+"/{id}", middleware.CORSMiddleware(middleware.RelayCORS, s.HandleProxyID)).Methods(methods...)
}

// HandleProxy serves GET /proxy?url=<target>.
func (s *Service) HandleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		s.fail(w, &RelayError{Status: http.StatusBadRequest, Message: "missing url parameter", Err: ErrMissingURL})
		return
	}
	s.serve(w, r, target)
}

// HandleProxyID serves GET /proxy/{id}, resolving the target from the
// mapping table.
func (s *Service) HandleProxyID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	target, err := s.Mappings.Resolve(id)
	if err != nil {
		s.fail(w, &RelayError{Status: http.StatusNotFound, Message: "unknown proxy handle", Err: err})
		return
	}
	s.serve(w, r, target)
}

// serve fetches target, rewrites it when it is a text manifest and writes
// the response. The body is fully buffered before anything is sent.
func (s *Service) serve(w http.ResponseWriter, r *http.Request, target string) {
	if err := validateTarget(target); err != nil {
		s.fail(w, &RelayError{Status: http.StatusBadRequest, Message: "invalid url parameter", Err: err})
		return
	}

	logger.Debug("{relay/relay - serve} relaying %s", utils.LogURL(s.Config, target))

	resp, err := s.Fetcher.Fetch(r.Context(), target, nil)
	if err != nil {
		s.fail(w, fetchFailure(err))
		return
	}

	if resp.Status >= http.StatusBadRequest {
		s.fail(w, &RelayError{
			Status:  http.StatusBadGateway,
			Message: "upstream returned status " + strconv.Itoa(resp.Status),
		})
		return
	}

	body := resp.Body
	if IsManifestURL(target) {
		if text, err := resp.Text(); err == nil {
			result := rewrite.Rewrite(text, target, s.Config.RelayOrigin)
			body = []byte(result.Content)
			metrics.ManifestRewrites.Add(float64(result.Rewritten))
			logger.Debug("{relay/relay - serve} rewrote %d lines of %s", result.Rewritten, utils.LogURL(s.Config, target))
		} else {
			logger.Warn("{relay/relay - serve} manifest is not UTF-8, passing raw bytes: %s", utils.LogURL(s.Config, target))
		}
	}

	w.Header().Set("Content-Type", ResolveContentType(resp.ContentType(), target))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	metrics.RelayRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()

	if _, err := w.Write(body); err != nil {
		logger.Debug("{relay/relay - serve} client went away: %v", err)
	}
}

// fail writes err as a plain-text error response.
func (s *Service) fail(w http.ResponseWriter, err *RelayError) {
	if err.Status >= http.StatusInternalServerError {
		logger.Error("{relay/relay - fail} %d: %v", err.Status, err)
	} else {
		logger.Debug("{relay/relay - fail} %d: %v", err.Status, err)
	}

	metrics.RelayRequests.WithLabelValues(strconv.Itoa(err.Status)).Inc()
	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, err.Message, err.Status)
}

// fetchFailure maps an upstream failure onto a relay status: failures talking
// to the upstream are 502, local request or read failures are 500.
func fetchFailure(err error) *RelayError {
	var fe *client.FetchError
	if errors.As(err, &fe) && fe.IsUpstream() {
		return &RelayError{Status: http.StatusBadGateway, Message: "upstream fetch failed", Err: err}
	}
	return &RelayError{Status: http.StatusInternalServerError, Message: "relay failure", Err: err}
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
