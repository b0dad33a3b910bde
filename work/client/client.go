package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"tvrelay/work/logger"
	"tvrelay/work/metrics"
)

// DefaultMaxRedirects is the redirect hop limit when Options leaves it unset.
const DefaultMaxRedirects = 10

// Options configures a Fetcher.
type Options struct {
	Timeout      time.Duration     // Overall request timeout, zero means none
	MaxRedirects int               // Redirect hops followed before failing
	Headers      map[string]string // Headers set on every request unless overridden
}

// Fetcher wraps http.Client to set a fixed header set on every request,
// cap redirects and buffer response bodies.
type Fetcher struct {
	Client  *http.Client
	headers map[string]string
}

// Response is a fully buffered upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	URL    string // final URL after redirects
}

// NewFetcher builds a Fetcher with a tuned transport.
func NewFetcher(opts Options) *Fetcher {
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &Fetcher{
		Client:  client,
		headers: headers,
	}
}

// Do sets the configured headers on req and sends it.
func (f *Fetcher) Do(req *http.Request) (*http.Response, error) {
	f.setHeaders(req)
	return f.Client.Do(req)
}

func (f *Fetcher) setHeaders(req *http.Request) {
	for k, v := range f.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
}

// Fetch GETs url and buffers the whole body. Per-call headers take precedence
// over the configured set. Non-2xx statuses are not errors; callers decide.
//
// Parameters:
//   - ctx: cancels the request, including the body read
//   - url: absolute upstream URL
//   - headers: optional per-call headers
//
// Returns:
//   - *Response: status, headers and body
//   - error: *FetchError describing the failure kind
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	start := time.Now()

	resp, err := f.fetch(ctx, url, headers)

	outcome := "ok"
	var fe *FetchError
	if errors.As(err, &fe) {
		outcome = string(fe.Kind)
	}
	metrics.UpstreamFetchSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return resp, err
}

func (f *Fetcher) fetch(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindRequest, URL: url, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.Do(req)
	if err != nil {
		logger.Debug("{client/client - Fetch} request failed: %v", err)
		return nil, &FetchError{Kind: classify(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := KindRead
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, &FetchError{Kind: kind, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
		URL:    resp.Request.URL.String(),
	}, nil
}

// Text returns the body as a string, failing with a decode error when the
// body is not valid UTF-8.
func (r *Response) Text() (string, error) {
	if !utf8.Valid(r.Body) {
		return "", &FetchError{Kind: KindDecode, URL: r.URL, Err: errors.New("body is not valid UTF-8")}
	}
	return string(r.Body), nil
}

// ContentType returns the upstream Content-Type header, possibly empty.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return KindRedirect
	case isTimeout(err):
		return KindTimeout
	default:
		return KindNetwork
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
