// Package bridge serves fetch requests that arrive as custom-scheme URIs
// rather than over the relay socket. A host shell hands over
// "<scheme>://<percent-encoded URL>" and gets the upstream bytes back.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tvrelay/work/client"
	"tvrelay/work/config"
	"tvrelay/work/logger"
	"tvrelay/work/relay"
	"tvrelay/work/utils"
)

// ErrMalformed is returned for input that is not a well-formed scheme request.
var ErrMalformed = errors.New("malformed bridge request")

// Response is what the host shell receives for a bridge request.
type Response struct {
	Status      int
	ContentType string
	Headers     http.Header
	Body        []byte
}

// Bridge decodes scheme requests and fetches them.
type Bridge struct {
	Scheme  string
	Config  *config.Config
	Fetcher *client.Fetcher
}

// New creates a Bridge answering cfg.BridgeScheme.
func New(cfg *config.Config, fetcher *client.Fetcher) *Bridge {
	return &Bridge{
		Scheme:  cfg.BridgeScheme,
		Config:  cfg,
		Fetcher: fetcher,
	}
}

// Encode builds a bridge request for target.
func Encode(scheme, target string) string {
	return scheme + "://" + url.QueryEscape(target)
}

// Decode extracts the original URL from raw, which must use scheme.
func Decode(scheme, raw string) (string, error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(raw, prefix) {
		return "", fmt.Errorf("%w: expected %s scheme", ErrMalformed, prefix)
	}

	encoded := raw[len(prefix):]
	if encoded == "" {
		return "", fmt.Errorf("%w: empty target", ErrMalformed)
	}

	target, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: target is not an http(s) URL", ErrMalformed)
	}
	return target, nil
}

// Handle decodes raw and fetches the target. The upstream status is passed
// through as-is; only decode and fetch failures are errors.
func (b *Bridge) Handle(ctx context.Context, raw string) (*Response, error) {
	target, err := Decode(b.Scheme, raw)
	if err != nil {
		logger.Debug("{bridge/bridge - Handle} rejected request: %v", err)
		return nil, err
	}

	logger.Debug("{bridge/bridge - Handle} fetching %s", utils.LogURL(b.Config, target))

	resp, err := b.Fetcher.Fetch(ctx, target, nil)
	if err != nil {
		return nil, err
	}

	contentType := relay.ResolveContentType(resp.ContentType(), target)

	headers := make(http.Header)
	headers.Set("Content-Type", contentType)
	headers.Set("Access-Control-Allow-Origin", "*")

	return &Response{
		Status:      resp.Status,
		ContentType: contentType,
		Headers:     headers,
		Body:        resp.Body,
	}, nil
}
