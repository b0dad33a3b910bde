package client

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindRequest  Kind = "request"  // the request could not be built
	KindNetwork  Kind = "network"  // connection, DNS or TLS failure
	KindTimeout  Kind = "timeout"  // the configured timeout or context deadline tripped
	KindRedirect Kind = "redirect" // the redirect limit was exceeded
	KindRead     Kind = "read"     // the body could not be read
	KindDecode   Kind = "decode"   // the body is not valid UTF-8 text
)

var (
	ErrRequest          = errors.New("invalid upstream request")
	ErrNetwork          = errors.New("upstream network failure")
	ErrTimeout          = errors.New("upstream timeout")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrRead             = errors.New("upstream body read failed")
	ErrDecode           = errors.New("upstream body is not valid UTF-8")
)

var kindSentinels = map[Kind]error{
	KindRequest:  ErrRequest,
	KindNetwork:  ErrNetwork,
	KindTimeout:  ErrTimeout,
	KindRedirect: ErrTooManyRedirects,
	KindRead:     ErrRead,
	KindDecode:   ErrDecode,
}

// FetchError is returned by every failing Fetcher call.
type FetchError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so callers can test with
// errors.Is(err, client.ErrTimeout) and friends.
func (e *FetchError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// IsUpstream reports whether the failure happened talking to the upstream
// (as opposed to building the request or reading locally).
func (e *FetchError) IsUpstream() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRedirect:
		return true
	}
	return false
}
