package mapping

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"

	"tvrelay/work/logger"
	"tvrelay/work/metrics"
)

// ErrUnknownID is returned when a handle was never registered or has expired.
var ErrUnknownID = errors.New("unknown proxy id")

// LookupError wraps ErrUnknownID with the id that failed to resolve.
type LookupError struct {
	ID string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.ID, ErrUnknownID)
}

func (e *LookupError) Unwrap() error { return ErrUnknownID }

// Table maps short-lived opaque ids to original URLs for relay requests that
// cannot carry the URL itself.
//
// Entries are bounded by capacity and expire after ttl without a lookup; each
// successful Resolve restarts the entry's ttl. The backing cache synchronises
// internally and no caller-visible lock is ever held across I/O.
type Table struct {
	entries *otter.Cache[string, string]
}

// New creates a Table holding at most capacity entries, each living for ttl
// after its last registration or lookup.
//
// Parameters:
//   - capacity: maximum number of live handles
//   - ttl: idle lifetime of a handle
//
// Returns:
//   - *Table: ready for concurrent use
func New(capacity int, ttl time.Duration) *Table {
	cache := otter.Must(&otter.Options[string, string]{
		MaximumSize:      capacity,
		ExpiryCalculator: otter.ExpiryAccessing[string, string](ttl),
		OnDeletion: func(e otter.DeletionEvent[string, string]) {
			metrics.ProxyHandles.Dec()
		},
	})

	return &Table{entries: cache}
}

// Register stores originalURL under a fresh random id and returns the id.
// Registering the same URL twice yields two distinct ids.
func (t *Table) Register(originalURL string) string {
	id := uuid.NewString()
	t.entries.Set(id, originalURL)
	metrics.ProxyHandles.Inc()

	logger.Debug("{mapping/mapping - Register} registered handle %s", id)
	return id
}

// Resolve returns the URL registered under id. The entry stays in the table.
func (t *Table) Resolve(id string) (string, error) {
	originalURL, ok := t.entries.GetIfPresent(id)
	if !ok {
		return "", &LookupError{ID: id}
	}
	return originalURL, nil
}

// Len returns the approximate number of live handles.
func (t *Table) Len() int {
	return t.entries.EstimatedSize()
}
