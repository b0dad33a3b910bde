package filter

import (
	"fmt"
	"strings"

	"github.com/grafana/regexp"
	"github.com/maypok86/otter/v2"

	"tvrelay/work/logger"
	"tvrelay/work/types"
)

// Filter selects channels by name and group. A nil pattern matches everything.
type Filter struct {
	Include *regexp.Regexp // channel name must match
	Exclude *regexp.Regexp // channel name must not match
	Group   string         // exact group-title, case-insensitive; empty matches all
}

// Empty reports whether the filter lets every channel through.
func (f *Filter) Empty() bool {
	return f == nil || (f.Include == nil && f.Exclude == nil && f.Group == "")
}

// Match reports whether ch passes the filter.
func (f *Filter) Match(ch types.Channel) bool {
	if f.Empty() {
		return true
	}
	if f.Group != "" && (ch.Group == nil || !strings.EqualFold(*ch.Group, f.Group)) {
		return false
	}
	if f.Include != nil && !f.Include.MatchString(ch.Name) {
		return false
	}
	if f.Exclude != nil && f.Exclude.MatchString(ch.Name) {
		return false
	}
	return true
}

// Apply returns the channels passing the filter, in their original order.
func (f *Filter) Apply(channels []types.Channel) []types.Channel {
	if f.Empty() {
		return channels
	}

	out := make([]types.Channel, 0, len(channels))
	for _, ch := range channels {
		if f.Match(ch) {
			out = append(out, ch)
		}
	}

	logger.Debug("{filter/filter - Apply} filtered %d channels down to %d", len(channels), len(out))
	return out
}

// MaxPatterns bounds the compiled-pattern cache. Patterns arrive as query
// parameters, so the key space is client controlled.
const MaxPatterns = 256

// Manager caches compiled patterns, since clients tend to repeat the same
// few filters against every source.
type Manager struct {
	patterns *otter.Cache[string, *regexp.Regexp]
}

// NewManager creates an empty pattern cache holding up to MaxPatterns entries.
func NewManager() *Manager {
	return newManager(MaxPatterns)
}

func newManager(size int) *Manager {
	return &Manager{
		patterns: otter.Must(&otter.Options[string, *regexp.Regexp]{
			MaximumSize: size,
		}),
	}
}

// Compile builds a Filter. Empty patterns are left nil; an invalid pattern
// is an error naming which one failed.
func (m *Manager) Compile(include, exclude, group string) (*Filter, error) {
	f := &Filter{Group: strings.TrimSpace(group)}

	var err error
	if f.Include, err = m.pattern(include); err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	if f.Exclude, err = m.pattern(exclude); err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return f, nil
}

func (m *Manager) pattern(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}

	if re, ok := m.patterns.GetIfPresent(expr); ok {
		return re, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		logger.Debug("{filter/filter - pattern} failed to compile %q: %v", expr, err)
		return nil, err
	}

	// a concurrent compile of the same expression may have won; keep its value
	re, _ = m.patterns.SetIfAbsent(expr, re)
	return re, nil
}

// Len returns the approximate number of cached patterns.
func (m *Manager) Len() int {
	return m.patterns.EstimatedSize()
}

// Clear drops every cached pattern.
func (m *Manager) Clear() {
	m.patterns.InvalidateAll()
}
