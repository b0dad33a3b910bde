package types

import "time"

// Channel is a single playable entry extracted from a playlist. Channels are
// value data: the parser builds them and callers own them once returned.
// Duplicates are permitted; nothing dedupes by name or URL.
type Channel struct {
	Name  string  `json:"name"`            // Display name, never empty
	URL   string  `json:"url"`             // Playable URL exactly as it appeared in the playlist
	Logo  *string `json:"logo,omitempty"`  // tvg-logo attribute when present
	Group *string `json:"group,omitempty"` // group-title attribute when present
}

// NewChannel builds a Channel, turning empty optional values into absent ones.
func NewChannel(name, url, logo, group string) Channel {
	ch := Channel{Name: name, URL: url}
	if logo != "" {
		ch.Logo = &logo
	}
	if group != "" {
		ch.Group = &group
	}
	return ch
}

// ParseKind tags which variant a ParseResult holds.
type ParseKind string

const (
	KindStreamManifest   ParseKind = "stream_manifest"   // input is itself a playable manifest
	KindChannelDirectory ParseKind = "channel_directory" // input lists playable entries
)

// ParseResult is the classified outcome of parsing playlist text.
//
// A StreamManifest result carries exactly one synthetic channel pointing at the
// source URL. A ChannelDirectory result carries one or more extracted channels;
// it is never empty.
type ParseResult struct {
	Kind     ParseKind `json:"kind"`
	Channels []Channel `json:"channels"`
}

// IsStreamManifest reports whether the result is the synthetic single-stream variant.
func (r *ParseResult) IsStreamManifest() bool {
	return r.Kind == KindStreamManifest
}

// SyntheticChannel returns the channel of a StreamManifest result.
func (r *ParseResult) SyntheticChannel() (Channel, bool) {
	if r.Kind != KindStreamManifest || len(r.Channels) != 1 {
		return Channel{}, false
	}
	return r.Channels[0], true
}

// Source is a named, persisted playlist subscription and the channels last
// resolved from it.
type Source struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Channels  []Channel `json:"channels"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
