package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/regexp"

	"tvrelay/work/logger"
	"tvrelay/work/types"
)

const (
	extinfPrefix = "#EXTINF:"

	// LiveStreamName and StreamGroup label the synthetic channel returned
	// when the input is itself a playable manifest.
	LiveStreamName = "Live Stream"
	StreamGroup    = "Stream"

	// UnnamedChannel is used when an entry carries no name after its comma.
	UnnamedChannel = "Unnamed Channel"
)

// ErrNoEntriesFound is returned when a channel directory yields no entries.
var ErrNoEntriesFound = errors.New("no valid channel entries found")

// ParseError describes why a playlist could not be turned into a result.
type ParseError struct {
	SourceURL string
	Lines     int
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse playlist %q (%d lines): %v", e.SourceURL, e.Lines, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	logoAttr  = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	groupAttr = regexp.MustCompile(`group-title="([^"]*)"`)
)

// manifestMarkers are checked in any order against the whole text; any hit
// classifies the input as a playable stream manifest.
var manifestMarkers = []func(content string) bool{
	func(c string) bool { return strings.Contains(c, "#EXT-X-VERSION") },
	func(c string) bool { return strings.Contains(c, "#EXT-X-TARGETDURATION") },
	func(c string) bool { return strings.Contains(c, extinfPrefix) && strings.Contains(c, ".ts") },
}

// IsStreamManifest reports whether content looks like a live or on-demand
// stream manifest rather than a channel directory. It is a heuristic substring
// test, not a grammar, and it takes precedence over entry extraction.
func IsStreamManifest(content string) bool {
	for _, marker := range manifestMarkers {
		if marker(content) {
			return true
		}
	}
	return false
}

// Parse classifies content and extracts its channels.
//
// When content is a stream manifest the result holds one synthetic channel
// whose URL is sourceURL verbatim. Otherwise every #EXTINF line paired with a
// following URL line becomes a channel; unpaired metadata lines are dropped.
// An empty extraction fails with ErrNoEntriesFound.
func Parse(content, sourceURL string) (*types.ParseResult, error) {
	if IsStreamManifest(content) {
		logger.Debug("{parser/m3u - Parse} content classified as stream manifest")
		return &types.ParseResult{
			Kind:     types.KindStreamManifest,
			Channels: []types.Channel{types.NewChannel(LiveStreamName, sourceURL, "", StreamGroup)},
		}, nil
	}

	lines := splitLines(content)
	channels := extractChannels(lines)
	if len(channels) == 0 {
		return nil, &ParseError{SourceURL: sourceURL, Lines: len(lines), Err: ErrNoEntriesFound}
	}

	logger.Debug("{parser/m3u - Parse} extracted %d channels", len(channels))
	return &types.ParseResult{Kind: types.KindChannelDirectory, Channels: channels}, nil
}

// extractChannels walks trimmed lines pairing each #EXTINF line with the next
// non-blank, non-directive line.
func extractChannels(lines []string) []types.Channel {
	var channels []types.Channel

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, extinfPrefix) {
			i++
			continue
		}

		name, logo, group := ParseEXTINF(line)

		// look ahead for the URL line, stopping at the next entry
		j := i + 1
		for j < len(lines) && (lines[j] == "" || (strings.HasPrefix(lines[j], "#") && !strings.HasPrefix(lines[j], extinfPrefix))) {
			j++
		}

		if j >= len(lines) || strings.HasPrefix(lines[j], extinfPrefix) {
			logger.Debug("{parser/m3u - extractChannels} dropping entry %q without url", name)
			i = j
			continue
		}

		channels = append(channels, types.Channel{Name: name, URL: lines[j], Logo: logo, Group: group})
		i = j + 1
	}

	return channels
}

// ParseEXTINF pulls the name, logo and group out of a single #EXTINF line.
// A missing or empty name becomes UnnamedChannel. An attribute is nil unless
// it has a well-formed quoted value; tvg-logo="" yields a present empty logo.
func ParseEXTINF(line string) (name string, logo, group *string) {
	info := strings.TrimPrefix(line, extinfPrefix)

	logo = quotedAttr(logoAttr, info)
	group = quotedAttr(groupAttr, info)

	if comma := strings.Index(info, ","); comma != -1 {
		name = strings.TrimSpace(info[comma+1:])
	}
	if name == "" {
		name = UnnamedChannel
	}

	return name, logo, group
}

func quotedAttr(re *regexp.Regexp, s string) *string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return nil
	}
	return &m[1]
}

// splitLines splits on \n and trims each line, which also drops \r endings.
func splitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
