package relay

import (
	"net/url"
	"strings"
)

// DefaultMediaType is served when neither the upstream nor the extension
// table names a type.
const DefaultMediaType = "application/octet-stream"

// mediaTypes maps file extensions to media types, checked in order. New
// formats are added here.
var mediaTypes = []struct {
	ext       string
	mediaType string
}{
	{".m3u8", "application/vnd.apple.mpegurl"},
	{".ts", "video/mp2t"},
	{".mp4", "video/mp4"},
}

// InferContentType guesses a media type from target's path extension.
func InferContentType(target string) string {
	p := strings.ToLower(targetPath(target))
	for _, m := range mediaTypes {
		if strings.HasSuffix(p, m.ext) {
			return m.mediaType
		}
	}
	return DefaultMediaType
}

// ResolveContentType prefers the upstream's declared type and falls back to
// the extension table.
func ResolveContentType(upstream, target string) string {
	if upstream != "" {
		return upstream
	}
	return InferContentType(target)
}

// IsManifestURL reports whether target's path names an HLS manifest.
func IsManifestURL(target string) bool {
	return strings.Contains(strings.ToLower(targetPath(target)), ".m3u8")
}

// targetPath returns the path of target, or target without its query when it
// does not parse.
func targetPath(target string) string {
	if u, err := url.Parse(target); err == nil && u.Path != "" {
		return u.Path
	}
	if i := strings.IndexAny(target, "?#"); i != -1 {
		return target[:i]
	}
	return target
}
