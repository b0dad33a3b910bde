package rewrite

import (
	"net/url"
	"strings"

	"tvrelay/work/policy"
)

// ProxyPath is the relay route rewritten links point at.
const ProxyPath = "/proxy"

// Result is the outcome of rewriting one manifest.
type Result struct {
	Content   string // rewritten manifest, lines joined with \n
	Rewritten int    // number of lines substituted with relay links
	BaseURL   string // prefix relative lines were resolved against
}

// BaseURL returns sourceURL up to and including its last '/', or the whole
// URL when it has none.
func BaseURL(sourceURL string) string {
	if i := strings.LastIndex(sourceURL, "/"); i != -1 {
		return sourceURL[:i+1]
	}
	return sourceURL
}

// ProxyLink builds the relay link serving target.
func ProxyLink(relayOrigin, target string) string {
	return strings.TrimRight(relayOrigin, "/") + ProxyPath + "?url=" + url.QueryEscape(target)
}

// Rewrite resolves every URL line of a manifest against sourceURL and swaps
// the ones a client cannot reach directly for relay links on relayOrigin.
//
// Comment and blank lines are kept verbatim. Lines already carrying an http
// or https scheme are kept as the absolute form; anything else is appended to
// the base URL. Rewrite is pure and does no I/O.
func Rewrite(content, sourceURL, relayOrigin string) Result {
	base := BaseURL(sourceURL)

	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))
	rewritten := 0

	for i, raw := range lines {
		raw = strings.TrimSuffix(raw, "\r")
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, "#") {
			out[i] = raw
			continue
		}

		absolute := line
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			absolute = base + line
		}

		if policy.NeedsRelay(absolute) {
			out[i] = ProxyLink(relayOrigin, absolute)
			rewritten++
			continue
		}

		out[i] = absolute
	}

	return Result{
		Content:   strings.Join(out, "\n"),
		Rewritten: rewritten,
		BaseURL:   base,
	}
}
