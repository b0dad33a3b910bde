// Package policy decides which URLs a client cannot reach directly and must
// fetch through the local relay instead.
package policy

import "strings"

const insecurePrefix = "http://"

// NeedsRelay reports whether url has to be relayed: it carries an IPv6 literal
// (both '[' and ']' present) or it uses plain HTTP, which a secure page is not
// allowed to load. Both checks are textual; the URL is not validated.
func NeedsRelay(url string) bool {
	return IsIPv6Literal(url) || IsInsecure(url)
}

// IsIPv6Literal reports whether url contains an IPv6 bracket pair.
func IsIPv6Literal(url string) bool {
	return strings.Contains(url, "[") && strings.Contains(url, "]")
}

// IsInsecure reports whether url starts with the plain HTTP scheme.
func IsInsecure(url string) bool {
	return strings.HasPrefix(url, insecurePrefix)
}
