package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (TMDB v4 read access tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// key=value and key: value forms. Query strings stop at '&' so the rest of a URL survives.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b((?:tmdb[_-]?)?api[_-]?key)(\s*[:=]\s*)[^\s"'&]+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
//
// net/http errors embed the full request URL, which carries api_key as a query
// parameter, so every lookup error passes through here before it is logged.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "${1}${2}<redacted>")
	return strings.TrimSpace(out)
}
