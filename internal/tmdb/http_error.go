package tmdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shpitdev/cast-image-enricher/pkg/pipeline/redact"
)

// statusEnvelope is the error body TMDB returns alongside non-2xx statuses.
type statusEnvelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// HTTPError is a sanitized summary of a non-200 TMDB API response.
//
// Raw bodies are never kept in full; they can echo the request URL.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string

	// TMDBCode and StatusMessage come from TMDB's error envelope when present.
	TMDBCode      int
	StatusMessage string

	// Snippet is a redacted, truncated hint for bodies without an envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "tmdb http error"
	}
	parts := []string{
		fmt.Sprintf("tmdb api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if e.TMDBCode != 0 {
		parts = append(parts, fmt.Sprintf("tmdbCode=%d", e.TMDBCode))
	}
	if strings.TrimSpace(e.StatusMessage) != "" {
		parts = append(parts, "message="+strings.TrimSpace(e.StatusMessage))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env statusEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.TMDBCode = env.StatusCode
		h.StatusMessage = redact.Secrets(strings.TrimSpace(env.StatusMessage))
		if h.TMDBCode != 0 || h.StatusMessage != "" {
			return h
		}
	}

	h.Snippet = redactAndTruncate(body)
	return h
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
