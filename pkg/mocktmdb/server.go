package mocktmdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
	Query  string
}

// Person is one fixture result. A nil ProfilePath is served as JSON null.
type Person struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	ProfilePath *string `json:"profile_path" yaml:"profile_path"`
	Popularity  float64 `json:"popularity" yaml:"popularity"`
}

// Fixture describes how the server answers one search query.
type Fixture struct {
	Results []Person `yaml:"results"`
	// Latency delays the response; it is cut short if the client goes away.
	Latency time.Duration `yaml:"latency"`
	// Status forces a non-200 reply with TMDB's error envelope.
	Status int `yaml:"status"`
	// Malformed replies 200 with a body that is not valid JSON.
	Malformed bool `yaml:"malformed"`
}

// Server implements a minimal "TMDB-like" person search surface.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	fixtures map[string]Fixture

	expectedAPIKey string
}

// New constructs a new mock server. Unknown queries answer with empty results.
func New() *Server {
	return &Server{fixtures: make(map[string]Fixture)}
}

// SetFixture registers the response for an exact query string.
func (s *Server) SetFixture(query string, f Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[query] = f
}

// RequireAPIKey enforces that requests carry api_key matching key.
// If key is empty, the key is not checked.
func (s *Server) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectedAPIKey = strings.TrimSpace(key)
}

// LoadFixtures reads a YAML document mapping query -> Fixture.
//
// Example:
//
//	Tom Hanks:
//	  results:
//	    - id: 31
//	      name: Tom Hanks
//	      profile_path: /xndWFsBlClOJFRdhSt4NBwiPq2o.jpg
//	Nobody:
//	  results: []
//	Flaky Actor:
//	  status: 503
func (s *Server) LoadFixtures(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var raw map[string]Fixture
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("parse fixtures YAML: %w", err)
	}
	for q, f := range raw {
		s.SetFixture(q, f)
	}
	return nil
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/person", s.handleSearchPerson)
	mux.HandleFunc("/3/search/person", s.handleSearchPerson)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query().Get("query")})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAPIKey
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.URL.Query().Get("api_key") != expected {
		writeStatus(w, http.StatusUnauthorized, 7, "Invalid API key: You must be granted a valid key.")
		return false
	}
	return true
}

func (s *Server) handleSearchPerson(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}

	query := r.URL.Query().Get("query")
	s.mu.Lock()
	f, ok := s.fixtures[query]
	s.mu.Unlock()

	if f.Latency > 0 {
		t := time.NewTimer(f.Latency)
		select {
		case <-t.C:
		case <-r.Context().Done():
			t.Stop()
			return
		}
	}

	switch {
	case f.Status != 0 && f.Status != http.StatusOK:
		writeStatus(w, f.Status, 11, "Internal error: Something went wrong, contact TMDb.")
		return
	case f.Malformed:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[`))
		return
	}

	results := f.Results
	if !ok || results == nil {
		results = []Person{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"page":          1,
		"results":       results,
		"total_pages":   1,
		"total_results": len(results),
	})
}

func writeStatus(w http.ResponseWriter, status int, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":        false,
		"status_code":    code,
		"status_message": message,
	})
}
