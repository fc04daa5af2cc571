// Package tmdb provides the minimal TMDB API client used to resolve cast names
// to profile images.
//
// Only person search is exposed. Responses are strongly typed, profile_path is
// nullable, and non-200 replies surface as *HTTPError with TMDB's status
// envelope decoded when present. Options let tests supply a custom HTTP client.
package tmdb
