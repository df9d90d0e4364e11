// package models defines the data model for the mimo music core
package models

import (
	"fmt"
	"net/url"
	"strings"
)

// Source identifies the catalog a [Track] was fetched from.
type Source string

const (
	SourceLicensed  Source = "licensed"  // Deezer, via RapidAPI
	SourceCommunity Source = "community" // Jamendo
)

// Sources lists every known source in a stable order.
var Sources = []Source{SourceLicensed, SourceCommunity}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceLicensed || s == SourceCommunity
}

func (s Source) String() string {
	return string(s)
}

// ParseSource converts a user-supplied string into a [Source].
func ParseSource(v string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source: %q", v)
	}
	return s, nil
}

// TrackID builds the source-qualified identifier "<source>_<providerID>".
func TrackID(source Source, providerID string) string {
	return string(source) + "_" + providerID
}

// Track represents a normalized music track from any provider.
type Track struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds int     `json:"durationSeconds"`
	ArtworkURL      *string `json:"artworkUrl"`
	AudioURL        string  `json:"audioUrl"`
	ShareURL        *string `json:"shareUrl"`
	Source          Source  `json:"source"`
}

// Validate checks the canonical track invariants.
func (t Track) Validate() error {
	if !t.Source.Valid() {
		return fmt.Errorf("invalid source: %q", t.Source)
	}
	if !strings.HasPrefix(t.ID, string(t.Source)+"_") || len(t.ID) == len(t.Source)+1 {
		return fmt.Errorf("track id %q is not prefixed by source %q", t.ID, t.Source)
	}
	if t.DurationSeconds < 0 {
		return fmt.Errorf("negative duration: %d", t.DurationSeconds)
	}
	if !PlayableURL(t.AudioURL) {
		return fmt.Errorf("track %s has no playable audio url", t.ID)
	}
	return nil
}

// PlayableURL reports whether raw is an absolute http(s) URL with a host.
func PlayableURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SearchResult holds per-source search results. Both lists are always non-nil.
type SearchResult struct {
	Licensed  []Track `json:"licensed"`
	Community []Track `json:"community"`
}

// NewSearchResult returns a [SearchResult] with empty, non-nil lists.
func NewSearchResult() SearchResult {
	return SearchResult{Licensed: []Track{}, Community: []Track{}}
}

// Set stores tracks for the given source.
func (r *SearchResult) Set(source Source, tracks []Track) {
	if tracks == nil {
		tracks = []Track{}
	}
	switch source {
	case SourceLicensed:
		r.Licensed = tracks
	case SourceCommunity:
		r.Community = tracks
	}
}

// For returns the tracks for the given source.
func (r SearchResult) For(source Source) []Track {
	switch source {
	case SourceLicensed:
		return r.Licensed
	case SourceCommunity:
		return r.Community
	default:
		return nil
	}
}
