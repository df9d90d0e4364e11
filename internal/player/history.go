package player

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/mimo/internal/models"
)

const (
	DefaultHistoryLimit = 50
	DefaultTopArtists   = 5
)

// History is a deduplicated, capped listening log.
type History struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	limit   int
	now     func() time.Time
}

// NewHistory creates a History holding at most limit entries (<= 0: [DefaultHistoryLimit]).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, now: time.Now}
}

// Record inserts track at the front. It returns false, leaving the log unchanged, when the track id is already present.
func (h *History) Record(track models.Track) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if slices.ContainsFunc(h.entries, func(e models.HistoryEntry) bool { return e.Track.ID == track.ID }) {
		return false
	}

	entry := models.HistoryEntry{Track: track, PlayedAt: h.now()}
	h.entries = slices.Insert(h.entries, 0, entry)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return true
}

// List returns a copy of the log, most recent first.
func (h *History) List() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.HistoryEntry{}, h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear removes every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Stats summarizes the log. topN <= 0 uses [DefaultTopArtists].
//
// Top artists are ordered by play count, then by name.
func (h *History) Stats(topN int) models.HistoryStats {
	if topN <= 0 {
		topN = DefaultTopArtists
	}

	h.mu.Lock()
	entries := append([]models.HistoryEntry(nil), h.entries...)
	h.mu.Unlock()

	tracks := make(map[string]struct{}, len(entries))
	plays := make(map[string]int)
	for _, e := range entries {
		tracks[e.Track.ID] = struct{}{}
		plays[e.Track.Artist]++
	}

	artists := make([]models.ArtistPlays, 0, len(plays))
	for artist, n := range plays {
		artists = append(artists, models.ArtistPlays{Artist: artist, Plays: n})
	}
	slices.SortFunc(artists, func(a, b models.ArtistPlays) int {
		if c := cmp.Compare(b.Plays, a.Plays); c != 0 {
			return c
		}
		return cmp.Compare(a.Artist, b.Artist)
	})
	if len(artists) > topN {
		artists = artists[:topN]
	}

	return models.HistoryStats{
		TotalPlays:   len(entries),
		UniqueTracks: len(tracks),
		TopArtists:   artists,
	}
}
