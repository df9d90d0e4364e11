package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/desertthunder/mimo/internal/models"
)

const (
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
)

// RawRecord is a track as decoded from one provider's response.
//
// It is implemented only by [DeezerTrack] and [JamendoTrack].
type RawRecord interface {
	rawSource() models.Source
}

// DeezerArtist is the artist object embedded in Deezer tracks.
type DeezerArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DeezerAlbum is the album object embedded in Deezer tracks.
type DeezerAlbum struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Cover       string `json:"cover"`
	CoverMedium string `json:"cover_medium"`
}

// DeezerTrack represents a track from the Deezer API.
type DeezerTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Duration int           `json:"duration"` // seconds
	Preview  string        `json:"preview"`  // 30s mp3 preview
	Link     string        `json:"link"`
	Artist   *DeezerArtist `json:"artist"`
	Album    *DeezerAlbum  `json:"album"`
}

func (DeezerTrack) rawSource() models.Source { return models.SourceLicensed }

// JamendoTrack represents a track from the Jamendo API.
type JamendoTrack struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ArtistName string  `json:"artist_name"`
	Duration   float64 `json:"duration"`
	Image      string  `json:"image"`
	Audio      string  `json:"audio"`
	ShareURL   string  `json:"shareurl"`
}

func (JamendoTrack) rawSource() models.Source { return models.SourceCommunity }

// Normalize maps a raw provider record to a canonical track.
//
// It returns false when the record has no playable audio URL or no identifier.
func Normalize(rec RawRecord) (models.Track, bool) {
	switch r := rec.(type) {
	case DeezerTrack:
		return normalizeDeezer(r)
	case *DeezerTrack:
		if r == nil {
			return models.Track{}, false
		}
		return normalizeDeezer(*r)
	case JamendoTrack:
		return normalizeJamendo(r)
	case *JamendoTrack:
		if r == nil {
			return models.Track{}, false
		}
		return normalizeJamendo(*r)
	default:
		return models.Track{}, false
	}
}

// NormalizeAll normalizes recs in order, skipping unplayable records.
// The result is truncated to limit when limit > 0 and is never nil.
func NormalizeAll[R RawRecord](recs []R, limit int) []models.Track {
	tracks := make([]models.Track, 0, len(recs))
	for _, rec := range recs {
		if limit > 0 && len(tracks) == limit {
			break
		}
		if t, ok := Normalize(rec); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// decodeRecords unmarshals each element of raw on its own, dropping
// elements that do not decode as R. Order is preserved.
func decodeRecords[R RawRecord](raw []json.RawMessage) []R {
	recs := make([]R, 0, len(raw))
	for _, msg := range raw {
		var rec R
		if err := json.Unmarshal(msg, &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

func normalizeDeezer(r DeezerTrack) (models.Track, bool) {
	if r.ID == 0 || !models.PlayableURL(r.Preview) {
		return models.Track{}, false
	}

	artist := ""
	if r.Artist != nil {
		artist = r.Artist.Name
	}

	var artwork *string
	if r.Album != nil {
		artwork = optional(r.Album.CoverMedium)
		if artwork == nil {
			artwork = optional(r.Album.Cover)
		}
	}

	return models.Track{
		ID:              models.TrackID(models.SourceLicensed, strconv.FormatInt(r.ID, 10)),
		Title:           orDefault(r.Title, unknownTitle),
		Artist:          orDefault(artist, unknownArtist),
		DurationSeconds: max(r.Duration, 0),
		ArtworkURL:      artwork,
		AudioURL:        r.Preview,
		ShareURL:        optional(r.Link),
		Source:          models.SourceLicensed,
	}, true
}

func normalizeJamendo(r JamendoTrack) (models.Track, bool) {
	id := strings.TrimSpace(r.ID)
	if id == "" || !models.PlayableURL(r.Audio) {
		return models.Track{}, false
	}

	return models.Track{
		ID:              models.TrackID(models.SourceCommunity, id),
		Title:           orDefault(r.Name, unknownTitle),
		Artist:          orDefault(r.ArtistName, unknownArtist),
		DurationSeconds: max(int(r.Duration), 0),
		ArtworkURL:      optional(r.Image),
		AudioURL:        r.Audio,
		ShareURL:        optional(r.ShareURL),
		Source:          models.SourceCommunity,
	}, true
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
