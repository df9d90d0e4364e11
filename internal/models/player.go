package models

import "time"

// PlayerStatus is the state of the playback state machine.
type PlayerStatus string

const (
	StatusIdle    PlayerStatus = "idle"
	StatusPlaying PlayerStatus = "playing"
	StatusPaused  PlayerStatus = "paused"
)

// QueueState is a snapshot of the playback queue.
//
// IsPlaying implies CurrentTrack is non-nil.
type QueueState struct {
	CurrentTrack *Track       `json:"currentTrack"`
	IsPlaying    bool         `json:"isPlaying"`
	Status       PlayerStatus `json:"status"`
	Upcoming     []Track      `json:"upcoming"`
	Progress     float64      `json:"playbackProgress"`
	Volume       float64      `json:"volume"`
}

// HistoryEntry records one play of a track.
type HistoryEntry struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"playedAt"`
}

// ArtistPlays counts history entries for a single artist.
type ArtistPlays struct {
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

// HistoryStats summarizes the listening history.
type HistoryStats struct {
	TotalPlays   int           `json:"totalPlays"`
	UniqueTracks int           `json:"uniqueTracks"`
	TopArtists   []ArtistPlays `json:"topArtists"`
}
