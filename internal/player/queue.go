package player

import (
	"math"
	"sync"

	"github.com/desertthunder/mimo/internal/models"
)

// DefaultVolume is the initial volume of a new [Queue].
const DefaultVolume = 1.0

// Queue is the playback state machine.
type Queue struct {
	mu       sync.Mutex
	current  *models.Track
	status   models.PlayerStatus
	upcoming []models.Track
	progress float64
	volume   float64
	history  *History
}

// NewQueue creates an idle Queue that records plays in history. A nil history disables recording.
func NewQueue(history *History) *Queue {
	return &Queue{
		status:  models.StatusIdle,
		volume:  DefaultVolume,
		history: history,
	}
}

// State returns the current snapshot.
func (q *Queue) State() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshot()
}

// Play makes track current and starts playback from the beginning.
func (q *Queue) Play(track models.Track) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.start(track)
	return q.snapshot()
}

// TogglePlay switches between playing and paused. It does nothing when idle.
func (q *Queue) TogglePlay() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.status {
	case models.StatusPlaying:
		q.status = models.StatusPaused
	case models.StatusPaused:
		q.status = models.StatusPlaying
	}
	return q.snapshot()
}

// Pause pauses playback. It does nothing unless playing.
func (q *Queue) Pause() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.status == models.StatusPlaying {
		q.status = models.StatusPaused
	}
	return q.snapshot()
}

// Resume resumes paused playback. It does nothing unless paused.
func (q *Queue) Resume() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.status == models.StatusPaused {
		q.status = models.StatusPlaying
	}
	return q.snapshot()
}

// Next plays the head of upcoming. With nothing upcoming the queue becomes idle.
func (q *Queue) Next() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.upcoming) == 0 {
		q.current = nil
		q.status = models.StatusIdle
		q.progress = 0
		return q.snapshot()
	}

	next := q.upcoming[0]
	q.upcoming = q.upcoming[1:]
	q.start(next)
	return q.snapshot()
}

// Previous plays the tail of upcoming. With nothing upcoming the state is unchanged.
func (q *Queue) Previous() models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.upcoming) == 0 {
		return q.snapshot()
	}

	last := len(q.upcoming) - 1
	prev := q.upcoming[last]
	q.upcoming = q.upcoming[:last]
	q.start(prev)
	return q.snapshot()
}

// Enqueue appends track to upcoming.
func (q *Queue) Enqueue(track models.Track) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.upcoming = append(q.upcoming, track)
	return q.snapshot()
}

// ReplaceQueue replaces upcoming with a copy of tracks.
func (q *Queue) ReplaceQueue(tracks []models.Track) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.upcoming = append([]models.Track(nil), tracks...)
	return q.snapshot()
}

// SetProgress sets playback progress, clamped to [0, 1].
func (q *Queue) SetProgress(f float64) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.progress = clamp01(f)
	return q.snapshot()
}

// SetVolume sets the volume, clamped to [0, 1].
func (q *Queue) SetVolume(f float64) models.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.volume = clamp01(f)
	return q.snapshot()
}

// start must be called with q.mu held.
func (q *Queue) start(track models.Track) {
	q.current = &track
	q.status = models.StatusPlaying
	q.progress = 0
	if q.history != nil {
		q.history.Record(track)
	}
}

// snapshot must be called with q.mu held.
func (q *Queue) snapshot() models.QueueState {
	var current *models.Track
	if q.current != nil {
		t := *q.current
		current = &t
	}

	return models.QueueState{
		CurrentTrack: current,
		IsPlaying:    q.status == models.StatusPlaying,
		Status:       q.status,
		Upcoming:     append([]models.Track{}, q.upcoming...),
		Progress:     q.progress,
		Volume:       q.volume,
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return min(f, 1)
}
