// Package player implements the playback queue state machine and listening history.
//
// # Queue
//
// [Queue] moves between idle, playing and paused:
//
//	idle    --Play--> playing
//	playing --Pause/TogglePlay--> paused
//	paused  --Resume/TogglePlay--> playing
//	any     --Play--> playing (new current track)
//	any     --Next--> playing with the head of upcoming, or idle when upcoming is empty
//	any     --Previous--> playing with the tail of upcoming, unchanged when upcoming is empty
//
// Every method returns a [models.QueueState] snapshot that owns its upcoming list.
//
// # History
//
// [History] is a most-recent-first log with no duplicate track ids, capped at a fixed length.
// The queue records a track each time it becomes current, never on resume or progress updates.
//
// Queue and History are safe for concurrent use. A queue method holds the queue lock while recording history.
package player
