package domain

import "time"

// SongID is the catalog key for a song. The catalog assigns these when it
// loads; a SongID is opaque to the queue machinery, which only ever compares
// IDs for equality.
type SongID int

// Song is one catalog entry. Immutable after the catalog loads.
type Song struct {
	ID       SongID `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Year     string `json:"year"`
	Duration int    `json:"duration"` // seconds
	Genre    string `json:"genre"`
	Location string `json:"location"` // path to the playable file
}

// PlaySource records how a song reached the player.
type PlaySource string

const (
	SourcePaid     PlaySource = "paid"
	SourceRotation PlaySource = "rotation"
)

// NowPlaying describes the song currently being played, if any.
type NowPlaying struct {
	Song      Song       `json:"song"`
	Source    PlaySource `json:"source"`
	StartedAt time.Time  `json:"started_at"`
}

// Receipt is returned to a requester after a successful submission.
// Position is 1-based: the count of requests ahead of this one plus itself.
type Receipt struct {
	RequestID string    `json:"request_id"`
	Song      Song      `json:"song"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitRequest is the inbound payload for a song request.
type SubmitRequest struct {
	SongID SongID `json:"song_id"`
}

func (r *SubmitRequest) Validate() error {
	if r.SongID < 0 {
		return ErrInvalidSongID
	}
	return nil
}
