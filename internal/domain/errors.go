package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrSongNotFound     = errors.New("song not found in catalog")
	ErrInvalidSongID    = errors.New("song id must be non-negative")
	ErrRateLimited      = errors.New("too many requests, slow down")
	ErrStoreUnavailable = errors.New("queue storage unavailable")
	ErrCatalogEmpty     = errors.New("catalog contains no songs")
	ErrNothingPlaying   = errors.New("no song is currently playing")
)
