// Package catalog resolves song IDs to playable songs. The catalog is loaded
// once at startup from a JSON file and is immutable afterwards, so lookups
// are lock-free.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Catalog is the read-only song library.
type Catalog struct {
	byID  map[domain.SongID]domain.Song
	songs []domain.Song // sorted by ID for stable listings
}

// Load reads the catalog file. Every entry needs a non-negative unique ID
// and a location; a duplicate or negative ID fails the load so a bad catalog
// is caught at startup, not mid-play.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var songs []domain.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return New(songs)
}

// New builds a catalog from an already-decoded song list.
func New(songs []domain.Song) (*Catalog, error) {
	byID := make(map[domain.SongID]domain.Song, len(songs))
	for i, s := range songs {
		if s.ID < 0 {
			return nil, fmt.Errorf("catalog entry %d: %w", i, domain.ErrInvalidSongID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate song id %d", i, s.ID)
		}
		if s.Location == "" {
			return nil, fmt.Errorf("catalog entry %d (id %d): missing location", i, s.ID)
		}
		byID[s.ID] = s
	}

	sorted := make([]domain.Song, len(songs))
	copy(sorted, songs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &Catalog{byID: byID, songs: sorted}, nil
}

// Resolve returns the song for id, or domain.ErrSongNotFound.
func (c *Catalog) Resolve(id domain.SongID) (domain.Song, error) {
	s, ok := c.byID[id]
	if !ok {
		return domain.Song{}, fmt.Errorf("song %d: %w", id, domain.ErrSongNotFound)
	}
	return s, nil
}

// Songs returns all songs ordered by ID.
func (c *Catalog) Songs() []domain.Song {
	out := make([]domain.Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// IDs returns every catalog ID ordered ascending.
func (c *Catalog) IDs() []domain.SongID {
	out := make([]domain.SongID, len(c.songs))
	for i, s := range c.songs {
		out[i] = s.ID
	}
	return out
}

// Len reports the number of songs in the catalog.
func (c *Catalog) Len() int {
	return len(c.songs)
}
