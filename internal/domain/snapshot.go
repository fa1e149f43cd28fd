package domain

// Snapshot is the ordered content of the paid-request queue at one instant.
// Index 0 is the head, the next song to be played. Snapshots are values:
// every operation returns a fresh slice and never aliases or mutates the
// receiver, so a snapshot handed to another goroutine stays frozen.
//
// Duplicate IDs are legal and meaningful — two requests for the same song
// are two separate plays.
type Snapshot []SongID

// Clone returns an independent copy. An empty or nil snapshot clones to an
// empty non-nil snapshot so callers can compare and serialize uniformly.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Append returns a new snapshot with id added at the tail.
func (s Snapshot) Append(id SongID) Snapshot {
	out := make(Snapshot, 0, len(s)+1)
	out = append(out, s...)
	return append(out, id)
}

// RemoveFirst returns a new snapshot with the first occurrence of id removed.
// Removal targets the identifier, not position 0: if the head changed while
// the caller was busy, only the matching entry goes. Absent id is a no-op.
func (s Snapshot) RemoveFirst(id SongID) Snapshot {
	for i, v := range s {
		if v == id {
			out := make(Snapshot, 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...)
		}
	}
	return s.Clone()
}

// Head returns the next song to be played, or false if the queue is empty.
func (s Snapshot) Head() (SongID, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0], true
}

// Equal reports whether two snapshots hold the same IDs in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
