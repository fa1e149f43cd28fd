package queue

import "github.com/bradfortner/convergence-queue/internal/domain"

// Mutation is a pure function from one queue snapshot to the next. Mutations
// must not retain or mutate their input; they are applied between a fresh
// read and the following write, with nothing else in between.
type Mutation func(domain.Snapshot) domain.Snapshot

// Append returns a mutation that adds id at the tail. Duplicates are kept:
// two requests for the same song are two plays.
func Append(id domain.SongID) Mutation {
	return func(s domain.Snapshot) domain.Snapshot {
		return s.Append(id)
	}
}

// RemoveFirst returns a mutation that removes the first occurrence of id.
// Absent id leaves the snapshot unchanged — removing an already-removed
// song is a no-op, not an error.
func RemoveFirst(id domain.SongID) Mutation {
	return func(s domain.Snapshot) domain.Snapshot {
		return s.RemoveFirst(id)
	}
}

// Identity returns the snapshot unchanged. Applying it is a re-read plus a
// content-preserving write.
func Identity(s domain.Snapshot) domain.Snapshot {
	return s.Clone()
}
