package rotation_test

import (
	"testing"

	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/rotation"
)

func TestRotation_EverySongPlaysBeforeRepeats(t *testing.T) {
	ids := []domain.SongID{1, 2, 3, 4, 5}
	rot := rotation.New(ids)

	seen := make(map[domain.SongID]bool)
	for i := 0; i < len(ids); i++ {
		id, ok := rot.Next()
		if !ok {
			t.Fatal("rotation ran dry")
		}
		if seen[id] {
			t.Fatalf("song %d repeated before the cycle completed", id)
		}
		seen[id] = true
	}
	if len(seen) != len(ids) {
		t.Fatalf("expected %d distinct songs, got %d", len(ids), len(seen))
	}
}

func TestRotation_MoveToEndPreservesCycleOrder(t *testing.T) {
	rot := rotation.New([]domain.SongID{1, 2, 3})

	var firstCycle []domain.SongID
	for i := 0; i < 3; i++ {
		id, _ := rot.Next()
		firstCycle = append(firstCycle, id)
	}

	// The second cycle replays the same order.
	for i := 0; i < 3; i++ {
		id, _ := rot.Next()
		if id != firstCycle[i] {
			t.Fatalf("cycle order changed at %d: got %d, want %d", i, id, firstCycle[i])
		}
	}
}

func TestRotation_Empty(t *testing.T) {
	rot := rotation.New(nil)
	if _, ok := rot.Next(); ok {
		t.Fatal("empty rotation produced a song")
	}
	if rot.Len() != 0 {
		t.Fatalf("expected len 0, got %d", rot.Len())
	}
}

func TestRotation_Upcoming(t *testing.T) {
	rot := rotation.New([]domain.SongID{1, 2, 3})

	up := rot.Upcoming(2)
	if len(up) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(up))
	}

	next, _ := rot.Next()
	if next != up[0] {
		t.Fatalf("Upcoming disagreed with Next: %d vs %d", up[0], next)
	}

	if got := rot.Upcoming(10); len(got) != 3 {
		t.Fatalf("expected clamp to 3, got %d", len(got))
	}
}
