package steering

import (
	"testing"

	"abrlevels/internal/level"
)

func pathwayLevel(bitrate int, pathway string) *level.Level {
	return &level.Level{Bitrate: bitrate, PathwayID: pathway}
}

func TestReconcileFirstLevel_EmptyFiltered(t *testing.T) {
	unsorted := []*level.Level{pathwayLevel(800_000, "A")}
	if got := ReconcileFirstLevel(unsorted, nil); got != 0 {
		t.Errorf("Expected 0 for empty filtered sequence, got %d", got)
	}
}

func TestReconcileFirstLevel_PicksLeaderPathway(t *testing.T) {
	a1 := pathwayLevel(800_000, "A")
	a2 := pathwayLevel(1_600_000, "A")
	b1 := pathwayLevel(800_000, "B")

	// Manifest order: b1, a1, a2. Filtering kept only pathway A, sorted
	// ascending. The manifest-first entry on the surviving pathway is a1.
	unsorted := []*level.Level{b1, a1, a2}
	filtered := []*level.Level{a1, a2}

	if got := ReconcileFirstLevel(unsorted, filtered); got != 0 {
		t.Errorf("Expected index 0 (a1), got %d", got)
	}

	// With the filtered order reversed, a1's position moves with it.
	filtered = []*level.Level{a2, a1}
	if got := ReconcileFirstLevel(unsorted, filtered); got != 1 {
		t.Errorf("Expected index 1 (a1), got %d", got)
	}
}

func TestReconcileFirstLevel_NoMatchFallsBack(t *testing.T) {
	unsorted := []*level.Level{pathwayLevel(800_000, "A")}
	filtered := []*level.Level{pathwayLevel(800_000, "C"), pathwayLevel(1_600_000, "C")}
	if got := ReconcileFirstLevel(unsorted, filtered); got != 0 {
		t.Errorf("Expected fallback 0, got %d", got)
	}
}
