// Package steering defines the content-steering collaborator consulted
// after sorting. The steering algorithm itself lives outside the engine.
package steering

import "abrlevels/internal/level"

// PathwayFilter reorders or reduces the level sequence according to the
// active multi-CDN pathway and is told when a level's pathway association
// should be forgotten.
type PathwayFilter interface {
	// FilterLevels returns a possibly reordered or reduced subsequence of
	// levels. It must not mutate the input slice.
	FilterLevels(levels []*level.Level) []*level.Level

	// OnLevelRemoved tells the filter a level on the given pathway was
	// dropped, so it can forget the association.
	OnLevelRemoved(pathwayID string)
}

// ReconcileFirstLevel re-derives the "first level" identity after pathway
// filtering dropped entries. It walks the unsorted sequence in original
// order, picks the first entry whose pathway matches the surviving leader,
// and returns that entry's index within the filtered sequence. Falls back
// to 0 when no match is found.
func ReconcileFirstLevel(unsorted, filtered []*level.Level) int {
	if len(filtered) == 0 {
		return 0
	}
	leader := filtered[0].PathwayID
	for _, candidate := range unsorted {
		if candidate.PathwayID != leader {
			continue
		}
		for i, lvl := range filtered {
			if lvl == candidate {
				return i
			}
		}
	}
	return 0
}
