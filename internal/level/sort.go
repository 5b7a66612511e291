package level

import (
	"sort"

	"abrlevels/internal/codecs"
)

// Sort orders levels ascending by quality, in place. The key precedence is
// HDCP level (lexical), height (only when any surviving level reports a
// resolution), frame rate, codec-set preference (descending), bitrate,
// then the SCORE attribute. The sort is stable, so full ties preserve
// manifest order.
//
// Automatic bitrate ramping starts from the lowest entry, so this ordering
// must stay deterministic.
func Sort(levels []*Level, pref codecs.PreferenceLookup) {
	resolutionFound := false
	for _, lvl := range levels {
		if lvl.HasResolution() {
			resolutionFound = true
			break
		}
	}

	sort.SliceStable(levels, func(i, j int) bool {
		a, b := levels[i], levels[j]
		if a.HDCPLevel != b.HDCPLevel {
			return a.HDCPLevel < b.HDCPLevel
		}
		if resolutionFound && a.Height != b.Height {
			return a.Height < b.Height
		}
		if a.FrameRate != b.FrameRate {
			return a.FrameRate < b.FrameRate
		}
		if pa, pb := pref.Preference(a.CodecSet), pref.Preference(b.CodecSet); pa != pb {
			return pa > pb
		}
		if a.Bitrate != b.Bitrate {
			return a.Bitrate < b.Bitrate
		}
		return a.Score < b.Score
	})
}
