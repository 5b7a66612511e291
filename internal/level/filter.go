package level

import "abrlevels/internal/codecs"

// FilterResult is the outcome of the compatibility filter.
type FilterResult struct {
	// Levels are the surviving levels in their original order.
	Levels []*Level

	// FirstDroppedAttrs echoes the raw attributes of the first dropped
	// level for diagnostics when nothing survives.
	FirstDroppedAttrs map[string]string
}

// Filter removes levels the platform cannot play: levels whose codec list
// contains an unrecognized or undecodable codec, and levels whose named
// audio or video codec is not decodable.
//
// When the record set signals resolutions or video codecs alongside audio
// codecs, a second pass drops entries with no video codec, no resolution
// and a non-default dynamic range tag, so HDR-tagged audio-only entries are
// not treated as video renditions. The signaling flags are global across
// the full pre-filter set, which is deliberate.
func Filter(build BuildResult, cap *codecs.Capability) FilterResult {
	var res FilterResult
	res.Levels = make([]*Level, 0, len(build.Levels))

	drop := func(lvl *Level) {
		if res.FirstDroppedAttrs == nil {
			res.FirstDroppedAttrs = lvl.Attrs
		}
	}

	for _, lvl := range build.Levels {
		if !codecListSupported(lvl.Codecs, cap) ||
			!cap.CanDecode(lvl.VideoCodec) ||
			!cap.CanDecode(lvl.AudioCodec) {
			drop(lvl)
			continue
		}
		res.Levels = append(res.Levels, lvl)
	}

	if (build.ResolutionFound || build.VideoCodecFound) && build.AudioCodecFound {
		kept := res.Levels[:0]
		for _, lvl := range res.Levels {
			if lvl.VideoCodec == "" && !lvl.HasResolution() && nonDefaultVideoRange(lvl.VideoRange) {
				drop(lvl)
				continue
			}
			kept = append(kept, lvl)
		}
		res.Levels = kept
	}
	return res
}

func codecListSupported(codecSet string, cap *codecs.Capability) bool {
	for _, c := range codecs.Split(codecSet) {
		if !codecs.Recognized(c) || !cap.CanDecode(c) {
			return false
		}
	}
	return true
}

// nonDefaultVideoRange reports whether tag names a dynamic range other
// than SDR. An absent tag counts as SDR.
func nonDefaultVideoRange(tag string) bool {
	return tag != "" && tag != "SDR"
}
