package level

import "abrlevels/internal/codecs"

// BuildResult is the outcome of the registry build: merged levels in
// manifest order plus the signaling flags observed across the full record
// set, before any filtering.
type BuildResult struct {
	Levels []*Level

	// ResolutionFound, VideoCodecFound and AudioCodecFound report whether
	// any record signaled the respective attribute.
	ResolutionFound bool
	VideoCodecFound bool
	AudioCodecFound bool
}

// Build merges parsed variant records into levels. Records sharing an
// identity key become one Level with multiple URL fallbacks; merge order
// matches input order. Audio codecs are rewritten for the legacy MPEG
// audio workaround and mapped to canonical names before keying.
func Build(records []VariantRecord, cap *codecs.Capability, steeringEnabled bool) BuildResult {
	var res BuildResult
	byKey := make(map[string]*Level, len(records))

	for _, rec := range records {
		if cap.RewriteMPEGAudio && rec.AudioCodec == codecs.MPEGAudioCodecID && !cap.CanDecode(codecs.MPEGAudioCodecID) {
			rec.AudioCodec = "mp3"
		}
		rec.AudioCodec = codecs.CanonicalAudioName(rec.AudioCodec)

		res.ResolutionFound = res.ResolutionFound || (rec.Width > 0 && rec.Height > 0)
		res.VideoCodecFound = res.VideoCodecFound || rec.VideoCodec != ""
		res.AudioCodecFound = res.AudioCodecFound || rec.AudioCodec != ""

		k := key(rec, steeringEnabled)
		if lvl, ok := byKey[k]; ok {
			lvl.addFallback(rec)
			continue
		}
		lvl := newLevel(rec)
		byKey[k] = lvl
		res.Levels = append(res.Levels, lvl)
	}
	return res
}

// AssignTrackIDs drops tracks whose codec the platform cannot decode and
// assigns dense sequential IDs within each rendition group.
func AssignTrackIDs(tracks []Track, cap *codecs.Capability) []Track {
	kept := make([]Track, 0, len(tracks))
	perGroup := make(map[string]int)
	for _, t := range tracks {
		if t.Codec != "" && !cap.CanDecode(t.Codec) {
			continue
		}
		t.ID = perGroup[t.GroupID]
		perGroup[t.GroupID]++
		kept = append(kept, t)
	}
	return kept
}
