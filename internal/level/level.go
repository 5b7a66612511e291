// Package level defines the quality-level model of the engine: merged
// renditions with redundant URL fallbacks, the dedup/merge registry build,
// the platform compatibility filter and the quality comparator.
package level

import (
	"fmt"
	"strings"

	"abrlevels/internal/codecs"
	"abrlevels/internal/playlist"
)

// VariantRecord is one parsed EXT-X-STREAM-INF entry as delivered by the
// manifest parser. Records with equal identity keys describe the same
// rendition served from redundant URLs.
type VariantRecord struct {
	// Bitrate is the peak bitrate in bits per second.
	Bitrate int

	// Width and Height are the advertised resolution, 0 when unsignaled.
	Width  int
	Height int

	// FrameRate is the advertised frame rate, 0 when unsignaled.
	FrameRate float64

	// Codecs is the raw CODECS attribute value.
	Codecs string

	// VideoCodec and AudioCodec are the codecs split out by kind.
	VideoCodec string
	AudioCodec string

	// AudioGroup and TextGroup reference the rendition groups associated
	// with this record's URI.
	AudioGroup string
	TextGroup  string

	// URI is the media playlist location.
	URI string

	// PathwayID names the content-steering pathway, empty when absent.
	PathwayID string

	// VideoRange is the dynamic range tag (SDR, PQ, HLG). Empty means SDR.
	VideoRange string

	// HDCPLevel is the HDCP requirement, lexically ordered (empty lowest).
	HDCPLevel string

	// Score is the SCORE attribute, used as the final sort tie-break.
	Score float64

	// Name is the optional NAME attribute.
	Name string

	// Attrs echoes the raw attribute list for diagnostics.
	Attrs map[string]string
}

// Track is one audio or subtitle rendition. IDs are dense 0..n-1 within
// each group, assigned after compatibility filtering.
type Track struct {
	ID      int
	GroupID string
	Name    string
	Lang    string
	Codec   string
	URI     string
	Default bool
	Forced  bool
	Kind    string // "AUDIO" or "SUBTITLES"
}

// Level is one encoded rendition, possibly backed by several redundant
// URLs. It is created during manifest processing, merged into when a
// duplicate signature arrives, and mutated in place for error counters,
// the active URL index and loaded details.
type Level struct {
	Bitrate    int
	Width      int
	Height     int
	FrameRate  float64
	Codecs     string
	CodecSet   string
	VideoCodec string
	AudioCodec string
	VideoRange string
	HDCPLevel  string
	Score      float64
	PathwayID  string
	Name       string
	Attrs      map[string]string

	// URLs holds the redundant playlist locations in manifest order.
	// AudioGroups and TextGroups carry one group reference per URL.
	URLs        []string
	AudioGroups []string
	TextGroups  []string

	// URLID is the index of the currently active fallback URL.
	URLID int

	// LoadError counts playlist load failures, FragmentError segment
	// failures. Both reset to 0 independently of other attributes.
	LoadError     int
	FragmentError int

	// Details is the most recently loaded playlist, nil until first load.
	Details *playlist.LevelDetails
}

func newLevel(rec VariantRecord) *Level {
	return &Level{
		Bitrate:     rec.Bitrate,
		Width:       rec.Width,
		Height:      rec.Height,
		FrameRate:   rec.FrameRate,
		Codecs:      rec.Codecs,
		CodecSet:    codecs.SetOf(codecs.Split(rec.Codecs)...),
		VideoCodec:  rec.VideoCodec,
		AudioCodec:  rec.AudioCodec,
		VideoRange:  rec.VideoRange,
		HDCPLevel:   rec.HDCPLevel,
		Score:       rec.Score,
		PathwayID:   rec.PathwayID,
		Name:        rec.Name,
		Attrs:       rec.Attrs,
		URLs:        []string{rec.URI},
		AudioGroups: []string{rec.AudioGroup},
		TextGroups:  []string{rec.TextGroup},
	}
}

// URI returns the currently active fallback URL.
func (l *Level) URI() string {
	if l.URLID < 0 || l.URLID >= len(l.URLs) {
		return ""
	}
	return l.URLs[l.URLID]
}

// AudioGroupID returns the audio group of the active fallback URL.
func (l *Level) AudioGroupID() string {
	if l.URLID < 0 || l.URLID >= len(l.AudioGroups) {
		return ""
	}
	return l.AudioGroups[l.URLID]
}

// TextGroupID returns the subtitle group of the active fallback URL.
func (l *Level) TextGroupID() string {
	if l.URLID < 0 || l.URLID >= len(l.TextGroups) {
		return ""
	}
	return l.TextGroups[l.URLID]
}

// HasResolution reports whether the level signals a resolution.
func (l *Level) HasResolution() bool {
	return l.Width > 0 && l.Height > 0
}

// addFallback appends a redundant URL and its group references,
// preserving manifest order so the first-seen fallback stays index 0.
func (l *Level) addFallback(rec VariantRecord) {
	l.URLs = append(l.URLs, rec.URI)
	l.AudioGroups = append(l.AudioGroups, rec.AudioGroup)
	l.TextGroups = append(l.TextGroups, rec.TextGroup)
}

// key computes the dedup identity of a record. Two records with equal keys
// are the same Level with multiple URL fallbacks, not two Levels.
func key(rec VariantRecord, steeringEnabled bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d-%dx%d-%g-%s", rec.Bitrate, rec.Width, rec.Height, rec.FrameRate, rec.Codecs)
	if steeringEnabled {
		b.WriteByte('-')
		b.WriteString(rec.PathwayID)
	}
	return b.String()
}
