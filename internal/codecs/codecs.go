// Package codecs provides codec-set parsing, platform decode-capability
// checks and codec preference scoring for variant selection.
package codecs

import "strings"

// Known base codec families, keyed by the identifier before the first dot.
var videoFamilies = map[string]bool{
	"avc1": true,
	"avc3": true,
	"hvc1": true,
	"hev1": true,
	"dvh1": true,
	"dvhe": true,
	"vp09": true,
	"vp8":  true,
	"vp9":  true,
	"av01": true,
}

var audioFamilies = map[string]bool{
	"mp4a": true,
	"ac-3": true,
	"ec-3": true,
	"opus": true,
	"flac": true,
	"alac": true,
	"mp3":  true,
}

// MPEGAudioCodecID is the RFC 6381 identifier for MPEG-1/2 layer III audio
// carried in MP4. Some platforms cannot decode it and expose no probe to
// find out, so callers opt into rewriting it via Capability.
const MPEGAudioCodecID = "mp4a.40.34"

// canonicalAudio maps alternate audio codec spellings to the name the
// rest of the pipeline keys on.
var canonicalAudio = map[string]string{
	"fLaC": "flac",
	"Opus": "opus",
}

// Family returns the base codec family of a full codec string,
// e.g. "avc1.4d401f" -> "avc1".
func Family(codec string) string {
	if i := strings.IndexByte(codec, '.'); i >= 0 {
		return strings.ToLower(codec[:i])
	}
	return strings.ToLower(codec)
}

// IsVideo reports whether codec names a known video codec family.
func IsVideo(codec string) bool {
	return videoFamilies[Family(codec)]
}

// IsAudio reports whether codec names a known audio codec family.
func IsAudio(codec string) bool {
	return audioFamilies[Family(codec)]
}

// Split breaks a CODECS attribute value into individual codec strings.
func Split(codecSet string) []string {
	if codecSet == "" {
		return nil
	}
	parts := strings.Split(codecSet, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SetOf reduces a list of codec strings to a comma-joined set of base
// families, preserving order ("avc1.4d401f,mp4a.40.2" -> "avc1,mp4a").
func SetOf(codecList ...string) string {
	var b strings.Builder
	for _, c := range codecList {
		if c == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Family(c))
	}
	return b.String()
}

// CanonicalAudioName maps alternate audio codec spellings ("fLaC", "Opus")
// to their canonical compatible names. Unknown codecs pass through.
func CanonicalAudioName(codec string) string {
	if name, ok := canonicalAudio[codec]; ok {
		return name
	}
	return codec
}

// Capability is the platform decode capability, passed in explicitly so
// filtering decisions are deterministic and testable per invocation.
type Capability struct {
	// Supported lists decodable codecs, either as full codec strings
	// ("avc1.4d401f") or base families ("avc1", "mp4a"). An empty list
	// means the platform reported nothing and every codec is rejected.
	Supported []string

	// RewriteMPEGAudio rewrites mp4a.40.34 audio to "mp3" during manifest
	// processing for platforms that cannot decode MPEG audio in MP4 and
	// offer no fallback detection.
	RewriteMPEGAudio bool

	supported map[string]bool
}

// DefaultCapability returns a capability covering the codec families most
// platforms decode.
func DefaultCapability() Capability {
	return Capability{
		Supported: []string{"avc1", "avc3", "hvc1", "hev1", "mp4a", "ac-3", "ec-3", "opus", "flac", "mp3"},
	}
}

func (c *Capability) index() map[string]bool {
	if c.supported == nil {
		c.supported = make(map[string]bool, len(c.Supported))
		for _, s := range c.Supported {
			c.supported[strings.ToLower(s)] = true
		}
	}
	return c.supported
}

// CanDecode reports whether the platform can decode codec. Full codec
// strings match exactly or by base family.
func (c *Capability) CanDecode(codec string) bool {
	if codec == "" {
		return true
	}
	idx := c.index()
	if idx[strings.ToLower(codec)] {
		return true
	}
	return idx[Family(codec)]
}

// Recognized reports whether codec belongs to any known video or audio
// family. Unrecognized codecs disqualify the whole level.
func Recognized(codec string) bool {
	return IsVideo(codec) || IsAudio(codec)
}

// PreferenceLookup scores codec sets for the quality comparator. Higher
// values sort first among otherwise equal levels.
type PreferenceLookup interface {
	Preference(codecSet string) int
}

// DefaultPreferences ranks codec sets by their video family, preferring
// newer, more efficient codecs.
type DefaultPreferences struct{}

var familyPreference = map[string]int{
	"av01": 4,
	"vp09": 3,
	"hvc1": 2,
	"hev1": 2,
	"avc1": 1,
	"avc3": 1,
}

// Preference implements PreferenceLookup.
func (DefaultPreferences) Preference(codecSet string) int {
	best := 0
	for _, family := range strings.Split(codecSet, ",") {
		if p := familyPreference[family]; p > best {
			best = p
		}
	}
	return best
}
