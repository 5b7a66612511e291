// Package playlist defines the loaded media-playlist model consumed by the
// level engine, delivery directives for live reloads, and adapters from
// parsed m3u8 playlists.
package playlist

import (
	"fmt"
	"net/url"
	"strings"
)

// Fragment is one media segment reference inside a loaded playlist.
type Fragment struct {
	// URL is the absolute segment URL.
	URL string

	// Duration is the segment duration in seconds.
	Duration float64

	// SN is the media sequence number of the segment.
	SN uint64

	// LevelIndex is the positional index of the owning level. It is
	// re-stamped whenever the level sequence is replaced wholesale.
	LevelIndex int
}

// LevelDetails is the most recently loaded playlist of a level.
type LevelDetails struct {
	// Live indicates the playlist has no end marker and must be reloaded.
	Live bool

	// TargetDuration is the maximum segment duration in seconds.
	TargetDuration float64

	// MediaSequence is the sequence number of the first fragment.
	MediaSequence uint64

	// Fragments holds the playlist's segments in order.
	Fragments []*Fragment

	// Skipped is the number of fragments omitted by a delta update.
	Skipped int

	// DeltaUpdateFailed marks a delta update that could not be merged
	// onto known state; the loader must re-request a full playlist.
	DeltaUpdateFailed bool
}

// EndSN returns the sequence number of the last fragment, or MediaSequence
// when the playlist is empty.
func (d *LevelDetails) EndSN() uint64 {
	if n := len(d.Fragments); n > 0 {
		return d.Fragments[n-1].SN
	}
	return d.MediaSequence
}

// IsDelta reports whether the playlist was delivered as a delta update.
func (d *LevelDetails) IsDelta() bool {
	return d.Skipped > 0
}

// MergeDetails merges a delta update onto the previously known details by
// prepending the fragments the delta skipped. It returns false when the
// delta cannot be reconciled (no previous state, or a sequence gap).
func MergeDetails(previous, delta *LevelDetails) bool {
	if previous == nil || !delta.IsDelta() {
		return false
	}
	// The delta's first retained fragment must directly follow, or overlap,
	// the fragments we already hold.
	firstSN := delta.MediaSequence + uint64(delta.Skipped)
	if firstSN > previous.EndSN()+1 || delta.MediaSequence < previous.MediaSequence {
		return false
	}
	merged := make([]*Fragment, 0, delta.Skipped+len(delta.Fragments))
	for _, frag := range previous.Fragments {
		if frag.SN >= firstSN {
			break
		}
		if frag.SN >= delta.MediaSequence {
			merged = append(merged, frag)
		}
	}
	if uint64(len(merged)) != firstSN-delta.MediaSequence {
		return false
	}
	delta.Fragments = append(merged, delta.Fragments...)
	delta.Skipped = 0
	return true
}

// DeliveryDirectives carries the LL-HLS blocking-reload parameters attached
// to a playlist (re)load request.
type DeliveryDirectives struct {
	// MSN is the media sequence number to block on (-1 when unset).
	MSN int64

	// Part is the partial segment index to block on (-1 when unset).
	Part int64

	// SkipDelta requests a delta playlist update.
	SkipDelta bool
}

// NewDeliveryDirectives derives the directives for reloading a live playlist
// from the previously loaded details. Nil details yield nil directives.
func NewDeliveryDirectives(previous *LevelDetails) *DeliveryDirectives {
	if previous == nil || !previous.Live {
		return nil
	}
	return &DeliveryDirectives{
		MSN:       int64(previous.EndSN() + 1),
		Part:      -1,
		SkipDelta: previous.IsDelta() && !previous.DeltaUpdateFailed,
	}
}

// AppendTo appends the directives to a playlist URI as _HLS_* query
// parameters and returns the resulting URL.
func (d *DeliveryDirectives) AppendTo(uri string) string {
	if d == nil {
		return uri
	}
	var params []string
	if d.MSN >= 0 {
		params = append(params, fmt.Sprintf("_HLS_msn=%d", d.MSN))
	}
	if d.Part >= 0 {
		params = append(params, fmt.Sprintf("_HLS_part=%d", d.Part))
	}
	if d.SkipDelta {
		params = append(params, "_HLS_skip=YES")
	}
	if len(params) == 0 {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + strings.Join(params, "&")
}

// ResolveURL resolves a possibly relative URL against a base URL.
func ResolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", fmt.Errorf("invalid relative URL: %w", err)
	}
	return base.ResolveReference(rel).String(), nil
}
