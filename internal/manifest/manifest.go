// Package manifest adapts parsed m3u8 playlists into the variant records,
// track records and level details the engine consumes.
package manifest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/grafov/m3u8"

	"abrlevels/internal/codecs"
	"abrlevels/internal/level"
	"abrlevels/internal/playlist"
)

// Master is the adapted content of a master playlist.
type Master struct {
	Records        []level.VariantRecord
	AudioTracks    []level.Track
	SubtitleTracks []level.Track
}

// FetchMaster fetches and adapts a master playlist from a URL.
func FetchMaster(masterURL string) (*Master, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(masterURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch playlist: HTTP %d", resp.StatusCode)
	}

	return ParseMaster(resp.Body, masterURL)
}

// ParseMaster decodes a master playlist and adapts each variant into a
// parsed record, resolving URIs against baseURL.
func ParseMaster(r io.Reader, baseURL string) (*Master, error) {
	decoded, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return nil, fmt.Errorf("expected master playlist")
	}
	master, ok := decoded.(*m3u8.MasterPlaylist)
	if !ok {
		return nil, fmt.Errorf("unexpected playlist type")
	}
	if len(master.Variants) == 0 {
		return nil, fmt.Errorf("master playlist contains no variants")
	}

	out := &Master{}
	seenTracks := make(map[string]bool)

	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}

		uri, err := playlist.ResolveURL(baseURL, v.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve variant URL: %w", err)
		}

		rec := level.VariantRecord{
			Bitrate:    int(v.Bandwidth),
			FrameRate:  v.FrameRate,
			Codecs:     v.Codecs,
			AudioGroup: v.Audio,
			TextGroup:  v.Subtitles,
			URI:        uri,
			VideoRange: v.VideoRange,
			HDCPLevel:  v.HDCPLevel,
			Name:       v.Name,
		}
		rec.Width, rec.Height = parseResolution(v.Resolution)
		rec.VideoCodec, rec.AudioCodec = splitCodecs(v.Codecs)
		rec.Attrs = variantAttrs(v)
		out.Records = append(out.Records, rec)

		for _, alt := range v.Alternatives {
			if alt == nil {
				continue
			}
			trackKey := alt.Type + "|" + alt.GroupId + "|" + alt.Name
			if seenTracks[trackKey] {
				continue
			}
			seenTracks[trackKey] = true

			altURI := ""
			if alt.URI != "" {
				altURI, err = playlist.ResolveURL(baseURL, alt.URI)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve rendition URL: %w", err)
				}
			}
			track := level.Track{
				GroupID: alt.GroupId,
				Name:    alt.Name,
				Lang:    alt.Language,
				URI:     altURI,
				Default: alt.Default,
				Forced:  alt.Forced == "YES",
				Kind:    alt.Type,
			}
			switch alt.Type {
			case "AUDIO":
				out.AudioTracks = append(out.AudioTracks, track)
			case "SUBTITLES":
				out.SubtitleTracks = append(out.SubtitleTracks, track)
			}
		}
	}

	if len(out.Records) == 0 {
		return nil, fmt.Errorf("master playlist contains no usable variants")
	}
	return out, nil
}

// ParseMedia decodes a media playlist into level details, resolving
// segment URLs against baseURL. levelIndex stamps each fragment with its
// owning level.
func ParseMedia(r io.Reader, baseURL string, levelIndex int) (*playlist.LevelDetails, error) {
	decoded, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist: %w", err)
	}
	if listType != m3u8.MEDIA {
		return nil, fmt.Errorf("expected media playlist, got master playlist")
	}
	media, ok := decoded.(*m3u8.MediaPlaylist)
	if !ok {
		return nil, fmt.Errorf("unexpected playlist type")
	}

	details := &playlist.LevelDetails{
		Live:           !media.Closed,
		TargetDuration: media.TargetDuration,
		MediaSequence:  media.SeqNo,
	}

	for i, seg := range media.Segments {
		if seg == nil {
			break
		}
		segURL, err := playlist.ResolveURL(baseURL, seg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve segment URL: %w", err)
		}
		details.Fragments = append(details.Fragments, &playlist.Fragment{
			URL:        segURL,
			Duration:   seg.Duration,
			SN:         media.SeqNo + uint64(i),
			LevelIndex: levelIndex,
		})
	}

	if len(details.Fragments) == 0 {
		return nil, fmt.Errorf("playlist contains no segments")
	}
	return details, nil
}

// splitCodecs picks the video and audio codec out of a CODECS attribute.
func splitCodecs(codecSet string) (video, audio string) {
	for _, c := range codecs.Split(codecSet) {
		switch {
		case video == "" && codecs.IsVideo(c):
			video = c
		case audio == "" && codecs.IsAudio(c):
			audio = c
		}
	}
	return video, audio
}

// parseResolution parses a WIDTHxHEIGHT attribute value; malformed values
// yield 0,0 (unsignaled).
func parseResolution(res string) (w, h int) {
	parts := strings.SplitN(strings.ToLower(res), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w < 0 || h < 0 {
		return 0, 0
	}
	return w, h
}

// variantAttrs echoes a variant's raw attributes for diagnostics.
func variantAttrs(v *m3u8.Variant) map[string]string {
	attrs := map[string]string{
		"BANDWIDTH": strconv.FormatUint(uint64(v.Bandwidth), 10),
	}
	if v.Resolution != "" {
		attrs["RESOLUTION"] = v.Resolution
	}
	if v.Codecs != "" {
		attrs["CODECS"] = v.Codecs
	}
	if v.FrameRate > 0 {
		attrs["FRAME-RATE"] = strconv.FormatFloat(v.FrameRate, 'f', -1, 64)
	}
	if v.VideoRange != "" {
		attrs["VIDEO-RANGE"] = v.VideoRange
	}
	if v.HDCPLevel != "" {
		attrs["HDCP-LEVEL"] = v.HDCPLevel
	}
	if v.Audio != "" {
		attrs["AUDIO"] = v.Audio
	}
	if v.Subtitles != "" {
		attrs["SUBTITLES"] = v.Subtitles
	}
	if v.Name != "" {
		attrs["NAME"] = v.Name
	}
	return attrs
}
