// Package event defines the notification kinds exchanged between the level
// engine and its collaborators, their payload structures, and a synchronous
// single-consumer bus.
package event

import (
	"abrlevels/internal/level"
	"abrlevels/internal/playlist"
)

// Kind identifies a notification.
type Kind string

// Notifications consumed by the engine.
const (
	ManifestLoading    Kind = "manifest-loading"
	ManifestLoaded     Kind = "manifest-loaded"
	LevelLoaded        Kind = "level-loaded"
	AudioTrackSwitched Kind = "audio-track-switched"
	FragBuffered       Kind = "frag-buffered"
)

// Notifications produced by the engine. LevelsUpdated and Error flow in
// both directions.
const (
	ManifestParsed Kind = "manifest-parsed"
	LevelSwitching Kind = "level-switching"
	LevelLoading   Kind = "level-loading"
	LevelsUpdated  Kind = "levels-updated"
	Error          Kind = "error"
)

// ManifestLoadedData carries the parsed manifest: variant records plus
// audio/subtitle track records and opaque session data.
type ManifestLoadedData struct {
	URL            string
	Records        []level.VariantRecord
	AudioTracks    []level.Track
	SubtitleTracks []level.Track
	SessionData    map[string]string
}

// ManifestParsedData is the downstream "levels ready" notification.
type ManifestParsedData struct {
	Levels         []*level.Level
	AudioTracks    []level.Track
	SubtitleTracks []level.Track
	FirstLevel     int
	Audio          bool
	Video          bool
	AltAudio       bool
}

// LevelSwitchingData is the switch notification, built fresh on every
// switch with a fixed field set.
type LevelSwitchingData struct {
	Level         int
	PrevLevel     int
	Height        int
	Bitrate       int
	Codecs        string
	VideoRange    string
	PathwayID     string
	PrevPathwayID string
	URI           string
}

// LevelLoadingData requests a playlist (re)load from the loader.
type LevelLoadingData struct {
	URL        string
	Level      int
	URLID      int
	Directives *playlist.DeliveryDirectives
}

// LevelLoadedData reports a completed playlist load.
type LevelLoadedData struct {
	Level      int
	Details    *playlist.LevelDetails
	Directives *playlist.DeliveryDirectives
}

// LevelsUpdatedData carries the level sequence after a removal or a
// wholesale external replacement.
type LevelsUpdatedData struct {
	Levels []*level.Level
}

// AudioTrackSwitchedData reports an external audio track switch.
type AudioTrackSwitchedData struct {
	ID int
}

// FragBufferedData reports a buffered fragment. ElementaryStreams is empty
// for no-op probe fragments.
type FragBufferedData struct {
	Type              string
	Level             int
	ElementaryStreams []string
}

// FragTypeMain is the content type of main-stream fragments.
const FragTypeMain = "main"

// ErrorKind classifies error notifications.
type ErrorKind string

const (
	ErrInvalidLevelIndex  ErrorKind = "invalid-level-index"
	ErrIncompatibleCodecs ErrorKind = "incompatible-codecs"
	ErrLevelLoad          ErrorKind = "level-load-error"
	ErrFragLoad           ErrorKind = "frag-load-error"
	ErrDeltaUpdateFailed  ErrorKind = "delta-update-failed"
)

// ErrorData is the error notification payload. Level is -1 when the error
// has no level context.
type ErrorData struct {
	Kind   ErrorKind
	Fatal  bool
	Reason string
	Level  int
	Attrs  map[string]string
}
