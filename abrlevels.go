// Package abrlevels implements the variant selection and health-tracking
// engine of an adaptive bitrate streaming client.
//
// Given parsed variant records describing multiple encoded renditions of
// the same content, the engine deduplicates redundant streams into levels
// with URL fallbacks, filters playback-incompatible entries, orders the
// survivors by a deterministic quality comparator, tracks per-level error
// counters for automatic failover, and arbitrates between manual and
// automatic level selection.
//
// # Architecture
//
// The engine is purely reactive: all state transitions happen synchronously
// inside handlers of a typed notification bus. Collaborators are explicit
// interfaces the engine consults rather than re-implements:
//
//   - loader.PlaylistLoader: should-load predicate, retry timers, backoff
//   - bandwidth.Estimator: bandwidth estimation for automatic selection
//   - steering.PathwayFilter: multi-CDN pathway filtering
//   - controller.AutoLevelProvider: the automatic selection algorithm
//
// # Basic Usage
//
//	bus := abrlevels.NewBus()
//	ctl := abrlevels.New(bus, abrlevels.Config{
//	    Capability:    abrlevels.DefaultCapability(),
//	    AutoStartLoad: true,
//	})
//
//	bus.On(abrlevels.LevelLoading, func(_ abrlevels.Kind, data any) {
//	    req := data.(abrlevels.LevelLoadingData)
//	    // fetch req.URL, then emit LevelLoaded with the parsed details
//	})
//
//	bus.Emit(abrlevels.ManifestLoaded, abrlevels.ManifestLoadedData{Records: records})
//
// Thereafter level-loaded, error, fragment-buffered and audio-track-switched
// notifications drive selection and recovery; the engine emits
// level-switching, level-loading and levels-updated notifications as its
// state changes.
package abrlevels

import (
	"abrlevels/internal/codecs"
	"abrlevels/internal/controller"
	"abrlevels/internal/event"
	"abrlevels/internal/level"
	"abrlevels/internal/metrics"
	"abrlevels/internal/playlist"
)

type (
	// Controller is the level selection and health-tracking engine.
	Controller = controller.LevelController

	// Config configures the engine; zero values fall back to defaults.
	Config = controller.Config

	// AutoLevelProvider is the automatic level-selection collaborator.
	AutoLevelProvider = controller.AutoLevelProvider

	// Capability is the platform decode capability, passed in explicitly.
	Capability = codecs.Capability

	// Level is one encoded rendition with its redundant URL fallbacks and
	// health counters.
	Level = level.Level

	// VariantRecord is one parsed manifest variant entry.
	VariantRecord = level.VariantRecord

	// Track is one audio or subtitle rendition.
	Track = level.Track

	// LevelDetails is a loaded media playlist.
	LevelDetails = playlist.LevelDetails

	// DeliveryDirectives carries LL-HLS reload parameters.
	DeliveryDirectives = playlist.DeliveryDirectives

	// Bus is the synchronous notification bus.
	Bus = event.Bus

	// Kind identifies a notification.
	Kind = event.Kind

	// Metrics holds the engine's Prometheus collectors.
	Metrics = metrics.Metrics
)

// Notification kinds.
const (
	ManifestLoading    = event.ManifestLoading
	ManifestLoaded     = event.ManifestLoaded
	ManifestParsed     = event.ManifestParsed
	LevelSwitching     = event.LevelSwitching
	LevelLoading       = event.LevelLoading
	LevelLoaded        = event.LevelLoaded
	LevelsUpdated      = event.LevelsUpdated
	AudioTrackSwitched = event.AudioTrackSwitched
	FragBuffered       = event.FragBuffered
	Error              = event.Error
)

// Notification payloads.
type (
	ManifestLoadedData     = event.ManifestLoadedData
	ManifestParsedData     = event.ManifestParsedData
	LevelSwitchingData     = event.LevelSwitchingData
	LevelLoadingData       = event.LevelLoadingData
	LevelLoadedData        = event.LevelLoadedData
	LevelsUpdatedData      = event.LevelsUpdatedData
	AudioTrackSwitchedData = event.AudioTrackSwitchedData
	FragBufferedData       = event.FragBufferedData
	ErrorData              = event.ErrorData
)

// NewBus returns an empty notification bus.
func NewBus() *Bus { return event.NewBus() }

// New creates a Controller and subscribes it to bus.
func New(bus *Bus, cfg Config) *Controller { return controller.New(bus, cfg) }

// DefaultCapability returns a capability covering the codec families most
// platforms decode.
func DefaultCapability() Capability { return codecs.DefaultCapability() }

// NewMetrics creates and registers the engine's Prometheus collectors.
func NewMetrics() *Metrics { return metrics.New() }
