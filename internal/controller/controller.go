// Package controller implements the level selection and health-tracking
// engine: manual/auto arbitration, switch notifications, reload triggering,
// per-level error recovery, audio group synchronization and level removal.
package controller

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"abrlevels/internal/bandwidth"
	"abrlevels/internal/codecs"
	"abrlevels/internal/event"
	"abrlevels/internal/level"
	"abrlevels/internal/loader"
	"abrlevels/internal/metrics"
	"abrlevels/internal/playlist"
	"abrlevels/internal/steering"
)

// AutoLevelProvider is the automatic level-selection collaborator (the ABR
// algorithm). The engine consults it, it never re-implements it.
type AutoLevelProvider interface {
	// FirstAutoLevel suggests the level to start playback on.
	FirstAutoLevel() int

	// NextAutoLevel returns the level the next load should target while in
	// automatic mode; SetNextAutoLevel feeds an externally chosen target
	// back to the algorithm.
	NextAutoLevel() int
	SetNextAutoLevel(index int)
}

// Config configures a LevelController. Platform capability is explicit
// input so filtering decisions are deterministic per invocation.
type Config struct {
	// Capability is the platform decode capability.
	Capability codecs.Capability

	// Preferences scores codec sets for the quality comparator.
	// Defaults to codecs.DefaultPreferences.
	Preferences codecs.PreferenceLookup

	// Steering is the optional multi-CDN pathway filter.
	Steering steering.PathwayFilter

	// Loader is the composed playlist-loading capability.
	// Defaults to loader.NewBase with default retry policy.
	Loader loader.PlaylistLoader

	// Estimator is the bandwidth estimation collaborator.
	// Defaults to a SlidingEstimator holding the library default.
	Estimator bandwidth.Estimator

	// Auto is the optional automatic level-selection collaborator.
	Auto AutoLevelProvider

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics

	// Logger defaults to a null logger.
	Logger hclog.Logger

	// StartLevel overrides the initial level choice when non-nil.
	StartLevel *int

	// AutoStartLoad starts loading as soon as a manifest is processed.
	AutoStartLoad bool

	// DefaultEstimateBps, when non-zero, is the user-configured default
	// bandwidth estimate. Manifest-derived seeding never overrides it.
	DefaultEstimateBps float64
}

func (c *Config) setDefaults() {
	if c.Preferences == nil {
		c.Preferences = codecs.DefaultPreferences{}
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.Loader == nil {
		c.Loader = loader.NewBase(loader.Config{}, c.Logger)
	}
	if c.Estimator == nil {
		c.Estimator = bandwidth.NewSlidingEstimator(c.DefaultEstimateBps)
	}
}

type emission struct {
	kind     event.Kind
	data     any
	deferred bool
}

// LevelController owns the canonical ordered level sequence and arbitrates
// every mutation of it. External collaborators receive snapshots through
// notifications and call back through commands; nothing outside this
// package mutates Level fields directly.
//
// All notification handlers and public commands serialize on one mutex, so
// the registry has exactly one writer at a time. Notifications produced
// during a command are emitted after the mutation completes, in order.
type LevelController struct {
	mu  sync.Mutex
	cfg Config
	bus *event.Bus
	log hclog.Logger

	levels         []*level.Level
	audioTracks    []level.Track
	subtitleTracks []level.Track

	currentLevelIndex int
	manualLevelIndex  int
	firstLevelIdx     int
	startLevel        *int

	pending []emission
}

// New creates a LevelController and subscribes it to the consumed
// notifications on bus.
func New(bus *event.Bus, cfg Config) *LevelController {
	cfg.setDefaults()
	c := &LevelController{
		cfg:               cfg,
		bus:               bus,
		log:               cfg.Logger.Named("level-controller"),
		currentLevelIndex: -1,
		manualLevelIndex:  -1,
		firstLevelIdx:     -1,
		startLevel:        cfg.StartLevel,
	}

	bus.On(event.ManifestLoading, func(_ event.Kind, _ any) {
		c.command(c.reset)
	})
	bus.On(event.ManifestLoaded, func(_ event.Kind, data any) {
		if d, ok := data.(event.ManifestLoadedData); ok {
			c.command(func() { c.processManifest(d) })
		}
	})
	bus.On(event.LevelLoaded, func(_ event.Kind, data any) {
		if d, ok := data.(event.LevelLoadedData); ok {
			c.command(func() { c.handleLevelLoaded(d) })
		}
	})
	bus.On(event.LevelsUpdated, func(_ event.Kind, data any) {
		if d, ok := data.(event.LevelsUpdatedData); ok {
			c.command(func() { c.replaceLevels(d.Levels) })
		}
	})
	bus.On(event.AudioTrackSwitched, func(_ event.Kind, data any) {
		if d, ok := data.(event.AudioTrackSwitchedData); ok {
			c.command(func() { c.syncAudioGroup(d.ID) })
		}
	})
	bus.On(event.FragBuffered, func(_ event.Kind, data any) {
		if d, ok := data.(event.FragBufferedData); ok {
			c.command(func() { c.handleFragBuffered(d) })
		}
	})
	bus.On(event.Error, func(_ event.Kind, data any) {
		if d, ok := data.(event.ErrorData); ok {
			c.command(func() { c.handleError(d) })
		}
	})
	return c
}

// command serializes fn against all other mutations, then flushes the
// notifications fn queued. Emitting outside the lock keeps consumers free
// to call queries and commands from their handlers.
func (c *LevelController) command(fn func()) {
	c.mu.Lock()
	fn()
	pend := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, e := range pend {
		e := e
		if e.deferred {
			c.bus.Defer(func() { c.bus.Emit(e.kind, e.data) })
			continue
		}
		c.bus.Emit(e.kind, e.data)
	}
}

func (c *LevelController) emit(kind event.Kind, data any) {
	c.pending = append(c.pending, emission{kind: kind, data: data})
}

func (c *LevelController) emitDeferred(kind event.Kind, data any) {
	c.pending = append(c.pending, emission{kind: kind, data: data, deferred: true})
}

// reset returns the registry to its empty initial state for a new
// manifest load.
func (c *LevelController) reset() {
	c.levels = nil
	c.audioTracks = nil
	c.subtitleTracks = nil
	c.currentLevelIndex = -1
	c.manualLevelIndex = -1
	c.firstLevelIdx = -1
	c.startLevel = c.cfg.StartLevel
	c.cfg.Metrics.LevelsReplaced(0)
}

// processManifest runs the dedup, filter, sort and steering pipeline and
// makes the initial selection.
func (c *LevelController) processManifest(d event.ManifestLoadedData) {
	steeringEnabled := c.cfg.Steering != nil
	build := level.Build(d.Records, &c.cfg.Capability, steeringEnabled)
	filtered := level.Filter(build, &c.cfg.Capability)

	if len(filtered.Levels) == 0 {
		c.log.Error("no compatible level found in manifest", "records", len(d.Records))
		// Reported after the current dispatch yields so the fatal error
		// does not interleave with in-flight manifest handling.
		c.emitDeferred(event.Error, event.ErrorData{
			Kind:   event.ErrIncompatibleCodecs,
			Fatal:  true,
			Reason: "no level with compatible codecs found in manifest",
			Level:  -1,
			Attrs:  filtered.FirstDroppedAttrs,
		})
		return
	}

	levels := filtered.Levels
	manifestOrder := make([]*level.Level, len(levels))
	copy(manifestOrder, levels)
	firstInManifest := manifestOrder[0]

	level.Sort(levels, c.cfg.Preferences)

	firstIdx := indexOfLevel(levels, firstInManifest)
	if steeringEnabled {
		survivors := c.cfg.Steering.FilterLevels(levels)
		if len(survivors) != len(levels) {
			firstIdx = steering.ReconcileFirstLevel(manifestOrder, survivors)
		}
		levels = survivors
	}
	if firstIdx < 0 || firstIdx >= len(levels) {
		firstIdx = 0
	}

	c.levels = levels
	c.firstLevelIdx = firstIdx
	c.audioTracks = level.AssignTrackIDs(d.AudioTracks, &c.cfg.Capability)
	c.subtitleTracks = level.AssignTrackIDs(d.SubtitleTracks, &c.cfg.Capability)
	c.cfg.Metrics.LevelsReplaced(len(levels))

	altAudio := false
	for _, t := range c.audioTracks {
		if t.URI != "" {
			altAudio = true
			break
		}
	}

	c.log.Info("manifest processed",
		"levels", len(levels),
		"firstLevel", firstIdx,
		"audioTracks", len(c.audioTracks),
		"subtitleTracks", len(c.subtitleTracks),
	)

	c.emit(event.ManifestParsed, event.ManifestParsedData{
		Levels:         snapshotLevels(levels),
		AudioTracks:    c.audioTracks,
		SubtitleTracks: c.subtitleTracks,
		FirstLevel:     firstIdx,
		Audio:          build.AudioCodecFound,
		Video:          build.VideoCodecFound,
		AltAudio:       altAudio,
	})

	c.seedEstimator()

	if c.cfg.AutoStartLoad {
		c.startLoad()
	}
}

// seedEstimator seeds the bandwidth estimator's default value from the
// first level's bitrate, capped at MaxSeedBps. A measured estimate or a
// user-configured default is never overridden.
func (c *LevelController) seedEstimator() {
	if c.cfg.DefaultEstimateBps != 0 {
		return
	}
	est := c.cfg.Estimator
	if est.CanEstimate() || est.DefaultEstimate() != bandwidth.DefaultEstimateBps {
		return
	}
	seed := float64(c.levels[c.firstLevelIdx].Bitrate)
	if seed > bandwidth.MaxSeedBps {
		seed = bandwidth.MaxSeedBps
	}
	if seed > 0 {
		est.SetDefaultEstimate(seed)
		c.log.Debug("seeded default bandwidth estimate", "bps", seed)
	}
}

// selectLevel is the switch state machine of the engine.
func (c *LevelController) selectLevel(newLevel int) {
	if len(c.levels) == 0 {
		return
	}
	if newLevel < 0 {
		c.emit(event.Error, event.ErrorData{
			Kind:   event.ErrInvalidLevelIndex,
			Fatal:  true,
			Reason: fmt.Sprintf("invalid level index %d", newLevel),
			Level:  newLevel,
		})
		return
	}
	if newLevel >= len(c.levels) {
		c.emit(event.Error, event.ErrorData{
			Kind:   event.ErrInvalidLevelIndex,
			Fatal:  false,
			Reason: fmt.Sprintf("level index %d out of range, clamped to %d", newLevel, len(c.levels)-1),
			Level:  newLevel,
		})
		newLevel = len(c.levels) - 1
	}

	lastIdx := c.currentLevelIndex
	var lastPathway string
	var lastDetails *playlist.LevelDetails
	if lastIdx >= 0 && lastIdx < len(c.levels) {
		lastPathway = c.levels[lastIdx].PathwayID
		lastDetails = c.levels[lastIdx].Details
	}

	lvl := c.levels[newLevel]
	// Idempotent re-selection is free: same index, details already
	// loaded, pathway unchanged.
	sameSelection := lastIdx == newLevel && lvl.PathwayID == lastPathway
	if sameSelection && lvl.Details != nil {
		return
	}

	if !sameSelection {
		c.log.Info("switching level", "from", lastIdx, "to", newLevel, "bitrate", lvl.Bitrate, "pathway", lvl.PathwayID)
		c.currentLevelIndex = newLevel
		c.cfg.Metrics.LevelSwitched(newLevel)

		c.emit(event.LevelSwitching, event.LevelSwitchingData{
			Level:         newLevel,
			PrevLevel:     lastIdx,
			Height:        lvl.Height,
			Bitrate:       lvl.Bitrate,
			Codecs:        lvl.Codecs,
			VideoRange:    lvl.VideoRange,
			PathwayID:     lvl.PathwayID,
			PrevPathwayID: lastPathway,
			URI:           lvl.URI(),
		})
	}

	if lvl.Details == nil || lvl.Details.Live {
		// Continuity hints for live playlists come from the previous
		// level's details.
		c.requestLoad(newLevel, playlist.NewDeliveryDirectives(lastDetails))
	}
}

// requestLoad dispatches a playlist (re)load when the loader's should-load
// predicate holds. This is the engine's sole trigger of network activity.
func (c *LevelController) requestLoad(index int, directives *playlist.DeliveryDirectives) {
	ld := c.cfg.Loader
	ld.ClearTimer()

	lvl := c.levels[index]
	if !ld.ShouldLoad(lvl.Details) {
		c.log.Debug("load suppressed", "level", index)
		return
	}
	ld.Dispatched()
	c.cfg.Metrics.LoadRequested()
	c.emit(event.LevelLoading, event.LevelLoadingData{
		URL:        lvl.URI(),
		Level:      index,
		URLID:      lvl.URLID,
		Directives: directives,
	})
}

// handleLevelLoaded applies the reset-on-success rules and the delta
// failure marking of the error recovery tracker.
func (c *LevelController) handleLevelLoaded(d event.LevelLoadedData) {
	if d.Level < 0 || d.Level >= len(c.levels) || d.Details == nil {
		return
	}
	lvl := c.levels[d.Level]
	if lvl.FragmentError == 0 {
		lvl.LoadError = 0
	}

	details := d.Details
	if details.IsDelta() {
		if !playlist.MergeDetails(lvl.Details, details) {
			details.DeltaUpdateFailed = true
			c.log.Warn("delta playlist update failed", "level", d.Level)
			c.emit(event.Error, event.ErrorData{
				Kind:   event.ErrDeltaUpdateFailed,
				Fatal:  false,
				Reason: "delta playlist update could not be merged",
				Level:  d.Level,
			})
		}
	}
	if !details.DeltaUpdateFailed {
		lvl.Details = details
	}

	c.cfg.Loader.Completed(true)
	if d.Level == c.currentLevelIndex {
		c.cfg.Loader.ClearTimer()
	}
}

// replaceLevels swaps in a new level sequence wholesale and re-stamps
// every retained fragment's level index to its new positional index.
func (c *LevelController) replaceLevels(newLevels []*level.Level) {
	var current *level.Level
	if c.currentLevelIndex >= 0 && c.currentLevelIndex < len(c.levels) {
		current = c.levels[c.currentLevelIndex]
	}

	c.levels = newLevels
	for i, lvl := range newLevels {
		if lvl.Details == nil {
			continue
		}
		for _, frag := range lvl.Details.Fragments {
			frag.LevelIndex = i
		}
	}
	c.cfg.Metrics.LevelsReplaced(len(newLevels))

	switch {
	case len(newLevels) == 0:
		c.currentLevelIndex = -1
	case current != nil:
		if idx := indexOfLevel(newLevels, current); idx >= 0 {
			c.currentLevelIndex = idx
		} else {
			c.log.Warn("current level removed by update, clamping", "was", c.currentLevelIndex)
			c.currentLevelIndex = min(c.currentLevelIndex, len(newLevels)-1)
		}
	case c.currentLevelIndex >= len(newLevels):
		c.currentLevelIndex = len(newLevels) - 1
	}
}

// syncAudioGroup realigns the current level's active fallback URL with an
// externally switched audio track's group.
func (c *LevelController) syncAudioGroup(trackID int) {
	if trackID < 0 || trackID >= len(c.audioTracks) {
		return
	}
	group := c.audioTracks[trackID].GroupID
	if c.currentLevelIndex < 0 || c.currentLevelIndex >= len(c.levels) {
		return
	}
	lvl := c.levels[c.currentLevelIndex]
	if len(lvl.AudioGroups) <= 1 || lvl.AudioGroupID() == group {
		return
	}
	for i, g := range lvl.AudioGroups {
		if g != group {
			continue
		}
		if i != lvl.URLID {
			c.log.Info("switching level fallback for audio group", "level", c.currentLevelIndex, "urlId", i, "group", group)
			lvl.URLID = i
			// The old URL's playlist does not describe the new fallback;
			// drop it so the fresh load is not suppressed.
			lvl.Details = nil
			c.requestLoad(c.currentLevelIndex, nil)
		}
		return
	}
}

// handleFragBuffered resets the load error counter once a main fragment
// that produced at least one elementary stream is buffered.
func (c *LevelController) handleFragBuffered(d event.FragBufferedData) {
	if d.Type != event.FragTypeMain || len(d.ElementaryStreams) == 0 {
		return
	}
	if d.Level < 0 || d.Level >= len(c.levels) {
		return
	}
	if lvl := c.levels[d.Level]; lvl.LoadError > 0 {
		c.log.Debug("fragment buffered, resetting load error count", "level", d.Level)
		lvl.LoadError = 0
	}
}

// handleError counts retryable errors and delegates the retry decision to
// the loading collaborator when the current level is affected. Fatal and
// contextless errors are ignored here.
func (c *LevelController) handleError(d event.ErrorData) {
	if d.Fatal || d.Level < 0 || d.Level >= len(c.levels) {
		return
	}
	lvl := c.levels[d.Level]
	switch d.Kind {
	case event.ErrLevelLoad:
		lvl.LoadError++
		c.cfg.Metrics.LoadError()
		c.cfg.Loader.Completed(false)
	case event.ErrFragLoad:
		lvl.FragmentError++
		c.cfg.Metrics.FragmentError()
	default:
		return
	}
	if d.Level != c.currentLevelIndex {
		return
	}
	index := d.Level
	retried := c.cfg.Loader.RetryCheck(lvl.LoadError, func() {
		c.command(func() { c.reloadCurrent(index) })
	})
	if !retried {
		c.log.Warn("retry not scheduled for level error", "level", d.Level, "loadError", lvl.LoadError)
	}
}

func (c *LevelController) reloadCurrent(index int) {
	if index != c.currentLevelIndex || index < 0 || index >= len(c.levels) {
		return
	}
	c.requestLoad(index, playlist.NewDeliveryDirectives(c.levels[index].Details))
}

func (c *LevelController) startLoad() {
	c.cfg.Loader.StartLoad()
	if len(c.levels) == 0 {
		return
	}
	c.selectLevel(c.resolveStartLevel())
}

// resolveStartLevel applies the start-level resolution order: explicit
// override, then configured start level, then the external first automatic
// suggestion.
func (c *LevelController) resolveStartLevel() int {
	v := -1
	switch {
	case c.startLevel != nil:
		v = *c.startLevel
	case c.cfg.StartLevel != nil:
		v = *c.cfg.StartLevel
	}
	if v == -1 {
		if c.cfg.Auto != nil {
			v = c.cfg.Auto.FirstAutoLevel()
		} else {
			v = c.firstLevelIdx
		}
	}
	if v < 0 {
		v = 0
	}
	return v
}

func indexOfLevel(levels []*level.Level, target *level.Level) int {
	for i, lvl := range levels {
		if lvl == target {
			return i
		}
	}
	return -1
}

func snapshotLevels(levels []*level.Level) []*level.Level {
	out := make([]*level.Level, len(levels))
	copy(out, levels)
	return out
}
