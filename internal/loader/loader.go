// Package loader defines the playlist-loading capability the level engine
// composes: the should-load predicate, cancellable retry timers and the
// retry policy for non-fatal load errors. Actual network loading lives
// outside the engine; completion arrives back as notifications.
package loader

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	gobreaker "github.com/sony/gobreaker/v2"

	"abrlevels/internal/playlist"
)

// PlaylistLoader is the composed capability the controller holds. It owns
// the "may we dispatch a load right now" predicate and the retry/backoff
// timers for the active playlist.
type PlaylistLoader interface {
	// StartLoad allows load dispatching; StopLoad forbids it and is also
	// the signal that resumed loading should be treated as fresh.
	StartLoad()
	StopLoad()

	// ShouldLoad reports whether a (re)load of a playlist with the given
	// loaded details may be dispatched this tick.
	ShouldLoad(details *playlist.LevelDetails) bool

	// Dispatched and Completed bracket an in-flight load request.
	Dispatched()
	Completed(success bool)

	// ClearTimer cancels any pending retry timer. Called immediately
	// before every new load request.
	ClearTimer()

	// RetryCheck decides whether to re-trigger a load after attempt
	// consecutive failures and schedules retry when allowed. It returns
	// true when a retry was scheduled.
	RetryCheck(attempt int, retry func()) bool
}

// Config tunes the default loader's retry policy.
type Config struct {
	// MaxRetries is the consecutive-failure count that trips the breaker
	// and stops further retries until Timeout elapses.
	MaxRetries uint32

	// BackoffBase and BackoffMax bound the exponential retry delay.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Timeout is how long the breaker stays open before allowing a probe.
	Timeout time.Duration
}

func (c *Config) setDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 4
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 16 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

var errPlaylistLoad = errors.New("playlist load failed")

// Base is the default PlaylistLoader. Retry admission is a circuit breaker
// tripping on consecutive failures; the retry delay grows exponentially
// with the attempt count.
type Base struct {
	mu       sync.Mutex
	cfg      Config
	logger   hclog.Logger
	canLoad  bool
	inflight bool
	timer    *time.Timer
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// NewBase returns a stopped loader; call StartLoad to allow dispatching.
func NewBase(cfg Config, logger hclog.Logger) *Base {
	cfg.setDefaults()
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &Base{cfg: cfg, logger: logger.Named("loader")}
	b.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "playlist-load",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxRetries
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Debug("retry breaker state change", "from", from.String(), "to", to.String())
		},
	})
	return b
}

// StartLoad implements PlaylistLoader.
func (b *Base) StartLoad() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canLoad = true
}

// StopLoad implements PlaylistLoader.
func (b *Base) StopLoad() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canLoad = false
	b.inflight = false
	b.stopTimerLocked()
}

// ShouldLoad implements PlaylistLoader: loading must be started, no request
// may be in flight, and a non-live playlist that already has details does
// not need reloading.
func (b *Base) ShouldLoad(details *playlist.LevelDetails) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.canLoad || b.inflight {
		return false
	}
	return details == nil || details.Live || details.DeltaUpdateFailed
}

// Dispatched implements PlaylistLoader.
func (b *Base) Dispatched() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight = true
}

// Completed implements PlaylistLoader. Successful completions reset the
// breaker's consecutive-failure count.
func (b *Base) Completed(success bool) {
	b.mu.Lock()
	b.inflight = false
	b.mu.Unlock()

	b.breaker.Execute(func() (struct{}, error) {
		if success {
			return struct{}{}, nil
		}
		return struct{}{}, errPlaylistLoad
	})
}

// ClearTimer implements PlaylistLoader.
func (b *Base) ClearTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
}

func (b *Base) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// RetryCheck implements PlaylistLoader.
func (b *Base) RetryCheck(attempt int, retry func()) bool {
	if b.breaker.State() == gobreaker.StateOpen {
		b.logger.Warn("retry suppressed, breaker open", "attempt", attempt)
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.canLoad {
		return false
	}
	delay := b.backoff(attempt)
	b.stopTimerLocked()
	b.timer = time.AfterFunc(delay, retry)
	b.logger.Debug("retry scheduled", "attempt", attempt, "delay", delay)
	return true
}

func (b *Base) backoff(attempt int) time.Duration {
	delay := b.cfg.BackoffBase
	for i := 1; i < attempt && delay < b.cfg.BackoffMax; i++ {
		delay *= 2
	}
	if delay > b.cfg.BackoffMax {
		delay = b.cfg.BackoffMax
	}
	return delay
}
