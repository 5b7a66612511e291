// Package bandwidth defines the bandwidth-estimator collaborator consulted
// by automatic level selection, plus a sliding-mean default implementation.
// The selection algorithm itself is out of scope; the engine only seeds the
// estimator's default value after manifest processing.
package bandwidth

import "sync"

// DefaultEstimateBps is the library default estimate before any sample or
// seeding, a conservative 500 kbit/s.
const DefaultEstimateBps = 500_000

// MaxSeedBps caps manifest-derived seeding of the default estimate.
const MaxSeedBps = 5_000_000

// Estimator is the bandwidth estimation collaborator.
type Estimator interface {
	// Estimate returns the current bandwidth estimate in bits per second,
	// falling back to the default estimate before any sample arrived.
	Estimate() float64

	// CanEstimate reports whether at least one real sample was recorded.
	CanEstimate() bool

	// DefaultEstimate returns the configured default in bits per second.
	DefaultEstimate() float64

	// SetDefaultEstimate replaces the default. It never overrides a real
	// measured estimate, only the fallback value.
	SetDefaultEstimate(bps float64)
}

// SlidingEstimator is a minimal Estimator keeping a decaying mean of
// throughput samples. It is safe for concurrent use.
type SlidingEstimator struct {
	mu         sync.Mutex
	defaultBps float64
	estimate   float64
	samples    int
	weight     float64
}

// NewSlidingEstimator returns an estimator holding the library default.
// Pass defaultBps = 0 to use DefaultEstimateBps.
func NewSlidingEstimator(defaultBps float64) *SlidingEstimator {
	if defaultBps <= 0 {
		defaultBps = DefaultEstimateBps
	}
	return &SlidingEstimator{defaultBps: defaultBps}
}

// Sample records a transfer of numBytes over durationSeconds.
func (e *SlidingEstimator) Sample(durationSeconds float64, numBytes int64) {
	if durationSeconds <= 0 || numBytes <= 0 {
		return
	}
	bps := float64(numBytes) * 8 / durationSeconds

	e.mu.Lock()
	defer e.mu.Unlock()
	// Decaying mean, weighting recent samples more as history accrues.
	e.weight += durationSeconds
	alpha := durationSeconds / e.weight
	e.estimate += alpha * (bps - e.estimate)
	e.samples++
}

// Estimate implements Estimator.
func (e *SlidingEstimator) Estimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.samples == 0 {
		return e.defaultBps
	}
	return e.estimate
}

// CanEstimate implements Estimator.
func (e *SlidingEstimator) CanEstimate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.samples > 0
}

// DefaultEstimate implements Estimator.
func (e *SlidingEstimator) DefaultEstimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defaultBps
}

// SetDefaultEstimate implements Estimator.
func (e *SlidingEstimator) SetDefaultEstimate(bps float64) {
	if bps <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaultBps = bps
}
