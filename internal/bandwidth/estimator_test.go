package bandwidth

import "testing"

func TestNewSlidingEstimator_Defaults(t *testing.T) {
	e := NewSlidingEstimator(0)
	if e.DefaultEstimate() != DefaultEstimateBps {
		t.Errorf("Expected library default %d, got %f", DefaultEstimateBps, e.DefaultEstimate())
	}
	if e.CanEstimate() {
		t.Errorf("Expected no estimate before any sample")
	}
	if e.Estimate() != DefaultEstimateBps {
		t.Errorf("Expected estimate to fall back to default, got %f", e.Estimate())
	}

	custom := NewSlidingEstimator(2_000_000)
	if custom.DefaultEstimate() != 2_000_000 {
		t.Errorf("Expected configured default 2000000, got %f", custom.DefaultEstimate())
	}
}

func TestSlidingEstimator_Sample(t *testing.T) {
	e := NewSlidingEstimator(0)
	// 1 MB over 1 second = 8 Mbit/s.
	e.Sample(1.0, 1_000_000)
	if !e.CanEstimate() {
		t.Fatalf("Expected estimator to have a sample")
	}
	if got := e.Estimate(); got != 8_000_000 {
		t.Errorf("Expected 8 Mbit/s from first sample, got %f", got)
	}

	// A second, slower sample pulls the mean down.
	e.Sample(1.0, 500_000)
	got := e.Estimate()
	if got >= 8_000_000 || got <= 4_000_000 {
		t.Errorf("Expected mean between 4 and 8 Mbit/s, got %f", got)
	}
}

func TestSlidingEstimator_IgnoresInvalidSamples(t *testing.T) {
	e := NewSlidingEstimator(0)
	e.Sample(0, 1_000_000)
	e.Sample(1.0, 0)
	e.Sample(-1, -5)
	if e.CanEstimate() {
		t.Errorf("Expected invalid samples to be ignored")
	}
}

func TestSlidingEstimator_SetDefaultEstimate(t *testing.T) {
	e := NewSlidingEstimator(0)
	e.SetDefaultEstimate(3_000_000)
	if e.Estimate() != 3_000_000 {
		t.Errorf("Expected seeded default 3000000, got %f", e.Estimate())
	}

	// Zero and negative values are rejected.
	e.SetDefaultEstimate(0)
	if e.DefaultEstimate() != 3_000_000 {
		t.Errorf("Expected default unchanged, got %f", e.DefaultEstimate())
	}

	// A real sample takes precedence over the default.
	e.Sample(1.0, 1_000_000)
	e.SetDefaultEstimate(1_000)
	if e.Estimate() != 8_000_000 {
		t.Errorf("Expected measured estimate to win, got %f", e.Estimate())
	}
}
