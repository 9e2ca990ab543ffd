package chart

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"stock-deck/src/logger"
	"stock-deck/src/models"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func testChartConfig() models.MChartConfig {
	return models.MChartConfig{
		MinAnimatedPoints:  20,
		MaxAnimatedPoints:  300,
		InitialVisible:     8,
		StepPoints:         6,
		StepIntervalMs:     5, // tightened for tests
		LiveIndicatorMs:    40,
		LiveAppendMax:      3,
		EligibleTimeframes: []string{models.Timeframe1D, models.Timeframe1W, models.Timeframe1M},
	}
}

func monotonicSeries(title string, n int, base float64) models.MSeries {
	s := models.MSeries{Title: title, Channels: map[string][]float64{models.PriceChannel: {}}}
	for i := 0; i < n; i++ {
		s.Labels = append(s.Labels, fmt.Sprintf("t%d", i+1))
		s.Channels[models.PriceChannel] = append(s.Channels[models.PriceChannel], base+float64(i))
	}
	return s
}

type visibleRecorder struct {
	mu     sync.Mutex
	counts []int
	r      *Renderer
}

func (vr *visibleRecorder) record() {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	vr.counts = append(vr.counts, vr.r.VisiblePoints())
}

func (vr *visibleRecorder) snapshot() []int {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	return append([]int(nil), vr.counts...)
}

func waitForState(t *testing.T, r *Renderer, state string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.State() == state {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("renderer never reached state %s (currently %s)", state, r.State())
}

// -----------------------------------------------------------------------------

func TestAnimatedRevealSettlesAtTotal(t *testing.T) {
	// 25 points on an eligible timeframe: 8 -> 14 -> 20 -> 25
	vr := &visibleRecorder{}
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), vr.record)
	vr.r = r
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 25, 100), models.Timeframe1M)

	if r.State() != StateAnimating {
		t.Fatalf("expected ANIMATING after eligible reload, got %s", r.State())
	}
	if r.VisiblePoints() != 8 {
		t.Fatalf("expected initial visible count 8, got %d", r.VisiblePoints())
	}

	waitForState(t, r, StateSettled)

	if r.VisiblePoints() != 25 {
		t.Errorf("expected 25 visible at settle, got %d", r.VisiblePoints())
	}

	// Visible counts must be monotonically non-decreasing
	counts := vr.snapshot()
	prev := 0
	for _, c := range counts {
		if c < prev {
			t.Fatalf("visible count decreased: %v", counts)
		}
		prev = c
	}

	// The step sequence is 8, 14, 20 then clamped to 25
	want := map[int]bool{8: false, 14: false, 20: false, 25: false}
	for _, c := range counts {
		if _, ok := want[c]; ok {
			want[c] = true
		}
	}
	for step, seen := range want {
		if !seen {
			t.Errorf("expected step %d in reveal sequence %v", step, counts)
		}
	}
}

// -----------------------------------------------------------------------------

func TestIneligibleTimeframeSettlesImmediately(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 25, 100), models.Timeframe5Y)

	if r.State() != StateSettled {
		t.Errorf("expected SETTLED for ineligible timeframe, got %s", r.State())
	}
	if r.VisiblePoints() != 25 {
		t.Errorf("expected all 25 points visible, got %d", r.VisiblePoints())
	}
}

// -----------------------------------------------------------------------------

func TestPointCountOutsideBandSettlesImmediately(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	// Below the band
	r.SetSeries(monotonicSeries("AAPL", 10, 100), models.Timeframe1D)
	if r.State() != StateSettled || r.VisiblePoints() != 10 {
		t.Errorf("10 points: expected immediate settle at 10, got %s/%d", r.State(), r.VisiblePoints())
	}

	// Above the band
	r.SetSeries(monotonicSeries("AAPL", 301, 100), models.Timeframe1D)
	if r.State() != StateSettled || r.VisiblePoints() != 301 {
		t.Errorf("301 points: expected immediate settle at 301, got %s/%d", r.State(), r.VisiblePoints())
	}
}

// -----------------------------------------------------------------------------

func TestLiveAppendSkipsAnimation(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 10, 100), models.Timeframe1D)
	waitForState(t, r, StateSettled)

	// Growth by 2 points with the same identity is a live append
	r.SetSeries(monotonicSeries("AAPL", 12, 100), models.Timeframe1D)

	if r.State() != StateSettled {
		t.Errorf("live append must not animate, got %s", r.State())
	}
	if r.VisiblePoints() != 12 {
		t.Errorf("appended points must be visible immediately, got %d", r.VisiblePoints())
	}
	if !r.LiveUpdate() {
		t.Error("expected live update indicator set")
	}

	// Indicator clears after the configured duration
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && r.LiveUpdate() {
		time.Sleep(5 * time.Millisecond)
	}
	if r.LiveUpdate() {
		t.Error("live update indicator never cleared")
	}
}

// -----------------------------------------------------------------------------

func TestAppendPointVisibleImmediately(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 10, 100), models.Timeframe1D)
	r.AppendPoint("t11", 110)

	if r.VisiblePoints() != 11 {
		t.Errorf("expected 11 visible after live append, got %d", r.VisiblePoints())
	}
	if !r.LiveUpdate() {
		t.Error("expected live update indicator after append")
	}
}

// -----------------------------------------------------------------------------

func TestAxisRangeFromCompleteDataset(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 25, 100), models.Timeframe1M)

	// While animating, only 8 points (100..107) are visible, but the axis
	// must cover the full 100..124 range plus padding.
	min, max := r.AxisRange()
	if min >= 100 {
		t.Errorf("axis min must sit below the dataset minimum, got %v", min)
	}
	if max <= 124 {
		t.Errorf("axis max must sit above the dataset maximum (124), got %v", max)
	}

	waitForState(t, r, StateSettled)

	settledMin, settledMax := r.AxisRange()
	if settledMin != min || settledMax != max {
		t.Errorf("axis range moved during reveal: (%v,%v) -> (%v,%v)", min, max, settledMin, settledMax)
	}
}

// -----------------------------------------------------------------------------

func TestSeriesChangeCancelsPendingAnimation(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 100, 100), models.Timeframe1M)
	if r.State() != StateAnimating {
		t.Fatalf("expected ANIMATING, got %s", r.State())
	}

	// Switching identity mid-animation restarts the reveal for the new series
	r.SetSeries(monotonicSeries("MSFT", 25, 300), models.Timeframe1M)
	waitForState(t, r, StateSettled)

	if r.VisiblePoints() != 25 {
		t.Errorf("expected the new series' 25 points, got %d", r.VisiblePoints())
	}
}

// -----------------------------------------------------------------------------

func TestCloseStopsTimers(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)

	r.SetSeries(monotonicSeries("AAPL", 100, 100), models.Timeframe1M)
	r.Close()

	if r.State() != StateIdle {
		t.Errorf("expected IDLE after close, got %s", r.State())
	}

	visible := r.VisiblePoints()
	time.Sleep(30 * time.Millisecond)
	if r.VisiblePoints() != visible {
		t.Error("animation kept running after Close")
	}
}

// -----------------------------------------------------------------------------

func TestSnapshotSlicesVisibleWindow(t *testing.T) {
	r := NewRenderer(testChartConfig(), logger.NewLogger("INFO", "test"), nil)
	defer r.Close()

	r.SetSeries(monotonicSeries("AAPL", 25, 100), models.Timeframe1M)

	snap := r.Snapshot()
	if snap.TotalPoints != 25 {
		t.Errorf("expected 25 total points, got %d", snap.TotalPoints)
	}
	if len(snap.Labels) != snap.VisiblePoints || len(snap.Prices) != snap.VisiblePoints {
		t.Errorf("snapshot slice lengths (%d labels, %d prices) disagree with visible count %d",
			len(snap.Labels), len(snap.Prices), snap.VisiblePoints)
	}
}
