package chart

import (
	"sync"
	"time"

	"stock-deck/src/analysis"
	"stock-deck/src/logger"
	"stock-deck/src/models"
)

// -----------------------------------------------------------------------------
// Renderer states
// -----------------------------------------------------------------------------

const (
	StateIdle      = "IDLE"
	StateAnimating = "ANIMATING"
	StateSettled   = "SETTLED"
)

const axisPadding = 0.05

// -----------------------------------------------------------------------------
// Renderer
// -----------------------------------------------------------------------------

// Renderer progressively reveals one series. Full reloads within the
// animation band play a bounded step animation; live appends become visible
// immediately and flag a transient live indicator. The value-axis range is
// always derived from the complete dataset so it never moves mid-animation.
type Renderer struct {
	Config models.MChartConfig
	Logger *logger.Logger

	mu        sync.Mutex
	series    models.MSeries
	timeframe string
	state     string
	visible   int
	live      bool

	animStop  chan struct{}
	liveTimer *time.Timer
	liveGen   int

	onChange func()
}

// -----------------------------------------------------------------------------

// NewRenderer creates a renderer in the Idle state. onChange, when non-nil,
// fires after every visible-state transition (animation step, settle, live
// flag changes).
func NewRenderer(cfg models.MChartConfig, log *logger.Logger, onChange func()) *Renderer {
	return &Renderer{
		Config:   cfg,
		Logger:   log,
		state:    StateIdle,
		onChange: onChange,
	}
}

// -----------------------------------------------------------------------------

func (r *Renderer) eligibleTimeframe(tf string) bool {
	for _, t := range r.Config.EligibleTimeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// SetSeries installs a series. A reload keeping the series identity and
// growing by at most LiveAppendMax points is treated as a live append; any
// other reload restarts the reveal from scratch.
func (r *Renderer) SetSeries(series models.MSeries, timeframe string) {
	r.mu.Lock()

	total := series.Len()
	grown := total - r.series.Len()
	liveAppend := r.state != StateIdle &&
		series.Title == r.series.Title &&
		timeframe == r.timeframe &&
		grown >= 0 && grown <= r.Config.LiveAppendMax

	if liveAppend {
		r.series = series
		r.applyLiveLocked(total)
		return // applyLiveLocked unlocks and notifies
	}

	// Full reload: the pending animation (if any) dies with the old series.
	r.cancelAnimLocked()
	r.cancelLiveLocked()
	r.series = series
	r.timeframe = timeframe

	if total == 0 {
		r.state = StateIdle
		r.visible = 0
		r.mu.Unlock()
		r.notify()
		return
	}

	animate := total >= r.Config.MinAnimatedPoints &&
		total <= r.Config.MaxAnimatedPoints &&
		r.eligibleTimeframe(timeframe)

	if !animate {
		r.state = StateSettled
		r.visible = total
		r.mu.Unlock()
		r.notify()
		return
	}

	r.state = StateAnimating
	r.visible = r.Config.InitialVisible
	if r.visible > total {
		r.visible = total
	}
	stop := make(chan struct{})
	r.animStop = stop
	interval := time.Duration(r.Config.StepIntervalMs) * time.Millisecond
	r.mu.Unlock()
	r.notify()

	go r.animate(stop, interval)
}

// -----------------------------------------------------------------------------

// AppendPoint grows the series by one live sample, bypassing animation.
func (r *Renderer) AppendPoint(label string, price float64) {
	r.mu.Lock()
	if r.state == StateIdle {
		r.mu.Unlock()
		return
	}
	r.series.Append(label, map[string]float64{models.PriceChannel: price})
	r.applyLiveLocked(r.series.Len())
}

// -----------------------------------------------------------------------------

// applyLiveLocked makes appended points visible immediately and arms the
// transient live indicator. Takes ownership of the held lock.
func (r *Renderer) applyLiveLocked(total int) {
	if r.state != StateAnimating {
		// Settled charts track the tip; an in-flight animation keeps its
		// own pace and picks the new points up at settle time.
		r.state = StateSettled
		r.visible = total
	}
	r.live = true
	r.liveGen++
	gen := r.liveGen

	if r.liveTimer != nil {
		r.liveTimer.Stop()
	}
	r.liveTimer = time.AfterFunc(time.Duration(r.Config.LiveIndicatorMs)*time.Millisecond, func() {
		r.mu.Lock()
		if r.liveGen != gen {
			r.mu.Unlock()
			return
		}
		r.live = false
		r.mu.Unlock()
		r.notify()
	})
	r.mu.Unlock()
	r.notify()
}

// -----------------------------------------------------------------------------

// animate grows the visible count by StepPoints each tick until the full
// series is shown. The stop channel orphans the task when the series changes.
func (r *Renderer) animate(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		if r.animStop != stop {
			r.mu.Unlock()
			return
		}

		total := r.series.Len()
		r.visible += r.Config.StepPoints
		if r.visible >= total {
			r.visible = total
			r.state = StateSettled
			r.animStop = nil
			r.mu.Unlock()
			r.notify()
			return
		}
		r.mu.Unlock()
		r.notify()
	}
}

// -----------------------------------------------------------------------------

// AxisRange returns the padded value-axis bounds computed from the complete
// dataset, never the visible slice.
func (r *Renderer) AxisRange() (min, max float64) {
	r.mu.Lock()
	prices := r.series.Prices()
	r.mu.Unlock()
	return axisRange(prices)
}

func axisRange(prices []float64) (min, max float64) {
	valid := analysis.ValidPrices(prices)
	if len(valid) == 0 {
		return 0, 0
	}

	min, max = valid[0], valid[0]
	for _, p := range valid[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	pad := (max - min) * axisPadding
	if pad == 0 {
		pad = max * axisPadding
	}
	return min - pad, max + pad
}

// -----------------------------------------------------------------------------

// Snapshot returns the renderer state for broadcasting, including the
// currently visible slice of the series.
func (r *Renderer) Snapshot() models.MChartState {
	r.mu.Lock()
	defer r.mu.Unlock()

	axisMin, axisMax := axisRange(r.series.Prices())
	snap := models.MChartState{
		State:         r.state,
		VisiblePoints: r.visible,
		TotalPoints:   r.series.Len(),
		AxisMin:       axisMin,
		AxisMax:       axisMax,
		LiveUpdate:    r.live,
	}

	if r.visible > 0 {
		snap.Labels = append([]string(nil), r.series.Labels[:r.visible]...)
		if prices := r.series.Prices(); len(prices) >= r.visible {
			snap.Prices = append([]float64(nil), prices[:r.visible]...)
		}
	}

	return snap
}

// -----------------------------------------------------------------------------

// State returns the current state name.
func (r *Renderer) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// VisiblePoints returns the number of currently revealed points.
func (r *Renderer) VisiblePoints() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// LiveUpdate reports whether the transient live indicator is set.
func (r *Renderer) LiveUpdate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// -----------------------------------------------------------------------------

// Close cancels every pending timer. The renderer stays usable but idle.
func (r *Renderer) Close() {
	r.mu.Lock()
	r.cancelAnimLocked()
	r.cancelLiveLocked()
	r.state = StateIdle
	r.visible = 0
	r.series = models.MSeries{}
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (r *Renderer) cancelAnimLocked() {
	if r.animStop != nil {
		close(r.animStop)
		r.animStop = nil
	}
}

func (r *Renderer) cancelLiveLocked() {
	if r.liveTimer != nil {
		r.liveTimer.Stop()
		r.liveTimer = nil
	}
	r.live = false
	r.liveGen++
}

// -----------------------------------------------------------------------------

func (r *Renderer) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
