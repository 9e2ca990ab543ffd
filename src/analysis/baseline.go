package analysis

import (
	"math"
	"strings"
	"sync"

	"stock-deck/src/models"
)

// -----------------------------------------------------------------------------
// Pure baseline math. Kept free of UI state so it can be tested alone.
// -----------------------------------------------------------------------------

// ValidPrices filters a price channel to strictly-positive finite values.
func ValidPrices(prices []float64) []float64 {
	valid := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			valid = append(valid, p)
		}
	}
	return valid
}

// -----------------------------------------------------------------------------

// ComputeChange derives the absolute and percentage change of current over
// start. A non-positive start defines the percentage as 0: no division by zero.
func ComputeChange(start, current float64) (abs, pct float64) {
	abs = current - start
	if start <= 0 {
		return abs, 0
	}
	return abs, abs / start * 100
}

// -----------------------------------------------------------------------------
// Tracker
// -----------------------------------------------------------------------------

// Tracker holds the timeframe baseline for one active symbol. A fresh
// baseline is established on every series load; accepted ticks mutate the
// current price in place.
type Tracker struct {
	mu       sync.Mutex
	symbol   string
	baseline models.MBaseline
}

// -----------------------------------------------------------------------------

func NewTracker() *Tracker {
	return &Tracker{}
}

// -----------------------------------------------------------------------------

// LoadSeries resets the baseline from a freshly loaded price channel.
// Start is the first valid price, current the last; with no valid price the
// baseline zeroes out and change computations are suppressed.
func (t *Tracker) LoadSeries(symbol string, prices []float64) {
	valid := ValidPrices(prices)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if len(valid) == 0 {
		t.baseline = models.MBaseline{}
		return
	}

	start := valid[0]
	current := valid[len(valid)-1]
	abs, pct := ComputeChange(start, current)
	t.baseline = models.MBaseline{
		StartPrice:     start,
		CurrentPrice:   current,
		AbsoluteChange: abs,
		PercentChange:  pct,
		Rising:         abs >= 0,
	}
}

// -----------------------------------------------------------------------------

// ApplyTick recomputes the baseline for a live tick. The tick is accepted
// only when its symbol matches the active one (case-insensitive) and a
// positive start price exists.
func (t *Tracker) ApplyTick(symbol string, price float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.symbol == "" || !strings.EqualFold(symbol, t.symbol) {
		return false
	}
	if t.baseline.StartPrice <= 0 {
		return false
	}

	abs, pct := ComputeChange(t.baseline.StartPrice, price)
	t.baseline.CurrentPrice = price
	t.baseline.AbsoluteChange = abs
	t.baseline.PercentChange = pct
	t.baseline.Rising = abs >= 0
	return true
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the current baseline.
func (t *Tracker) Snapshot() models.MBaseline {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baseline
}

// -----------------------------------------------------------------------------

// Symbol returns the active symbol the tracker accepts ticks for.
func (t *Tracker) Symbol() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.symbol
}
