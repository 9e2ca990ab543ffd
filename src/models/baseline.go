package models

// MBaseline is the timeframe reference pair used for percentage-change math.
// Created fresh whenever the active symbol or timeframe changes, mutated in
// place on each accepted live tick, never persisted.
type MBaseline struct {
	StartPrice     float64 `json:"start_price"`
	CurrentPrice   float64 `json:"current_price"`
	AbsoluteChange float64 `json:"absolute_change"`
	PercentChange  float64 `json:"percent_change"`
	Rising         bool    `json:"rising"`
}

// -----------------------------------------------------------------------------

// Valid reports whether change computations are meaningful.
func (b MBaseline) Valid() bool {
	return b.StartPrice > 0
}
