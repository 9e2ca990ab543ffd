package models

import "encoding/json"

// -----------------------------------------------------------------------------
// View state snapshot broadcast to gateway clients.
// -----------------------------------------------------------------------------

type MChartState struct {
	State         string    `json:"state"` // "IDLE", "ANIMATING" or "SETTLED"
	VisiblePoints int       `json:"visible_points"`
	TotalPoints   int       `json:"total_points"`
	AxisMin       float64   `json:"axis_min"`
	AxisMax       float64   `json:"axis_max"`
	LiveUpdate    bool      `json:"live_update"`
	Labels        []string  `json:"labels,omitempty"`
	Prices        []float64 `json:"prices,omitempty"`
}

type MViewState struct {
	Type       string      `json:"type"` // "INITIAL" or "UPDATE"
	Symbol     string      `json:"symbol"`
	Timeframe  string      `json:"timeframe"`
	Quote      *MQuote     `json:"quote,omitempty"`
	Baseline   MBaseline   `json:"baseline"`
	Chart      MChartState `json:"chart"`
	MarketOpen bool        `json:"market_open"`
	Connected  bool        `json:"connected"`
	Stale      bool        `json:"stale"`
	Timestamp  int64       `json:"timestamp"`
}

// -----------------------------------------------------------------------------

// MPushEnvelope is the wire frame delivered on the push transport.
// Payload stays raw until a topic listener decodes it; a bad payload on one
// topic must not affect the others.
type MPushEnvelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// MSubscribeCommand is the frame sent to the transport to open a topic.
type MSubscribeCommand struct {
	Command string `json:"command"`
	Topic   string `json:"topic"`
}
