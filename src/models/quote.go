package models

// MQuote represents one price snapshot for a symbol as served by the backend.
type MQuote struct {
	Symbol         string   `json:"symbol"`
	Price          float64  `json:"price"`
	Open           *float64 `json:"open,omitempty"`
	High           *float64 `json:"high,omitempty"`
	Low            *float64 `json:"low,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Change         *float64 `json:"change,omitempty"`
	ChangePercent  *float64 `json:"changePercent,omitempty"`
	Timestamp      int64    `json:"timestamp"`
	ZonedTimestamp string   `json:"zonedTimestamp,omitempty"`
}

// -----------------------------------------------------------------------------

// MSearchResult is one row of a symbol search response.
type MSearchResult struct {
	Symbol string   `json:"symbol"`
	Name   string   `json:"name"`
	Price  *float64 `json:"price,omitempty"`
}
