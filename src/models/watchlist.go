package models

// MWatchlistEntry is one symbol on a user's watchlist.
type MWatchlistEntry struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name,omitempty"`
	Price   *float64 `json:"price,omitempty"`
	AddedAt int64    `json:"addedAt,omitempty"`
}
