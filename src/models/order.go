package models

// -----------------------------------------------------------------------------
// Simulated order entry against POST /orders.
// -----------------------------------------------------------------------------

const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"

	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

// MOrderRequest is the client-side order form payload.
type MOrderRequest struct {
	UserID     string   `json:"userId"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Type       string   `json:"type"`
	Quantity   float64  `json:"quantity"`
	LimitPrice *float64 `json:"limitPrice,omitempty"`
}

// MOrder is a placed order as echoed back by the backend.
type MOrder struct {
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Type       string   `json:"type"`
	Quantity   float64  `json:"quantity"`
	LimitPrice *float64 `json:"limitPrice,omitempty"`
	Status     string   `json:"status"`
	FillPrice  *float64 `json:"fillPrice,omitempty"`
	CreatedAt  int64    `json:"createdAt"`
}
