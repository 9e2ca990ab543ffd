package models

// -----------------------------------------------------------------------------
// Portfolio snapshot as served by GET /portfolios/{userId}.
// -----------------------------------------------------------------------------

type MHolding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	AvgCost      float64 `json:"avgCost"`
	CurrentPrice float64 `json:"currentPrice"`
	MarketValue  float64 `json:"marketValue"`
	GainLoss     float64 `json:"gainLoss"`
}

type MPortfolio struct {
	UserID      string     `json:"userId"`
	CashBalance float64    `json:"cashBalance"`
	TotalValue  float64    `json:"totalValue"`
	Holdings    []MHolding `json:"holdings"`
}
