package interfaces

import "stock-deck/src/models"

// -----------------------------------------------------------------------------
// IBackendClient defines the request/response surface of the trading backend.
// Every call is a single attempt; retry policy belongs to the caller.
// -----------------------------------------------------------------------------

type IBackendClient interface {

	// GetQuote fetches the current quote for a symbol.
	GetQuote(symbol string) (models.MQuote, error)

	// -----------------------------------------------------------------------------

	// GetSeries fetches the historical series for a symbol and timeframe.
	GetSeries(symbol, timeframe string) (models.MSeries, error)

	// -----------------------------------------------------------------------------

	// Search looks up symbols by keyword.
	Search(keyword string) ([]models.MSearchResult, error)

	// -----------------------------------------------------------------------------

	// GetPortfolio fetches the portfolio snapshot for a user.
	GetPortfolio(userID string) (models.MPortfolio, error)

	// -----------------------------------------------------------------------------

	// PlaceOrder submits a simulated order after local validation.
	PlaceOrder(req models.MOrderRequest) (models.MOrder, error)

	// ListOrders returns the user's orders, newest first.
	ListOrders(userID string) ([]models.MOrder, error)

	// CancelOrder cancels one order by id.
	CancelOrder(orderID string) error

	// -----------------------------------------------------------------------------

	// GetWatchlist returns the user's watchlist.
	GetWatchlist(userID string) ([]models.MWatchlistEntry, error)

	// AddToWatchlist adds a symbol to the user's watchlist.
	AddToWatchlist(userID, symbol string) error

	// RemoveFromWatchlist removes a symbol from the user's watchlist.
	RemoveFromWatchlist(userID, symbol string) error
}
