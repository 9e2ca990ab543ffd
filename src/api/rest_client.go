package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"stock-deck/src/helpers"
	"stock-deck/src/interfaces"
	"stock-deck/src/logger"
	"stock-deck/src/models"
)

// -----------------------------------------------------------------------------
// RestClient implements interfaces.IBackendClient against the trading
// backend's REST API. Single attempt per call, no automatic retry.
// -----------------------------------------------------------------------------

type RestClient struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
	baseURL string
}

// -----------------------------------------------------------------------------

func NewRestClient(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *RestClient {
	return &RestClient{
		Config:  cfg,
		Network: netMgr,
		Logger:  log,
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
	}
}

// -----------------------------------------------------------------------------

// NormalizeSymbol uppercases and trims a ticker. Empty after trimming is invalid.
func NormalizeSymbol(symbol string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return "", helpers.NewValidationError("symbol cannot be empty")
	}
	return sym, nil
}

// -----------------------------------------------------------------------------

// GetQuote fetches the current quote for a symbol.
func (c *RestClient) GetQuote(symbol string) (models.MQuote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return models.MQuote{}, err
	}

	body, err := c.Network.Get(fmt.Sprintf("%s/stocks/%s/price", c.baseURL, sym), map[string]string{
		"timezone": c.Config.Backend.Timezone,
	})
	if err != nil {
		return models.MQuote{}, err
	}

	var quote models.MQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return models.MQuote{}, helpers.NewFetchError("parse quote for "+sym, 0, err)
	}

	return quote, nil
}

// -----------------------------------------------------------------------------

// GetSeries fetches the historical series for a symbol and timeframe.
func (c *RestClient) GetSeries(symbol, timeframe string) (models.MSeries, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return models.MSeries{}, err
	}
	if !models.ValidTimeframe(timeframe) {
		return models.MSeries{}, helpers.NewValidationError("unknown timeframe '%s'", timeframe)
	}

	body, err := c.Network.Get(fmt.Sprintf("%s/charts/stock/%s", c.baseURL, sym), map[string]string{
		"timeframe": timeframe,
		"timezone":  c.Config.Backend.Timezone,
	})
	if err != nil {
		return models.MSeries{}, err
	}

	var series models.MSeries
	if err := json.Unmarshal(body, &series); err != nil {
		return models.MSeries{}, helpers.NewFetchError("parse series for "+sym, 0, err)
	}
	if !series.Aligned() {
		return models.MSeries{}, helpers.NewFetchError("series for "+sym, 0,
			fmt.Errorf("channel lengths do not match %d labels", series.Len()))
	}

	return series, nil
}

// -----------------------------------------------------------------------------

// Search looks up symbols by keyword. The minimum-length gate lives in the
// view; this call always hits the backend.
func (c *RestClient) Search(keyword string) ([]models.MSearchResult, error) {
	body, err := c.Network.Get(c.baseURL+"/stocks/search", map[string]string{
		"keywords": keyword,
	})
	if err != nil {
		return nil, err
	}

	var results []models.MSearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, helpers.NewFetchError("parse search results", 0, err)
	}

	return results, nil
}

// -----------------------------------------------------------------------------

// GetPortfolio fetches the portfolio snapshot for a user.
func (c *RestClient) GetPortfolio(userID string) (models.MPortfolio, error) {
	body, err := c.Network.Get(fmt.Sprintf("%s/portfolios/%s", c.baseURL, userID), nil)
	if err != nil {
		return models.MPortfolio{}, err
	}

	var portfolio models.MPortfolio
	if err := json.Unmarshal(body, &portfolio); err != nil {
		return models.MPortfolio{}, helpers.NewFetchError("parse portfolio", 0, err)
	}

	return portfolio, nil
}

// -----------------------------------------------------------------------------

// ValidateOrder rejects malformed orders before they reach the network.
func ValidateOrder(req models.MOrderRequest) error {
	if _, err := NormalizeSymbol(req.Symbol); err != nil {
		return err
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return helpers.NewValidationError("order side must be %s or %s", models.OrderSideBuy, models.OrderSideSell)
	}
	if req.Type != models.OrderTypeMarket && req.Type != models.OrderTypeLimit {
		return helpers.NewValidationError("order type must be %s or %s", models.OrderTypeMarket, models.OrderTypeLimit)
	}
	if req.Quantity <= 0 {
		return helpers.NewValidationError("order quantity must be positive")
	}
	if req.Type == models.OrderTypeLimit && (req.LimitPrice == nil || *req.LimitPrice <= 0) {
		return helpers.NewValidationError("limit orders require a positive limit price")
	}
	return nil
}

// -----------------------------------------------------------------------------

// PlaceOrder submits a simulated order after local validation.
func (c *RestClient) PlaceOrder(req models.MOrderRequest) (models.MOrder, error) {
	if err := ValidateOrder(req); err != nil {
		return models.MOrder{}, err
	}
	req.Symbol, _ = NormalizeSymbol(req.Symbol)

	body, err := c.Network.Post(c.baseURL+"/orders", req)
	if err != nil {
		return models.MOrder{}, err
	}

	var order models.MOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return models.MOrder{}, helpers.NewFetchError("parse order response", 0, err)
	}

	return order, nil
}

// -----------------------------------------------------------------------------

// ListOrders returns the user's orders.
func (c *RestClient) ListOrders(userID string) ([]models.MOrder, error) {
	body, err := c.Network.Get(fmt.Sprintf("%s/orders/user/%s", c.baseURL, userID), nil)
	if err != nil {
		return nil, err
	}

	var orders []models.MOrder
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, helpers.NewFetchError("parse orders", 0, err)
	}

	return orders, nil
}

// -----------------------------------------------------------------------------

// CancelOrder cancels one order by id.
func (c *RestClient) CancelOrder(orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return helpers.NewValidationError("order id cannot be empty")
	}
	_, err := c.Network.Post(fmt.Sprintf("%s/orders/%s/cancel", c.baseURL, orderID), nil)
	return err
}

// -----------------------------------------------------------------------------

// GetWatchlist returns the user's watchlist.
func (c *RestClient) GetWatchlist(userID string) ([]models.MWatchlistEntry, error) {
	body, err := c.Network.Get(fmt.Sprintf("%s/watchlists/%s", c.baseURL, userID), nil)
	if err != nil {
		return nil, err
	}

	var entries []models.MWatchlistEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, helpers.NewFetchError("parse watchlist", 0, err)
	}

	return entries, nil
}

// -----------------------------------------------------------------------------

// AddToWatchlist adds a symbol to the user's watchlist.
func (c *RestClient) AddToWatchlist(userID, symbol string) error {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	_, err = c.Network.Post(fmt.Sprintf("%s/watchlists/%s/%s", c.baseURL, userID, sym), nil)
	return err
}

// -----------------------------------------------------------------------------

// RemoveFromWatchlist removes a symbol from the user's watchlist.
func (c *RestClient) RemoveFromWatchlist(userID, symbol string) error {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return c.Network.Delete(fmt.Sprintf("%s/watchlists/%s/%s", c.baseURL, userID, sym))
}
