package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"stock-deck/src/helpers"
	"stock-deck/src/interfaces"
	"stock-deck/src/logger"
	"stock-deck/src/models"
	"stock-deck/src/view"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Gateway re-serves the synchronized view state to local UI clients over
// REST and a WebSocket fan-out, and exposes the manual control actions
// (view switch, reconnect).
// -----------------------------------------------------------------------------

type Gateway struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	View    *view.TickerView
	Backend interfaces.IBackendClient
	Channel interfaces.IPushChannel
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MViewState
	register   chan *Client
	unregister chan *Client

	// Local cache
	latestState *models.MViewState
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewGateway(
	cfg *models.MConfig,
	log *logger.Logger,
	v *view.TickerView,
	backend interfaces.IBackendClient,
	channel interfaces.IPushChannel,
) *Gateway {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	g := &Gateway{
		Config:  cfg,
		Logger:  log,
		View:    v,
		Backend: backend,
		Channel: channel,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel so view updates never block on slow clients
		broadcast:   make(chan *models.MViewState, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		latestState: &models.MViewState{Type: "INITIAL"},
	}

	// Add CORS Middleware for local UIs
	g.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	g.setupRoutes()
	return g
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (g *Gateway) setupRoutes() {
	// REST API endpoints
	g.engine.GET("/api/health", g.getHealth)
	g.engine.GET("/api/state", g.getState)
	g.engine.POST("/api/view", g.postView)
	g.engine.GET("/api/search", g.getSearch)
	g.engine.GET("/api/ticks", g.getTicks)
	g.engine.POST("/api/reconnect", g.postReconnect)

	// Pass-through to the trading backend
	g.engine.GET("/api/portfolio", g.getPortfolio)
	g.engine.GET("/api/orders", g.getOrders)
	g.engine.POST("/api/orders", g.postOrder)
	g.engine.POST("/api/orders/:id/cancel", g.postCancelOrder)
	g.engine.GET("/api/watchlist", g.getWatchlist)
	g.engine.POST("/api/watchlist/:symbol", g.postWatchlist)
	g.engine.DELETE("/api/watchlist/:symbol", g.deleteWatchlist)

	// WebSocket endpoint
	g.engine.GET("/ws", g.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.Config.Host, g.Config.Port)
	g.Logger.Info("Starting gateway on %s", addr)

	go g.handleWebsockets()

	return g.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (g *Gateway) Stop() error {
	close(g.broadcast)
	close(g.register)
	close(g.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (g *Gateway) getHealth(c *gin.Context) {
	g.stateMutex.RLock()
	connections := len(g.clients)
	timestamp := g.latestState.Timestamp
	g.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"connections":    connections,
		"push_connected": g.Channel.Connected(),
		"latest_update":  timestamp,
	})
}

// -----------------------------------------------------------------------------

func (g *Gateway) getState(c *gin.Context) {
	c.JSON(http.StatusOK, g.View.Snapshot())
}

// -----------------------------------------------------------------------------

func (g *Gateway) postView(c *gin.Context) {
	var req struct {
		Symbol    string `json:"symbol"`
		Timeframe string `json:"timeframe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := g.View.Configure(req.Symbol, req.Timeframe); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, g.View.Snapshot())
}

// -----------------------------------------------------------------------------

func (g *Gateway) getSearch(c *gin.Context) {
	results, err := g.View.SearchSymbols(c.Query("keywords"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// -----------------------------------------------------------------------------

func (g *Gateway) getTicks(c *gin.Context) {
	c.JSON(http.StatusOK, g.View.RecentTicks())
}

// -----------------------------------------------------------------------------

func (g *Gateway) postReconnect(c *gin.Context) {
	g.Channel.Reconnect()
	c.JSON(http.StatusAccepted, gin.H{"status": "reconnecting"})
}

// -----------------------------------------------------------------------------
// Backend pass-through
// -----------------------------------------------------------------------------

func (g *Gateway) getPortfolio(c *gin.Context) {
	portfolio, err := g.Backend.GetPortfolio(g.Config.Backend.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// -----------------------------------------------------------------------------

func (g *Gateway) getOrders(c *gin.Context) {
	orders, err := g.Backend.ListOrders(g.Config.Backend.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// -----------------------------------------------------------------------------

func (g *Gateway) postOrder(c *gin.Context) {
	var req models.MOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.UserID = g.Config.Backend.UserID

	order, err := g.Backend.PlaceOrder(req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// -----------------------------------------------------------------------------

func (g *Gateway) postCancelOrder(c *gin.Context) {
	if err := g.Backend.CancelOrder(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// -----------------------------------------------------------------------------

func (g *Gateway) getWatchlist(c *gin.Context) {
	entries, err := g.Backend.GetWatchlist(g.Config.Backend.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// -----------------------------------------------------------------------------

func (g *Gateway) postWatchlist(c *gin.Context) {
	if err := g.Backend.AddToWatchlist(g.Config.Backend.UserID, c.Param("symbol")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

// -----------------------------------------------------------------------------

func (g *Gateway) deleteWatchlist(c *gin.Context) {
	if err := g.Backend.RemoveFromWatchlist(g.Config.Backend.UserID, c.Param("symbol")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// -----------------------------------------------------------------------------

// statusFor maps client-side validation failures to 400 and everything else
// (backend/network failures) to 502.
func statusFor(err error) int {
	var vErr *helpers.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
