package server

import (
	"net/http"

	"stock-deck/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (g *Gateway) handleWebsockets() {
	for {
		select {
		case client := <-g.register:
			g.clients[client] = struct{}{}
			// Send initial state on connect
			g.stateMutex.RLock()
			if g.latestState != nil {
				client.send <- g.latestState
			}
			g.stateMutex.RUnlock()

		case client := <-g.unregister:
			if _, ok := g.clients[client]; ok {
				delete(g.clients, client)
				close(client.send)
			}

		case state := <-g.broadcast:
			// Update state and broadcast
			g.stateMutex.Lock()
			g.latestState = state
			g.stateMutex.Unlock()

			for client := range g.clients {
				select {
				case client.send <- state:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(g.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// PublishState queues a view state snapshot for fan-out. Called on every
// view update; the buffered queue absorbs animation-step bursts.
func (g *Gateway) PublishState(state models.MViewState) {
	snapshot := state
	select {
	case g.broadcast <- &snapshot:
	default:
		// Queue full: drop this snapshot, a newer one is right behind it.
		g.Logger.Debug("Broadcast queue full, dropping state snapshot")
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (g *Gateway) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		gateway: g,
		conn:    conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MViewState, 256),
	}

	g.register <- client

	go client.writePump()
	go client.readPump()
}
