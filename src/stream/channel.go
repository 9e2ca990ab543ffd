package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"stock-deck/src/helpers"
	"stock-deck/src/logger"
	"stock-deck/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	maxMessageSize = 1024 * 1024 // 1MB for larger series payloads
)

// -----------------------------------------------------------------------------
// Topic naming
// -----------------------------------------------------------------------------

// PriceTopic returns the push topic carrying live quotes for a symbol.
func PriceTopic(symbol string) string {
	return "/topic/prices/" + symbol
}

// ChartTopic returns the push topic carrying live series for a symbol and timeframe.
func ChartTopic(symbol, timeframe string) string {
	return fmt.Sprintf("/topic/charts/%s/%s", symbol, timeframe)
}

// -----------------------------------------------------------------------------
// Channel
// -----------------------------------------------------------------------------

// topicEntry tracks the local listeners of one transport subscription.
// idleSince is set when the listener count drops to zero; the transport
// subscription itself stays open unless the idle sweep is enabled.
type topicEntry struct {
	listeners map[int]func(payload []byte)
	idleSince time.Time
}

// Channel multiplexes every logical topic over one transport connection.
// All registry mutation is serialized by mu; listener callbacks run outside
// the lock.
type Channel struct {
	Config *models.MConfig
	Logger *logger.Logger

	dialer *websocket.Dialer

	mu          sync.Mutex
	conn        *websocket.Conn
	writeMu     sync.Mutex
	gen         int
	connected   bool
	disposed    bool
	inflight    chan struct{}
	lastDialErr error

	topics    map[string]*topicEntry
	observers map[int]func(connected bool)
	nextID    int

	reconnectTimer *time.Timer
	sweepDone      chan struct{}
}

// -----------------------------------------------------------------------------

func NewChannel(cfg *models.MConfig, log *logger.Logger) *Channel {
	ch := &Channel{
		Config:    cfg,
		Logger:    log,
		dialer:    &websocket.Dialer{HandshakeTimeout: time.Duration(cfg.Backend.RequestTimeout) * time.Second},
		topics:    make(map[string]*topicEntry),
		observers: make(map[int]func(bool)),
		sweepDone: make(chan struct{}),
	}

	if cfg.Stream.IdleTopicTTLSeconds > 0 {
		go ch.sweepIdleTopics(time.Duration(cfg.Stream.IdleTopicTTLSeconds) * time.Second)
	}

	return ch
}

// -----------------------------------------------------------------------------
// Connect - coalesced dial
// -----------------------------------------------------------------------------

// Connect dials the push transport. Concurrent callers share one in-flight
// attempt; on success every registered topic is resubscribed exactly once.
func (ch *Channel) Connect(ctx context.Context) error {
	ch.mu.Lock()
	if ch.disposed {
		ch.mu.Unlock()
		return &helpers.TransportError{StockDeckError: helpers.StockDeckError{Message: "channel disposed"}}
	}
	if ch.connected {
		ch.mu.Unlock()
		return nil
	}

	// Another caller is already dialing: wait for its result.
	if ch.inflight != nil {
		wait := ch.inflight
		ch.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}

		ch.mu.Lock()
		defer ch.mu.Unlock()
		if ch.connected {
			return nil
		}
		return ch.lastDialErr
	}

	latch := make(chan struct{})
	ch.inflight = latch
	wsURL := ch.Config.Backend.WSURL
	ch.mu.Unlock()

	conn, _, err := ch.dialer.DialContext(ctx, wsURL, nil)

	ch.mu.Lock()
	ch.inflight = nil

	if err != nil {
		ch.lastDialErr = &helpers.TransportError{StockDeckError: helpers.StockDeckError{Message: "dial " + wsURL, Cause: err}}
		close(latch)
		dialErr := ch.lastDialErr
		ch.mu.Unlock()
		ch.Logger.Warning("Push transport dial failed: %v", err)
		return dialErr
	}

	if ch.disposed {
		close(latch)
		ch.mu.Unlock()
		conn.Close()
		return &helpers.TransportError{StockDeckError: helpers.StockDeckError{Message: "channel disposed"}}
	}

	conn.SetReadLimit(maxMessageSize)
	ch.conn = conn
	ch.gen++
	gen := ch.gen
	ch.connected = true
	ch.lastDialErr = nil

	topics := make([]string, 0, len(ch.topics))
	for topic := range ch.topics {
		topics = append(topics, topic)
	}
	observers := ch.copyObservers()
	close(latch)
	ch.mu.Unlock()

	ch.Logger.Info("Push transport connected, replaying %d topic(s)", len(topics))

	// Replay the topic set, one subscribe frame per topic. Messages missed
	// while disconnected are lost, not buffered.
	for _, topic := range topics {
		ch.writeCommand(conn, models.MSubscribeCommand{Command: "subscribe", Topic: topic})
	}

	for _, fn := range observers {
		fn(true)
	}

	go ch.readPump(conn, gen)
	return nil
}

// -----------------------------------------------------------------------------
// Subscribe
// -----------------------------------------------------------------------------

// Subscribe registers a listener for a topic, connecting lazily. Only the
// first listener of a topic opens a transport subscription; unsubscribing
// removes the local listener and leaves the transport subscription active.
func (ch *Channel) Subscribe(topic string, fn func(payload []byte)) func() {
	ch.mu.Lock()
	entry, exists := ch.topics[topic]
	if !exists {
		entry = &topicEntry{listeners: make(map[int]func([]byte))}
		ch.topics[topic] = entry
	}
	id := ch.nextID
	ch.nextID++
	entry.listeners[id] = fn
	entry.idleSince = time.Time{}
	connected := ch.connected
	conn := ch.conn
	ch.mu.Unlock()

	if connected {
		if !exists {
			ch.writeCommand(conn, models.MSubscribeCommand{Command: "subscribe", Topic: topic})
		}
	} else {
		go func() {
			if err := ch.Connect(context.Background()); err != nil {
				ch.Logger.Warning("Lazy connect for topic %s failed: %v", topic, err)
			}
		}()
	}

	return func() {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		e, ok := ch.topics[topic]
		if !ok {
			return
		}
		delete(e.listeners, id)
		if len(e.listeners) == 0 {
			e.idleSince = time.Now()
		}
	}
}

// -----------------------------------------------------------------------------
// Connection state observers
// -----------------------------------------------------------------------------

// OnConnectionStateChange registers a state observer. It is invoked
// immediately with the current state, then on every transition.
func (ch *Channel) OnConnectionStateChange(fn func(connected bool)) func() {
	ch.mu.Lock()
	id := ch.nextID
	ch.nextID++
	ch.observers[id] = fn
	current := ch.connected
	ch.mu.Unlock()

	fn(current)

	return func() {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		delete(ch.observers, id)
	}
}

// -----------------------------------------------------------------------------

// Connected reports the current connection state.
func (ch *Channel) Connected() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.connected
}

// -----------------------------------------------------------------------------
// Reconnect
// -----------------------------------------------------------------------------

// Reconnect tears down the current connection unconditionally and dials again
// after the configured delay. Topic registrations survive and are replayed.
func (ch *Channel) Reconnect() {
	ch.mu.Lock()
	if ch.disposed {
		ch.mu.Unlock()
		return
	}
	conn := ch.conn
	ch.conn = nil
	ch.gen++ // orphan the old read pump
	wasConnected := ch.connected
	ch.connected = false
	observers := ch.copyObservers()
	ch.scheduleReconnectLocked()
	ch.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if wasConnected {
		for _, fn := range observers {
			fn(false)
		}
	}
}

// -----------------------------------------------------------------------------

// Dispose closes the transport and stops all background work.
func (ch *Channel) Dispose() {
	ch.mu.Lock()
	if ch.disposed {
		ch.mu.Unlock()
		return
	}
	ch.disposed = true
	conn := ch.conn
	ch.conn = nil
	ch.connected = false
	if ch.reconnectTimer != nil {
		ch.reconnectTimer.Stop()
		ch.reconnectTimer = nil
	}
	close(ch.sweepDone)
	ch.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

// readPump delivers envelopes for one connection generation. A transport
// error flips the state to disconnected and schedules a reconnect; a
// malformed payload is logged and dropped without affecting other topics.
func (ch *Channel) readPump(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			ch.handleTransportError(gen, err)
			return
		}

		var env models.MPushEnvelope
		if err := json.Unmarshal(data, &env); err != nil || env.Topic == "" {
			ch.Logger.Warning("Dropping malformed push frame: %v", err)
			continue
		}

		ch.dispatch(env)
	}
}

// -----------------------------------------------------------------------------

func (ch *Channel) dispatch(env models.MPushEnvelope) {
	ch.mu.Lock()
	entry, ok := ch.topics[env.Topic]
	if !ok || len(entry.listeners) == 0 {
		// Transport subscription outlives its listeners; silently drop.
		ch.mu.Unlock()
		return
	}
	listeners := make([]func([]byte), 0, len(entry.listeners))
	for _, fn := range entry.listeners {
		listeners = append(listeners, fn)
	}
	ch.mu.Unlock()

	for _, fn := range listeners {
		fn(env.Payload)
	}
}

// -----------------------------------------------------------------------------

func (ch *Channel) handleTransportError(gen int, err error) {
	ch.mu.Lock()
	if ch.disposed || gen != ch.gen {
		// Stale pump from a connection we already replaced.
		ch.mu.Unlock()
		return
	}
	if ch.conn != nil {
		ch.conn.Close()
		ch.conn = nil
	}
	ch.connected = false
	observers := ch.copyObservers()
	ch.scheduleReconnectLocked()
	ch.mu.Unlock()

	ch.Logger.Warning("Push transport lost: %v", err)
	for _, fn := range observers {
		fn(false)
	}
}

// -----------------------------------------------------------------------------

// scheduleReconnectLocked arms the reconnect timer if none is pending.
// Caller holds mu.
func (ch *Channel) scheduleReconnectLocked() {
	if ch.reconnectTimer != nil {
		return
	}
	delay := time.Duration(ch.Config.Stream.ReconnectDelaySeconds) * time.Second
	ch.reconnectTimer = time.AfterFunc(delay, func() {
		ch.mu.Lock()
		ch.reconnectTimer = nil
		disposed := ch.disposed
		ch.mu.Unlock()
		if disposed {
			return
		}
		if err := ch.Connect(context.Background()); err != nil {
			ch.Logger.Warning("Reconnect attempt failed: %v", err)
			ch.mu.Lock()
			if !ch.disposed && !ch.connected {
				ch.scheduleReconnectLocked()
			}
			ch.mu.Unlock()
		}
	})
}

// -----------------------------------------------------------------------------

func (ch *Channel) copyObservers() []func(bool) {
	observers := make([]func(bool), 0, len(ch.observers))
	for _, fn := range ch.observers {
		observers = append(observers, fn)
	}
	return observers
}

// -----------------------------------------------------------------------------

func (ch *Channel) writeCommand(conn *websocket.Conn, cmd models.MSubscribeCommand) {
	if conn == nil {
		return
	}
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		ch.Logger.Warning("Failed to send %s frame for %s: %v", cmd.Command, cmd.Topic, err)
	}
}

// -----------------------------------------------------------------------------

// sweepIdleTopics drops transport subscriptions whose listener count has been
// zero for longer than ttl. Disabled by default; the stock policy keeps every
// topic open for the life of the session.
func (ch *Channel) sweepIdleTopics(ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ch.sweepDone:
			return
		case <-ticker.C:
		}

		now := time.Now()
		ch.mu.Lock()
		var expired []string
		for topic, entry := range ch.topics {
			if len(entry.listeners) == 0 && !entry.idleSince.IsZero() && now.Sub(entry.idleSince) >= ttl {
				expired = append(expired, topic)
				delete(ch.topics, topic)
			}
		}
		conn := ch.conn
		connected := ch.connected
		ch.mu.Unlock()

		for _, topic := range expired {
			ch.Logger.Debug("Sweeping idle topic %s", topic)
			if connected {
				ch.writeCommand(conn, models.MSubscribeCommand{Command: "unsubscribe", Topic: topic})
			}
		}
	}
}
