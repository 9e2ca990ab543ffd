package interfaces

import "context"

// -----------------------------------------------------------------------------
// IPushChannel is the process-wide live update channel. One physical
// connection multiplexes every logical topic.
// -----------------------------------------------------------------------------

type IPushChannel interface {

	// Connect establishes the transport connection. Idempotent: concurrent
	// callers share one in-flight attempt. On success every registered topic
	// is resubscribed; messages lost during a disconnect are not replayed.
	Connect(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Subscribe registers a listener for a topic, connecting lazily. At most
	// one transport-level subscription exists per topic regardless of
	// listener count. The returned function removes the local listener only;
	// the transport subscription deliberately stays open.
	Subscribe(topic string, fn func(payload []byte)) (unsubscribe func())

	// -----------------------------------------------------------------------------

	// OnConnectionStateChange registers a state observer. The observer is
	// invoked immediately with the current state, then on every transition.
	OnConnectionStateChange(fn func(connected bool)) (unsubscribe func())

	// -----------------------------------------------------------------------------

	// Reconnect tears down the current connection unconditionally and dials
	// again after the configured delay. Topic registrations survive.
	Reconnect()

	// -----------------------------------------------------------------------------

	// Connected reports the current connection state.
	Connected() bool

	// Dispose closes the transport and stops all background work.
	Dispose()
}

// -----------------------------------------------------------------------------
// IRecorder persists accepted ticks for later analysis. Optional: view,
// baseline and chart state never touch storage.
// -----------------------------------------------------------------------------

type IRecorder interface {

	// Initialize opens the store and creates the session schema.
	Initialize() error

	// RecordTick appends one accepted tick.
	RecordTick(symbol string, price float64, timestamp int64) error

	// Close releases the underlying store.
	Close() error
}

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests against the backend.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a GET request to the specified URL with query parameters.
	Get(url string, params map[string]string) ([]byte, error)

	// Post performs a POST request with a JSON body (nil for empty).
	Post(url string, body interface{}) ([]byte, error)

	// Delete performs a DELETE request.
	Delete(url string) error
}
