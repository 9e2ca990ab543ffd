package view

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"stock-deck/src/logger"
	"stock-deck/src/models"
	"stock-deck/src/stream"
	"stock-deck/src/utils"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeBackend struct {
	mu          sync.Mutex
	searchCalls int
	series      map[string]models.MSeries // keyed by timeframe
	quote       models.MQuote
	quoteErr    error
}

func (f *fakeBackend) GetQuote(symbol string) (models.MQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quoteErr != nil {
		return models.MQuote{}, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeBackend) GetSeries(symbol, timeframe string) (models.MSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.series[timeframe], nil
}

func (f *fakeBackend) Search(keyword string) ([]models.MSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return []models.MSearchResult{{Symbol: "AAPL", Name: "Apple Inc."}}, nil
}

func (f *fakeBackend) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeBackend) GetPortfolio(string) (models.MPortfolio, error) { return models.MPortfolio{}, nil }
func (f *fakeBackend) PlaceOrder(models.MOrderRequest) (models.MOrder, error) {
	return models.MOrder{}, nil
}
func (f *fakeBackend) ListOrders(string) ([]models.MOrder, error)           { return nil, nil }
func (f *fakeBackend) CancelOrder(string) error                             { return nil }
func (f *fakeBackend) GetWatchlist(string) ([]models.MWatchlistEntry, error) { return nil, nil }
func (f *fakeBackend) AddToWatchlist(string, string) error                  { return nil }
func (f *fakeBackend) RemoveFromWatchlist(string, string) error             { return nil }

// -----------------------------------------------------------------------------

type fakeChannel struct {
	mu        sync.Mutex
	listeners map[string][]func([]byte)
	observers []func(bool)
	connected bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{listeners: make(map[string][]func([]byte))}
}

func (c *fakeChannel) Connect(ctx context.Context) error { return nil }

func (c *fakeChannel) Subscribe(topic string, fn func([]byte)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[topic] = append(c.listeners[topic], fn)
	return func() {}
}

func (c *fakeChannel) OnConnectionStateChange(fn func(bool)) func() {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	current := c.connected
	c.mu.Unlock()
	fn(current)
	return func() {}
}

func (c *fakeChannel) Reconnect()      {}
func (c *fakeChannel) Connected() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.connected }
func (c *fakeChannel) Dispose()        {}

func (c *fakeChannel) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for topic := range c.listeners {
		out = append(out, topic)
	}
	return out
}

func (c *fakeChannel) push(t *testing.T, topic string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	c.mu.Lock()
	fns := append([]func([]byte){}, c.listeners[topic]...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
}

// -----------------------------------------------------------------------------

func testViewConfig() *models.MConfig {
	return &models.MConfig{
		Poll:   models.MPollConfig{OpenIntervalSeconds: 60, ClosedIntervalSeconds: 120},
		Search: models.MSearchConfig{MinKeywordLength: 2},
		Chart: models.MChartConfig{
			MinAnimatedPoints:  20,
			MaxAnimatedPoints:  300,
			InitialVisible:     8,
			StepPoints:         6,
			StepIntervalMs:     5,
			LiveIndicatorMs:    40,
			LiveAppendMax:      3,
			EligibleTimeframes: []string{models.Timeframe1D},
			MaxLivePoints:      100,
		},
	}
}

func seriesOf(title string, prices ...float64) models.MSeries {
	s := models.MSeries{Title: title, Channels: map[string][]float64{models.PriceChannel: {}}}
	for i, p := range prices {
		s.Labels = append(s.Labels, "t"+string(rune('1'+i)))
		s.Channels[models.PriceChannel] = append(s.Channels[models.PriceChannel], p)
	}
	return s
}

func newTestView(backend *fakeBackend, channel *fakeChannel) *TickerView {
	log := logger.NewLogger("INFO", "test")
	return NewTickerView(testViewConfig(), log, backend, channel, utils.NewMarketScheduler(log), nil, nil)
}

// -----------------------------------------------------------------------------

func TestSearchMinKeywordLength(t *testing.T) {
	backend := &fakeBackend{}
	v := newTestView(backend, newFakeChannel())
	defer v.Close()

	// Single-character keyword: no request, cleared results
	results, err := v.SearchSymbols("a")
	if err != nil {
		t.Fatalf("SearchSymbols failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results for short keyword, got %v", results)
	}
	if backend.searchCount() != 0 {
		t.Errorf("short keyword must not hit the network, saw %d calls", backend.searchCount())
	}

	// At the threshold the request goes out
	if _, err := v.SearchSymbols("ap"); err != nil {
		t.Fatalf("SearchSymbols failed: %v", err)
	}
	if backend.searchCount() != 1 {
		t.Errorf("expected 1 search call, got %d", backend.searchCount())
	}
}

// -----------------------------------------------------------------------------

func TestConfigureEstablishesBaselineAndTopics(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140, 142, 145),
		},
		quote: models.MQuote{Symbol: "AAPL", Price: 145},
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	if err := v.Configure("aapl", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	b := v.Tracker.Snapshot()
	if b.StartPrice != 140 || b.CurrentPrice != 145 {
		t.Errorf("unexpected baseline: %+v", b)
	}

	topics := channel.topics()
	wantPrice := stream.PriceTopic("AAPL")
	wantChart := stream.ChartTopic("AAPL", models.Timeframe1D)
	found := map[string]bool{}
	for _, topic := range topics {
		found[topic] = true
	}
	if !found[wantPrice] || !found[wantChart] {
		t.Errorf("expected topics %s and %s, got %v", wantPrice, wantChart, topics)
	}

	state := v.Snapshot()
	if state.Symbol != "AAPL" || state.Timeframe != models.Timeframe1D {
		t.Errorf("unexpected view state: %+v", state)
	}
}

// -----------------------------------------------------------------------------

func TestLiveTickFlowsThroughBaselineAndChart(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140, 141, 142),
		},
		quote: models.MQuote{Symbol: "AAPL", Price: 142},
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	if err := v.Configure("AAPL", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	visibleBefore := v.Renderer.VisiblePoints()

	channel.push(t, stream.PriceTopic("AAPL"), models.MQuote{Symbol: "AAPL", Price: 150, Timestamp: 1700000000})

	b := v.Tracker.Snapshot()
	if b.CurrentPrice != 150 {
		t.Errorf("tick did not reach the baseline: %+v", b)
	}
	if b.AbsoluteChange != 10 {
		t.Errorf("expected absolute change 10, got %v", b.AbsoluteChange)
	}
	if v.Renderer.VisiblePoints() != visibleBefore+1 {
		t.Errorf("tick did not append to the chart: %d -> %d", visibleBefore, v.Renderer.VisiblePoints())
	}

	state := v.Snapshot()
	if state.Quote == nil || state.Quote.Price != 150 {
		t.Errorf("quote not refreshed by tick: %+v", state.Quote)
	}
}

// -----------------------------------------------------------------------------

func TestTickForOtherSymbolIgnored(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140),
		},
		quote: models.MQuote{Symbol: "AAPL", Price: 140},
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	if err := v.Configure("AAPL", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	if v.ApplyTick(models.MQuote{Symbol: "MSFT", Price: 999}) {
		t.Error("tick for another symbol must be rejected")
	}
	if b := v.Tracker.Snapshot(); b.CurrentPrice != 140 {
		t.Errorf("rejected tick mutated the baseline: %+v", b)
	}
}

// -----------------------------------------------------------------------------

func TestTimeframeSwitchDiscardsBaseline(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140, 142),
			models.Timeframe3M: seriesOf("AAPL", 100, 120),
		},
		quote: models.MQuote{Symbol: "AAPL", Price: 142},
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	if err := v.Configure("AAPL", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	v.ApplyTick(models.MQuote{Symbol: "AAPL", Price: 150})

	if err := v.SetTimeframe(models.Timeframe3M); err != nil {
		t.Fatalf("SetTimeframe failed: %v", err)
	}

	b := v.Tracker.Snapshot()
	if b.StartPrice != 100 || b.CurrentPrice != 120 {
		t.Errorf("baseline not rebuilt from the new series: %+v", b)
	}
}

// -----------------------------------------------------------------------------

func TestMalformedPricePayloadDropped(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140),
		},
		quote: models.MQuote{Symbol: "AAPL", Price: 140},
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	if err := v.Configure("AAPL", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	// Raw garbage straight to the listener
	channel.mu.Lock()
	fns := append([]func([]byte){}, channel.listeners[stream.PriceTopic("AAPL")]...)
	channel.mu.Unlock()
	for _, fn := range fns {
		fn([]byte("{not json"))
	}

	if b := v.Tracker.Snapshot(); b.CurrentPrice != 140 {
		t.Errorf("malformed payload mutated state: %+v", b)
	}
}

// -----------------------------------------------------------------------------

func TestStaleFlag(t *testing.T) {
	backend := &fakeBackend{
		series: map[string]models.MSeries{
			models.Timeframe1D: seriesOf("AAPL", 140),
		},
		quoteErr: errTest,
	}
	channel := newFakeChannel()
	v := newTestView(backend, channel)
	defer v.Close()

	// Series loads, quote fails, push is disconnected: stale
	if err := v.Configure("AAPL", models.Timeframe1D); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if state := v.Snapshot(); !state.Stale {
		t.Error("expected stale state with failing quote and no push connection")
	}

	// A fresh tick clears staleness
	v.ApplyTick(models.MQuote{Symbol: "AAPL", Price: 141})
	if state := v.Snapshot(); state.Stale {
		t.Error("fresh tick must clear the stale flag")
	}
}

var errTest = &testError{}

type testError struct{}

func (e *testError) Error() string { return "simulated failure" }
