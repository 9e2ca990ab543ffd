package view

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"stock-deck/src/analysis"
	"stock-deck/src/chart"
	"stock-deck/src/helpers"
	"stock-deck/src/interfaces"
	"stock-deck/src/logger"
	"stock-deck/src/models"
	"stock-deck/src/stream"
	"stock-deck/src/utils"
)

// -----------------------------------------------------------------------------
// TickerView owns one active (symbol, timeframe) pair: it loads the series
// and quote, keeps the baseline and chart in sync with live ticks, and runs
// the polling fallback. One poll task exists per view, replaced (never
// stacked) on reconfiguration.
// -----------------------------------------------------------------------------

type TickerView struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Client    interfaces.IBackendClient
	Channel   interfaces.IPushChannel
	Scheduler *utils.MarketScheduler
	Recorder  interfaces.IRecorder // nil when recording is disabled

	Renderer *chart.Renderer
	Tracker  *analysis.Tracker

	mu         sync.Mutex
	symbol     string
	timeframe  string
	quote      *models.MQuote
	connected  bool
	pollFailed bool
	closed     bool

	pollStop   chan struct{}
	unsubPrice func()
	unsubChart func()
	unsubState func()

	ticks    *utils.TickBuffer
	onUpdate func(models.MViewState)
}

// -----------------------------------------------------------------------------

func NewTickerView(
	cfg *models.MConfig,
	log *logger.Logger,
	client interfaces.IBackendClient,
	channel interfaces.IPushChannel,
	scheduler *utils.MarketScheduler,
	recorder interfaces.IRecorder,
	onUpdate func(models.MViewState),
) *TickerView {
	v := &TickerView{
		Config:    cfg,
		Logger:    log,
		Client:    client,
		Channel:   channel,
		Scheduler: scheduler,
		Recorder:  recorder,
		Tracker:   analysis.NewTracker(),
		ticks:     utils.NewTickBuffer(cfg.Chart.MaxLivePoints),
		onUpdate:  onUpdate,
	}
	v.Renderer = chart.NewRenderer(cfg.Chart, log, v.broadcast)

	v.unsubState = channel.OnConnectionStateChange(func(connected bool) {
		v.mu.Lock()
		v.connected = connected
		v.mu.Unlock()
		v.broadcast()
	})

	return v
}

// -----------------------------------------------------------------------------
// Reconfiguration
// -----------------------------------------------------------------------------

// SetSymbol switches the active symbol, keeping the current timeframe.
func (v *TickerView) SetSymbol(symbol string) error {
	v.mu.Lock()
	tf := v.timeframe
	v.mu.Unlock()
	if tf == "" {
		tf = models.Timeframe1D
	}
	return v.Configure(symbol, tf)
}

// SetTimeframe switches the active timeframe for the current symbol.
func (v *TickerView) SetTimeframe(timeframe string) error {
	v.mu.Lock()
	sym := v.symbol
	v.mu.Unlock()
	if sym == "" {
		return helpers.NewValidationError("no active symbol")
	}
	return v.Configure(sym, timeframe)
}

// -----------------------------------------------------------------------------

// Configure loads the series and quote for (symbol, timeframe), establishes
// a fresh baseline, reloads the chart and re-points the push subscriptions.
// On fetch failure the previous view state is left untouched; the caller
// decides whether to retry.
func (v *TickerView) Configure(symbol, timeframe string) error {
	if !models.ValidTimeframe(timeframe) {
		return helpers.NewValidationError("unknown timeframe '%s'", timeframe)
	}

	series, err := v.Client.GetSeries(symbol, timeframe)
	if err != nil {
		return err
	}

	quote, quoteErr := v.Client.GetQuote(symbol)
	if quoteErr != nil {
		// Non-fatal: the series alone carries the baseline.
		v.Logger.Warning("Quote fetch for %s failed: %v", symbol, quoteErr)
	}

	sym := quote.Symbol
	if sym == "" {
		sym = strings.ToUpper(strings.TrimSpace(symbol))
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return helpers.NewValidationError("view is closed")
	}
	v.symbol = sym
	v.timeframe = timeframe
	if quoteErr == nil {
		q := quote
		v.quote = &q
	} else {
		v.quote = nil
	}
	v.pollFailed = quoteErr != nil
	v.ticks.Clear()
	v.restartPollLocked(sym)
	oldPrice, oldChart := v.unsubPrice, v.unsubChart
	v.mu.Unlock()

	// Old baseline is discarded wholesale on every symbol/timeframe change.
	v.Tracker.LoadSeries(sym, series.Prices())

	// Local listeners move to the new topics. The transport subscriptions of
	// the old topics stay open by policy.
	if oldPrice != nil {
		oldPrice()
	}
	if oldChart != nil {
		oldChart()
	}
	unsubPrice := v.Channel.Subscribe(stream.PriceTopic(sym), v.handlePricePayload)
	unsubChart := v.Channel.Subscribe(stream.ChartTopic(sym, timeframe), v.handleChartPayload)

	v.mu.Lock()
	v.unsubPrice = unsubPrice
	v.unsubChart = unsubChart
	v.mu.Unlock()

	v.Renderer.SetSeries(series, timeframe)
	return nil
}

// -----------------------------------------------------------------------------
// Push payload handlers
// -----------------------------------------------------------------------------

func (v *TickerView) handlePricePayload(payload []byte) {
	quote, err := decodeQuotePayload(payload)
	if err != nil {
		v.Logger.Warning("Dropping price payload: %v", err)
		return
	}
	v.ApplyTick(quote)
}

func decodeQuotePayload(payload []byte) (models.MQuote, error) {
	var quote models.MQuote
	if err := json.Unmarshal(payload, &quote); err != nil {
		return models.MQuote{}, helpers.NewPayloadError("bad quote frame: %v", err)
	}
	if quote.Price <= 0 {
		return models.MQuote{}, helpers.NewPayloadError("non-positive price %v for %s", quote.Price, quote.Symbol)
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

func (v *TickerView) handleChartPayload(payload []byte) {
	series, err := decodeSeriesPayload(payload)
	if err != nil {
		v.Logger.Warning("Dropping series payload: %v", err)
		return
	}

	v.mu.Lock()
	tf := v.timeframe
	sym := v.symbol
	v.mu.Unlock()

	// A pushed series is growth, not a timeframe switch: the baseline is only
	// (re)established from it when none exists yet.
	if !v.Tracker.Snapshot().Valid() {
		v.Tracker.LoadSeries(sym, series.Prices())
	}
	v.Renderer.SetSeries(series, tf)
}

func decodeSeriesPayload(payload []byte) (models.MSeries, error) {
	var series models.MSeries
	if err := json.Unmarshal(payload, &series); err != nil {
		return models.MSeries{}, helpers.NewPayloadError("bad series frame: %v", err)
	}
	if !series.Aligned() {
		return models.MSeries{}, helpers.NewPayloadError("series '%s' channels misaligned", series.Title)
	}
	return series, nil
}

// -----------------------------------------------------------------------------

// ApplyTick feeds one live quote through baseline and chart. Ticks for other
// symbols, or arriving before a positive baseline exists, are ignored.
func (v *TickerView) ApplyTick(quote models.MQuote) bool {
	if !v.Tracker.ApplyTick(quote.Symbol, quote.Price) {
		return false
	}

	label := quote.ZonedTimestamp
	if label == "" {
		label = time.Unix(quote.Timestamp, 0).UTC().Format("15:04:05")
	}

	v.mu.Lock()
	q := quote
	v.quote = &q
	v.pollFailed = false
	v.ticks.Append(utils.Tick{Label: label, Price: quote.Price})
	recorder := v.Recorder
	v.mu.Unlock()

	if recorder != nil {
		if err := recorder.RecordTick(quote.Symbol, quote.Price, quote.Timestamp); err != nil {
			v.Logger.Warning("Tick recording failed: %v", err)
		}
	}

	v.Renderer.AppendPoint(label, quote.Price)
	return true
}

// -----------------------------------------------------------------------------
// Polling fallback
// -----------------------------------------------------------------------------

// restartPollLocked replaces the poll task. Caller holds mu.
func (v *TickerView) restartPollLocked(symbol string) {
	if v.pollStop != nil {
		close(v.pollStop)
	}
	stop := make(chan struct{})
	v.pollStop = stop
	go v.pollLoop(stop, symbol)
}

// -----------------------------------------------------------------------------

// pollLoop re-fetches the quote on a cadence driven by market hours: short
// while the market is open, long while it is closed.
func (v *TickerView) pollLoop(stop chan struct{}, symbol string) {
	openInterval := time.Duration(v.Config.Poll.OpenIntervalSeconds) * time.Second
	closedInterval := time.Duration(v.Config.Poll.ClosedIntervalSeconds) * time.Second

	for {
		interval := v.Scheduler.PollInterval(symbol, openInterval, closedInterval)
		timer := time.NewTimer(interval)

		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		quote, err := v.Client.GetQuote(symbol)
		if err != nil {
			v.Logger.Warning("Poll for %s failed: %v", symbol, err)
			v.mu.Lock()
			v.pollFailed = true
			v.mu.Unlock()
			v.broadcast()
			continue
		}

		if !v.ApplyTick(quote) {
			// Rejected by the baseline (e.g. none established yet); the
			// quote itself is still fresher than what we have.
			v.mu.Lock()
			q := quote
			v.quote = &q
			v.pollFailed = false
			v.mu.Unlock()
			v.broadcast()
		}
	}
}

// -----------------------------------------------------------------------------

// RecentTicks returns the live ticks accepted this session, oldest first.
func (v *TickerView) RecentTicks() []utils.Tick {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ticks.All()
}

// -----------------------------------------------------------------------------
// Search
// -----------------------------------------------------------------------------

// SearchSymbols looks up symbols by keyword. Keywords below the configured
// minimum length never reach the network and clear the results.
func (v *TickerView) SearchSymbols(keyword string) ([]models.MSearchResult, error) {
	if len([]rune(keyword)) < v.Config.Search.MinKeywordLength {
		return []models.MSearchResult{}, nil
	}
	return v.Client.Search(keyword)
}

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// Snapshot assembles the broadcastable view state.
func (v *TickerView) Snapshot() models.MViewState {
	chartState := v.Renderer.Snapshot()
	baseline := v.Tracker.Snapshot()

	v.mu.Lock()
	defer v.mu.Unlock()

	marketOpen := false
	if v.symbol != "" {
		marketOpen = v.Scheduler.IsMarketOpen(v.symbol)
	}

	return models.MViewState{
		Type:       "UPDATE",
		Symbol:     v.symbol,
		Timeframe:  v.timeframe,
		Quote:      v.quote,
		Baseline:   baseline,
		Chart:      chartState,
		MarketOpen: marketOpen,
		Connected:  v.connected,
		Stale:      !v.connected && v.pollFailed,
		Timestamp:  time.Now().Unix(),
	}
}

// -----------------------------------------------------------------------------

func (v *TickerView) broadcast() {
	if v.onUpdate == nil {
		return
	}
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if closed {
		return
	}
	v.onUpdate(v.Snapshot())
}

// -----------------------------------------------------------------------------

// Close cancels the poll task, drops the local push listeners and tears down
// the chart timers.
func (v *TickerView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.pollStop != nil {
		close(v.pollStop)
		v.pollStop = nil
	}
	unsubs := []func(){v.unsubPrice, v.unsubChart, v.unsubState}
	v.unsubPrice, v.unsubChart, v.unsubState = nil, nil, nil
	v.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
	v.Renderer.Close()
}

