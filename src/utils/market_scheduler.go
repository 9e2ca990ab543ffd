package utils

import (
	"sync"
	"time"

	"stock-deck/src/logger"
)

// -----------------------------------------------------------------------------
// MarketScheduler caches one trading calendar per symbol and decides the
// polling cadence: short interval while the symbol's market is open, long
// interval while it is closed.
// -----------------------------------------------------------------------------

type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(l *logger.Logger) *MarketScheduler {
	return &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) calendarFor(symbol string) *TradingCalendar {
	ms.mu.RLock()
	cal, ok := ms.Calendars[symbol]
	ms.mu.RUnlock()
	if ok {
		return cal
	}

	cal = GetCalendar(symbol)
	ms.mu.Lock()
	ms.Calendars[symbol] = cal
	ms.mu.Unlock()

	ms.Logger.Debug("Mapped symbol %s to trading calendar (fallback=%v)", symbol, cal.Fallback)
	return cal
}

// -----------------------------------------------------------------------------

// IsMarketOpen reports whether the symbol's market is open right now.
func (ms *MarketScheduler) IsMarketOpen(symbol string) bool {
	return ms.calendarFor(symbol).IsOpenOnMinute(time.Now().UTC())
}

// -----------------------------------------------------------------------------

// PollInterval picks the polling cadence for a symbol.
func (ms *MarketScheduler) PollInterval(symbol string, open, closed time.Duration) time.Duration {
	if ms.IsMarketOpen(symbol) {
		return open
	}
	return closed
}
