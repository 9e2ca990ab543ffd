package models

// -----------------------------------------------------------------------------
// Timeframe enumeration for historical chart windows.
// -----------------------------------------------------------------------------

const (
	Timeframe1D = "1d"
	Timeframe1W = "1w"
	Timeframe1M = "1m"
	Timeframe3M = "3m"
	Timeframe1Y = "1y"
	Timeframe5Y = "5y"
)

// Timeframes lists every valid timeframe, shortest window first.
var Timeframes = []string{
	Timeframe1D,
	Timeframe1W,
	Timeframe1M,
	Timeframe3M,
	Timeframe1Y,
	Timeframe5Y,
}

// -----------------------------------------------------------------------------

// ValidTimeframe reports whether tf is a member of the fixed enumeration.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}
