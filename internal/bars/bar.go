package bars

import "time"

// Bar is one time-stamped OHLCV observation for one symbol. Immutable once
// constructed.
//
// Extra carries a backend-specific seventh column: open interest for CSV
// sources, price change for store sources. Consumers must not assume it means
// the same thing across backends.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Extra     float64
}
