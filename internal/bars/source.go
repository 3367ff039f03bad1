package bars

import "time"

// Advance reports the outcome of one replay tick.
type Advance uint8

const (
	// Advanced means every symbol that still had data received a new bar.
	Advanced Advance = iota
	// Exhausted means the calendar is consumed. Terminal, not an error.
	Exhausted
)

// Source is the contract shared by historical and live bar feeds. The rest of
// the system only ever sees the latest delivered bars, so downstream logic
// runs unchanged against either kind of feed.
type Source interface {
	// Symbols returns the configured symbol list in order.
	Symbols() []string
	// AdvanceTick delivers the next aligned bar for every symbol and reports
	// whether the source has more data. Exhausted is terminal.
	AdvanceTick() Advance
	// GetLatestBars returns the last min(n, delivered) bars for a symbol in
	// chronological order. Backends differ on empty buffers: the CSV source
	// returns an empty slice, the store source returns ErrNotInitialized.
	GetLatestBars(symbol string, n int) ([]Bar, error)
	// Close releases the underlying file or database resources.
	Close() error
}

// book owns the per-symbol replay state all historical sources share: the
// read-only aligned series, the tick cursor into the calendar, and the
// append-only latest-bar buffers. Only AdvanceTick mutates it.
type book struct {
	symbols   []string
	calendar  []time.Time
	aligned   map[string]series
	latest    map[string][]Bar
	tick      int
	exhausted bool
}

func newBook(symbols []string, raw map[string][]Bar, start time.Time) *book {
	calendar := buildCalendar(raw)
	aligned := make(map[string]series, len(symbols))
	for _, s := range symbols {
		aligned[s] = reindex(raw[s], calendar)
	}
	b := &book{
		symbols:  append([]string(nil), symbols...),
		calendar: calendar,
		aligned:  aligned,
		latest:   make(map[string][]Bar, len(symbols)),
	}
	for _, s := range symbols {
		b.latest[s] = nil
	}
	b.seekStart(start)
	return b
}

// seekStart drops calendar entries before start. Fill already happened
// against the full calendar, so the first retained row carries padded values.
func (b *book) seekStart(start time.Time) {
	if start.IsZero() {
		return
	}
	cut := 0
	for cut < len(b.calendar) && b.calendar[cut].Before(start) {
		cut++
	}
	if cut == 0 {
		return
	}
	b.calendar = b.calendar[cut:]
	for s, sr := range b.aligned {
		if sr.offset >= cut {
			sr.offset -= cut
		} else if n := cut - sr.offset; n < len(sr.bars) {
			sr.bars = sr.bars[n:]
			sr.offset = 0
		} else {
			// Empty series, or one the start date cuts entirely. It keeps
			// contributing nothing instead of sliding out of range.
			sr.bars = nil
			sr.offset = 0
		}
		b.aligned[s] = sr
	}
}

// advanceTick appends the bar at the current calendar position to each
// symbol's latest buffer. Symbols still inside a leading gap contribute
// nothing. Once the calendar is consumed the book stays exhausted forever.
func (b *book) advanceTick() Advance {
	if b.exhausted || b.tick >= len(b.calendar) {
		b.exhausted = true
		return Exhausted
	}
	for _, s := range b.symbols {
		sr := b.aligned[s]
		idx := b.tick - sr.offset
		if idx < 0 || idx >= len(sr.bars) {
			continue
		}
		b.latest[s] = append(b.latest[s], sr.bars[idx])
	}
	b.tick++
	return Advanced
}

// tail returns a copy of the last min(n, len) delivered bars in chronological
// order. Pure read; never touches the cursor. ok is false for unknown symbols.
func (b *book) tail(symbol string, n int) ([]Bar, bool) {
	buf, ok := b.latest[symbol]
	if !ok {
		return nil, false
	}
	if n <= 0 || len(buf) == 0 {
		return []Bar{}, true
	}
	if n > len(buf) {
		n = len(buf)
	}
	out := make([]Bar, n)
	copy(out, buf[len(buf)-n:])
	return out, true
}

// delivered reports how many bars a symbol's latest buffer holds.
func (b *book) delivered(symbol string) int {
	return len(b.latest[symbol])
}
