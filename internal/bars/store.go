package bars

import (
	"fmt"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"athena/pkg/conn"
	"athena/pkg/exception"
)

// storeColumns is the fixed per-symbol table schema, ordered by date.
var storeColumns = []string{"date", "open", "high", "low", "close", "volume", "price_change"}

// storeRow mirrors one row of a per-symbol price table.
type storeRow struct {
	Date        time.Time `gorm:"column:date"`
	Open        float64   `gorm:"column:open"`
	High        float64   `gorm:"column:high"`
	Low         float64   `gorm:"column:low"`
	Close       float64   `gorm:"column:close"`
	Volume      float64   `gorm:"column:volume"`
	PriceChange float64   `gorm:"column:price_change"`
}

// StoreConfig locates the relational backend. Target is a sqlite path for the
// embedded flavor or a postgres DSN for the networked one.
type StoreConfig struct {
	Target  string
	Flavor  conn.Flavor
	Symbols []string
	Start   time.Time
}

// Validate checks if the config is usable.
func (c StoreConfig) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("invalid store config: Target is empty")
	}
	if c.Flavor != conn.FlavorEmbedded && c.Flavor != conn.FlavorNetworked {
		return fmt.Errorf("invalid store config: unknown flavor %q", c.Flavor)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("invalid store config: Symbols is empty")
	}
	return nil
}

// StoreSource replays bars from one relational table per symbol. Beyond the
// base contract it keeps a directly queryable aligned copy per symbol and
// exposes strict latest-bar accessors; queries against an empty buffer fail
// with ErrNotInitialized instead of returning an empty slice.
type StoreSource struct {
	*book
	client  *conn.Client
	aligned map[string][]Bar
}

// NewStoreSource opens the connection, loads and aligns every symbol's table,
// and returns a source positioned before the first tick. The connection stays
// open for the source's lifetime; Close releases it.
func NewStoreSource(cfg StoreConfig) (*StoreSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := conn.New(conn.Option{Flavor: cfg.Flavor, ConnString: cfg.Target})
	if err != nil {
		return nil, errors.Wrap(exception.ErrSourceUnavailable, fmt.Sprintf("connect %s (%s): %v", cfg.Target, cfg.Flavor, err))
	}

	raw := make(map[string][]Bar, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		rows, err := readTable(client, symbol)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		raw[symbol] = rows
		logs.Infof("loaded %d rows for %s from %s store", len(rows), symbol, cfg.Flavor)
	}

	book := newBook(cfg.Symbols, raw, cfg.Start)
	aligned := make(map[string][]Bar, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		sr := book.aligned[symbol]
		aligned[symbol] = append([]Bar(nil), sr.bars...)
	}
	return &StoreSource{book: book, client: client, aligned: aligned}, nil
}

func readTable(client *conn.Client, symbol string) ([]Bar, error) {
	db := client.DB()
	if !db.Migrator().HasTable(symbol) {
		return nil, errors.Wrap(exception.ErrSchemaMismatch, fmt.Sprintf("%s: table does not exist", symbol))
	}
	for _, column := range storeColumns {
		if !db.Migrator().HasColumn(symbol, column) {
			return nil, errors.Wrap(exception.ErrSchemaMismatch, fmt.Sprintf("%s: table is missing column %s", symbol, column))
		}
	}
	var rows []storeRow
	if err := db.Table(symbol).Select(storeColumns).Order("date").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(exception.ErrSourceUnavailable, fmt.Sprintf("%s: query table: %v", symbol, err))
	}
	out := make([]Bar, 0, len(rows))
	for _, r := range rows {
		out = append(out, Bar{
			Symbol:    symbol,
			Timestamp: r.Date,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
			Extra:     r.PriceChange,
		})
	}
	return out, nil
}

// Symbols returns the configured symbol list in order.
func (s *StoreSource) Symbols() []string {
	return s.book.symbols
}

// AdvanceTick delivers the next aligned bar for every symbol.
func (s *StoreSource) AdvanceTick() Advance {
	return s.book.advanceTick()
}

// GetLatestBars returns the last min(n, delivered) bars in chronological
// order, failing on unknown symbols and on buffers no tick has populated yet.
func (s *StoreSource) GetLatestBars(symbol string, n int) ([]Bar, error) {
	out, ok := s.book.tail(symbol, n)
	if !ok {
		return nil, errors.Wrap(exception.ErrSymbolNotFound, fmt.Sprintf("%s: get latest bars", symbol))
	}
	if s.book.delivered(symbol) == 0 {
		return nil, errors.Wrap(exception.ErrNotInitialized, fmt.Sprintf("%s: get latest bars", symbol))
	}
	return out, nil
}

// GetLatestBar returns the most recent delivered bar for a symbol.
func (s *StoreSource) GetLatestBar(symbol string) (Bar, error) {
	out, err := s.GetLatestBars(symbol, 1)
	if err != nil {
		return Bar{}, err
	}
	return out[len(out)-1], nil
}

// GetLatestBarTime returns the timestamp of the most recent delivered bar.
func (s *StoreSource) GetLatestBarTime(symbol string) (time.Time, error) {
	bar, err := s.GetLatestBar(symbol)
	if err != nil {
		return time.Time{}, err
	}
	return bar.Timestamp, nil
}

// AlignedSeries returns a copy of one symbol's full post-alignment series.
// Unlike the replay cursor it is non-destructive, so tests and introspection
// can read it at any point without disturbing the replay.
func (s *StoreSource) AlignedSeries(symbol string) ([]Bar, error) {
	rows, ok := s.aligned[symbol]
	if !ok {
		return nil, errors.Wrap(exception.ErrSymbolNotFound, fmt.Sprintf("%s: aligned series", symbol))
	}
	return append([]Bar(nil), rows...), nil
}

// Close releases the database connection.
func (s *StoreSource) Close() error {
	return s.client.Close()
}
