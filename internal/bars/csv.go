package bars

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"athena/pkg/exception"
)

// csvTimeLayout is the two-digit-year date layout used by the flat files.
const csvTimeLayout = "01/02/06"

// csvColumns is the fixed flat-file schema. Note low before high; the fields
// must be mapped back into the right Bar slots.
const csvColumns = 7

// CSVConfig locates the per-symbol flat files.
type CSVConfig struct {
	Dir     string
	Symbols []string
	Start   time.Time
}

// Validate checks if the config is usable.
func (c CSVConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid csv config: Dir is empty")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("invalid csv config: Symbols is empty")
	}
	return nil
}

// CSVSource replays bars from one <dir>/<symbol>.csv file per symbol. All
// files load at construction; a missing or unparsable file aborts it.
type CSVSource struct {
	*book
}

// NewCSVSource loads every symbol's file, aligns the series onto the shared
// calendar, and returns a source positioned before the first tick.
func NewCSVSource(cfg CSVConfig) (*CSVSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	raw := make(map[string][]Bar, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		path := filepath.Join(cfg.Dir, symbol+".csv")
		rows, err := readCSVFile(symbol, path)
		if err != nil {
			return nil, err
		}
		raw[symbol] = rows
		logs.Infof("loaded %d rows for %s from %s", len(rows), symbol, path)
	}
	return &CSVSource{book: newBook(cfg.Symbols, raw, cfg.Start)}, nil
}

func readCSVFile(symbol, path string) ([]Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(exception.ErrSourceUnavailable, fmt.Sprintf("%s: open %s: %v", symbol, path, err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(exception.ErrSchemaMismatch, fmt.Sprintf("%s: read %s: %v", symbol, path, err))
	}
	if len(records) == 0 {
		return nil, errors.Wrap(exception.ErrSchemaMismatch, fmt.Sprintf("%s: %s is empty", symbol, path))
	}

	// A header row is allowed but ignored. A row only counts as a header when
	// nothing in it parses as data, so a corrupt first data row still fails
	// like any other row instead of vanishing.
	if looksLikeHeader(records[0]) {
		records = records[1:]
	}

	rows := make([]Bar, 0, len(records))
	for i, record := range records {
		if len(record) != csvColumns {
			return nil, errors.Wrap(exception.ErrSchemaMismatch,
				fmt.Sprintf("%s: %s row %d has %d columns, want %d", symbol, path, i+1, len(record), csvColumns))
		}
		bar, err := parseCSVRow(symbol, record)
		if err != nil {
			return nil, errors.Wrap(exception.ErrSchemaMismatch, fmt.Sprintf("%s: %s row %d: %v", symbol, path, i+1, err))
		}
		rows = append(rows, bar)
	}
	return rows, nil
}

func looksLikeHeader(record []string) bool {
	if _, err := time.Parse(csvTimeLayout, record[0]); err == nil {
		return false
	}
	for _, field := range record[1:] {
		if _, err := strconv.ParseFloat(field, 64); err == nil {
			return false
		}
	}
	return true
}

// parseCSVRow maps (timestamp, open, low, high, close, volume, oi) into a Bar.
func parseCSVRow(symbol string, record []string) (Bar, error) {
	ts, err := time.Parse(csvTimeLayout, record[0])
	if err != nil {
		return Bar{}, fmt.Errorf("timestamp %q: %w", record[0], err)
	}
	fields := make([]float64, csvColumns-1)
	for i := 1; i < csvColumns; i++ {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return Bar{}, fmt.Errorf("column %d %q: %w", i+1, record[i], err)
		}
		fields[i-1] = v
	}
	return Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      fields[0],
		Low:       fields[1],
		High:      fields[2],
		Close:     fields[3],
		Volume:    fields[4],
		Extra:     fields[5],
	}, nil
}

// Symbols returns the configured symbol list in order.
func (s *CSVSource) Symbols() []string {
	return s.book.symbols
}

// AdvanceTick delivers the next aligned bar for every symbol.
func (s *CSVSource) AdvanceTick() Advance {
	return s.book.advanceTick()
}

// GetLatestBars returns the last min(n, delivered) bars in chronological
// order. An empty buffer yields an empty slice, not an error.
func (s *CSVSource) GetLatestBars(symbol string, n int) ([]Bar, error) {
	out, ok := s.book.tail(symbol, n)
	if !ok {
		return nil, errors.Wrap(exception.ErrSymbolNotFound, fmt.Sprintf("%s: get latest bars", symbol))
	}
	return out, nil
}

// Close is a no-op: the files are fully consumed at construction.
func (s *CSVSource) Close() error {
	return nil
}
