package exception

import "errors"

// Construction-time failures. Alignment correctness depends on every symbol
// loading successfully, so these abort the whole run.
var (
	ErrSourceUnavailable = errors.New("bars: source unavailable")
	ErrSchemaMismatch    = errors.New("bars: schema mismatch")
)

// Per-query failures. Returned to the caller, never fatal to the tick loop.
var (
	ErrSymbolNotFound = errors.New("bars: symbol not found")
	ErrNotInitialized = errors.New("bars: latest bars not initialized")
)
