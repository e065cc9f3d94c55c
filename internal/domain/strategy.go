package domain

// Strategy decides when to open and close positions. Implementations live
// outside the engine; the trader only consumes the returned operations.
type Strategy interface {
	// Open is invoked once per code per instant with the code's live
	// positions and returns zero or more open operations.
	Open(code string, data MarketData, holds []*Position) []Operation
	// Close is invoked per live position and returns zero or more close
	// operations for it.
	Close(code string, mmd SignalPoint, pos *Position, data MarketData) []Operation
	// AllowCloseUIDs returns the close-transaction ids permitted in
	// non-signal modes, or nil to permit all.
	AllowCloseUIDs() []string
}
