package domain

import "time"

// Bar is the last bar of the smallest traded period for an instrument.
type Bar struct {
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	Time  time.Time `json:"time"`
}

// MarketData supplies historical bars and the current simulated time to the
// engine. Implementations are driven externally, one instant at a time.
type MarketData interface {
	// LastBar returns the most recent bar for code at the current instant.
	LastBar(code string) (Bar, error)
	// Now returns the current simulated time.
	Now() time.Time
}
