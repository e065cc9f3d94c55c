package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoStrategy   = errors.New("no strategy set")
	ErrNoMarketData = errors.New("no market data set")
)
