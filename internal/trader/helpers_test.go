package trader

import (
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

// stubMarket is a controllable market-data collaborator for tests.
type stubMarket struct {
	bars map[string]domain.Bar
	now  time.Time
}

func newStubMarket() *stubMarket {
	return &stubMarket{
		bars: make(map[string]domain.Bar),
		now:  time.Date(2023, 5, 10, 9, 30, 0, 0, time.UTC),
	}
}

func (m *stubMarket) LastBar(code string) (domain.Bar, error) {
	bar, ok := m.bars[code]
	if !ok {
		return domain.Bar{}, domain.ErrNotFound
	}
	return bar, nil
}

func (m *stubMarket) Now() time.Time { return m.now }

// setClose stamps a flat bar at the given close price.
func (m *stubMarket) setClose(code string, price float64) {
	m.bars[code] = domain.Bar{Open: price, High: price, Low: price, Close: price, Time: m.now}
}

func (m *stubMarket) advance(d time.Duration) { m.now = m.now.Add(d) }

// stubStrategy returns canned operations and counts hook invocations.
type stubStrategy struct {
	openOps   []domain.Operation
	closeOps  []domain.Operation
	allowUIDs []string

	openCalls  int
	closeCalls int
}

func (s *stubStrategy) Open(code string, data domain.MarketData, holds []*domain.Position) []domain.Operation {
	s.openCalls++
	return s.openOps
}

func (s *stubStrategy) Close(code string, mmd domain.SignalPoint, pos *domain.Position, data domain.MarketData) []domain.Operation {
	s.closeCalls++
	return s.closeOps
}

func (s *stubStrategy) AllowCloseUIDs() []string { return s.allowUIDs }

func newSignalTrader(market *stubMarket) *Trader {
	t := New(Options{
		Name:    "test",
		Mode:    ModeSignal,
		FeeRate: 0.0005,
		MaxPos:  10,
	})
	t.SetMarketData(market)
	return t
}

func newTradeTrader(market *stubMarket, isStock bool) *Trader {
	t := New(Options{
		Name:        "test",
		Mode:        ModeTrade,
		IsStock:     isStock,
		InitBalance: 100000,
		FeeRate:     0.0005,
		MaxPos:      10,
	})
	t.SetMarketData(market)
	return t
}
