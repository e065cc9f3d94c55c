package trader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/simtrader/internal/domain"
)

const testCode = "SH.600000"

func TestPartialOpensAccumulate(t *testing.T) {
	market := newStubMarket()
	tr := newSignalTrader(market)

	fills := []struct {
		price   float64
		posRate float64
		key     string
	}{
		{10, 0.5, "k1"},
		{12, 0.25, "k2"},
		{8, 0.25, "k3"},
	}

	for _, f := range fills {
		market.setClose(testCode, f.price)
		ok := tr.Execute(testCode, domain.Operation{
			Opt:     domain.OpBuy,
			MMD:     domain.SPFirstBuy,
			PosRate: f.posRate,
			Key:     f.key,
			OpenUID: "uid-1",
		}, nil)
		require.True(t, ok)
	}

	pos := tr.Position("uid-1")
	require.NotNil(t, pos)
	assert.Equal(t, domain.DirectionLong, pos.Type)
	assert.InDelta(t, 1.0, pos.NowPosRate, 1e-9)

	// Last fill price becomes the reference price, never volume-weighted.
	assert.InDelta(t, 8.0, pos.Price, 1e-9)

	// Balance is the sum of each fill's notional.
	assert.InDelta(t, 4950.0, pos.OpenRecords[0].Amount, 1e-6)
	assert.InDelta(t, 2062.5, pos.OpenRecords[1].Amount, 1e-6)
	assert.InDelta(t, 3093.75, pos.OpenRecords[2].Amount, 1e-6)
	assert.InDelta(t, 99000.0, pos.Balance, 1e-6)

	assert.Len(t, pos.OpenRecords, 3)
	assert.Len(t, tr.Orders()[testCode], 3)
}

func TestDuplicateFillKeyIsNoOp(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	op := domain.Operation{
		Opt:     domain.OpBuy,
		MMD:     domain.SPSecondBuy,
		PosRate: 0.5,
		Key:     "k1",
		OpenUID: "uid-1",
	}
	require.True(t, tr.Execute(testCode, op, nil))

	pos := tr.Position("uid-1")
	amount, rate := pos.Amount, pos.NowPosRate

	assert.False(t, tr.Execute(testCode, op, nil))
	assert.Equal(t, amount, pos.Amount)
	assert.Equal(t, rate, pos.NowPosRate)
	assert.Len(t, tr.Orders()[testCode], 1)
}

func TestDuplicateCloseUIDIsNoOp(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	pos := tr.Position("uid-1")

	market.setClose(testCode, 11)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 0.5, Key: "c1", CloseUID: "check",
	}, pos))

	before := *pos
	balance := tr.Balance()

	// Same close uid under a fresh key must be rejected without mutation.
	assert.False(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 0.5, Key: "c2", CloseUID: "check",
	}, pos))
	assert.Equal(t, before.NowPosRate, pos.NowPosRate)
	assert.Equal(t, before.Profit, pos.Profit)
	assert.Equal(t, balance, tr.Balance())
	assert.Len(t, pos.CloseRecords, 1)
}

func TestFundedScenario(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newTradeTrader(market, false)

	// Open a long at 10 for an explicit amount of 1000: notional 10000, fee 5.
	op := domain.Operation{Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1"}
	res, ok := tr.openBuy(testCode, op, 1000)
	require.True(t, ok)
	assert.InDelta(t, 10.0, res.price, 1e-9)
	assert.InDelta(t, 1000.0, res.amount, 1e-9)
	assert.InDelta(t, 89995.0, tr.Balance(), 1e-6)
	assert.InDelta(t, 5.0, tr.FeeTotal(), 1e-6)

	pos := domain.NewPosition(testCode, domain.SPFirstBuy, "uid-1")
	pos.Type = domain.DirectionLong
	pos.Price = res.price
	pos.Amount = res.amount
	pos.Balance = res.price * res.amount
	pos.NowPosRate = 1
	tr.positions["uid-1"] = pos

	// Close fully at 11: sell notional 11000, round-trip fee 11, profit 989.
	market.setClose(testCode, 11)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear,
	}, pos))

	assert.InDelta(t, 989.0, pos.Profit, 1e-6)
	assert.InDelta(t, 9.89, pos.ProfitRate, 1e-9)
	assert.Equal(t, 0.0, pos.Balance)

	// Cash credit carries the one-sided sell-leg fee (5.5); the round-trip fee
	// only flows into profit and the fee total.
	assert.InDelta(t, 100989.5, tr.Balance(), 1e-6)
	assert.InDelta(t, 21.5, tr.FeeTotal(), 1e-6)

	r := tr.Result(domain.SPFirstBuy)
	assert.Equal(t, 1, r.WinNum)
	assert.Equal(t, 0, r.LossNum)
	assert.InDelta(t, 989.0, r.WinBalance, 1e-6)

	history := tr.PositionsHistory()[testCode]
	require.Len(t, history, 1)
	assert.InDelta(t, 989.0, history[0].Profit, 1e-6)
}

func TestSignalScenario(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPThirdBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))

	pos := tr.Position("uid-1")
	require.NotNil(t, pos)
	assert.InDelta(t, 9900.0, pos.Amount, 1e-9)
	// Signal-mode opens never touch cash.
	assert.Equal(t, 0.0, tr.Balance())

	market.setClose(testCode, 11)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPThirdBuy, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear,
	}, pos))

	// Raw price delta straight to cash, no fee on the cash leg.
	assert.InDelta(t, 9900.0, tr.Balance(), 1e-6)
	assert.True(t, pos.Closed())
}

func TestFundedOpenInsufficientBalance(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newTradeTrader(market, false)

	op := domain.Operation{Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1"}
	_, ok := tr.openBuy(testCode, op, 20000) // notional 200000 > cash 100000
	assert.False(t, ok)
	assert.Equal(t, 100000.0, tr.Balance())
	assert.Equal(t, 0.0, tr.FeeTotal())
}

func TestFundedOpenCapacityRejected(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	market.setClose("SH.600001", 10)
	tr := New(Options{
		Name:        "test",
		Mode:        ModeTrade,
		InitBalance: 100000,
		FeeRate:     0.0005,
		MaxPos:      1,
	})
	tr.SetMarketData(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "k1", OpenUID: "uid-1",
	}, nil))
	balance := tr.Balance()

	assert.False(t, tr.Execute("SH.600001", domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "k2", OpenUID: "uid-2",
	}, nil))
	assert.Equal(t, balance, tr.Balance())
}

func TestSameDaySaleBan(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newTradeTrader(market, true)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	pos := tr.Position("uid-1")

	market.setClose(testCode, 11)
	closeOp := domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear,
	}

	// Same simulated calendar day: rejected, nothing changes.
	assert.False(t, tr.Execute(testCode, closeOp, pos))
	assert.InDelta(t, 1.0, pos.NowPosRate, 1e-9)

	// Next day the same close succeeds.
	market.advance(24 * time.Hour)
	market.setClose(testCode, 11)
	assert.True(t, tr.Execute(testCode, closeOp, pos))
	assert.True(t, pos.Closed())
}

func TestPreviewCloseRecordsWithoutCommit(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	pos := tr.Position("uid-1")

	market.setClose(testCode, 11)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "c1", CloseUID: "check",
	}, pos))

	// The preview writes the audit trail but commits nothing.
	assert.InDelta(t, 1.0, pos.NowPosRate, 1e-9)
	assert.Equal(t, 0.0, pos.Profit)
	assert.Equal(t, 0.0, tr.FeeTotal())
	assert.False(t, pos.Closed())
	assert.Len(t, pos.CloseRecords, 1)

	snap, ok := pos.CloseUIDProfit["check"]
	require.True(t, ok)
	assert.InDelta(t, 9791.1, snap.Profit, 1e-6)
	assert.InDelta(t, 9.89, snap.ProfitRate, 1e-9)

	// Signal-mode previews still move cash by the raw price delta.
	assert.InDelta(t, 9900.0, tr.Balance(), 1e-6)

	// The terminal close uid commits and archives.
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "c2", CloseUID: domain.CloseUIDClear,
	}, pos))
	assert.True(t, pos.Closed())
	assert.InDelta(t, 19800.0, tr.Balance(), 1e-6)
	assert.Len(t, tr.PositionsHistory()[testCode], 1)
}

func TestShortRoundTripOnFutures(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := New(Options{
		Name:      "test",
		Mode:      ModeSignal,
		IsFutures: true,
		FeeRate:   0.0005,
		MaxPos:    10,
	})
	tr.SetMarketData(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstSell, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))

	pos := tr.Position("uid-1")
	require.NotNil(t, pos)
	assert.Equal(t, domain.DirectionShort, pos.Type)
	assert.InDelta(t, 9900.0, pos.Amount, 1e-9)

	orders := tr.Orders()[testCode]
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderOpenShort, orders[0].Type)

	market.setClose(testCode, 9)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstSell, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear,
	}, pos))

	assert.InDelta(t, 9900.0, tr.Balance(), 1e-6)
	assert.True(t, pos.Closed())

	orders = tr.Orders()[testCode]
	require.Len(t, orders, 2)
	assert.Equal(t, domain.OrderCloseShort, orders[1].Type)

	// hold 99000, sell 89100, round-trip fee 89.1
	assert.InDelta(t, 9810.9, tr.Result(domain.SPFirstSell).WinBalance, 1e-6)
	assert.Equal(t, 1, tr.Result(domain.SPFirstSell).WinNum)
}

func TestNoShortLegWithoutFutures(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	assert.False(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstSell, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	assert.Empty(t, tr.Orders()[testCode])
}

func TestZeroRateCloseIsRejected(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	pos := tr.Position("uid-1")

	market.setClose(testCode, 11)
	assert.False(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 0, Key: "close", CloseUID: domain.CloseUIDClear,
	}, pos))

	// No division by a zero holding fraction, no audit entries, no cash move.
	assert.Empty(t, pos.CloseRecords)
	assert.Empty(t, pos.CloseUIDProfit)
	assert.Equal(t, 0.0, tr.Balance())
	assert.InDelta(t, 1.0, pos.NowPosRate, 1e-9)
	assert.Len(t, tr.Orders()[testCode], 1)
}

func TestTerminalPositionIsBenignNoOp(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	pos := domain.NewPosition(testCode, domain.SPFirstBuy, "uid-1")
	assert.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear,
	}, pos))
	assert.Empty(t, tr.Orders()[testCode])
}

func TestAllowSignalPointsFilter(t *testing.T) {
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)
	tr.SetAllowSignalPoints([]domain.SignalPoint{domain.SPThirdBuy})

	assert.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "k1", OpenUID: "uid-1",
	}, nil))
	assert.Nil(t, tr.Position("uid-1"))
	assert.Empty(t, tr.Orders()[testCode])

	assert.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPThirdBuy, PosRate: 1, Key: "k2", OpenUID: "uid-2",
	}, nil))
	assert.NotNil(t, tr.Position("uid-2"))
}
