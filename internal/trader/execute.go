package trader

import (
	"math"
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

// Execute applies one operation against the ledger and reports whether a fill
// happened. Every rejected or invalid transition returns false (or true for
// benign no-ops such as replays of an already-terminal position) without
// mutating state, so the caller can continue with the next operation.
//
// The operation is taken by value: clamping PosRate or normalizing CloseUID
// never leaks back to the strategy.
func (t *Trader) Execute(code string, opt domain.Operation, pos *domain.Position) bool {
	start := time.Now()
	defer func() { t.AddTime("execute", time.Since(start)) }()

	// Outside signal mode partial closes are governed by the strategy's
	// close-uid allow-list; the engine itself only ever commits full closes.
	if t.mode != ModeSignal {
		opt.CloseUID = domain.CloseUIDClear
	}
	if opt.CloseUID == "" {
		opt.CloseUID = domain.CloseUIDClear
	}

	if pos != nil && (pos.Balance == 0 || pos.NowPosRate == 0) {
		return true
	}

	if t.allowMMDs != nil && !t.allowMMDs[opt.MMD] {
		return true
	}

	if opt.Opt == domain.OpBuy {
		if existing, ok := t.positions[opt.OpenUID]; ok {
			pos = existing
			if pos.NowPosRate >= 1 {
				return true
			}
		} else {
			pos = domain.NewPosition(code, opt.MMD, opt.OpenUID)
			t.positions[opt.OpenUID] = pos
		}
	}
	if opt.Opt == domain.OpSell && pos == nil {
		return false
	}

	var (
		res       fill
		filled    bool
		orderType domain.OrderType
	)

	switch {
	case opt.MMD.IsBuy() && opt.Opt == domain.OpBuy:
		res, filled = t.executeOpen(code, opt, pos, domain.DirectionLong)
		orderType = domain.OrderOpenLong

	case t.isFutures && opt.MMD.IsSell() && opt.Opt == domain.OpBuy:
		res, filled = t.executeOpen(code, opt, pos, domain.DirectionShort)
		orderType = domain.OrderOpenShort

	case t.isFutures && opt.MMD.IsSell() && opt.Opt == domain.OpSell:
		res, filled = t.executeCloseShort(code, opt, pos)
		orderType = domain.OrderCloseShort

	case opt.MMD.IsBuy() && opt.Opt == domain.OpSell:
		res, filled = t.executeCloseLong(code, opt, pos)
		orderType = domain.OrderCloseLong

	default:
		return false
	}

	if !filled {
		return false
	}

	t.orders[code] = append(t.orders[code], domain.Order{
		Datetime: t.now(),
		Type:     orderType,
		Price:    res.price,
		Amount:   res.amount,
		Info:     opt.Msg,
		OpenUID:  opt.OpenUID,
		CloseUID: opt.CloseUID,
	})
	return true
}

// executeOpen fills a partial open on pos, long or short.
func (t *Trader) executeOpen(code string, opt domain.Operation, pos *domain.Position, dir domain.Direction) (fill, bool) {
	if _, used := pos.OpenKeys[opt.Key]; used {
		return fill{}, false
	}
	// Clamp the requested fraction to the remaining headroom.
	opt.PosRate = math.Min(1.0-pos.NowPosRate, opt.PosRate)

	var (
		res fill
		ok  bool
	)
	if dir == domain.DirectionLong {
		res, ok = t.openBuy(code, opt, 0)
	} else {
		res, ok = t.openSell(code, opt, 0)
	}
	if !ok {
		return fill{}, false
	}

	now := t.now()

	pos.Type = dir
	pos.Price = res.price // last fill price becomes the lot's reference price
	pos.Amount += res.amount
	pos.Balance += res.price * res.amount
	pos.LossPrice = opt.LossPrice
	if pos.OpenDate == "" {
		pos.OpenDate = now.Format(dateFormat)
	}
	if pos.OpenDatetime.IsZero() {
		pos.OpenDatetime = now
	}
	pos.OpenMsg = opt.Msg
	pos.Info = opt.Info
	pos.NowPosRate += math.Min(1.0, opt.PosRate)
	pos.OpenKeys[opt.Key] = opt.PosRate

	pos.OpenRecords = append(pos.OpenRecords, domain.FillRecord{
		Datetime: now,
		Price:    res.price,
		Amount:   res.amount,
		Msg:      opt.Msg,
		Key:      opt.Key,
		OpenUID:  opt.OpenUID,
		PosRate:  opt.PosRate,
	})

	side := "long"
	if dir == domain.DirectionShort {
		side = "short"
	}
	t.logf("[%s - %s] // %s open %s (%v - %v), reason: %s",
		code, now.Format(recordTimeFormat), opt.MMD, side, res.price, res.amount, opt.Msg)

	return res, true
}

// executeCloseShort fills a partial or full close on a short position.
func (t *Trader) executeCloseShort(code string, opt domain.Operation, pos *domain.Position) (fill, bool) {
	// A zero-rate close has no notional; the profit-rate division needs a
	// positive holding fraction.
	if opt.PosRate <= 0 {
		return fill{}, false
	}
	if pos.NowPosRate <= 0 {
		return fill{}, false
	}
	if _, used := pos.CloseKeys[opt.Key]; used {
		return fill{}, false
	}
	if _, used := pos.CloseUIDProfit[opt.CloseUID]; used {
		return fill{}, false
	}
	if pos.NowPosRate < opt.PosRate {
		opt.PosRate = pos.NowPosRate
	}
	if t.rejectSameDaySale(pos) {
		return fill{}, false
	}

	res, ok := t.closeSell(code, pos, opt)
	if !ok {
		return fill{}, false
	}

	sellBalance := res.price * res.amount
	holdBalance := pos.Balance * opt.PosRate

	// Short profit: held notional minus sell notional, minus the round-trip fee.
	feeUse := sellBalance * t.feeRate * 2
	profit := holdBalance - sellBalance - feeUse
	profitRate := round2(profit / holdBalance * 100)

	now := t.now()
	t.logf("[%s - %s] // %s close short (%v - %v) profit: %v (%.2f%%), reason: %s",
		code, now.Format(recordTimeFormat), opt.MMD, res.price, res.amount, profit, profitRate, opt.Msg)

	t.recordClose(pos, opt, res, profit, profitRate, now)

	// Only the terminal close uid commits; anything else is a preview that
	// leaves committed state untouched.
	if opt.CloseUID == domain.CloseUIDClear {
		t.feeTotal += feeUse
		pos.Profit += profit
		pos.NowPosRate -= opt.PosRate
		pos.CloseKeys[opt.Key] = opt.PosRate
		if pos.NowPosRate <= 0 {
			t.finalize(pos, opt.Msg)
		}
	}

	return res, true
}

// executeCloseLong fills a partial or full close on a long position.
func (t *Trader) executeCloseLong(code string, opt domain.Operation, pos *domain.Position) (fill, bool) {
	if opt.PosRate <= 0 {
		return fill{}, false
	}
	if _, used := pos.CloseKeys[opt.Key]; used {
		return fill{}, false
	}
	if _, used := pos.CloseUIDProfit[opt.CloseUID]; used {
		return fill{}, false
	}
	if pos.NowPosRate < opt.PosRate {
		opt.PosRate = pos.NowPosRate
	}
	if t.rejectSameDaySale(pos) {
		return fill{}, false
	}

	res, ok := t.closeBuy(code, pos, opt)
	if !ok {
		return fill{}, false
	}

	sellBalance := res.price * res.amount
	holdBalance := pos.Balance * opt.PosRate

	// Long profit: sell notional minus held notional, minus the round-trip fee.
	feeUse := sellBalance * t.feeRate * 2
	profit := sellBalance - holdBalance - feeUse
	profitRate := round2(profit / holdBalance * 100)

	now := t.now()
	t.logf("[%s - %s] // %s close long (%v - %v) profit: %v (%.2f%%), reason: %s",
		code, now.Format(recordTimeFormat), opt.MMD, res.price, res.amount, profit, profitRate, opt.Msg)

	t.recordClose(pos, opt, res, profit, profitRate, now)

	if opt.CloseUID == domain.CloseUIDClear {
		pos.Profit += profit
		pos.NowPosRate -= opt.PosRate
		pos.CloseKeys[opt.Key] = opt.PosRate
		pos.CloseDatetime = now

		t.feeTotal += feeUse

		if pos.NowPosRate <= 0 {
			t.finalize(pos, opt.Msg)
		}
	}

	return res, true
}

// rejectSameDaySale reports whether the spot-only same-day-sale ban applies.
// End() lifts the ban for its synthetic exits.
func (t *Trader) rejectSameDaySale(pos *domain.Position) bool {
	if !t.isStock || t.closingOut {
		return false
	}
	return pos.OpenDate == t.now().Format(dateFormat)
}

// recordClose appends the close audit entry and the per-close-uid profit
// snapshot. Both are written whether or not the close uid is terminal.
func (t *Trader) recordClose(pos *domain.Position, opt domain.Operation, res fill, profit, profitRate float64, now time.Time) {
	pos.CloseRecords = append(pos.CloseRecords, domain.FillRecord{
		Datetime: now,
		Price:    res.price,
		Amount:   res.amount,
		Msg:      opt.Msg,
		Key:      opt.Key,
		CloseUID: opt.CloseUID,
		PosRate:  opt.PosRate,
	})
	pos.CloseUIDProfit[opt.CloseUID] = domain.CloseProfit{
		CloseDatetime: now,
		ProfitRate:    profitRate,
		Profit:        profit,
		MaxProfitRate: pos.MaxProfitRate,
		MaxLossRate:   pos.MaxLossRate,
		CloseMsg:      opt.Msg,
	}
}

// finalize archives a fully-closed position: classify win/loss into the
// statistics bucket, compute the overall profit rate against the original
// committed notional, deep-copy into history, and zero the live balance.
func (t *Trader) finalize(pos *domain.Position, closeMsg string) {
	r := t.results[pos.MMD]
	if r == nil {
		r = &Result{}
		t.results[pos.MMD] = r
	}
	if pos.Profit > 0 {
		r.WinNum++
		r.WinBalance += pos.Profit
	} else {
		r.LossNum++
		r.LossBalance += math.Abs(pos.Profit)
	}

	pos.ProfitRate = round2(pos.Profit / pos.Balance * 100)
	pos.CloseMsg = closeMsg
	t.positionsHistory[pos.Code] = append(t.positionsHistory[pos.Code], pos.Clone())
	pos.Balance = 0
}
