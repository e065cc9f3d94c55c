package trader

import (
	"math"

	"github.com/quantframe/simtrader/internal/domain"
)

// fill is the price/quantity pair a sizing routine settled on.
type fill struct {
	price  float64
	amount float64
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// openBuy sizes a long open. In ModeSignal it uses the fixed reference
// notional and never touches cash; in funded modes it splits the remaining
// cash across the free position slots, rejects on capacity or insufficient
// funds, and deducts notional plus the one-sided fee. A positive amount
// overrides the derived quantity.
func (t *Trader) openBuy(code string, opt domain.Operation, amount float64) (fill, bool) {
	bar, err := t.lastBar(code)
	if err != nil {
		t.logf("%s - %s open long failed: %v", code, opt.MMD, err)
		return fill{}, false
	}
	price := bar.Close

	if t.mode == ModeSignal {
		useBalance := signalNotional * math.Min(1.0, opt.PosRate)
		return fill{price: price, amount: round4(useBalance / price * 0.99)}, true
	}

	if len(t.HoldPositions()) >= t.maxPos {
		t.logf("%s - %s open long rejected: max positions reached", code, opt.MMD)
		return fill{}, false
	}

	var useBalance float64
	if amount <= 0 {
		useBalance = t.balance / float64(t.maxPos-len(t.HoldPositions())) * 0.99
		useBalance *= math.Min(1.0, opt.PosRate)
		amount = useBalance / price
	} else {
		useBalance = price * amount
	}

	if amount < 0 {
		return fill{}, false
	}
	if useBalance > t.balance {
		t.logf("%s - %s open long rejected: insufficient balance", code, opt.MMD)
		return fill{}, false
	}

	fee := useBalance * t.feeRate
	t.balance -= useBalance + fee
	t.feeTotal += fee

	return fill{price: price, amount: amount}, true
}

// openSell sizes a short open, symmetric to openBuy.
func (t *Trader) openSell(code string, opt domain.Operation, amount float64) (fill, bool) {
	bar, err := t.lastBar(code)
	if err != nil {
		t.logf("%s - %s open short failed: %v", code, opt.MMD, err)
		return fill{}, false
	}
	price := bar.Close

	if t.mode == ModeSignal {
		useBalance := signalNotional * math.Min(1.0, opt.PosRate)
		return fill{price: price, amount: round4(useBalance / price * 0.99)}, true
	}

	if len(t.HoldPositions()) >= t.maxPos {
		t.logf("%s - %s open short rejected: max positions reached", code, opt.MMD)
		return fill{}, false
	}

	var useBalance float64
	if amount <= 0 {
		useBalance = t.balance / float64(t.maxPos-len(t.HoldPositions())) * 0.99
		useBalance *= math.Min(1.0, opt.PosRate)
		amount = useBalance / price
	} else {
		useBalance = price * amount
	}

	if amount < 0 {
		return fill{}, false
	}
	if useBalance > t.balance {
		t.logf("%s - %s open short rejected: insufficient balance", code, opt.MMD)
		return fill{}, false
	}

	fee := useBalance * t.feeRate
	t.balance -= useBalance + fee
	t.feeTotal += fee

	return fill{price: price, amount: amount}, true
}

// closePrice resolves the execution price of a close: the caller-supplied
// stop price when set, otherwise the current close price.
func (t *Trader) closePrice(code string, opt domain.Operation) (float64, bool) {
	if opt.LossPrice != 0 {
		return opt.LossPrice, true
	}
	bar, err := t.lastBar(code)
	if err != nil {
		t.logf("%s - %s close failed: %v", code, opt.MMD, err)
		return 0, false
	}
	return bar.Close, true
}

// closeBuy settles a long close. ModeSignal adds the raw price delta straight
// to cash; funded modes credit the sell notional minus the one-sided fee.
func (t *Trader) closeBuy(code string, pos *domain.Position, opt domain.Operation) (fill, bool) {
	price, ok := t.closePrice(code, opt)
	if !ok {
		return fill{}, false
	}
	amount := pos.Amount * opt.PosRate

	if t.mode == ModeSignal {
		t.balance += (price - pos.Price) * amount
		return fill{price: price, amount: amount}, true
	}

	holdBalance := price * amount
	fee := holdBalance * t.feeRate
	t.balance += holdBalance - fee
	t.feeTotal += fee
	return fill{price: price, amount: amount}, true
}

// closeSell settles a short close. Funded modes credit the original notional
// plus the short profit, minus the one-sided fee.
func (t *Trader) closeSell(code string, pos *domain.Position, opt domain.Operation) (fill, bool) {
	price, ok := t.closePrice(code, opt)
	if !ok {
		return fill{}, false
	}
	amount := pos.Amount * opt.PosRate

	if t.mode == ModeSignal {
		t.balance += (pos.Price - price) * amount
		return fill{price: price, amount: amount}, true
	}

	holdBalance := price * amount
	posBalance := pos.Price * amount
	profit := posBalance - holdBalance
	fee := holdBalance * t.feeRate
	t.balance += posBalance + profit - fee
	t.feeTotal += fee
	return fill{price: price, amount: amount}, true
}
