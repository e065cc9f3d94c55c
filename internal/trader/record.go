package trader

import (
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

// UpdatePositionRecord snapshots the mark-to-market state of every live
// position at the current instant: it refreshes each position's floating
// profit rate and extremes, then records the total floating profit, the total
// equity, and a per-code signed notional breakdown into the time-indexed
// histories.
func (t *Trader) UpdatePositionRecord() error {
	recordDT := t.now().Format(recordTimeFormat)

	var totalHoldProfit, totalHoldBalance float64
	for _, uid := range t.sortedPositionUIDs() {
		pos := t.positions[uid]
		if pos.Balance == 0 {
			continue
		}
		nowProfit, holdBalance, err := t.positionRecord(pos)
		if err != nil {
			return err
		}
		totalHoldProfit += nowProfit
		totalHoldBalance += holdBalance
	}

	t.holdProfitHistory[recordDT] = totalHoldProfit

	positionBalance := make(map[string]float64)
	for _, uid := range t.sortedPositionUIDs() {
		pos := t.positions[uid]
		if pos.Balance == 0 {
			continue
		}
		bar, err := t.lastBar(pos.Code)
		if err != nil {
			return err
		}
		codeBalance := pos.Amount * bar.Close
		if pos.MMD.IsSell() {
			codeBalance = -codeBalance
		}
		positionBalance[pos.Code] += codeBalance
	}
	positionBalance["Cash"] = t.balance

	t.balanceHistory[recordDT] = totalHoldProfit + totalHoldBalance + t.balance
	t.positionsBalanceHistory[recordDT] = positionBalance

	return nil
}

// positionRecord recomputes one position's floating profit rate at the bar's
// high, low and close, updates the running extremes, and returns the floating
// profit plus the held notional. Committed state is untouched; the same profit
// formulas as the close routines apply.
func (t *Trader) positionRecord(pos *domain.Position) (nowProfit, holdBalance float64, err error) {
	start := time.Now()
	defer func() { t.AddTime("position_record", time.Since(start)) }()

	bar, err := t.lastBar(pos.Code)
	if err != nil {
		return 0, 0, err
	}

	switch pos.Type {
	case domain.DirectionLong:
		highRate := round4(((bar.High-pos.Price)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		lowRate := round4(((bar.Low-pos.Price)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		pos.MaxProfitRate = max(pos.MaxProfitRate, highRate)
		pos.MaxLossRate = min(pos.MaxLossRate, lowRate)

		pos.ProfitRate = round4(((bar.Close-pos.Price)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		nowProfit = pos.ProfitRate / 100 * pos.Balance

	case domain.DirectionShort:
		highRate := round4(((pos.Price-bar.Low)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		lowRate := round4(((pos.Price-bar.High)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		pos.MaxProfitRate = max(pos.MaxProfitRate, highRate)
		pos.MaxLossRate = min(pos.MaxLossRate, lowRate)

		pos.ProfitRate = round4(((pos.Price-bar.Close)/pos.Price*(pos.Balance*pos.NowPosRate) + pos.Profit) / pos.Balance * 100)
		nowProfit = pos.ProfitRate / 100 * pos.Balance
	}

	holdBalance = pos.Balance * pos.NowPosRate
	return nowProfit, holdBalance, nil
}
