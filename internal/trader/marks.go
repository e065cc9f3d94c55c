package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

var (
	orderColors = map[domain.OrderType]string{
		domain.OrderOpenLong:   "red",
		domain.OrderOpenShort:  "green",
		domain.OrderCloseLong:  "green",
		domain.OrderCloseShort: "red",
	}
	orderShapes = map[domain.OrderType]string{
		domain.OrderOpenLong:   "earningUp",
		domain.OrderOpenShort:  "earningDown",
		domain.OrderCloseLong:  "earningDown",
		domain.OrderCloseShort: "earningUp",
	}
)

// DrawOrderMarks replaces every chart annotation under the given label with
// one mark per executed order. closeUIDs, when non-nil, keeps only close
// orders with a listed close uid; startDT, when non-zero, drops orders filled
// before it.
func (t *Trader) DrawOrderMarks(ctx context.Context, store domain.MarkStore, market, label string, closeUIDs []string, startDT time.Time) error {
	if err := store.DeleteMarks(ctx, market, label); err != nil {
		return fmt.Errorf("trader: clear marks %s/%s: %w", market, label, err)
	}

	var allow map[string]bool
	if closeUIDs != nil {
		allow = make(map[string]bool, len(closeUIDs))
		for _, uid := range closeUIDs {
			allow[uid] = true
		}
	}

	for code, orders := range t.orders {
		for _, o := range orders {
			if allow != nil && o.Type.IsClose() && !allow[o.CloseUID] {
				continue
			}
			if !startDT.IsZero() && o.Datetime.Before(startDT) {
				continue
			}
			mark := domain.ChartMark{
				Market:   market,
				Code:     code,
				Datetime: o.Datetime,
				Label:    label,
				Text:     o.Info,
				Shape:    orderShapes[o.Type],
				Color:    orderColors[o.Type],
			}
			if err := store.AddMark(ctx, mark); err != nil {
				return fmt.Errorf("trader: add mark %s: %w", code, err)
			}
		}
	}
	return nil
}
