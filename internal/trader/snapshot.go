package trader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

// snapshot is the JSON shape of a persisted trader state.
type snapshot struct {
	Name      string `json:"name"`
	Mode      Mode   `json:"mode"`
	IsStock   bool   `json:"is_stock"`
	IsFutures bool   `json:"is_futures"`

	AllowMMDs []domain.SignalPoint `json:"allow_mmds,omitempty"`

	Balance  float64 `json:"balance"`
	FeeRate  float64 `json:"fee_rate"`
	FeeTotal float64 `json:"fee_total"`
	MaxPos   int     `json:"max_pos"`

	Positions        map[string]*domain.Position   `json:"positions"`
	PositionsHistory map[string][]*domain.Position `json:"positions_history"`

	HoldProfitHistory       map[string]float64            `json:"hold_profit_history"`
	BalanceHistory          map[string]float64            `json:"balance_history"`
	PositionsBalanceHistory map[string]map[string]float64 `json:"positions_balance_history"`

	Orders  map[string][]domain.Order      `json:"orders"`
	Results map[domain.SignalPoint]*Result `json:"results"`
	SavedAt time.Time                      `json:"saved_at"`
}

// Save persists the full trader state under key.
func (t *Trader) Save(ctx context.Context, store domain.SnapshotStore, key string) error {
	var allow []domain.SignalPoint
	if t.allowMMDs != nil {
		for _, p := range domain.AllSignalPoints() {
			if t.allowMMDs[p] {
				allow = append(allow, p)
			}
		}
	}

	snap := snapshot{
		Name:                    t.name,
		Mode:                    t.mode,
		IsStock:                 t.isStock,
		IsFutures:               t.isFutures,
		AllowMMDs:               allow,
		Balance:                 t.balance,
		FeeRate:                 t.feeRate,
		FeeTotal:                t.feeTotal,
		MaxPos:                  t.maxPos,
		Positions:               t.positions,
		PositionsHistory:        t.positionsHistory,
		HoldProfitHistory:       t.holdProfitHistory,
		BalanceHistory:          t.balanceHistory,
		PositionsBalanceHistory: t.positionsBalanceHistory,
		Orders:                  t.orders,
		Results:                 t.results,
		SavedAt:                 time.Now().UTC(),
	}

	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("trader: marshal snapshot: %w", err)
	}
	if err := store.Save(ctx, key, blob); err != nil {
		return fmt.Errorf("trader: save snapshot %s: %w", key, err)
	}
	return nil
}

// Restore replaces the trader state with the snapshot stored under key. A
// missing key is a soft failure: Restore returns (false, nil) and leaves the
// trader untouched.
func (t *Trader) Restore(ctx context.Context, store domain.SnapshotStore, key string) (bool, error) {
	blob, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("trader: load snapshot %s: %w", key, err)
	}

	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return false, fmt.Errorf("trader: unmarshal snapshot %s: %w", key, err)
	}

	t.name = snap.Name
	t.mode = snap.Mode
	t.isStock = snap.IsStock
	t.isFutures = snap.IsFutures
	t.balance = snap.Balance
	t.feeRate = snap.FeeRate
	t.feeTotal = snap.FeeTotal
	t.maxPos = snap.MaxPos

	if snap.AllowMMDs != nil {
		t.SetAllowSignalPoints(snap.AllowMMDs)
	} else {
		t.allowMMDs = nil
	}

	t.positions = snap.Positions
	if t.positions == nil {
		t.positions = make(map[string]*domain.Position)
	}
	t.positionsHistory = snap.PositionsHistory
	if t.positionsHistory == nil {
		t.positionsHistory = make(map[string][]*domain.Position)
	}
	t.holdProfitHistory = snap.HoldProfitHistory
	if t.holdProfitHistory == nil {
		t.holdProfitHistory = make(map[string]float64)
	}
	t.balanceHistory = snap.BalanceHistory
	if t.balanceHistory == nil {
		t.balanceHistory = make(map[string]float64)
	}
	t.positionsBalanceHistory = snap.PositionsBalanceHistory
	if t.positionsBalanceHistory == nil {
		t.positionsBalanceHistory = make(map[string]map[string]float64)
	}
	t.orders = snap.Orders
	if t.orders == nil {
		t.orders = make(map[string][]domain.Order)
	}

	t.results = newResults()
	for p, r := range snap.Results {
		if r != nil {
			t.results[p] = r
		}
	}

	return true, nil
}
