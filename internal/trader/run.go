package trader

import (
	"time"

	"github.com/quantframe/simtrader/internal/domain"
)

// Run processes one instrument at the current simulated instant: it asks the
// strategy for close operations on every live position first, then for open
// operations, executes them in that order, and prunes emptied positions.
//
// When filter is true, open operations are buffered instead of executed so the
// caller can gather a whole instant's candidates and release them through
// RunBufferOpts after re-filtering.
func (t *Trader) Run(code string, filter bool) error {
	if t.strategy == nil {
		return domain.ErrNoStrategy
	}
	if t.data == nil {
		return domain.ErrNoMarketData
	}

	// Not yet past the configured begin instant.
	if !t.beginRunAt.IsZero() && !t.beginRunAt.Before(t.now()) {
		return nil
	}

	allowUIDs := t.allowedCloseUIDs()

	// Closes first: free cash before committing new capital.
	for _, uid := range t.sortedPositionUIDs() {
		pos := t.positions[uid]
		if pos.Code != code || pos.Balance == 0 {
			continue
		}
		start := time.Now()
		opts := t.strategy.Close(code, pos.MMD, pos, t.data)
		t.AddTime("strategy_close", time.Since(start))

		for _, opt := range opts {
			opt.Code = code
			// An unset close uid means a terminal close; normalize before
			// the allow-list check so it matches the sentinel entry.
			if opt.CloseUID == "" {
				opt.CloseUID = domain.CloseUIDClear
			}
			if t.mode != ModeSignal && allowUIDs != nil && !allowUIDs[opt.CloseUID] {
				continue
			}
			t.Execute(code, opt, pos)
		}
	}

	holds := t.holdPositionsOn(code)

	start := time.Now()
	opts := t.strategy.Open(code, t.data, holds)
	t.AddTime("strategy_open", time.Since(start))

	for _, opt := range opts {
		opt.Code = code
		if filter {
			t.bufferOpts = append(t.bufferOpts, opt)
		} else {
			t.Execute(code, opt, nil)
		}
	}

	t.prunePositions()
	return nil
}

// RunBufferOpts releases every deferred open collected by filter-mode runs.
func (t *Trader) RunBufferOpts() {
	for _, opt := range t.bufferOpts {
		t.Execute(opt.Code, opt, nil)
	}
	t.bufferOpts = nil
}

// BufferOpts returns the currently deferred opens.
func (t *Trader) BufferOpts() []domain.Operation { return t.bufferOpts }

// End force-closes every remaining live position with a synthetic exit
// operation carrying the terminal close uid. Same-day sale restrictions do not
// apply to these exits.
func (t *Trader) End() {
	t.closingOut = true
	defer func() { t.closingOut = false }()

	for _, uid := range t.sortedPositionUIDs() {
		pos := t.positions[uid]
		if pos.Balance <= 0 {
			continue
		}
		t.Execute(pos.Code, domain.Operation{
			Opt:      domain.OpSell,
			MMD:      pos.MMD,
			Code:     pos.Code,
			PosRate:  1,
			CloseUID: domain.CloseUIDClear,
			Msg:      "exit",
		}, pos)
	}
	t.prunePositions()
}

func (t *Trader) holdPositionsOn(code string) []*domain.Position {
	var holds []*domain.Position
	for _, uid := range t.sortedPositionUIDs() {
		if pos := t.positions[uid]; pos.Code == code && pos.Balance != 0 {
			holds = append(holds, pos)
		}
	}
	return holds
}

// prunePositions drops every emptied position from the live map.
func (t *Trader) prunePositions() {
	for uid, pos := range t.positions {
		if pos.Balance == 0 {
			delete(t.positions, uid)
		}
	}
}

func (t *Trader) allowedCloseUIDs() map[string]bool {
	uids := t.strategy.AllowCloseUIDs()
	if uids == nil {
		return nil
	}
	allow := make(map[string]bool, len(uids))
	for _, uid := range uids {
		allow[uid] = true
	}
	return allow
}
