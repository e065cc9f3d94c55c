package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quantframe/simtrader/internal/domain"
	"github.com/quantframe/simtrader/internal/trader"
)

// restoreTrader builds a Trader from the configured engine parameters and
// loads the persisted run state for it. Returns an error when no snapshot
// exists under the configured key; both offline modes are meaningless without
// a completed run to inspect.
func (a *App) restoreTrader(ctx context.Context, deps *Dependencies) (*trader.Trader, error) {
	t := trader.New(trader.Options{
		Name:        a.cfg.Trader.Name,
		Mode:        trader.Mode(strings.ToLower(a.cfg.Trader.Mode)),
		IsStock:     a.cfg.Trader.IsStock,
		IsFutures:   a.cfg.Trader.IsFutures,
		InitBalance: a.cfg.Trader.InitBalance,
		FeeRate:     a.cfg.Trader.FeeRate,
		MaxPos:      a.cfg.Trader.MaxPos,
		Logger:      a.logger,
	})

	ok, err := t.Restore(ctx, deps.Snapshots, a.cfg.Trader.SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("app: restore snapshot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("app: no snapshot found under key %q", a.cfg.Trader.SnapshotKey)
	}
	return t, nil
}

// StatsMode restores the configured run snapshot and logs its win/loss
// statistics, one line per signal point plus a totals line.
func (a *App) StatsMode(ctx context.Context, deps *Dependencies) error {
	t, err := a.restoreTrader(ctx, deps)
	if err != nil {
		return err
	}

	var totalWin, totalLoss int
	for _, p := range domain.AllSignalPoints() {
		r := t.Result(p)
		if r.WinNum == 0 && r.LossNum == 0 {
			continue
		}
		totalWin += r.WinNum
		totalLoss += r.LossNum
		a.logger.InfoContext(ctx, "signal point result",
			slog.String("mmd", string(p)),
			slog.Int("win_num", r.WinNum),
			slog.Int("loss_num", r.LossNum),
			slog.Float64("win_balance", r.WinBalance),
			slog.Float64("loss_balance", r.LossBalance),
			slog.Float64("win_rate", r.WinRate()),
		)
	}

	a.logger.InfoContext(ctx, "run summary",
		slog.String("run_id", t.RunID()),
		slog.Float64("balance", t.Balance()),
		slog.Float64("fee_total", t.FeeTotal()),
		slog.Int("win_num", totalWin),
		slog.Int("loss_num", totalLoss),
		slog.Int("hold_positions", len(t.HoldPositions())),
	)
	return nil
}

// ExportMode restores the configured run snapshot, rewrites its chart marks
// into Postgres, and ships the result documents to object storage. Either
// sink may be disabled.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	t, err := a.restoreTrader(ctx, deps)
	if err != nil {
		return err
	}

	if deps.Marks != nil {
		err := t.DrawOrderMarks(ctx, deps.Marks,
			a.cfg.Export.Market,
			a.cfg.Export.MarkLabel,
			a.cfg.Export.CloseUIDs,
			a.cfg.Export.StartTime.Time,
		)
		if err != nil {
			return fmt.Errorf("app: draw order marks: %w", err)
		}
		a.logger.InfoContext(ctx, "chart marks exported",
			slog.String("market", a.cfg.Export.Market),
			slog.String("label", a.cfg.Export.MarkLabel),
		)
	}

	if deps.Archiver != nil {
		if err := deps.Archiver.ArchiveRun(ctx, t); err != nil {
			return fmt.Errorf("app: archive run: %w", err)
		}
		a.logger.InfoContext(ctx, "run results archived",
			slog.String("run_id", t.RunID()),
		)
	}

	if deps.Marks == nil && deps.Archiver == nil {
		a.logger.WarnContext(ctx, "export mode has no enabled sinks")
	}
	return nil
}
