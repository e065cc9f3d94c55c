package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/quantframe/simtrader/internal/trader"
)

// Archiver exports the results of one backtest run as JSON objects under
// {prefix}/{trader name}/{run id}/. Uploads run concurrently; the engine
// itself is never touched from more than one goroutine because the archiver
// serializes every document up front.
type Archiver struct {
	writer *Writer
	prefix string
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing under the given key prefix.
func NewArchiver(writer *Writer, prefix string, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		prefix: prefix,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveRun uploads the order log, position history, valuation histories,
// statistics table and event log of the run.
func (a *Archiver) ArchiveRun(ctx context.Context, t *trader.Trader) error {
	docs := map[string]any{
		"orders.json":                    t.Orders(),
		"positions_history.json":         t.PositionsHistory(),
		"hold_profit_history.json":       t.HoldProfitHistory(),
		"balance_history.json":           t.BalanceHistory(),
		"positions_balance_history.json": t.PositionsBalanceHistory(),
		"results.json":                   t.Results(),
		"log_history.json":               t.LogHistory(),
	}

	type object struct {
		key  string
		body []byte
	}
	objects := make([]object, 0, len(docs))
	for name, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("s3blob: marshal %s: %w", name, err)
		}
		objects = append(objects, object{
			key:  path.Join(a.prefix, t.Name(), t.RunID(), name),
			body: body,
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, obj := range objects {
		obj := obj
		g.Go(func() error {
			// Order logs can grow past single-shot upload comfort on long
			// runs; the multipart path degrades to one part for small bodies.
			if int64(len(obj.body)) >= minPartSize {
				return a.writer.PutMultipart(ctx, obj.key, bytes.NewReader(obj.body), minPartSize)
			}
			return a.writer.Put(ctx, obj.key, bytes.NewReader(obj.body), "application/json")
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", t.RunID(), err)
	}

	a.logger.Info("archived backtest run",
		slog.String("run_id", t.RunID()),
		slog.Int("objects", len(objects)),
	)
	return nil
}
