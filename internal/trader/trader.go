// Package trader implements the accounting and execution engine of a trading
// backtest: it turns strategy operations into balance changes, partial-fill
// bookkeeping, profit/loss computation and terminal position archiving, and
// keeps an auditable order history with per-signal-point win/loss statistics.
//
// The engine is single-threaded by design: every call completes before
// returning and callers must not invoke it concurrently.
package trader

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quantframe/simtrader/internal/domain"
)

// Mode selects the fund model of a backtest run.
type Mode string

const (
	// ModeSignal sizes every trade against a fixed notional, ignoring real
	// cash constraints. Used to study signal quality alone.
	ModeSignal Mode = "signal"
	// ModeTrade models real cash, position-count limits and fee drag.
	ModeTrade Mode = "trade"
	// ModeReal is the live-trading variant of ModeTrade; cash starts at zero
	// and is expected to be synced from the broker.
	ModeReal Mode = "real"
)

const (
	recordTimeFormat = "2006-01-02 15:04:05"
	dateFormat       = "2006-01-02"

	// signalNotional is the fixed per-trade notional of ModeSignal.
	signalNotional = 100000.0
)

// Options configures a Trader.
type Options struct {
	Name        string
	Mode        Mode
	IsStock     bool // same-day sales are banned on stock instruments
	IsFutures   bool // futures instruments may open short legs
	InitBalance float64
	FeeRate     float64
	MaxPos      int
	Logger      *slog.Logger
}

// Trader holds the full mutable state of one backtest run: cash, fees, live
// and historical positions, order logs, valuation histories and the win/loss
// statistics table. Lifetime is one run; construct a new Trader (or restore a
// snapshot) to reset.
type Trader struct {
	name      string
	mode      Mode
	isStock   bool
	isFutures bool
	feeRate   float64
	maxPos    int
	runID     string

	balance  float64
	feeTotal float64

	logger     *slog.Logger
	logHistory []string

	useTimes map[string]time.Duration

	strategy domain.Strategy
	data     domain.MarketData

	// allowMMDs restricts execution to the listed signal points; nil allows all.
	allowMMDs map[domain.SignalPoint]bool

	positions        map[string]*domain.Position
	positionsHistory map[string][]*domain.Position

	holdProfitHistory       map[string]float64
	balanceHistory          map[string]float64
	positionsBalanceHistory map[string]map[string]float64

	orders map[string][]domain.Order

	results map[domain.SignalPoint]*Result

	beginRunAt time.Time

	// bufferOpts holds opens deferred by filter-mode runs until a
	// RunBufferOpts call releases them.
	bufferOpts []domain.Operation

	// closingOut is set while End() force-closes remaining positions; it
	// lifts the same-day sale restriction for the synthetic exits.
	closingOut bool
}

// New creates a Trader for one backtest run. Initial cash is credited only in
// ModeTrade; ModeSignal accumulates profit from zero and ModeReal syncs cash
// externally.
func New(opts Options) *Trader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	balance := 0.0
	if opts.Mode == ModeTrade {
		balance = opts.InitBalance
	}
	t := &Trader{
		name:      opts.Name,
		mode:      opts.Mode,
		isStock:   opts.IsStock,
		isFutures: opts.IsFutures,
		feeRate:   opts.FeeRate,
		maxPos:    opts.MaxPos,
		runID:     uuid.New().String(),
		balance:   balance,
		logger: logger.With(
			slog.String("component", "trader"),
			slog.String("name", opts.Name),
		),
		useTimes:                make(map[string]time.Duration),
		positions:               make(map[string]*domain.Position),
		positionsHistory:        make(map[string][]*domain.Position),
		holdProfitHistory:       make(map[string]float64),
		balanceHistory:          make(map[string]float64),
		positionsBalanceHistory: make(map[string]map[string]float64),
		orders:                  make(map[string][]domain.Order),
		results:                 newResults(),
	}
	return t
}

// SetStrategy injects the strategy collaborator.
func (t *Trader) SetStrategy(s domain.Strategy) { t.strategy = s }

// SetMarketData injects the market-data collaborator.
func (t *Trader) SetMarketData(d domain.MarketData) { t.data = d }

// SetAllowSignalPoints restricts execution to the given signal points.
// Passing nil removes the restriction.
func (t *Trader) SetAllowSignalPoints(points []domain.SignalPoint) {
	if points == nil {
		t.allowMMDs = nil
		return
	}
	t.allowMMDs = make(map[domain.SignalPoint]bool, len(points))
	for _, p := range points {
		t.allowMMDs[p] = true
	}
}

// SetBeginRunAt gates Run calls until the simulated clock has passed dt.
func (t *Trader) SetBeginRunAt(dt time.Time) { t.beginRunAt = dt }

// Name returns the trader name.
func (t *Trader) Name() string { return t.name }

// RunID returns the unique id of this backtest run.
func (t *Trader) RunID() string { return t.runID }

// Balance returns the current cash balance.
func (t *Trader) Balance() float64 { return t.balance }

// FeeTotal returns the cumulative fees paid.
func (t *Trader) FeeTotal() float64 { return t.feeTotal }

// Position returns the live position for openUID, or nil.
func (t *Trader) Position(openUID string) *domain.Position {
	return t.positions[openUID]
}

// HoldPositions returns every position that still holds funds.
func (t *Trader) HoldPositions() []*domain.Position {
	holds := make([]*domain.Position, 0, len(t.positions))
	for _, uid := range t.sortedPositionUIDs() {
		if pos := t.positions[uid]; pos.Balance != 0 {
			holds = append(holds, pos)
		}
	}
	return holds
}

// PositionCodes returns the distinct codes currently held.
func (t *Trader) PositionCodes() []string {
	seen := make(map[string]bool)
	for _, pos := range t.positions {
		if pos.Balance != 0 {
			seen[pos.Code] = true
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PositionsHistory returns the archived positions per code.
func (t *Trader) PositionsHistory() map[string][]*domain.Position {
	return t.positionsHistory
}

// Orders returns the per-code order log.
func (t *Trader) Orders() map[string][]domain.Order { return t.orders }

// HoldProfitHistory returns the time-indexed total floating profit history.
func (t *Trader) HoldProfitHistory() map[string]float64 { return t.holdProfitHistory }

// BalanceHistory returns the time-indexed total equity history.
func (t *Trader) BalanceHistory() map[string]float64 { return t.balanceHistory }

// PositionsBalanceHistory returns the time-indexed per-code notional breakdown.
func (t *Trader) PositionsBalanceHistory() map[string]map[string]float64 {
	return t.positionsBalanceHistory
}

// LogHistory returns every event line logged so far.
func (t *Trader) LogHistory() []string { return t.logHistory }

// UseTimes returns cumulative wall time spent per engine phase.
func (t *Trader) UseTimes() map[string]time.Duration { return t.useTimes }

// AddTime accumulates wall time for an engine phase.
func (t *Trader) AddTime(key string, d time.Duration) {
	t.useTimes[key] += d
}

// now returns the current simulated time from the market-data collaborator.
func (t *Trader) now() time.Time {
	if t.data == nil {
		return time.Now()
	}
	return t.data.Now()
}

func (t *Trader) lastBar(code string) (domain.Bar, error) {
	if t.data == nil {
		return domain.Bar{}, domain.ErrNoMarketData
	}
	bar, err := t.data.LastBar(code)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("trader: last bar %s: %w", code, err)
	}
	return bar, nil
}

// logf appends a formatted line to the in-memory log history and mirrors it to
// the structured logger.
func (t *Trader) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.logHistory = append(t.logHistory, msg)
	t.logger.Info(msg, slog.String("run_id", t.runID))
}

// sortedPositionUIDs returns live-map keys in a stable order so replayed runs
// execute identically.
func (t *Trader) sortedPositionUIDs() []string {
	uids := make([]string, 0, len(t.positions))
	for uid := range t.positions {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}
