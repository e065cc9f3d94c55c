package trader

import "github.com/quantframe/simtrader/internal/domain"

// Result is one win/loss statistics bucket, accumulated per signal point each
// time a position fully closes.
type Result struct {
	WinNum      int     `json:"win_num"`
	LossNum     int     `json:"loss_num"`
	WinBalance  float64 `json:"win_balance"`
	LossBalance float64 `json:"loss_balance"`
}

// WinRate returns wins over total closes in percent, or 0 with no closes.
func (r Result) WinRate() float64 {
	total := r.WinNum + r.LossNum
	if total == 0 {
		return 0
	}
	return round2(float64(r.WinNum) / float64(total) * 100)
}

func newResults() map[domain.SignalPoint]*Result {
	results := make(map[domain.SignalPoint]*Result, len(domain.AllSignalPoints()))
	for _, p := range domain.AllSignalPoints() {
		results[p] = &Result{}
	}
	return results
}

// Results returns the per-signal-point statistics table.
func (t *Trader) Results() map[domain.SignalPoint]*Result { return t.results }

// Result returns the statistics bucket for one signal point.
func (t *Trader) Result(p domain.SignalPoint) Result {
	if r := t.results[p]; r != nil {
		return *r
	}
	return Result{}
}
