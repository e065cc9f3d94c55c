package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantframe/simtrader/internal/domain"
)

func TestWinRate(t *testing.T) {
	assert.Equal(t, 0.0, Result{}.WinRate())
	assert.InDelta(t, 75.0, Result{WinNum: 3, LossNum: 1}.WinRate(), 1e-9)
	assert.InDelta(t, 100.0, Result{WinNum: 2}.WinRate(), 1e-9)
}

func TestResultsCoverEverySignalPoint(t *testing.T) {
	tr := New(Options{Name: "test", Mode: ModeSignal, MaxPos: 10})
	results := tr.Results()
	for _, p := range domain.AllSignalPoints() {
		assert.Contains(t, results, p)
	}
	assert.Len(t, results, len(domain.AllSignalPoints()))
}
