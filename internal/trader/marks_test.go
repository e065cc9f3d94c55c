package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/simtrader/internal/domain"
)

// memMarkStore is an in-memory domain.MarkStore.
type memMarkStore struct {
	deletes int
	marks   []domain.ChartMark
}

func (s *memMarkStore) DeleteMarks(_ context.Context, market, label string) error {
	s.deletes++
	kept := s.marks[:0]
	for _, m := range s.marks {
		if m.Market != market || m.Label != label {
			kept = append(kept, m)
		}
	}
	s.marks = kept
	return nil
}

func (s *memMarkStore) AddMark(_ context.Context, m domain.ChartMark) error {
	s.marks = append(s.marks, m)
	return nil
}

func TestDrawOrderMarksMapping(t *testing.T) {
	ctx := context.Background()
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1", Msg: "entry",
	}, nil))
	market.setClose(testCode, 11)
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "close", CloseUID: domain.CloseUIDClear, Msg: "tp",
	}, tr.Position("uid-1")))

	store := &memMarkStore{}
	require.NoError(t, tr.DrawOrderMarks(ctx, store, "a", "bt", nil, time.Time{}))

	assert.Equal(t, 1, store.deletes)
	require.Len(t, store.marks, 2)

	open, cls := store.marks[0], store.marks[1]
	assert.Equal(t, "a", open.Market)
	assert.Equal(t, "bt", open.Label)
	assert.Equal(t, testCode, open.Code)
	assert.Equal(t, "entry", open.Text)
	assert.Equal(t, "red", open.Color)
	assert.Equal(t, "earningUp", open.Shape)

	assert.Equal(t, "tp", cls.Text)
	assert.Equal(t, "green", cls.Color)
	assert.Equal(t, "earningDown", cls.Shape)
}

func TestDrawOrderMarksFilters(t *testing.T) {
	ctx := context.Background()
	market := newStubMarket()
	market.setClose(testCode, 10)
	tr := newSignalTrader(market)

	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpBuy, MMD: domain.SPFirstBuy, PosRate: 1, Key: "open", OpenUID: "uid-1",
	}, nil))
	market.setClose(testCode, 11)
	// Preview close with a non-terminal uid, then the terminal close.
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "c1", CloseUID: "check",
	}, tr.Position("uid-1")))
	require.True(t, tr.Execute(testCode, domain.Operation{
		Opt: domain.OpSell, MMD: domain.SPFirstBuy, PosRate: 1, Key: "c2", CloseUID: domain.CloseUIDClear,
	}, tr.Position("uid-1")))

	// Close-uid filter keeps open orders and only the listed close orders.
	store := &memMarkStore{}
	require.NoError(t, tr.DrawOrderMarks(ctx, store, "a", "bt", []string{domain.CloseUIDClear}, time.Time{}))
	require.Len(t, store.marks, 2)
	for _, m := range store.marks {
		if m.Shape == "earningDown" {
			assert.Equal(t, "green", m.Color)
		}
	}

	// A start time after every fill drops all marks.
	store = &memMarkStore{}
	require.NoError(t, tr.DrawOrderMarks(ctx, store, "a", "bt", nil, market.Now().Add(time.Hour)))
	assert.Empty(t, store.marks)
	assert.Equal(t, 1, store.deletes)
}
