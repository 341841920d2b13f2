package valuation

import (
	"testing"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/market"
	"golang-idea-tracker/pkg/utils"

	"github.com/stretchr/testify/assert"
)

type fakePriceView map[string]market.PriceSnapshot

func (f fakePriceView) Quote(stockCode string) (market.PriceSnapshot, bool) {
	snap, ok := f[stockCode]
	return snap, ok
}

func openPosition(code string, entry, quantity float64) entity.StockPosition {
	return entity.StockPosition{StockCode: code, EntryPrice: entry, Quantity: quantity, IsOpen: true}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		ideas     []entity.Idea
		view      fakePriceView
		wantTotal string
		wantLive  bool
	}{
		{
			name: "no live entry and no cached profit contributes zero",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{openPosition("005930", 70000, 10)},
			}},
			view:      fakePriceView{},
			wantTotal: "0",
			wantLive:  false,
		},
		{
			name: "live entry yields live delta",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{openPosition("005930", 70000, 10)},
			}},
			view: fakePriceView{
				"005930": {StockCode: "005930", Price: 72000},
			},
			wantTotal: "20000",
			wantLive:  true,
		},
		{
			name: "live and cached positions mix",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{
					openPosition("A", 1000, 5),
					func() entity.StockPosition {
						pos := openPosition("B", 500, 4)
						pos.UnrealizedProfit = utils.ToPointer(-1200.0)
						return pos
					}(),
				},
			}},
			view: fakePriceView{
				"A": {StockCode: "A", Price: 2000},
			},
			wantTotal: "3800",
			wantLive:  true,
		},
		{
			name: "live price wins over cached profit",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{
					func() entity.StockPosition {
						pos := openPosition("005930", 70000, 10)
						pos.UnrealizedProfit = utils.ToPointer(999999.0)
						return pos
					}(),
				},
			}},
			view: fakePriceView{
				"005930": {StockCode: "005930", Price: 72000},
			},
			wantTotal: "20000",
			wantLive:  true,
		},
		{
			name: "closed positions never contribute",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{
					func() entity.StockPosition {
						pos := openPosition("005930", 70000, 10)
						pos.IsOpen = false
						pos.UnrealizedProfit = utils.ToPointer(5000.0)
						return pos
					}(),
				},
			}},
			view: fakePriceView{
				"005930": {StockCode: "005930", Price: 72000},
			},
			wantTotal: "0",
			wantLive:  false,
		},
		{
			name: "cached only aggregate is not live",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{
					func() entity.StockPosition {
						pos := openPosition("A", 1000, 1)
						pos.UnrealizedProfit = utils.ToPointer(250.0)
						return pos
					}(),
				},
			}},
			view:      fakePriceView{},
			wantTotal: "250",
			wantLive:  false,
		},
		{
			name: "zero quantity contributes nothing",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{openPosition("A", 1000, 0)},
			}},
			view: fakePriceView{
				"A": {StockCode: "A", Price: 2000},
			},
			wantTotal: "0",
			wantLive:  true,
		},
		{
			name: "fractional prices sum exactly",
			ideas: []entity.Idea{{
				Positions: []entity.StockPosition{openPosition("A", 100.1, 3)},
			}},
			view: fakePriceView{
				"A": {StockCode: "A", Price: 100.4},
			},
			wantTotal: "0.9",
			wantLive:  true,
		},
		{
			name: "positions across multiple ideas are flattened",
			ideas: []entity.Idea{
				{Positions: []entity.StockPosition{openPosition("A", 100, 1)}},
				{Positions: []entity.StockPosition{openPosition("B", 200, 2)}},
			},
			view: fakePriceView{
				"A": {StockCode: "A", Price: 150},
				"B": {StockCode: "B", Price: 250},
			},
			wantTotal: "150",
			wantLive:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.ideas, tt.view)
			assert.Equal(t, tt.wantTotal, got.TotalUnrealized.String())
			assert.Equal(t, tt.wantLive, got.Live)
		})
	}
}

func TestAggregateCountsBases(t *testing.T) {
	ideas := []entity.Idea{{
		Positions: []entity.StockPosition{
			openPosition("A", 100, 1),
			func() entity.StockPosition {
				pos := openPosition("B", 100, 1)
				pos.UnrealizedProfit = utils.ToPointer(10.0)
				return pos
			}(),
			openPosition("C", 100, 1),
		},
	}}
	view := fakePriceView{"A": {StockCode: "A", Price: 110}}

	got := Aggregate(ideas, view)

	assert.Equal(t, 1, got.LiveCount)
	assert.Equal(t, 1, got.CachedCount)
	assert.Equal(t, 1, got.NoneCount)
	assert.Len(t, got.Positions, 3)
}

func TestValuate(t *testing.T) {
	t.Run("live basis computes return pct from entry", func(t *testing.T) {
		pos := openPosition("005930", 70000, 10)
		got := Valuate(pos, fakePriceView{"005930": {StockCode: "005930", Price: 72000}})

		assert.Equal(t, BasisLive, got.Basis)
		assert.Equal(t, 72000.0, got.Price)
		assert.Equal(t, "20000", got.Profit.String())
		assert.Equal(t, "2.8571", got.ReturnPct.Round(4).String())
	})

	t.Run("zero entry price skips return pct", func(t *testing.T) {
		pos := openPosition("A", 0, 10)
		got := Valuate(pos, fakePriceView{"A": {StockCode: "A", Price: 100}})

		assert.Equal(t, BasisLive, got.Basis)
		assert.Equal(t, "1000", got.Profit.String())
		assert.True(t, got.ReturnPct.IsZero())
	})

	t.Run("cached basis carries persisted snapshot fields", func(t *testing.T) {
		pos := openPosition("A", 1000, 2)
		pos.UnrealizedProfit = utils.ToPointer(-150.0)
		pos.CurrentPrice = utils.ToPointer(925.0)
		pos.UnrealizedReturnPct = utils.ToPointer(-7.5)

		got := Valuate(pos, fakePriceView{})

		assert.Equal(t, BasisCached, got.Basis)
		assert.Equal(t, 925.0, got.Price)
		assert.Equal(t, "-150", got.Profit.String())
		assert.Equal(t, "-7.5", got.ReturnPct.String())
	})

	t.Run("nil view falls back to cached", func(t *testing.T) {
		pos := openPosition("A", 1000, 2)
		pos.UnrealizedProfit = utils.ToPointer(40.0)

		got := Valuate(pos, nil)

		assert.Equal(t, BasisCached, got.Basis)
		assert.Equal(t, "40", got.Profit.String())
	})

	t.Run("no data at all contributes zero", func(t *testing.T) {
		got := Valuate(openPosition("A", 1000, 2), fakePriceView{})

		assert.Equal(t, BasisNone, got.Basis)
		assert.True(t, got.Profit.IsZero())
		assert.True(t, got.ReturnPct.IsZero())
	})
}

func TestTotalReturnPct(t *testing.T) {
	ideas := []entity.Idea{{
		Positions: []entity.StockPosition{openPosition("A", 10000, 10)},
	}}
	view := fakePriceView{"A": {StockCode: "A", Price: 10500}}

	got := Aggregate(ideas, view)
	assert.Equal(t, "5", got.TotalReturnPct().String())

	empty := Aggregate(nil, fakePriceView{})
	assert.True(t, empty.TotalReturnPct().IsZero())
}

func TestOpenStockCodes(t *testing.T) {
	ideas := []entity.Idea{
		{Positions: []entity.StockPosition{
			openPosition("035720", 100, 1),
			openPosition("005930", 100, 1),
		}},
		{Positions: []entity.StockPosition{
			openPosition("005930", 200, 2),
			func() entity.StockPosition {
				pos := openPosition("000660", 100, 1)
				pos.IsOpen = false
				return pos
			}(),
			openPosition("", 100, 1),
		}},
	}

	assert.Equal(t, []string{"005930", "035720"}, OpenStockCodes(ideas))
	assert.Empty(t, OpenStockCodes(nil))
}
