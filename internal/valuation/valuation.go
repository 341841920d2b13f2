// Package valuation derives portfolio figures from idea/position state and
// whatever live prices are available. All money math is done in decimals;
// rounding for display is left to the callers.
package valuation

import (
	"sort"

	"github.com/shopspring/decimal"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/internal/market"
)

// Basis identifies which data source backed a position's valuation.
type Basis string

const (
	BasisLive   Basis = "live"
	BasisCached Basis = "cached"
	BasisNone   Basis = "none"
)

// PriceView is a read-only lookup of live prices by stock code.
type PriceView interface {
	Quote(stockCode string) (market.PriceSnapshot, bool)
}

// PositionValuation is the derived valuation of one open position.
type PositionValuation struct {
	PositionID uint
	IdeaID     uint
	StockCode  string
	Basis      Basis
	// Price is the live or cached price backing the valuation, zero when
	// neither is available.
	Price     float64
	Profit    decimal.Decimal
	ReturnPct decimal.Decimal
}

// Summary is the aggregate valuation over every open position.
type Summary struct {
	TotalUnrealized decimal.Decimal
	TotalCost       decimal.Decimal
	// Live reports whether at least one position was valued from a live
	// quote. A summary built purely from cached snapshots is not live.
	Live        bool
	LiveCount   int
	CachedCount int
	NoneCount   int
	Positions   []PositionValuation
}

// TotalReturnPct returns the aggregate return over cost, zero when no cost
// basis exists.
func (s Summary) TotalReturnPct() decimal.Decimal {
	if s.TotalCost.IsZero() {
		return decimal.Zero
	}
	return s.TotalUnrealized.Div(s.TotalCost).Mul(decimal.NewFromInt(100))
}

// Valuate computes the valuation of a single open position. A live quote
// takes precedence over the persisted snapshot; with neither, the position
// contributes zero.
func Valuate(pos entity.StockPosition, view PriceView) PositionValuation {
	pv := PositionValuation{
		PositionID: pos.ID,
		IdeaID:     pos.IdeaID,
		StockCode:  pos.StockCode,
		Basis:      BasisNone,
		Profit:     decimal.Zero,
		ReturnPct:  decimal.Zero,
	}

	if view != nil {
		if snap, ok := view.Quote(pos.StockCode); ok {
			entry := decimal.NewFromFloat(pos.EntryPrice)
			live := decimal.NewFromFloat(snap.Price)
			quantity := decimal.NewFromFloat(pos.Quantity)

			pv.Basis = BasisLive
			pv.Price = snap.Price
			pv.Profit = live.Sub(entry).Mul(quantity)
			if pos.EntryPrice > 0 {
				pv.ReturnPct = live.Sub(entry).Div(entry).Mul(decimal.NewFromInt(100))
			}
			return pv
		}
	}

	if pos.UnrealizedProfit != nil {
		pv.Basis = BasisCached
		pv.Profit = decimal.NewFromFloat(*pos.UnrealizedProfit)
		if pos.CurrentPrice != nil {
			pv.Price = *pos.CurrentPrice
		}
		if pos.UnrealizedReturnPct != nil {
			pv.ReturnPct = decimal.NewFromFloat(*pos.UnrealizedReturnPct)
		}
	}

	return pv
}

// Aggregate flattens the idea tree, filters to open positions, and sums their
// valuations. Closed positions never contribute.
func Aggregate(ideas []entity.Idea, view PriceView) Summary {
	s := Summary{
		TotalUnrealized: decimal.Zero,
		TotalCost:       decimal.Zero,
	}

	for _, idea := range ideas {
		for _, pos := range idea.Positions {
			if !pos.IsOpen {
				continue
			}

			pv := Valuate(pos, view)
			s.Positions = append(s.Positions, pv)
			s.TotalUnrealized = s.TotalUnrealized.Add(pv.Profit)
			s.TotalCost = s.TotalCost.Add(
				decimal.NewFromFloat(pos.EntryPrice).Mul(decimal.NewFromFloat(pos.Quantity)))

			switch pv.Basis {
			case BasisLive:
				s.LiveCount++
			case BasisCached:
				s.CachedCount++
			default:
				s.NoneCount++
			}
		}
	}

	s.Live = s.LiveCount > 0
	return s
}

// OpenStockCodes returns the distinct, sorted stock codes across all open
// positions. This set drives the polling scheduler.
func OpenStockCodes(ideas []entity.Idea) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0)

	for _, idea := range ideas {
		for _, pos := range idea.Positions {
			if !pos.IsOpen || pos.StockCode == "" {
				continue
			}
			if _, ok := seen[pos.StockCode]; ok {
				continue
			}
			seen[pos.StockCode] = struct{}{}
			codes = append(codes, pos.StockCode)
		}
	}

	sort.Strings(codes)
	return codes
}
