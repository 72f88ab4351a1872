package usecase

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/tradewall/tradewall/internal/domain"
)

// HedgeCalculator derives entry/exit/size parameters for a ladder of short
// hedge legs layered against a long spot position. Pure: no state, no I/O,
// safe to call concurrently.
type HedgeCalculator struct{}

func NewHedgeCalculator() *HedgeCalculator {
	return &HedgeCalculator{}
}

// ComputeLadder returns hedgesCount setups, evenly spaced between startPrice
// and the spot's take-profit target.
//
// riskPercent accepts either a 0-100 percentage or a 0-1 fraction ("50" and
// "0.5" produce identical ladders). The total risk budget is always a
// fraction of the original spot's upside (|spotTP-spotEntry| * spotAmount),
// never of any individual leg, and is split equally across legs.
//
// startPrice re-anchors the grid without moving the risk-budget basis; pass
// 0 (or any non-positive value) to anchor at spotEntry. Every leg's stop is
// the spot TP itself: once the spot's target is hit, all hedges close
// together. A leg whose entry lands exactly on the spot TP is emitted
// zero-sized rather than rejected.
func (c *HedgeCalculator) ComputeLadder(spotEntry, spotTP, spotAmount, riskPercent float64, hedgesCount int, startPrice float64) ([]domain.HedgeSetup, error) {
	if spotAmount <= 0 {
		return nil, fmt.Errorf("%w: spot amount must be positive, got %v", domain.ErrInvalidArgument, spotAmount)
	}
	if hedgesCount < 1 {
		return nil, fmt.Errorf("%w: hedges count must be at least 1, got %d", domain.ErrInvalidArgument, hedgesCount)
	}

	// UI controls pass "50" meaning 50%.
	p := riskPercent
	if p > 1 {
		p /= 100
	}

	spotProfit := math.Abs(spotTP-spotEntry) * spotAmount
	totalRiskBudget := spotProfit * p
	riskPerLeg := totalRiskBudget / float64(hedgesCount)

	gridStart := startPrice
	if gridStart <= 0 {
		gridStart = spotEntry
	}

	// Signed: a target below the grid start flips the ladder direction,
	// which is the normal case for shorts laddered under a long.
	totalDistance := spotTP - gridStart

	setups := make([]domain.HedgeSetup, 0, hedgesCount)
	for i := 0; i < hedgesCount; i++ {
		// Legs sit at 0, 1/N, 2/N, ... of the distance: the first leg is
		// pinned to gridStart, the last never reaches spotTP itself.
		ratio := float64(i) / float64(hedgesCount)
		entry := gridStart + totalDistance*ratio

		sl := spotTP
		distanceToSL := math.Abs(sl - entry)

		// Sized so a stop-out costs exactly this leg's slice of the budget.
		var coinAmount float64
		if distanceToSL > 0 {
			coinAmount = riskPerLeg / distanceToSL
		}

		// 1:1 reward:risk, so a short leg's target sits as far below entry
		// as the stop is above it.
		tp := entry - distanceToSL
		potentialProfit := math.Abs(entry-tp) * coinAmount

		// Rounding is display-only; nothing below feeds back into the grid.
		setups = append(setups, domain.HedgeSetup{
			Index:           i + 1,
			Entry:           roundPlaces(entry, 4),
			TP:              roundPlaces(tp, 4),
			SL:              roundPlaces(sl, 4),
			RiskAmount:      roundPlaces(riskPerLeg, 2),
			PotentialProfit: roundPlaces(potentialProfit, 2),
			CoinAmount:      roundPlaces(coinAmount, 6),
			InvestAmount:    roundPlaces(entry*coinAmount, 2),
		})
	}

	return setups, nil
}

func roundPlaces(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
