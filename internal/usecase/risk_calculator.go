package usecase

import (
	"fmt"
	"math"

	"github.com/tradewall/tradewall/internal/domain"
)

// RiskResult is the output of the standalone position-size calculator.
type RiskResult struct {
	Amount         float64 `json:"amount"`
	PositionSize   float64 `json:"position_size"`
	TPPercent      float64 `json:"tp_percent"`
	SLPercent      float64 `json:"sl_percent"`
	ExpectedProfit float64 `json:"expected_profit"`
	ExpectedLoss   float64 `json:"expected_loss"`
}

// RiskCalculator sizes positions from a dollar risk budget and a stop
// distance. Direction-agnostic: distances are absolute, so the same math
// serves long and short entries.
type RiskCalculator struct{}

func NewRiskCalculator() *RiskCalculator {
	return &RiskCalculator{}
}

// PositionSize computes the coin amount whose stop-out loses exactly risk
// dollars, plus the resulting exposure and TP/SL distances. Entry, risk and
// stop are required; tp may be 0, which zeroes the profit projections.
// Degenerate input (zero stop distance, missing fields) returns a zero
// result rather than an error, matching a live form that is still being
// filled in.
func (c *RiskCalculator) PositionSize(risk, entry, tp, sl float64) RiskResult {
	if entry <= 0 || risk <= 0 || sl <= 0 {
		return RiskResult{}
	}
	priceDiff := math.Abs(entry - sl)
	if priceDiff == 0 {
		return RiskResult{}
	}

	amount := risk / priceDiff
	res := RiskResult{
		Amount:       amount,
		PositionSize: amount * entry,
		SLPercent:    math.Abs(sl-entry) / entry * 100,
		ExpectedLoss: amount * math.Abs(sl-entry),
	}
	if tp > 0 {
		res.TPPercent = math.Abs(tp-entry) / entry * 100
		res.ExpectedProfit = amount * math.Abs(tp-entry)
	}
	return res
}

// AmountForRisk sizes a single leg so a stop-out costs exactly risk dollars.
func (c *RiskCalculator) AmountForRisk(risk, entry, sl float64) (float64, error) {
	if entry == sl {
		return 0, fmt.Errorf("%w: entry equals stop", domain.ErrInvalidArgument)
	}
	return risk / math.Abs(entry-sl), nil
}

// SymmetricTarget returns the 1:1 reward target implied by an entry and its
// stop: as far on the profitable side of entry as the stop is on the losing
// side.
func (c *RiskCalculator) SymmetricTarget(entry, sl float64) float64 {
	return 2*entry - sl
}
