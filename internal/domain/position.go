package domain

import "time"

// Position is one row of the positions table. A spot position has an empty
// ParentID; a hedge leg points at the spot that owns it. Shorts is assembled
// at read time in creation order and is never persisted directly: a leg's
// 1-based position in that list is its "hedge number".
type Position struct {
	ID        string
	UserID    string
	Symbol    string
	ParentID  string
	Entry     float64
	Amount    float64
	TP        float64
	SL        float64
	Risk      float64
	Currency  string
	TradeDate string
	TradeTime string

	// Ladder policy, written to the spot row when the first hedge leg is
	// created and reused for every later leg so the whole ladder stays
	// internally consistent.
	StrategyRiskPercent float64
	StrategyHedgesCount int

	CreatedAt time.Time

	Shorts []*Position
}

func (p *Position) IsSpot() bool { return p.ParentID == "" }

// NextHedgeIndex returns the 1-based number of the hedge leg that would be
// added next.
func (p *Position) NextHedgeIndex() int { return len(p.Shorts) + 1 }

func (p *Position) HasLadderPolicy() bool {
	return p.StrategyRiskPercent > 0 && p.StrategyHedgesCount > 0
}

// SpotPnL is the unrealized profit of the long spot leg at price.
func (p *Position) SpotPnL(price float64) float64 {
	return (price - p.Entry) * p.Amount
}

// ShortPnL is the unrealized profit of a short hedge leg at price.
func (p *Position) ShortPnL(price float64) float64 {
	return (p.Entry - price) * p.Amount
}

// StrategyPnL sums the spot PnL and every hedge leg's PnL at price.
func (p *Position) StrategyPnL(price float64) float64 {
	total := p.SpotPnL(price)
	for _, s := range p.Shorts {
		total += s.ShortPnL(price)
	}
	return total
}

// NetAtTP projects the whole strategy's PnL if price reaches the spot TP:
// the spot wins its full target while every short leg is marked at the TP.
func (p *Position) NetAtTP() float64 {
	if p.TP == 0 {
		return 0
	}
	net := (p.TP - p.Entry) * p.Amount
	for _, s := range p.Shorts {
		net += (s.Entry - p.TP) * s.Amount
	}
	return net
}

// NetAtSL projects the whole strategy's PnL if price falls to the spot SL.
func (p *Position) NetAtSL() float64 {
	if p.SL == 0 {
		return 0
	}
	net := (p.SL - p.Entry) * p.Amount
	for _, s := range p.Shorts {
		net += (s.Entry - p.SL) * s.Amount
	}
	return net
}

// LadderPolicy is the risk allocation recorded on a spot once a hedge
// ladder has been initiated.
type LadderPolicy struct {
	RiskPercent float64 `json:"risk_percent"`
	HedgesCount int     `json:"hedges_count"`
}

// HedgeSetup is one rung of a computed hedge ladder. Output of the
// calculator only; rungs become Position rows when the user confirms them.
type HedgeSetup struct {
	Index           int     `json:"index"`
	Entry           float64 `json:"entry"`
	TP              float64 `json:"tp"`
	SL              float64 `json:"sl"`
	RiskAmount      float64 `json:"riskAmount"`
	PotentialProfit float64 `json:"potentialProfit"`
	CoinAmount      float64 `json:"coinAmount"`
	InvestAmount    float64 `json:"investAmount"`
}
