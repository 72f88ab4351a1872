package usecase_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tradewall/tradewall/internal/domain"
	"github.com/tradewall/tradewall/internal/usecase"
)

const epsilon = 0.000001

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestComputeLadderTwoLegs(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	// Spot long 10 coins from 100 targeting 80, risking half the spot's
	// profit (200 * 0.5 = 100) across two legs of 50 each.
	setups, err := calc.ComputeLadder(100, 80, 10, 50, 2, 0)
	if err != nil {
		t.Fatalf("ComputeLadder() error = %v", err)
	}
	if len(setups) != 2 {
		t.Fatalf("got %d setups, want 2", len(setups))
	}

	leg0 := setups[0]
	if leg0.Index != 1 {
		t.Errorf("leg0 index = %d, want 1", leg0.Index)
	}
	if !floatEquals(leg0.Entry, 100) {
		t.Errorf("leg0 entry = %f, want 100", leg0.Entry)
	}
	if !floatEquals(leg0.SL, 80) {
		t.Errorf("leg0 sl = %f, want 80", leg0.SL)
	}
	if !floatEquals(leg0.CoinAmount, 2.5) {
		t.Errorf("leg0 coinAmount = %f, want 2.5", leg0.CoinAmount)
	}
	if !floatEquals(leg0.TP, 80) {
		t.Errorf("leg0 tp = %f, want 80", leg0.TP)
	}
	if !floatEquals(leg0.RiskAmount, 50) {
		t.Errorf("leg0 riskAmount = %f, want 50", leg0.RiskAmount)
	}
	if !floatEquals(leg0.PotentialProfit, 50) {
		t.Errorf("leg0 potentialProfit = %f, want 50", leg0.PotentialProfit)
	}
	if !floatEquals(leg0.InvestAmount, 250) {
		t.Errorf("leg0 investAmount = %f, want 250", leg0.InvestAmount)
	}

	leg1 := setups[1]
	if !floatEquals(leg1.Entry, 90) {
		t.Errorf("leg1 entry = %f, want 90", leg1.Entry)
	}
	if !floatEquals(leg1.SL, 80) {
		t.Errorf("leg1 sl = %f, want 80", leg1.SL)
	}
	if !floatEquals(leg1.CoinAmount, 5) {
		t.Errorf("leg1 coinAmount = %f, want 5", leg1.CoinAmount)
	}
	if !floatEquals(leg1.TP, 80) {
		t.Errorf("leg1 tp = %f, want 80", leg1.TP)
	}
}

func TestComputeLadderRiskPercentForms(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	// "50" and "0.5" mean the same thing.
	a, err := calc.ComputeLadder(100, 80, 10, 50, 3, 0)
	if err != nil {
		t.Fatalf("ComputeLadder(50) error = %v", err)
	}
	b, err := calc.ComputeLadder(100, 80, 10, 0.5, 3, 0)
	if err != nil {
		t.Fatalf("ComputeLadder(0.5) error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("leg %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestComputeLadderRiskBudgetSplit(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	setups, err := calc.ComputeLadder(200, 150, 4, 25, 5, 0)
	if err != nil {
		t.Fatalf("ComputeLadder() error = %v", err)
	}

	// Total budget = |150-200| * 4 * 0.25 = 50, split five ways.
	var total float64
	for i, s := range setups {
		if !floatEquals(s.RiskAmount, 10) {
			t.Errorf("leg %d riskAmount = %f, want 10", i, s.RiskAmount)
		}
		if !floatEquals(s.SL, 150) {
			t.Errorf("leg %d sl = %f, want 150", i, s.SL)
		}
		total += s.RiskAmount
	}
	if !floatEquals(total, 50) {
		t.Errorf("total risk = %f, want 50", total)
	}
}

func TestComputeLadderStartPriceReanchors(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	setups, err := calc.ComputeLadder(100, 80, 10, 50, 2, 95)
	if err != nil {
		t.Fatalf("ComputeLadder() error = %v", err)
	}

	// Grid anchors at 95 but the budget stays on the original spot's
	// profit: 200 * 0.5 / 2 legs = 50 each.
	if !floatEquals(setups[0].Entry, 95) {
		t.Errorf("leg0 entry = %f, want 95", setups[0].Entry)
	}
	if !floatEquals(setups[1].Entry, 87.5) {
		t.Errorf("leg1 entry = %f, want 87.5", setups[1].Entry)
	}
	for i, s := range setups {
		if !floatEquals(s.RiskAmount, 50) {
			t.Errorf("leg %d riskAmount = %f, want 50", i, s.RiskAmount)
		}
	}
}

func TestComputeLadderZeroStopDistance(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	// Grid start pinned to the TP: the single leg sits on its own stop and
	// comes out zero-sized instead of dividing by zero.
	setups, err := calc.ComputeLadder(100, 80, 10, 50, 1, 80)
	if err != nil {
		t.Fatalf("ComputeLadder() error = %v", err)
	}
	if !floatEquals(setups[0].Entry, 80) {
		t.Errorf("entry = %f, want 80", setups[0].Entry)
	}
	if setups[0].CoinAmount != 0 {
		t.Errorf("coinAmount = %f, want 0", setups[0].CoinAmount)
	}
	if setups[0].InvestAmount != 0 {
		t.Errorf("investAmount = %f, want 0", setups[0].InvestAmount)
	}
}

func TestComputeLadderInvalidInput(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	tests := []struct {
		name        string
		spotAmount  float64
		hedgesCount int
	}{
		{"zero amount", 0, 2},
		{"negative amount", -1, 2},
		{"zero hedges", 10, 0},
		{"negative hedges", 10, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.ComputeLadder(100, 80, tt.spotAmount, 50, tt.hedgesCount, 0)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestComputeLadderUpwardTarget(t *testing.T) {
	calc := usecase.NewHedgeCalculator()

	// Target above the grid start: entries climb instead of fall and each
	// leg's 1:1 target lands below its entry by the stop distance.
	setups, err := calc.ComputeLadder(100, 120, 10, 50, 2, 0)
	if err != nil {
		t.Fatalf("ComputeLadder() error = %v", err)
	}
	if !floatEquals(setups[0].Entry, 100) {
		t.Errorf("leg0 entry = %f, want 100", setups[0].Entry)
	}
	if !floatEquals(setups[1].Entry, 110) {
		t.Errorf("leg1 entry = %f, want 110", setups[1].Entry)
	}
	if !floatEquals(setups[0].TP, 80) {
		t.Errorf("leg0 tp = %f, want 80", setups[0].TP)
	}
	if !floatEquals(setups[1].TP, 100) {
		t.Errorf("leg1 tp = %f, want 100", setups[1].TP)
	}
}
