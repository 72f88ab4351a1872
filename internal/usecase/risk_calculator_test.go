package usecase_test

import (
	"errors"
	"testing"

	"github.com/tradewall/tradewall/internal/domain"
	"github.com/tradewall/tradewall/internal/usecase"
)

func TestPositionSize(t *testing.T) {
	calc := usecase.NewRiskCalculator()

	// Risking $100 on a $5 stop distance buys 20 coins at $50.
	res := calc.PositionSize(100, 50, 60, 45)

	if !floatEquals(res.Amount, 20) {
		t.Errorf("amount = %f, want 20", res.Amount)
	}
	if !floatEquals(res.PositionSize, 1000) {
		t.Errorf("positionSize = %f, want 1000", res.PositionSize)
	}
	if !floatEquals(res.SLPercent, 10) {
		t.Errorf("slPercent = %f, want 10", res.SLPercent)
	}
	if !floatEquals(res.TPPercent, 20) {
		t.Errorf("tpPercent = %f, want 20", res.TPPercent)
	}
	if !floatEquals(res.ExpectedLoss, 100) {
		t.Errorf("expectedLoss = %f, want 100", res.ExpectedLoss)
	}
	if !floatEquals(res.ExpectedProfit, 200) {
		t.Errorf("expectedProfit = %f, want 200", res.ExpectedProfit)
	}
}

func TestPositionSizeDegenerateInput(t *testing.T) {
	calc := usecase.NewRiskCalculator()

	tests := []struct {
		name                string
		risk, entry, tp, sl float64
	}{
		{"no entry", 100, 0, 60, 45},
		{"no risk", 0, 50, 60, 45},
		{"no stop", 100, 50, 60, 0},
		{"stop on entry", 100, 50, 60, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.PositionSize(tt.risk, tt.entry, tt.tp, tt.sl)
			if res != (usecase.RiskResult{}) {
				t.Errorf("got %+v, want zero result", res)
			}
		})
	}
}

func TestPositionSizeWithoutTP(t *testing.T) {
	calc := usecase.NewRiskCalculator()

	res := calc.PositionSize(100, 50, 0, 45)
	if !floatEquals(res.Amount, 20) {
		t.Errorf("amount = %f, want 20", res.Amount)
	}
	if res.TPPercent != 0 || res.ExpectedProfit != 0 {
		t.Errorf("profit projections should be zero without a tp, got %+v", res)
	}
}

func TestAmountForRisk(t *testing.T) {
	calc := usecase.NewRiskCalculator()

	amount, err := calc.AmountForRisk(50, 100, 90)
	if err != nil {
		t.Fatalf("AmountForRisk() error = %v", err)
	}
	if !floatEquals(amount, 5) {
		t.Errorf("amount = %f, want 5", amount)
	}

	_, err = calc.AmountForRisk(50, 100, 100)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestSymmetricTarget(t *testing.T) {
	calc := usecase.NewRiskCalculator()

	if got := calc.SymmetricTarget(100, 90); !floatEquals(got, 110) {
		t.Errorf("SymmetricTarget(100, 90) = %f, want 110", got)
	}
	if got := calc.SymmetricTarget(100, 110); !floatEquals(got, 90) {
		t.Errorf("SymmetricTarget(100, 110) = %f, want 90", got)
	}
}
