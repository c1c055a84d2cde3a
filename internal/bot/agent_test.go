package bot

import (
	"math/rand"
	"testing"

	"lifestock/internal/domain"
)

func TestIsBot(t *testing.T) {
	if !IsBot(BotID(0)) {
		t.Fatal("BotID(0) should be recognized as a bot")
	}
	if IsBot("player-1") {
		t.Fatal("player-1 should not be a bot")
	}
}

func TestPlanCurveAlwaysValid(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		agent := NewAgent(BotID(0), rand.New(rand.NewSource(seed)))
		for _, age := range []int{4, 30, 65, 100} {
			points := agent.PlanCurve(age)
			if err := domain.ValidateCurve(points, age); err != nil {
				t.Fatalf("seed %d, age %d: PlanCurve() invalid: %v (%+v)", seed, age, err, points)
			}
		}
	}
}

func TestPlanInvestmentAlwaysValid(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		agent := NewAgent(BotID(1), rand.New(rand.NewSource(seed)))
		investor := &domain.Player{ID: BotID(1), CurrentPoint: 10000}
		for _, age := range []int{1, 30, 100} {
			inv := agent.PlanInvestment(age, investor.CurrentPoint)
			if err := domain.ValidateInvestment(inv, investor, age); err != nil {
				t.Fatalf("seed %d, age %d: PlanInvestment() invalid: %v (%+v)", seed, age, err, inv)
			}
		}
	}
}

func TestPlanInvestmentWithTinyBalance(t *testing.T) {
	agent := NewAgent(BotID(2), rand.New(rand.NewSource(1)))
	investor := &domain.Player{ID: BotID(2), CurrentPoint: 3}
	inv := agent.PlanInvestment(50, investor.CurrentPoint)
	if err := domain.ValidateInvestment(inv, investor, 50); err != nil {
		t.Fatalf("PlanInvestment() invalid on tiny balance: %v", err)
	}
}
