// Package bot provides autonomous players that fill empty seats: they spin
// topics, draw satisfaction curves when it is their round, and place random
// but always-valid wagers as investors.
package bot

import (
	"math/rand"

	"lifestock/internal/domain"
)

// Agent makes decisions for one bot seat.
type Agent struct {
	ID   string
	rand *rand.Rand
}

// NewAgent builds an agent for the given bot id. A nil source falls back to
// a seed derived from the id, so each bot behaves differently but
// reproducibly.
func NewAgent(id string, rng *rand.Rand) *Agent {
	if rng == nil {
		var seed int64
		for _, c := range id {
			seed = seed*31 + int64(c)
		}
		rng = rand.New(rand.NewSource(seed))
	}
	return &Agent{ID: id, rand: rng}
}

// PlanTopic picks the round topic when the bot is the company.
func (a *Agent) PlanTopic(topics []string) string {
	if len(topics) == 0 {
		return "My life so far"
	}
	return topics[a.rand.Intn(len(topics))]
}

// PlanCurve draws a valid satisfaction curve for a company of the given age:
// both endpoints present, five to seven anchors, and at least one high and
// one low score so the spread requirement always holds.
func (a *Agent) PlanCurve(companyAge int) []domain.AnchorPoint {
	if companyAge < 4 {
		companyAge = 4
	}
	count := domain.MinAnchorPoints + a.rand.Intn(3)
	if count > companyAge+1 {
		count = companyAge + 1
	}
	points := make([]domain.AnchorPoint, 0, count)
	for i := 0; i < count; i++ {
		age := i * companyAge / (count - 1)
		points = append(points, domain.AnchorPoint{Age: age, Score: 20 + a.rand.Intn(61)})
	}
	// Guarantee the spread: one peak and one trough at distinct anchors.
	high := a.rand.Intn(count)
	low := (high + 1 + a.rand.Intn(count-1)) % count
	points[high].Score = 85 + a.rand.Intn(16)
	points[low].Score = a.rand.Intn(15)
	return points
}

// PlanInvestment places a wager for the bot: distinct ages within the
// company's lifetime and a stake between five and twenty percent of the
// bot's balance, at least one point.
func (a *Agent) PlanInvestment(companyAge, balance int) domain.Investment {
	if companyAge < 1 {
		companyAge = 1
	}
	buy := a.rand.Intn(companyAge + 1)
	sell := a.rand.Intn(companyAge + 1)
	for sell == buy {
		sell = (sell + 1) % (companyAge + 1)
	}
	stake := balance * (5 + a.rand.Intn(16)) / 100
	if stake < 1 {
		stake = 1
	}
	if stake > balance {
		stake = balance
	}
	return domain.Investment{
		InvestorID:       a.ID,
		BuyAge:           buy,
		SellAge:          sell,
		InvestmentPoints: stake,
	}
}
