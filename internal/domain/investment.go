package domain

import (
	"errors"
	"math"
)

var (
	ErrAgeOutOfRange     = errors.New("ages must be between 0 and the company age")
	ErrSameAge           = errors.New("buy and sell ages must differ")
	ErrNoPoints          = errors.New("investment points must be positive")
	ErrInsufficientFunds = errors.New("investment exceeds current balance")
	ErrUnknownInvestor   = errors.New("investor not found")
)

// Investment is one investor's wager on a round. Short positions, where the
// sell age precedes the buy age, are allowed. BuyScore, SellScore and
// PointsGained are derived during scoring and zero until then.
type Investment struct {
	InvestorID       string `json:"investorId"`
	BuyAge           int    `json:"buyAge"`
	SellAge          int    `json:"sellAge"`
	InvestmentPoints int    `json:"investmentPoints"`
	BuyScore         int    `json:"buyScore,omitempty"`
	SellScore        int    `json:"sellScore,omitempty"`
	PointsGained     int    `json:"pointsGained,omitempty"`
}

// ValidateInvestment checks an investor's wager against the round's company
// age and the investor's live balance.
func ValidateInvestment(inv Investment, investor *Player, companyAge int) error {
	if investor == nil {
		return ErrUnknownInvestor
	}
	if inv.InvestmentPoints <= 0 {
		return ErrNoPoints
	}
	if inv.InvestmentPoints > investor.CurrentPoint {
		return ErrInsufficientFunds
	}
	if inv.BuyAge < 0 || inv.BuyAge > companyAge || inv.SellAge < 0 || inv.SellAge > companyAge {
		return ErrAgeOutOfRange
	}
	if inv.BuyAge == inv.SellAge {
		return ErrSameAge
	}
	return nil
}

// ScoreInvestments computes the outcome of every wager against the curve.
// The stored buy/sell scores are the raw interpolated values; the gain ratio
// clamps both to a minimum of 1 to avoid degenerate multipliers. The gain is
// negated whenever the sell score is below the buy score: the same ratio
// formula applies to short positions, so a short can still win when its sell
// score is the higher one. The input investments are not modified.
func ScoreInvestments(points []AnchorPoint, investments []Investment) []Investment {
	scored := make([]Investment, len(investments))
	for i, inv := range investments {
		rawBuy := InterpolateScore(points, inv.BuyAge)
		rawSell := InterpolateScore(points, inv.SellAge)
		buy := max(rawBuy, 1)
		sell := max(rawSell, 1)

		gained := int(math.Round(float64(inv.InvestmentPoints) * float64(sell) / float64(buy)))
		if sell < buy {
			gained = -abs(gained)
		}

		inv.BuyScore = rawBuy
		inv.SellScore = rawSell
		inv.PointsGained = gained
		scored[i] = inv
	}
	return scored
}
