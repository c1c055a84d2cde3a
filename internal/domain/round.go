package domain

// Question is a placeholder record for the probing window. The current rules
// keep questions verbal, so rounds carry an empty collection.
type Question struct {
	InvestorID   string `json:"investorId"`
	InvestorName string `json:"investorName"`
	Question     string `json:"question"`
	Answer       string `json:"answer,omitempty"`
}

// RouletteState is the transient topic-selection animation shared so every
// screen spins toward the same result.
type RouletteState struct {
	IsSpinning   bool   `json:"isSpinning"`
	DisplayTopic string `json:"displayTopic"`
	FinalTopic   string `json:"finalTopic,omitempty"`
}

// Round is one full topic-graph-questions-investment-scoring cycle with a
// designated company. The company binding is computed at creation from the
// live player list and never changes afterwards, so later renames or joins do
// not retroactively alter past rounds.
type Round struct {
	RoundNumber    int           `json:"roundNumber"`
	CompanyID      string        `json:"companyId"`
	CompanyIndex   int           `json:"companyIndex"`
	CompanyName    string        `json:"companyName"`
	Topic          string        `json:"topic"`
	TopicConfirmed bool          `json:"topicConfirmed"`
	AnchorPoints   []AnchorPoint `json:"anchorPoints"`
	Questions      []Question    `json:"questions"`
	Investments    []Investment  `json:"investments"`
	Completed      bool          `json:"completed"`
	GraphCompleted bool          `json:"graphCompleted"`
	TimerValue     *int          `json:"timerValue,omitempty"`
	ReadyPlayers   []string      `json:"readyPlayers"`
	Roulette       RouletteState `json:"rouletteState"`
}

// NewRound builds round n with its company chosen round-robin by join order
// from the current player list.
func NewRound(number int, players []Player) Round {
	idx := 0
	company := Player{}
	if len(players) > 0 {
		idx = (number - 1) % len(players)
		company = players[idx]
	}
	return Round{
		RoundNumber:  number,
		CompanyID:    company.ID,
		CompanyIndex: idx,
		CompanyName:  company.Name,
		AnchorPoints: []AnchorPoint{},
		Questions:    []Question{},
		Investments:  []Investment{},
		ReadyPlayers: []string{},
	}
}

// UpsertInvestment adds or replaces the wager keyed by investor id and
// reports whether an existing entry was overwritten.
func (r *Round) UpsertInvestment(inv Investment) bool {
	for i := range r.Investments {
		if r.Investments[i].InvestorID == inv.InvestorID {
			r.Investments[i] = inv
			return true
		}
	}
	r.Investments = append(r.Investments, inv)
	return false
}

// InvestmentFor returns the wager submitted by the given investor, or nil.
func (r *Round) InvestmentFor(investorID string) *Investment {
	for i := range r.Investments {
		if r.Investments[i].InvestorID == investorID {
			return &r.Investments[i]
		}
	}
	return nil
}

// MarkReady records a player's round-summary acknowledgement. Duplicate
// signals are no-ops.
func (r *Round) MarkReady(playerID string) bool {
	for _, id := range r.ReadyPlayers {
		if id == playerID {
			return false
		}
	}
	r.ReadyPlayers = append(r.ReadyPlayers, playerID)
	return true
}

// RoundPatch is a partial-field update applied to one round. Nil fields are
// left untouched, which lets request events carry only the intended delta.
type RoundPatch struct {
	Topic          *string        `json:"topic,omitempty"`
	TopicConfirmed *bool          `json:"topicConfirmed,omitempty"`
	AnchorPoints   []AnchorPoint  `json:"anchorPoints,omitempty"`
	Questions      []Question     `json:"questions,omitempty"`
	Investments    []Investment   `json:"investments,omitempty"`
	Completed      *bool          `json:"completed,omitempty"`
	GraphCompleted *bool          `json:"graphCompleted,omitempty"`
	TimerValue     *int           `json:"timerValue,omitempty"`
	ReadyPlayers   []string       `json:"readyPlayers,omitempty"`
	Roulette       *RouletteState `json:"rouletteState,omitempty"`
}

// Apply merges the patch into the round.
func (p RoundPatch) Apply(r *Round) {
	if p.Topic != nil {
		r.Topic = *p.Topic
	}
	if p.TopicConfirmed != nil {
		r.TopicConfirmed = *p.TopicConfirmed
	}
	if p.AnchorPoints != nil {
		r.AnchorPoints = p.AnchorPoints
	}
	if p.Questions != nil {
		r.Questions = p.Questions
	}
	if p.Investments != nil {
		r.Investments = p.Investments
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	if p.GraphCompleted != nil {
		r.GraphCompleted = *p.GraphCompleted
	}
	if p.TimerValue != nil {
		r.TimerValue = p.TimerValue
	}
	if p.ReadyPlayers != nil {
		r.ReadyPlayers = p.ReadyPlayers
	}
	if p.Roulette != nil {
		r.Roulette = *p.Roulette
	}
}

// FindRound returns the round with the given number, or nil.
func FindRound(rounds []Round, number int) *Round {
	for i := range rounds {
		if rounds[i].RoundNumber == number {
			return &rounds[i]
		}
	}
	return nil
}
