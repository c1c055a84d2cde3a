package app

import (
	"errors"
	"math/rand"

	"lifestock/internal/domain"
)

var (
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrEmptyQuestion    = errors.New("question text is empty")
)

// Flow drives the per-round ceremony on top of a Store: topic roulette,
// graph building, the interview, and scoring. Every mutation goes through the
// store, so role routing (host apply vs guest request) and broadcasting come
// for free.
type Flow struct {
	store  *Store
	topics []string
	rand   *rand.Rand
}

// NewFlow wires a flow around the store. A nil rand source falls back to a
// fixed-seed generator, which keeps tests deterministic.
func NewFlow(store *Store, topics []string, rng *rand.Rand) *Flow {
	if len(topics) == 0 {
		topics = DefaultTopics()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Flow{store: store, topics: topics, rand: rng}
}

// Store exposes the underlying replicated store.
func (f *Flow) Store() *Store { return f.store }

// StartGame seats the players, opens round one, and moves to topic selection.
// Controller only.
func (f *Flow) StartGame(players []domain.Player) error {
	if len(players) < MinPlayers {
		return ErrNotEnoughPlayers
	}
	f.store.SetPlayers(players)
	f.store.AddRound(domain.Round{RoundNumber: 1})
	f.store.SetPhase(domain.PhaseTopicSelection)
	return nil
}

// SpinRoulette starts the topic wheel for the active round. Company only;
// anyone else's click is ignored.
func (f *Flow) SpinRoulette() {
	if !f.companyTurn() {
		return
	}
	round := f.store.CurrentRound()
	if round == nil || round.TopicConfirmed {
		return
	}
	spinning := true
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{
		Roulette: &domain.RouletteState{
			IsSpinning:   spinning,
			DisplayTopic: f.topics[f.rand.Intn(len(f.topics))],
		},
	})
}

// SettleRoulette stops the wheel on a random topic. The settled topic is only
// a proposal; ConfirmTopic locks it in.
func (f *Flow) SettleRoulette() {
	if !f.companyTurn() {
		return
	}
	round := f.store.CurrentRound()
	if round == nil || round.TopicConfirmed {
		return
	}
	final := f.topics[f.rand.Intn(len(f.topics))]
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{
		Roulette: &domain.RouletteState{
			IsSpinning:   false,
			DisplayTopic: final,
			FinalTopic:   final,
		},
	})
}

// ConfirmTopic locks the round topic and moves to graph creation in one
// mutation. A non-empty custom topic beats the roulette result.
func (f *Flow) ConfirmTopic(custom string) error {
	if !f.companyTurn() {
		return nil
	}
	round := f.store.CurrentRound()
	if round == nil {
		return ErrNoActiveRound
	}
	topic := custom
	if topic == "" {
		topic = round.Roulette.FinalTopic
	}
	if topic == "" {
		return ErrNoTopic
	}
	confirmed := true
	f.store.UpdateRoundAndPhase(round.RoundNumber, domain.RoundPatch{
		Topic:          &topic,
		TopicConfirmed: &confirmed,
	}, domain.PhaseGraphCreation)
	return nil
}

// ToggleAnchor applies one graph click: add, replace, or delete an anchor at
// the given age. Company only. The updated curve replicates immediately so
// investors watch the graph take shape.
func (f *Flow) ToggleAnchor(age, score int) error {
	if !f.companyTurn() {
		return nil
	}
	round := f.store.CurrentRound()
	if round == nil {
		return ErrNoActiveRound
	}
	points, err := domain.ToggleAnchorPoint(round.AnchorPoints, age, score)
	if err != nil {
		return err
	}
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{AnchorPoints: points})
	return nil
}

// SubmitGraph validates the finished curve and moves to the interview,
// starting the question timer. Company only.
func (f *Flow) SubmitGraph() error {
	if !f.companyTurn() {
		return nil
	}
	round := f.store.CurrentRound()
	if round == nil {
		return ErrNoActiveRound
	}
	companyAge := f.companyAge(round)
	if err := domain.ValidateCurve(round.AnchorPoints, companyAge); err != nil {
		return err
	}
	done := true
	timer := DefaultQuestionSeconds
	f.store.UpdateRoundAndPhase(round.RoundNumber, domain.RoundPatch{
		GraphCompleted: &done,
		TimerValue:     &timer,
	}, domain.PhaseQuestions)
	return nil
}

// AskQuestion records an investor's interview question. The company cannot
// ask itself anything; such calls are ignored.
func (f *Flow) AskQuestion(investorID, investorName, text string) error {
	if text == "" {
		return ErrEmptyQuestion
	}
	round := f.store.CurrentRound()
	if round == nil {
		return ErrNoActiveRound
	}
	if investorID == round.CompanyID {
		return nil
	}
	questions := append(append([]domain.Question(nil), round.Questions...), domain.Question{
		InvestorID:   investorID,
		InvestorName: investorName,
		Question:     text,
	})
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{Questions: questions})
	return nil
}

// AnswerQuestion fills in the company's answer to the indexed question.
// Company only.
func (f *Flow) AnswerQuestion(index int, answer string) error {
	if !f.companyTurn() {
		return nil
	}
	round := f.store.CurrentRound()
	if round == nil {
		return ErrNoActiveRound
	}
	if index < 0 || index >= len(round.Questions) {
		return ErrRoundNotFound
	}
	questions := append([]domain.Question(nil), round.Questions...)
	questions[index].Answer = answer
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{Questions: questions})
	return nil
}

// TickQuestionTimer counts the interview clock down one second and closes
// the interview when it reaches zero. Controller only; the host's clock is
// the one everybody sees.
func (f *Flow) TickQuestionTimer() {
	if f.store.guest() {
		return
	}
	round := f.store.CurrentRound()
	if round == nil || round.TimerValue == nil || f.store.Phase() != domain.PhaseQuestions {
		return
	}
	next := *round.TimerValue - 1
	if next <= 0 {
		f.FinishQuestions()
		return
	}
	f.store.UpdateRound(round.RoundNumber, domain.RoundPatch{TimerValue: &next})
}

// FinishQuestions closes the interview and opens investment. Controller only.
func (f *Flow) FinishQuestions() {
	if f.store.guest() {
		return
	}
	round := f.store.CurrentRound()
	if round == nil {
		return
	}
	zero := 0
	f.store.UpdateRoundAndPhase(round.RoundNumber, domain.RoundPatch{TimerValue: &zero}, domain.PhaseInvestment)
}

// RevealResults moves from the reveal animation to the results screen. The
// store settles the round on that transition: every wager's outcome and gain
// folds into its investor's balance, all in one snapshot. Calls outside
// results-reveal are ignored, so a premature reveal can never score a
// partial investment set. Controller only.
func (f *Flow) RevealResults() {
	if f.store.guest() {
		return
	}
	if f.store.Phase() != domain.PhaseResultsReveal {
		return
	}
	f.store.SetPhase(domain.PhaseResults)
}

// FinishResults moves from the results screen to the round summary.
// Controller only.
func (f *Flow) FinishResults() {
	if f.store.guest() {
		return
	}
	f.store.SetPhase(domain.PhaseRoundSummary)
}

// companyTurn reports whether this participant may take company actions. In
// local mode the shared device always acts for the company; online only the
// company player itself may.
func (f *Flow) companyTurn() bool {
	if f.store.Mode() == domain.ModeLocal {
		return true
	}
	return f.store.PlayerID() != "" && f.store.PlayerID() == f.store.CurrentCompanyID()
}

func (f *Flow) companyAge(round *domain.Round) int {
	if p := domain.FindPlayer(f.store.Players(), round.CompanyID); p != nil {
		return p.Age
	}
	return 100
}
