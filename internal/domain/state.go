package domain

// Phase represents the lifecycle stage of a game round.
type Phase string

const (
	// PhaseSetup is the pre-game state where players assemble.
	PhaseSetup Phase = "setup"
	// PhaseTopicSelection is where the company picks or spins a topic.
	PhaseTopicSelection Phase = "topic-selection"
	// PhaseGraphCreation is where the company draws its life curve.
	PhaseGraphCreation Phase = "graph-creation"
	// PhaseQuestions is the timed window for probing the company.
	PhaseQuestions Phase = "questions"
	// PhaseInvestment is where investors commit blind wagers.
	PhaseInvestment Phase = "investment"
	// PhaseResultsReveal is the confirmation gate before the curve is shown.
	PhaseResultsReveal Phase = "results-reveal"
	// PhaseResults is the scored reveal of the curve and wagers.
	PhaseResults Phase = "results"
	// PhaseRoundSummary is the per-round standings recap.
	PhaseRoundSummary Phase = "round-summary"
	// PhaseFinalResults is the end-of-game ranking.
	PhaseFinalResults Phase = "final-results"
)

// Mode distinguishes a single-device session from a networked room.
type Mode string

const (
	// ModeLocal is a single-device session with one shared screen.
	ModeLocal Mode = "local"
	// ModeOnline is a networked room replicated through a channel.
	ModeOnline Mode = "online"
)

// validTransitions holds the forward edges of the phase machine. The only
// cycle is round-summary back to topic-selection when a new round begins.
var validTransitions = map[Phase][]Phase{
	PhaseSetup:          {PhaseTopicSelection},
	PhaseTopicSelection: {PhaseGraphCreation},
	PhaseGraphCreation:  {PhaseQuestions},
	PhaseQuestions:      {PhaseInvestment},
	PhaseInvestment:     {PhaseResultsReveal},
	PhaseResultsReveal:  {PhaseResults},
	PhaseResults:        {PhaseRoundSummary},
	PhaseRoundSummary:   {PhaseTopicSelection, PhaseFinalResults},
}

// ValidTransition reports whether moving from one phase to another is legal.
func ValidTransition(from, to Phase) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsCompany derives whether the given participant acts as the company right
// now. It is recomputed on demand and never stored: in local mode the single
// device is "driving" for the company during topic-selection and
// graph-creation, while online the check is a strict id match.
func IsCompany(mode Mode, phase Phase, playerID, companyID string) bool {
	if mode == ModeLocal {
		return phase == PhaseTopicSelection || phase == PhaseGraphCreation
	}
	return playerID != "" && companyID != "" && playerID == companyID
}

// GameOver reports whether every player has served as company once the
// current round has been summarized.
func GameOver(currentRound, playerCount int) bool {
	return playerCount > 0 && currentRound >= playerCount
}
