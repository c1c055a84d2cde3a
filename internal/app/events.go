package app

import "lifestock/internal/domain"

// Channel event names. Everything except EventStateUpdate flows guest to
// host; EventStateUpdate is the host's canonical snapshot broadcast.
const (
	EventStateUpdate                = "state_update"
	EventPlayerJoin                 = "player_join"
	EventRoundUpdateRequest         = "round_update_request"
	EventPhaseUpdateRequest         = "phase_update_request"
	EventRoundAndPhaseUpdateRequest = "round_and_phase_update_request"
	EventInvestmentSubmit           = "investment_submit"
	EventPlayerReadyNext            = "player_ready_next"
)

// PlayerJoin announces a guest wanting a seat in the room. The host assigns
// the palette color; any color in the payload is ignored.
type PlayerJoin struct {
	Player domain.Player `json:"player"`
}

// RoundUpdateRequest asks the host to apply a partial-field patch to one
// round.
type RoundUpdateRequest struct {
	RoundNumber int               `json:"roundNumber"`
	Updates     domain.RoundPatch `json:"updates"`
}

// PhaseUpdateRequest asks the host to move the game to a new phase.
type PhaseUpdateRequest struct {
	Phase domain.Phase `json:"phase"`
}

// RoundAndPhaseUpdateRequest asks the host to patch a round and change phase
// atomically, so guests never observe one without the other.
type RoundAndPhaseUpdateRequest struct {
	RoundNumber  int               `json:"roundNumber"`
	RoundUpdates domain.RoundPatch `json:"roundUpdates"`
	NewPhase     domain.Phase      `json:"newPhase"`
}

// InvestmentSubmit carries one investor's wager. A zero RoundNumber targets
// the host's current round.
type InvestmentSubmit struct {
	RoundNumber int               `json:"roundNumber,omitempty"`
	Investment  domain.Investment `json:"investment"`
}

// PlayerReadyNext signals a player's round-summary acknowledgement.
type PlayerReadyNext struct {
	PlayerID    string `json:"playerId"`
	RoundNumber int    `json:"roundNumber,omitempty"`
}
