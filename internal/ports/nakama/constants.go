package nakama

const (
	// RpcCreateRoom is the Nakama RPC id clients call to open a new room.
	RpcCreateRoom = "create_room"
	// RpcFindRoom is the Nakama RPC id clients call to resolve a room code
	// to a match id.
	RpcFindRoom = "find_room"

	// MatchNameLifeStock is the authoritative match handler name registered
	// with Nakama.
	MatchNameLifeStock = "lifestock_match"

	// Match label keys, queryable via Nakama's match listing.
	MatchLabelKeyCode  = "code"
	MatchLabelKeyOpen  = "open"
	MatchLabelKeyPhase = "phase"
)

// Op codes for client messages and server events. Client messages carry the
// same JSON payloads the relay transport uses.
const (
	// Client -> Server
	OpPlayerJoin                 int64 = 1
	OpRoundUpdateRequest         int64 = 2
	OpPhaseUpdateRequest         int64 = 3
	OpRoundAndPhaseUpdateRequest int64 = 4
	OpInvestmentSubmit           int64 = 5
	OpPlayerReadyNext            int64 = 6

	// Server -> Client
	OpStateUpdate int64 = 101
)
