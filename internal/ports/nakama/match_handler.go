package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"

	"lifestock/internal/app"
	"lifestock/internal/bot"
	"lifestock/internal/config"
	"lifestock/internal/domain"
)

// MatchState holds the authoritative runtime state for one room.
type MatchState struct {
	Code      string                      `json:"code"`
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"`
	Store     *app.Store                  `json:"-"`
	Flow      *app.Flow                   `json:"-"`

	BotsEnabled bool                  `json:"bots_enabled"`
	BotDelay    int                   `json:"bot_delay"`
	BotActAt    int64                 `json:"bot_act_at"`
	Bots        map[string]*bot.Agent `json:"-"`

	bound bool
}

type matchLabel struct {
	Code  string `json:"code"`
	Open  int    `json:"open"`
	Phase string `json:"phase"`
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	code, _ := params["code"].(string)
	if !app.ValidRoomCode(code) {
		logger.Warn("MatchInit: Missing or malformed room code %q in params.", code)
	}

	state := &MatchState{
		Code:      code,
		Presences: make(map[string]runtime.Presence),
		Bots:      make(map[string]*bot.Agent),
		BotDelay:  config.GetBotInvestDelaySeconds(),
	}
	state.Store = app.NewStore(app.StoreOptions{
		Mode:          domain.ModeOnline,
		Host:          true,
		RoomID:        code,
		InitialPoints: config.GetInitialPoints(),
	})
	state.Flow = app.NewFlow(state.Store, config.GetTopics(), nil)

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	botCount := 0
	if val, ok := env["lifestock_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["lifestock_bot_count"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			botCount = i
		}
	}
	if state.BotsEnabled {
		for i := 0; i < botCount; i++ {
			player := bot.NewBotPlayer(i, config.GetInitialPoints())
			state.Bots[player.ID] = bot.NewAgent(player.ID, nil)
			data, _ := json.Marshal(app.PlayerJoin{Player: player})
			state.Store.HandleEvent(app.EventPlayerJoin, data)
		}
	}

	tickRate := 1
	return state, tickRate, mh.label(state)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Rejoining players always get back in; their seat and balance survive.
	if domain.FindPlayer(matchState.Store.Players(), presence.GetUserId()) != nil {
		return matchState, true, ""
	}
	if matchState.Store.Phase() != domain.PhaseSetup {
		return matchState, false, "game already started"
	}
	if mh.openSeats(matchState) <= 0 {
		return matchState, false, "room full"
	}
	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	mh.ensureBound(matchState, dispatcher)

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
	}

	// Seating happens when the client sends its profile; here we only make
	// sure the joiner sees the current state right away.
	matchState.Store.Broadcast()
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
	}

	// Seats are kept so a disconnected player can rejoin with their balance.
	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating room %s with no connected players.", matchState.Code)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	mh.ensureBound(matchState, dispatcher)
	matchState.Tick = tick

	phaseBefore := matchState.Store.Phase()

	for _, msg := range messages {
		mh.handleMessage(matchState, logger, msg)
	}

	// One tick per second drives the interview clock.
	matchState.Flow.TickQuestionTimer()

	// A freshly entered phase gets a full delay window before any bot moves,
	// so a bot never reacts in the same tick as the change it reacts to.
	if matchState.Store.Phase() != phaseBefore {
		matchState.BotActAt = tick + int64(matchState.BotDelay)
	}

	if matchState.BotsEnabled {
		mh.processBots(matchState, logger)
	}

	if matchState.Store.Phase() != phaseBefore {
		mh.updateLabel(matchState, dispatcher, logger)
	}
	return matchState
}

// handleMessage routes one client message into the store. Sender identity is
// taken from the connection, never from the payload, so a client cannot act
// for another seat.
func (mh *matchHandler) handleMessage(state *MatchState, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	switch msg.GetOpCode() {
	case OpPlayerJoin:
		var req app.PlayerJoin
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad player_join from %s: %v", senderID, err)
			return
		}
		req.Player.ID = senderID
		mh.forward(state, logger, app.EventPlayerJoin, req)
	case OpRoundUpdateRequest:
		var req app.RoundUpdateRequest
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad round_update_request from %s: %v", senderID, err)
			return
		}
		mh.forward(state, logger, app.EventRoundUpdateRequest, req)
	case OpPhaseUpdateRequest:
		var req app.PhaseUpdateRequest
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad phase_update_request from %s: %v", senderID, err)
			return
		}
		// Leaving setup starts the game: round one is created server-side.
		if req.Phase == domain.PhaseTopicSelection && state.Store.Phase() == domain.PhaseSetup {
			minPlayers, _ := config.GetPlayerLimits()
			if len(state.Store.Players()) < minPlayers {
				logger.Warn("handleMessage: %s tried to start with too few players", senderID)
				return
			}
			state.Store.AddRound(domain.Round{RoundNumber: 1})
			state.Store.SetPhase(domain.PhaseTopicSelection)
			return
		}
		mh.forward(state, logger, app.EventPhaseUpdateRequest, req)
	case OpRoundAndPhaseUpdateRequest:
		var req app.RoundAndPhaseUpdateRequest
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad round_and_phase_update_request from %s: %v", senderID, err)
			return
		}
		mh.forward(state, logger, app.EventRoundAndPhaseUpdateRequest, req)
	case OpInvestmentSubmit:
		var req app.InvestmentSubmit
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad investment_submit from %s: %v", senderID, err)
			return
		}
		req.Investment.InvestorID = senderID
		mh.forward(state, logger, app.EventInvestmentSubmit, req)
	case OpPlayerReadyNext:
		var req app.PlayerReadyNext
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			logger.Warn("handleMessage: Bad player_ready_next from %s: %v", senderID, err)
			return
		}
		req.PlayerID = senderID
		mh.forward(state, logger, app.EventPlayerReadyNext, req)
	default:
		logger.Warn("handleMessage: Unknown opcode %d from %s", msg.GetOpCode(), senderID)
	}
}

func (mh *matchHandler) forward(state *MatchState, logger runtime.Logger, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("forward: Failed to marshal %s: %v", event, err)
		return
	}
	state.Store.HandleEvent(event, data)
}

// processBots lets at most one bot act per delay window. Bot companies spin
// up a topic and a curve; bot investors wager; bots always ready up.
func (mh *matchHandler) processBots(state *MatchState, logger runtime.Logger) {
	if state.Tick < state.BotActAt {
		return
	}

	round := state.Store.CurrentRound()
	if round == nil {
		return
	}
	players := state.Store.Players()
	company := domain.FindPlayer(players, round.CompanyID)
	companyAge := 100
	if company != nil {
		companyAge = company.Age
	}
	agent := state.Bots[round.CompanyID]

	acted := false
	switch state.Store.Phase() {
	case domain.PhaseTopicSelection:
		if agent != nil {
			topic := agent.PlanTopic(config.GetTopics())
			confirmed := true
			state.Store.UpdateRoundAndPhase(round.RoundNumber, domain.RoundPatch{
				Topic:          &topic,
				TopicConfirmed: &confirmed,
			}, domain.PhaseGraphCreation)
			acted = true
		}
	case domain.PhaseGraphCreation:
		if agent != nil {
			done := true
			timer := config.GetQuestionSeconds()
			state.Store.UpdateRoundAndPhase(round.RoundNumber, domain.RoundPatch{
				AnchorPoints:   agent.PlanCurve(companyAge),
				GraphCompleted: &done,
				TimerValue:     &timer,
			}, domain.PhaseQuestions)
			acted = true
		}
	case domain.PhaseInvestment:
		for id, a := range state.Bots {
			if id == round.CompanyID || round.InvestmentFor(id) != nil {
				continue
			}
			investor := domain.FindPlayer(players, id)
			if investor == nil {
				continue
			}
			inv := a.PlanInvestment(companyAge, investor.CurrentPoint)
			if err := state.Store.SubmitInvestment(inv); err != nil {
				logger.Warn("processBots: Bot %s investment rejected: %v", id, err)
			}
			acted = true
			break
		}
	case domain.PhaseRoundSummary:
		ready := make(map[string]bool, len(round.ReadyPlayers))
		for _, id := range round.ReadyPlayers {
			ready[id] = true
		}
		for id := range state.Bots {
			if domain.FindPlayer(players, id) == nil || ready[id] {
				continue
			}
			state.Store.ReadyForNext(id)
			acted = true
			break
		}
	}

	if acted {
		state.BotActAt = state.Tick + int64(state.BotDelay)
	}
}

func (mh *matchHandler) ensureBound(state *MatchState, dispatcher runtime.MatchDispatcher) {
	if state.bound {
		return
	}
	state.Store.Bind(context.Background(), &dispatcherSub{dispatcher: dispatcher})
	state.bound = true
}

func (mh *matchHandler) openSeats(state *MatchState) int {
	_, maxPlayers := config.GetPlayerLimits()
	open := maxPlayers - len(state.Store.Players())
	if open < 0 {
		return 0
	}
	return open
}

func (mh *matchHandler) label(state *MatchState) string {
	data, err := json.Marshal(matchLabel{
		Code:  state.Code,
		Open:  mh.openSeats(state),
		Phase: string(state.Store.Phase()),
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(mh.label(state)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
