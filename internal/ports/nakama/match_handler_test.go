package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"

	"lifestock/internal/app"
	"lifestock/internal/domain"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy
// the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	return nil
}

type fakePresence struct {
	userID   string
	username string
}

func (p fakePresence) GetUserId() string                 { return p.userID }
func (p fakePresence) GetSessionId() string              { return "session-" + p.userID }
func (p fakePresence) GetNodeId() string                 { return "node" }
func (p fakePresence) GetHidden() bool                   { return false }
func (p fakePresence) GetPersistence() bool              { return false }
func (p fakePresence) GetUsername() string               { return p.username }
func (p fakePresence) GetStatus() string                 { return "" }
func (p fakePresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }

type fakeMatchData struct {
	fakePresence
	opCode int64
	data   []byte
}

func (m fakeMatchData) GetOpCode() int64      { return m.opCode }
func (m fakeMatchData) GetData() []byte       { return m.data }
func (m fakeMatchData) GetReliable() bool     { return true }
func (m fakeMatchData) GetReceiveTime() int64 { return 0 }

func message(t *testing.T, userID string, opCode int64, payload any) runtime.MatchData {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return fakeMatchData{fakePresence: fakePresence{userID: userID, username: userID}, opCode: opCode, data: data}
}

func initMatch(t *testing.T, env map[string]string, code string) (*matchHandler, *MatchState) {
	t.Helper()
	mh := &matchHandler{}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	state, tickRate, label := mh.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{"code": code})
	if tickRate != 1 {
		t.Fatalf("tickRate = %d, want 1", tickRate)
	}
	matchState, ok := state.(*MatchState)
	if !ok {
		t.Fatalf("MatchInit state = %T, want *MatchState", state)
	}
	var parsed matchLabel
	if err := json.Unmarshal([]byte(label), &parsed); err != nil {
		t.Fatalf("label %q is not valid JSON: %v", label, err)
	}
	if parsed.Code != code {
		t.Fatalf("label code = %q, want %q", parsed.Code, code)
	}
	return mh, matchState
}

func join(t *testing.T, mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, userID string, age int) {
	t.Helper()
	ctx := context.Background()
	p := fakePresence{userID: userID, username: userID}
	_, allowed, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 0, state, p, nil)
	if !allowed {
		t.Fatalf("join attempt for %s rejected: %s", userID, reason)
	}
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 0, state, []runtime.Presence{p})
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 0, state, []runtime.MatchData{
		message(t, userID, OpPlayerJoin, app.PlayerJoin{Player: domain.Player{Name: userID, Age: age}}),
	})
}

func TestMatchSeatsPlayersAndStarts(t *testing.T) {
	mh, state := initMatch(t, map[string]string{}, "ABC123")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	join(t, mh, state, dispatcher, "user-1", 40)
	join(t, mh, state, dispatcher, "user-2", 60)

	players := state.Store.Players()
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	if players[0].ID != "user-1" || players[1].ID != "user-2" {
		t.Fatalf("seating order = %s, %s", players[0].ID, players[1].ID)
	}

	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.MatchData{
		message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseTopicSelection}),
	})
	if got := state.Store.Phase(); got != domain.PhaseTopicSelection {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseTopicSelection)
	}
	round := state.Store.CurrentRound()
	if round == nil || round.RoundNumber != 1 || round.CompanyID != "user-1" {
		t.Fatalf("round = %+v, want round 1 with company user-1", round)
	}
	if dispatcher.lastOpCode != OpStateUpdate {
		t.Fatalf("lastOpCode = %d, want %d", dispatcher.lastOpCode, OpStateUpdate)
	}
}

func TestStartRequiresEnoughPlayers(t *testing.T) {
	mh, state := initMatch(t, map[string]string{}, "ABC123")
	dispatcher := &mockDispatcher{}

	join(t, mh, state, dispatcher, "user-1", 40)
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.MatchData{
		message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseTopicSelection}),
	})
	if got := state.Store.Phase(); got != domain.PhaseSetup {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseSetup)
	}
}

func TestJoinRejectedAfterStart(t *testing.T) {
	mh, state := initMatch(t, map[string]string{}, "ABC123")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	join(t, mh, state, dispatcher, "user-1", 40)
	join(t, mh, state, dispatcher, "user-2", 60)
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.MatchData{
		message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseTopicSelection}),
	})

	_, allowed, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, fakePresence{userID: "late"}, nil)
	if allowed {
		t.Fatal("late joiner should be rejected after start")
	}

	// A seated player reconnecting is always let back in.
	_, allowed, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, fakePresence{userID: "user-2"}, nil)
	if !allowed {
		t.Fatalf("rejoin rejected: %s", reason)
	}
}

func TestSenderIdentityOverridesPayload(t *testing.T) {
	mh, state := initMatch(t, map[string]string{}, "ABC123")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	join(t, mh, state, dispatcher, "user-1", 100)
	join(t, mh, state, dispatcher, "user-2", 60)
	join(t, mh, state, dispatcher, "user-3", 30)
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.MatchData{
		message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseTopicSelection}),
	})
	for _, phase := range []domain.Phase{domain.PhaseGraphCreation, domain.PhaseQuestions, domain.PhaseInvestment} {
		state.Store.SetPhase(phase)
	}

	// user-2 tries to wager with user-3's identity; the seat comes from the
	// connection, so the wager lands on user-2.
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{
		message(t, "user-2", OpInvestmentSubmit, app.InvestmentSubmit{
			Investment: domain.Investment{InvestorID: "user-3", BuyAge: 10, SellAge: 40, InvestmentPoints: 500},
		}),
	})
	round := state.Store.CurrentRound()
	if len(round.Investments) != 1 || round.Investments[0].InvestorID != "user-2" {
		t.Fatalf("investments = %+v, want one wager by user-2", round.Investments)
	}
}

func TestMatchLoopFullRoundWithBots(t *testing.T) {
	mh, state := initMatch(t, map[string]string{
		"lifestock_bots_enabled": "true",
		"lifestock_bot_count":    "2",
	}, "BOT001")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	if got := len(state.Store.Players()); got != 2 {
		t.Fatalf("seeded bots = %d, want 2", got)
	}

	join(t, mh, state, dispatcher, "user-1", 55)
	tick := int64(1)
	loop := func(msgs ...runtime.MatchData) {
		mh.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, msgs)
		tick++
	}

	loop(message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseTopicSelection}))
	if got := state.Store.Phase(); got != domain.PhaseTopicSelection {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseTopicSelection)
	}
	// The bot company waits a full delay window before confirming a topic;
	// ticking once more inside the window must not move the phase.
	loop()
	if got := state.Store.Phase(); got != domain.PhaseTopicSelection {
		t.Fatalf("bot acted inside its delay window: phase = %q", got)
	}

	// Round one's company is a bot: ticking the loop must carry the match
	// through topic confirmation, the curve, and the interview timer.
	for i := 0; i < 400 && state.Store.Phase() != domain.PhaseInvestment; i++ {
		loop()
	}
	if got := state.Store.Phase(); got != domain.PhaseInvestment {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseInvestment)
	}
	round := state.Store.CurrentRound()
	if !round.TopicConfirmed || !round.GraphCompleted {
		t.Fatalf("round not prepared by bot company: %+v", round)
	}

	loop(message(t, "user-1", OpInvestmentSubmit, app.InvestmentSubmit{
		Investment: domain.Investment{BuyAge: 5, SellAge: 20, InvestmentPoints: 1000},
	}))
	// The remaining bot investor wagers on its own; then the phase flips.
	for i := 0; i < 20 && state.Store.Phase() != domain.PhaseResultsReveal; i++ {
		loop()
	}
	if got := state.Store.Phase(); got != domain.PhaseResultsReveal {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseResultsReveal)
	}

	loop(message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseResults}))
	round = state.Store.CurrentRound()
	if !round.Completed {
		t.Fatal("round should be scored and completed")
	}
	if got := state.Store.Phase(); got != domain.PhaseResults {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseResults)
	}

	loop(message(t, "user-1", OpPhaseUpdateRequest, app.PhaseUpdateRequest{Phase: domain.PhaseRoundSummary}))
	loop(message(t, "user-1", OpPlayerReadyNext, app.PlayerReadyNext{RoundNumber: 1}))
	for i := 0; i < 20 && state.Store.Phase() != domain.PhaseTopicSelection; i++ {
		loop()
	}
	next := state.Store.CurrentRound()
	if next.RoundNumber != 2 {
		t.Fatalf("round = %d, want 2", next.RoundNumber)
	}
	if got := state.Store.Phase(); got != domain.PhaseTopicSelection {
		t.Fatalf("phase = %q, want %q", got, domain.PhaseTopicSelection)
	}
}

func TestMatchLeaveKeepsSeatsUntilEmpty(t *testing.T) {
	mh, state := initMatch(t, map[string]string{}, "ABC123")
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	join(t, mh, state, dispatcher, "user-1", 40)
	join(t, mh, state, dispatcher, "user-2", 60)

	out := mh.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{fakePresence{userID: "user-2"}})
	if out == nil {
		t.Fatal("match should stay alive while a player remains")
	}
	if got := len(state.Store.Players()); got != 2 {
		t.Fatalf("players = %d, want 2 (seats survive disconnects)", got)
	}

	out = mh.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{fakePresence{userID: "user-1"}})
	if out != nil {
		t.Fatal("match should terminate once the last player disconnects")
	}
}
