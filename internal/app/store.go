package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"lifestock/internal/domain"
	"lifestock/internal/ports"
)

var (
	ErrNoActiveRound = errors.New("no active round")
	ErrRoundNotFound = errors.New("round not found")
	ErrNoTopic       = errors.New("no topic selected")
	ErrRoomFull      = errors.New("room is full")
)

// StoreOptions configures a participant's replicated store.
type StoreOptions struct {
	Mode     domain.Mode
	Host     bool
	RoomID   string
	PlayerID string

	// PlayerName and PlayerAge describe the local participant and are used
	// when announcing a guest join.
	PlayerName string
	PlayerAge  int

	// InitialPoints overrides the starting balance; zero means the default.
	InitialPoints int

	Logger logrus.FieldLogger
	Clock  func() time.Time
}

// Store holds one participant's copy of the shared game state. The host's
// copy is authoritative: host mutations apply synchronously and then flush a
// full snapshot to the room in a single explicit broadcast per operation.
// A guest's copy is a read-only mirror; guest mutations become request events
// and the visible state only changes once the host's canonical snapshot
// arrives. All mutation runs under one mutex, so inbound channel events are
// serialized with local operations.
type Store struct {
	mu    sync.Mutex
	log   logrus.FieldLogger
	clock func() time.Time

	mode          domain.Mode
	isHost        bool
	roomID        string
	playerID      string
	playerName    string
	playerAge     int
	initialPoints int

	players      []domain.Player
	rounds       []domain.Round
	currentRound int
	phase        domain.Phase

	ctx         context.Context
	sub         ports.Subscription
	lastApplied int64
}

// NewStore constructs a store in the setup phase.
func NewStore(opts StoreOptions) *Store {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	initial := opts.InitialPoints
	if initial <= 0 {
		initial = domain.InitialPoints
	}
	return &Store{
		log:           log.WithField("room", opts.RoomID),
		clock:         clock,
		mode:          opts.Mode,
		isHost:        opts.Host,
		roomID:        opts.RoomID,
		playerID:      opts.PlayerID,
		playerName:    opts.PlayerName,
		playerAge:     opts.PlayerAge,
		initialPoints: initial,
		phase:         domain.PhaseSetup,
		ctx:           context.Background(),
	}
}

// Attach subscribes the store to its room on the given channel. The host
// immediately broadcasts its snapshot so late subscribers see current state;
// a guest announces itself with a join event.
func (s *Store) Attach(ctx context.Context, ch ports.Channel) error {
	if s.mode != domain.ModeOnline {
		return nil
	}
	sub, err := ch.Subscribe(ctx, s.roomID, s.HandleEvent)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ctx = ctx
	s.sub = sub
	snap := s.commitLocked()
	s.mu.Unlock()

	if s.isHost {
		s.flush(snap)
		return nil
	}
	s.send(EventPlayerJoin, PlayerJoin{Player: domain.Player{
		ID:           s.playerID,
		Name:         s.playerName,
		Age:          s.playerAge,
		CurrentPoint: s.initialPoints,
	}})
	return nil
}

// Bind attaches an already-established subscription, for transports that
// manage room membership themselves and only need the store's broadcasts.
func (s *Store) Bind(ctx context.Context, sub ports.Subscription) {
	s.mu.Lock()
	s.ctx = ctx
	s.sub = sub
	s.mu.Unlock()
}

// Close tears down the room subscription, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}

/* ---- mutation operations ---- */

// SetPlayers replaces the player list. Host or local controller only.
func (s *Store) SetPlayers(players []domain.Player) {
	if s.guest() {
		return
	}
	s.mu.Lock()
	s.players = append([]domain.Player(nil), players...)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// AddRound appends a round, recomputing its company binding from the live
// player list at call time so a stale caller-supplied guess can never bind
// the wrong company. The new round becomes current.
func (s *Store) AddRound(r domain.Round) {
	if s.guest() {
		return
	}
	s.mu.Lock()
	s.addRoundLocked(r)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// UpdateRound applies a partial patch to the named round. Guests route the
// delta through the host instead of applying it speculatively.
func (s *Store) UpdateRound(roundNumber int, patch domain.RoundPatch) {
	if s.guest() {
		s.send(EventRoundUpdateRequest, RoundUpdateRequest{RoundNumber: roundNumber, Updates: patch})
		return
	}
	s.mu.Lock()
	s.patchRoundLocked(roundNumber, patch)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// UpdateRoundAndPhase applies a round patch and a phase change atomically, so
// guests never observe one without the other.
func (s *Store) UpdateRoundAndPhase(roundNumber int, patch domain.RoundPatch, phase domain.Phase) {
	if s.guest() {
		s.send(EventRoundAndPhaseUpdateRequest, RoundAndPhaseUpdateRequest{
			RoundNumber:  roundNumber,
			RoundUpdates: patch,
			NewPhase:     phase,
		})
		return
	}
	s.mu.Lock()
	s.patchRoundLocked(roundNumber, patch)
	s.setPhaseLocked(phase)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// UpdatePlayersAndRounds replaces the player list and patches a round in one
// mutation, for callers that must keep both changes in one snapshot.
func (s *Store) UpdatePlayersAndRounds(players []domain.Player, roundNumber int, patch domain.RoundPatch) {
	if s.guest() {
		return
	}
	s.mu.Lock()
	s.players = append([]domain.Player(nil), players...)
	s.patchRoundLocked(roundNumber, patch)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// UpdatePlayerPoints adds delta to one player's balance. Gains accumulate;
// balances are never overwritten outright.
func (s *Store) UpdatePlayerPoints(playerID string, delta int) {
	if s.guest() {
		return
	}
	s.mu.Lock()
	if p := domain.FindPlayer(s.players, playerID); p != nil {
		p.CurrentPoint += delta
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// SetPhase moves the game to a new phase. Guests request the transition;
// the host validates it against the phase machine and ignores illegal moves.
// Entering the results phase settles the round first, so outcomes, balances,
// and the phase change land in one snapshot no matter which transport asked.
func (s *Store) SetPhase(phase domain.Phase) {
	if s.guest() {
		s.send(EventPhaseUpdateRequest, PhaseUpdateRequest{Phase: phase})
		return
	}
	s.mu.Lock()
	changed := s.setPhaseLocked(phase)
	var snap *domain.Snapshot
	if changed {
		snap = s.commitLocked()
	}
	s.mu.Unlock()
	s.flush(snap)
}

// AdvanceToNextRound appends the next round and moves to topic-selection.
// A round with the same number already present makes this a no-op, which
// absorbs double-advance races. Controller only.
func (s *Store) AdvanceToNextRound(next domain.Round) {
	if s.guest() {
		return
	}
	s.mu.Lock()
	var snap *domain.Snapshot
	if domain.FindRound(s.rounds, next.RoundNumber) == nil {
		s.addRoundLocked(next)
		s.phase = domain.PhaseTopicSelection
		snap = s.commitLocked()
	}
	s.mu.Unlock()
	s.flush(snap)
}

// SubmitInvestment validates and records the local participant's wager (or,
// in local mode, the named seat's wager). Resubmission overwrites the
// investor's previous entry. The company cannot invest; such calls are
// ignored. When the last investor submits, the host moves the game to
// results-reveal in the same mutation.
func (s *Store) SubmitInvestment(inv domain.Investment) error {
	s.mu.Lock()
	round := s.currentRoundLocked()
	if round == nil {
		s.mu.Unlock()
		return ErrNoActiveRound
	}
	if s.mode == domain.ModeOnline && inv.InvestorID == "" {
		inv.InvestorID = s.playerID
	}
	if inv.InvestorID == round.CompanyID || s.phase != domain.PhaseInvestment {
		s.mu.Unlock()
		return nil
	}
	company := domain.FindPlayer(s.players, round.CompanyID)
	companyAge := 100
	if company != nil {
		companyAge = company.Age
	}
	if err := domain.ValidateInvestment(inv, domain.FindPlayer(s.players, inv.InvestorID), companyAge); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.guest() {
		n := round.RoundNumber
		s.mu.Unlock()
		s.send(EventInvestmentSubmit, InvestmentSubmit{RoundNumber: n, Investment: inv})
		return nil
	}
	round.UpsertInvestment(inv)
	s.maybeFinishInvestmentLocked(round)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
	return nil
}

// ReadyForNext records a player's round-summary acknowledgement. Once every
// player is ready the host advances to the next round, or to final results
// when every player has been company.
func (s *Store) ReadyForNext(playerID string) {
	if playerID == "" {
		playerID = s.playerID
	}
	s.mu.Lock()
	round := s.currentRoundLocked()
	if round == nil {
		s.mu.Unlock()
		return
	}
	if s.guest() {
		n := round.RoundNumber
		s.mu.Unlock()
		s.send(EventPlayerReadyNext, PlayerReadyNext{PlayerID: playerID, RoundNumber: n})
		return
	}
	round.MarkReady(playerID)
	if s.mode == domain.ModeLocal {
		s.advanceLocked()
	} else {
		s.maybeAdvanceLocked(round)
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// Broadcast re-sends the current snapshot without mutating anything, for
// transports that need an explicit re-sync after a join or reconnect.
func (s *Store) Broadcast() {
	if s.guest() {
		return
	}
	s.mu.Lock()
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

/* ---- inbound channel events ---- */

// HandleEvent is the store's channel delivery callback. The host applies
// guest requests against its authoritative copy and re-broadcasts; guests
// apply nothing but the canonical snapshot.
func (s *Store) HandleEvent(event string, payload json.RawMessage) {
	if !s.isHost {
		if event == EventStateUpdate {
			s.adoptSnapshot(payload)
		}
		return
	}

	switch event {
	case EventStateUpdate:
		// The host is the source of snapshots; ignore echoes.
	case EventPlayerJoin:
		var req PlayerJoin
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad player_join payload")
			return
		}
		s.handleJoin(req.Player)
	case EventRoundUpdateRequest:
		var req RoundUpdateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad round_update_request payload")
			return
		}
		s.UpdateRound(req.RoundNumber, req.Updates)
	case EventPhaseUpdateRequest:
		var req PhaseUpdateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad phase_update_request payload")
			return
		}
		s.SetPhase(req.Phase)
	case EventRoundAndPhaseUpdateRequest:
		var req RoundAndPhaseUpdateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad round_and_phase_update_request payload")
			return
		}
		s.UpdateRoundAndPhase(req.RoundNumber, req.RoundUpdates, req.NewPhase)
	case EventInvestmentSubmit:
		var req InvestmentSubmit
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad investment_submit payload")
			return
		}
		s.handleInvestmentSubmit(req)
	case EventPlayerReadyNext:
		var req PlayerReadyNext
		if err := json.Unmarshal(payload, &req); err != nil {
			s.log.WithError(err).Warn("bad player_ready_next payload")
			return
		}
		s.handleReadyNext(req)
	default:
		s.log.WithField("event", event).Warn("unknown channel event")
	}
}

// handleJoin appends a new player with the next palette color, or simply
// re-syncs when the id is already seated so reconnects keep their balance.
func (s *Store) handleJoin(p domain.Player) {
	s.mu.Lock()
	if existing := domain.FindPlayer(s.players, p.ID); existing == nil && p.ID != "" {
		if len(s.players) >= MaxPlayers {
			s.mu.Unlock()
			s.log.WithError(ErrRoomFull).WithField("player", p.ID).Warn("join refused")
			return
		}
		p.Color = domain.ColorForJoinIndex(len(s.players))
		if p.CurrentPoint <= 0 {
			p.CurrentPoint = s.initialPoints
		}
		s.players = append(s.players, p)
	}
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

func (s *Store) handleInvestmentSubmit(req InvestmentSubmit) {
	s.mu.Lock()
	round := s.targetRoundLocked(req.RoundNumber)
	if round == nil || s.phase != domain.PhaseInvestment {
		s.mu.Unlock()
		return
	}
	inv := req.Investment
	if inv.InvestorID == round.CompanyID {
		s.mu.Unlock()
		return
	}
	company := domain.FindPlayer(s.players, round.CompanyID)
	companyAge := 100
	if company != nil {
		companyAge = company.Age
	}
	if err := domain.ValidateInvestment(inv, domain.FindPlayer(s.players, inv.InvestorID), companyAge); err != nil {
		s.mu.Unlock()
		s.log.WithError(err).WithField("investor", inv.InvestorID).Warn("rejected investment")
		return
	}
	round.UpsertInvestment(inv)
	s.maybeFinishInvestmentLocked(round)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

func (s *Store) handleReadyNext(req PlayerReadyNext) {
	s.mu.Lock()
	round := s.targetRoundLocked(req.RoundNumber)
	if round == nil || req.PlayerID == "" {
		s.mu.Unlock()
		return
	}
	round.MarkReady(req.PlayerID)
	s.maybeAdvanceLocked(round)
	snap := s.commitLocked()
	s.mu.Unlock()
	s.flush(snap)
}

// adoptSnapshot overwrites the guest mirror wholesale. Snapshots older than
// the last applied one are dropped, so out-of-order deliveries cannot roll
// the mirror back.
func (s *Store) adoptSnapshot(payload json.RawMessage) {
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		s.log.WithError(err).Warn("bad state_update payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Timestamp < s.lastApplied {
		s.log.WithField("timestamp", snap.Timestamp).Debug("dropping stale snapshot")
		return
	}
	s.lastApplied = snap.Timestamp
	s.players = snap.Players
	s.rounds = snap.Rounds
	s.currentRound = snap.CurrentRound
	if snap.Phase != "" {
		s.phase = snap.Phase
	}
}

/* ---- accessors ---- */

// Players returns a copy of the player list.
func (s *Store) Players() []domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Player(nil), s.players...)
}

// Rankings returns the players ordered by balance for the summary and
// final-results screens.
func (s *Store) Rankings() []domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Rankings(s.players)
}

// Phase returns the current game phase.
func (s *Store) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentRoundNumber returns the active round pointer, zero before round 1.
func (s *Store) CurrentRoundNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRound
}

// CurrentRound returns a copy of the active round, or nil.
func (s *Store) CurrentRound() *domain.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.currentRoundLocked()
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Round returns a copy of the named round, or nil.
func (s *Store) Round(number int) *domain.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := domain.FindRound(s.rounds, number)
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Snapshot returns a deep copy of the full replicated state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Clone()
}

// IsHost reports whether this participant owns the authoritative copy.
func (s *Store) IsHost() bool { return s.isHost }

// Mode returns the session mode.
func (s *Store) Mode() domain.Mode { return s.mode }

// PlayerID returns the local participant id.
func (s *Store) PlayerID() string { return s.playerID }

// RoomID returns the room code this store belongs to.
func (s *Store) RoomID() string { return s.roomID }

// IsCompany derives whether the local participant is the active company.
// The flag is recomputed from current state on every call and never stored.
func (s *Store) IsCompany() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.IsCompany(s.mode, s.phase, s.playerID, s.companyIDLocked())
}

// CurrentCompanyID returns the active round's company id, falling back to a
// round-robin derivation when the round record has not arrived yet.
func (s *Store) CurrentCompanyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.companyIDLocked()
}

// CurrentCompanyName returns the active company's snapshotted display name.
func (s *Store) CurrentCompanyName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.currentRoundLocked(); r != nil {
		return r.CompanyName
	}
	if s.currentRound > 0 && len(s.players) > 0 {
		return s.players[(s.currentRound-1)%len(s.players)].Name
	}
	return ""
}

/* ---- internals (lock held) ---- */

func (s *Store) guest() bool {
	return s.mode == domain.ModeOnline && !s.isHost
}

func (s *Store) currentRoundLocked() *domain.Round {
	return domain.FindRound(s.rounds, s.currentRound)
}

// targetRoundLocked resolves a request's round number, zero meaning current.
func (s *Store) targetRoundLocked(number int) *domain.Round {
	if number == 0 {
		number = s.currentRound
	}
	return domain.FindRound(s.rounds, number)
}

func (s *Store) companyIDLocked() string {
	if r := s.currentRoundLocked(); r != nil {
		return r.CompanyID
	}
	if s.currentRound > 0 && len(s.players) > 0 {
		return s.players[(s.currentRound-1)%len(s.players)].ID
	}
	return ""
}

func (s *Store) addRoundLocked(r domain.Round) {
	fresh := domain.NewRound(r.RoundNumber, s.players)
	fresh.Topic = r.Topic
	s.rounds = append(s.rounds, fresh)
	s.currentRound = fresh.RoundNumber
}

func (s *Store) patchRoundLocked(roundNumber int, patch domain.RoundPatch) {
	if r := domain.FindRound(s.rounds, roundNumber); r != nil {
		patch.Apply(r)
	}
}

func (s *Store) setPhaseLocked(phase domain.Phase) bool {
	if phase == s.phase {
		return false
	}
	if !domain.ValidTransition(s.phase, phase) {
		s.log.WithFields(logrus.Fields{"from": s.phase, "to": phase}).Warn("illegal phase transition ignored")
		return false
	}
	if phase == domain.PhaseResults {
		s.scoreRoundLocked(s.currentRoundLocked())
	}
	s.phase = phase
	return true
}

// scoreRoundLocked settles the round: every wager's outcome is written back
// and each gain folds into its investor's balance. Runs exactly once per
// round; a completed round is never rescored. The transition table only
// admits the results phase from results-reveal, so scoring cannot fire
// before the investment set is complete.
func (s *Store) scoreRoundLocked(round *domain.Round) {
	if round == nil || round.Completed {
		return
	}
	round.Investments = domain.ScoreInvestments(round.AnchorPoints, round.Investments)
	for _, inv := range round.Investments {
		if p := domain.FindPlayer(s.players, inv.InvestorID); p != nil {
			p.CurrentPoint += inv.PointsGained
		}
	}
	round.Completed = true
}

// maybeFinishInvestmentLocked moves investment to results-reveal once every
// non-company player has a wager recorded.
func (s *Store) maybeFinishInvestmentLocked(round *domain.Round) {
	if s.phase != domain.PhaseInvestment {
		return
	}
	investors := 0
	for _, p := range s.players {
		if p.ID != round.CompanyID {
			investors++
		}
	}
	if investors > 0 && len(round.Investments) >= investors {
		s.setPhaseLocked(domain.PhaseResultsReveal)
	}
}

// maybeAdvanceLocked starts the next round once every player has signaled
// ready on the summary screen.
func (s *Store) maybeAdvanceLocked(round *domain.Round) {
	if len(s.players) == 0 || len(round.ReadyPlayers) < len(s.players) {
		return
	}
	s.advanceLocked()
}

func (s *Store) advanceLocked() {
	if s.phase != domain.PhaseRoundSummary {
		return
	}
	if domain.GameOver(s.currentRound, len(s.players)) {
		s.setPhaseLocked(domain.PhaseFinalResults)
		return
	}
	next := s.currentRound + 1
	if domain.FindRound(s.rounds, next) != nil {
		return
	}
	s.addRoundLocked(domain.Round{RoundNumber: next})
	s.phase = domain.PhaseTopicSelection
}

func (s *Store) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Players:      s.players,
		Rounds:       s.rounds,
		CurrentRound: s.currentRound,
		Phase:        s.phase,
		Timestamp:    s.clock().UnixMilli(),
	}
}

// commitLocked captures the outbound snapshot for a host-side mutation, or
// nil when no broadcast is due. The send happens after the lock is released.
func (s *Store) commitLocked() *domain.Snapshot {
	if !s.isHost || s.mode != domain.ModeOnline || s.sub == nil {
		return nil
	}
	snap := s.snapshotLocked().Clone()
	return &snap
}

// flush broadcasts a committed snapshot. Failures are logged and dropped:
// the next mutation's broadcast re-synchronizes the room.
func (s *Store) flush(snap *domain.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	sub, ctx := s.sub, s.ctx
	s.mu.Unlock()
	if sub == nil {
		return
	}
	if err := sub.Send(ctx, EventStateUpdate, snap); err != nil {
		s.log.WithError(err).Warn("snapshot broadcast failed")
	}
}

// send emits a guest request event, best effort.
func (s *Store) send(event string, payload any) {
	s.mu.Lock()
	sub, ctx := s.sub, s.ctx
	s.mu.Unlock()
	if sub == nil {
		return
	}
	if err := sub.Send(ctx, event, payload); err != nil {
		s.log.WithError(err).WithField("event", event).Warn("request send failed")
	}
}
