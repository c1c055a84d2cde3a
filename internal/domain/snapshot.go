package domain

// Snapshot is the complete replicated state broadcast by the host after every
// mutation. Guests replace their mirror with it wholesale; nothing is merged
// field by field. Timestamp is milliseconds since the epoch and decides which
// of two snapshots is the more current when deliveries arrive out of order.
type Snapshot struct {
	Players      []Player `json:"players"`
	Rounds       []Round  `json:"rounds"`
	CurrentRound int      `json:"currentRound"`
	Phase        Phase    `json:"phase"`
	Timestamp    int64    `json:"timestamp"`
}

// Clone returns a deep copy so a snapshot can cross goroutine or process
// boundaries without aliasing the authoritative state.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Players = append([]Player(nil), s.Players...)
	out.Rounds = make([]Round, len(s.Rounds))
	for i, r := range s.Rounds {
		r.AnchorPoints = append([]AnchorPoint(nil), r.AnchorPoints...)
		r.Questions = append([]Question(nil), r.Questions...)
		r.Investments = append([]Investment(nil), r.Investments...)
		r.ReadyPlayers = append([]string(nil), r.ReadyPlayers...)
		if r.TimerValue != nil {
			v := *r.TimerValue
			r.TimerValue = &v
		}
		out.Rounds[i] = r
	}
	return out
}
