package domain

import "sort"

// InitialPoints is the balance every participant starts with.
const InitialPoints = 10000

// PlayerColors is the fixed palette assigned by the host, cycled by join
// order.
var PlayerColors = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B", "#8B5CF6",
	"#EC4899", "#14B8A6", "#F97316", "#06B6D4", "#84CC16",
	"#F43F5E", "#6366F1", "#A855F7", "#22D3EE", "#FDE047",
	"#FB923C", "#34D399", "#E11D48", "#7C3AED", "#0EA5E9",
}

// ColorForJoinIndex returns the palette color for the nth participant to join.
func ColorForJoinIndex(n int) string {
	if n < 0 {
		n = 0
	}
	return PlayerColors[n%len(PlayerColors)]
}

// Player holds the replicated state for a participant. Players are never
// removed mid-session; only CurrentPoint changes once scoring is applied.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	CurrentPoint int    `json:"currentPoint"`
	Color        string `json:"color"`
}

// FindPlayer returns the player with the given id, or nil.
func FindPlayer(players []Player, id string) *Player {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}

// Rankings returns the players ordered by balance, highest first. The input
// slice is not modified.
func Rankings(players []Player) []Player {
	ranked := append([]Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CurrentPoint > ranked[j].CurrentPoint
	})
	return ranked
}
