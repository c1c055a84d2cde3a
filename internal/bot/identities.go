package bot

import (
	"fmt"
	"strings"

	"lifestock/internal/domain"
)

const botIDPrefix = "bot:"

var botNames = []string{
	"Robo Rosa", "Auto Alex", "Circuit Cleo", "Dynamo Dee",
	"Gearbox Gus", "Pixel Pam", "Servo Sam", "Vector Vic",
}

// IsBot reports whether the given player id represents a bot seat.
func IsBot(playerID string) bool {
	return strings.HasPrefix(playerID, botIDPrefix)
}

// BotID returns the fixed player id for the nth bot seat.
func BotID(n int) string {
	return fmt.Sprintf("%s%d", botIDPrefix, n)
}

// NewBotPlayer builds the nth bot's seat profile. Ages spread across the
// range investors actually wager on, so bot companies produce usable curves.
func NewBotPlayer(n, initialPoints int) domain.Player {
	return domain.Player{
		ID:           BotID(n),
		Name:         botNames[n%len(botNames)],
		Age:          30 + (n*13)%50,
		CurrentPoint: initialPoints,
	}
}
