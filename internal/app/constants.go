package app

const (
	// MinPlayers is the smallest seat count a game can start with.
	MinPlayers = 2
	// MaxPlayers caps the room size; joins beyond it are refused.
	MaxPlayers = 20

	// DefaultQuestionSeconds is the interview timer length.
	DefaultQuestionSeconds = 180
)
