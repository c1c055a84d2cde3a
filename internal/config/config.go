package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	InitialPoints   int `json:"initial_points"`
	QuestionSeconds int `json:"question_seconds"`
	MinPlayers      int `json:"min_players"`
	MaxPlayers      int `json:"max_players"`
	// Topics overrides the built-in roulette topic pool when non-empty.
	Topics []string `json:"topics"`
	// BotInvestDelaySeconds configures how many seconds a bot investor waits
	// before placing its wager.
	BotInvestDelaySeconds int `json:"bot_invest_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetInitialPoints returns the configured starting balance, or the safe
// default when no config is loaded.
func GetInitialPoints() int {
	if cfg == nil || cfg.InitialPoints <= 0 {
		return 10000
	}
	return cfg.InitialPoints
}

// GetQuestionSeconds returns the interview timer length.
func GetQuestionSeconds() int {
	if cfg == nil || cfg.QuestionSeconds <= 0 {
		return 180
	}
	return cfg.QuestionSeconds
}

// GetPlayerLimits returns the allowed seat count range.
func GetPlayerLimits() (min, max int) {
	min, max = 2, 20
	if cfg == nil {
		return min, max
	}
	if cfg.MinPlayers >= 2 {
		min = cfg.MinPlayers
	}
	if cfg.MaxPlayers >= min {
		max = cfg.MaxPlayers
	}
	return min, max
}

// GetTopics returns the configured roulette topics, or nil to use the
// built-in pool.
func GetTopics() []string {
	if cfg == nil || len(cfg.Topics) == 0 {
		return nil
	}
	return cfg.Topics
}

// GetBotInvestDelaySeconds returns how long bot investors hesitate before
// wagering.
func GetBotInvestDelaySeconds() int {
	if cfg == nil || cfg.BotInvestDelaySeconds < 0 {
		return 2
	}
	return cfg.BotInvestDelaySeconds
}
