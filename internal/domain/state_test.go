package domain

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from Phase
		to   Phase
		want bool
	}{
		{name: "setup to topic", from: PhaseSetup, to: PhaseTopicSelection, want: true},
		{name: "topic to graph", from: PhaseTopicSelection, to: PhaseGraphCreation, want: true},
		{name: "graph to questions", from: PhaseGraphCreation, to: PhaseQuestions, want: true},
		{name: "questions to investment", from: PhaseQuestions, to: PhaseInvestment, want: true},
		{name: "investment to reveal", from: PhaseInvestment, to: PhaseResultsReveal, want: true},
		{name: "reveal to results", from: PhaseResultsReveal, to: PhaseResults, want: true},
		{name: "results to summary", from: PhaseResults, to: PhaseRoundSummary, want: true},
		{name: "summary repeats topic", from: PhaseRoundSummary, to: PhaseTopicSelection, want: true},
		{name: "summary to finals", from: PhaseRoundSummary, to: PhaseFinalResults, want: true},
		{name: "no skipping", from: PhaseTopicSelection, to: PhaseQuestions, want: false},
		{name: "no going back", from: PhaseInvestment, to: PhaseQuestions, want: false},
		{name: "finals are terminal", from: PhaseFinalResults, to: PhaseTopicSelection, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("ValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsCompany(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		phase     Phase
		playerID  string
		companyID string
		want      bool
	}{
		{name: "local during topic selection", mode: ModeLocal, phase: PhaseTopicSelection, want: true},
		{name: "local during graph creation", mode: ModeLocal, phase: PhaseGraphCreation, want: true},
		{name: "local during investment", mode: ModeLocal, phase: PhaseInvestment, want: false},
		{name: "online matching id", mode: ModeOnline, phase: PhaseInvestment, playerID: "a", companyID: "a", want: true},
		{name: "online other id", mode: ModeOnline, phase: PhaseGraphCreation, playerID: "b", companyID: "a", want: false},
		{name: "online empty ids", mode: ModeOnline, phase: PhaseGraphCreation, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompany(tt.mode, tt.phase, tt.playerID, tt.companyID); got != tt.want {
				t.Errorf("IsCompany() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGameOver(t *testing.T) {
	if GameOver(2, 3) {
		t.Errorf("game over before every player was company")
	}
	if !GameOver(3, 3) {
		t.Errorf("game not over after final company round")
	}
	if GameOver(1, 0) {
		t.Errorf("game over with no players")
	}
}

func TestColorForJoinIndexCycles(t *testing.T) {
	if got, want := ColorForJoinIndex(0), PlayerColors[0]; got != want {
		t.Errorf("color 0 = %s, want %s", got, want)
	}
	if got, want := ColorForJoinIndex(len(PlayerColors)), PlayerColors[0]; got != want {
		t.Errorf("palette did not cycle: %s, want %s", got, want)
	}
}
