package app

import (
	"math/rand"
	"testing"
)

func TestNewRoomCode(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewRoomCode(rng)
		if !ValidRoomCode(code) {
			t.Fatalf("NewRoomCode() = %q, not a valid code", code)
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Fatalf("generated %d distinct codes out of 100", len(seen))
	}
}

func TestValidRoomCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"ZZZZZZ", true},
		{"abc123", false},
		{"AB 123", false},
		{"ABC12", false},
		{"ABC1234", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidRoomCode(c.code); got != c.want {
			t.Fatalf("ValidRoomCode(%q) = %v, want %v", c.code, got, c.want)
		}
	}
}
