package app

import "math/rand"

// roomCodeAlphabet deliberately has no lowercase: codes are read aloud and
// typed on phones.
const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// NewRoomCode generates a six-character room code from the given source.
func NewRoomCode(rng *rand.Rand) string {
	buf := make([]byte, roomCodeLength)
	for i := range buf {
		buf[i] = roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))]
	}
	return string(buf)
}

// ValidRoomCode reports whether s looks like a room code.
func ValidRoomCode(s string) bool {
	if len(s) != roomCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		ok := false
		for j := 0; j < len(roomCodeAlphabet); j++ {
			if s[i] == roomCodeAlphabet[j] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
