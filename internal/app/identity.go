package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"

	"lifestock/internal/ports"
)

// IdentityService manages the persistent device identity a participant keeps
// across sessions, and mints the signed room tokens the relay checks before
// letting a connection into a room.
type IdentityService struct {
	store  ports.IdentityStore
	secret string
	issuer string
}

func NewIdentityService(store ports.IdentityStore, secret, issuer string) *IdentityService {
	return &IdentityService{store: store, secret: secret, issuer: issuer}
}

// PlayerID loads the device's player id, generating and persisting a fresh
// one on first run. The same id survives restarts, which is what lets a
// rejoining player reclaim their seat and balance.
func (s *IdentityService) PlayerID() (string, error) {
	id, err := s.store.Load()
	if err != nil {
		return "", fmt.Errorf("load player id: %w", err)
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.store.Save(id); err != nil {
		return "", fmt.Errorf("save player id: %w", err)
	}
	return id, nil
}

// RoomToken signs a short-lived token binding a player id to a room code.
func (s *IdentityService) RoomToken(playerID, roomID string) (string, error) {
	if s.secret == "" {
		return "", fmt.Errorf("token secret is not configured")
	}
	if playerID == "" || roomID == "" {
		return "", fmt.Errorf("player id and room id are required")
	}
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  playerID,
		"room": roomID,
		"exp":  time.Now().Add(time.Hour * 12).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyRoomToken checks a room token's signature and expiry and returns the
// player id and room code it carries.
func VerifyRoomToken(tokenString, secret string) (playerID, roomID string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid room token")
	}
	playerID, _ = claims["sub"].(string)
	roomID, _ = claims["room"].(string)
	if playerID == "" || roomID == "" {
		return "", "", fmt.Errorf("room token is missing claims")
	}
	return playerID, roomID, nil
}
