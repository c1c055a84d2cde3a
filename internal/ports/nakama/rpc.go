package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"lifestock/internal/app"
)

// CreateRoomResponse is returned to the client that opened a room.
type CreateRoomResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
}

// FindRoomRequest resolves a spoken room code to a joinable match.
type FindRoomRequest struct {
	Code string `json:"code"`
}

type FindRoomResponse struct {
	MatchID string `json:"match_id"`
	Code    string `json:"code"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcCreateRoom, rpcCreateRoom); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcFindRoom, rpcFindRoom)
}

func rpcCreateRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	// Retry on the unlikely code collision with a live room.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var code string
	for attempt := 0; attempt < 5; attempt++ {
		code = app.NewRoomCode(rng)
		taken, err := findRoomMatch(ctx, nk, code)
		if err != nil {
			logger.Error("rpcCreateRoom [User:%s]: Failed to check code: %v", userID, err)
			return "", err
		}
		if taken == "" {
			break
		}
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameLifeStock, map[string]interface{}{"code": code})
	if err != nil {
		logger.Error("rpcCreateRoom [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}

	logger.Info("rpcCreateRoom [User:%s]: Created room %s (%s)", userID, code, matchID)
	b, _ := json.Marshal(CreateRoomResponse{MatchID: matchID, Code: code})
	return string(b), nil
}

func rpcFindRoom(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req FindRoomRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}
	if !app.ValidRoomCode(req.Code) {
		return "", fmt.Errorf("malformed room code")
	}

	matchID, err := findRoomMatch(ctx, nk, req.Code)
	if err != nil {
		logger.Error("rpcFindRoom [User:%s]: Failed to list matches: %v", userID, err)
		return "", err
	}
	if matchID == "" {
		return "", fmt.Errorf("room %s not found", req.Code)
	}

	b, _ := json.Marshal(FindRoomResponse{MatchID: matchID, Code: req.Code})
	return string(b), nil
}

// findRoomMatch returns the match id labeled with the given code, or "".
func findRoomMatch(ctx context.Context, nk runtime.NakamaModule, code string) (string, error) {
	limit := 1
	authoritative := true
	query := fmt.Sprintf("+label.%s:%s", MatchLabelKeyCode, code)

	matches, err := nk.MatchList(ctx, limit, authoritative, "", nil, nil, query)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].MatchId, nil
}
