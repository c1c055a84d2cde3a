package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"lifestock/internal/app"
	"lifestock/internal/config"
	"lifestock/internal/domain"
	"lifestock/internal/ports/fsid"
	"lifestock/internal/ports/relay"
)

// The host process opens a room on a relay broker and runs the authoritative
// game copy for it: guests join with the printed room code and every mutation
// they request flows through this store.
func main() {
	log := logrus.New()
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	if err := config.LoadGameConfig(envOr("GAME_CONFIG", filepath.Join("data", "game_config.json"))); err != nil {
		log.WithError(err).Debug("game config not loaded, using defaults")
	}

	relayURL := envOr("RELAY_URL", "ws://localhost:8080/ws")
	secret := os.Getenv("RELAY_SECRET")
	dataDir := envOr("LIFESTOCK_DATA_DIR", ".lifestock")
	hostName := envOr("HOST_NAME", "Host")
	hostAge := envIntOr("HOST_AGE", 30)

	identity := app.NewIdentityService(fsid.New(filepath.Join(dataDir, "player_id")), secret, "lifestock")
	playerID, err := identity.PlayerID()
	if err != nil {
		log.WithError(err).Fatal("cannot establish player identity")
	}

	roomID := app.NewRoomCode(rand.New(rand.NewSource(time.Now().UnixNano())))
	token := ""
	if secret != "" {
		if token, err = identity.RoomToken(playerID, roomID); err != nil {
			log.WithError(err).Fatal("cannot mint room token")
		}
	}

	store := app.NewStore(app.StoreOptions{
		Mode:          domain.ModeOnline,
		Host:          true,
		RoomID:        roomID,
		PlayerID:      playerID,
		PlayerName:    hostName,
		PlayerAge:     hostAge,
		InitialPoints: config.GetInitialPoints(),
		Logger:        log,
	})
	store.SetPlayers([]domain.Player{{
		ID:           playerID,
		Name:         hostName,
		Age:          hostAge,
		Color:        domain.ColorForJoinIndex(0),
		CurrentPoint: config.GetInitialPoints(),
	}})
	flow := app.NewFlow(store, config.GetTopics(), nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Attach(ctx, relay.NewClient(relayURL, token, log)); err != nil {
		log.WithError(err).Fatal("cannot attach to relay")
	}
	defer store.Close()

	log.WithFields(logrus.Fields{"room": roomID, "relay": relayURL}).Info("room open")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	announced := false
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			flow.TickQuestionTimer()
			if !announced && store.Phase() == domain.PhaseFinalResults {
				announced = true
				for i, p := range store.Rankings() {
					log.WithFields(logrus.Fields{"place": i + 1, "player": p.Name, "points": p.CurrentPoint}).Info("final standing")
				}
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
