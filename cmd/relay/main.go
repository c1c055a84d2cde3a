package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"lifestock/internal/ports/relay"
)

func main() {
	log := logrus.New()
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	secret := os.Getenv("RELAY_SECRET")
	if secret == "" {
		log.Warn("RELAY_SECRET is not set, room tokens are not enforced")
	}

	broker := relay.NewBroker(log, secret)
	mux := http.NewServeMux()
	mux.Handle("/ws", broker)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.WithField("port", port).Info("relay listening")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.WithError(err).Fatal("relay server stopped")
	}
}
