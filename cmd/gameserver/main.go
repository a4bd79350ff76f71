package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/anhbaysgalan1/turngame/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	gameServer, err := server.NewGameServer()
	if err != nil {
		slog.Error("Failed to create game server", "error", err)
		os.Exit(1)
	}

	if err := gameServer.Start(); err != nil {
		slog.Error("Failed to start game server", "error", err)
		os.Exit(1)
	}
}
