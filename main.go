package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cityops/flood-commander/internal/config"
	"github.com/cityops/flood-commander/internal/session"
	"github.com/cityops/flood-commander/internal/sim"
	"github.com/cityops/flood-commander/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := os.OpenFile("flood-commander.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()

	client := sim.New(cfg.APIBaseURL, cfg.HTTPTimeout)
	store := session.NewFSStore(cfg.SaveDir)
	ctrl := session.NewController(client, store)

	if err := tui.Run(ctrl, client, cfg.Language); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
