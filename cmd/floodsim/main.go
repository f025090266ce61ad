package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cityops/flood-commander/internal/simstub"
)

// floodsim serves the bundled scenarios over the same HTTP surface as the
// real simulation service. Useful for local play and development.
func main() {
	portFlag := flag.String("port", "", "Port to listen on (overrides PORT env var)")
	flag.Parse()

	_ = godotenv.Load()

	port := *portFlag
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8000"
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	srv, err := simstub.NewServer()
	if err != nil {
		log.Fatal().Err(err).Msg("loading scenarios")
	}

	log.Info().Str("port", port).Msg("flood simulation service listening")
	if err := srv.Router().Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
