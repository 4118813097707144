package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/app"
	"github.com/prasannasamana/ai-reel-generator/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	os.Exit(app.Run("reels", log, runner(cfg, log)))
}
