package main

import (
	"os"
	"time"

	"github.com/mcdev12/roomtimer/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.LogJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
