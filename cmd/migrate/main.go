package main

import (
	"os"

	"resort/config"
	"resort/helper"
	"resort/shared/logger"

	"github.com/rs/zerolog/log"
)

const argLength = 2

func main() {
	logger.InitLogger()

	if len(os.Args) < argLength {
		log.Fatal().Msg("migration direction (up/down/drop/step-up) is required")
	}

	cfg := config.Get()
	logger.Configure(cfg)

	direction := os.Args[1]
	if _, ok := helper.Actions[direction]; !ok {
		log.Fatal().Str("direction", direction).Msg("invalid direction, use up, down, drop or step-up")
	}

	if err := helper.Runner(cfg, direction); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migration failed")
	}
}
