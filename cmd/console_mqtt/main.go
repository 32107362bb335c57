// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/ubx_gateway/internal/app"
)

func main() {
	configPath := flag.String("config", "./ubx_gateway.config", "path to configuration file")
	flag.Parse()

	ctx, stop, err := app.Start(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer stop()

	log.Info().Msg("starting ubx-gateway console (MQTT subscriber)")
	if err := app.RunConsoleMQTT(ctx); err != nil {
		log.Fatal().Err(err).Msg("console")
	}
}
