// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/ubx_gateway/internal/app"
	"github.com/relabs-tech/ubx_gateway/internal/sim"
)

func main() {
	configPath := flag.String("config", "./ubx_gateway.config", "path to configuration file")
	simulate := flag.Bool("sim", false, "use the synthetic receiver instead of the serial port")
	flag.Parse()

	ctx, stop, err := app.Start(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer stop()

	log.Info().Msg("starting ubx-gateway producer (UBX → MQTT)")
	if err := app.RunUBXProducer(ctx, app.ProducerOptions{Simulate: *simulate, Sim: sim.DefaultConfig()}); err != nil {
		log.Fatal().Err(err).Msg("producer")
	}
}
