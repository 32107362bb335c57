// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"bufio"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/sim"
)

// ubx_sim writes a synthetic receiver stream to stdout, e.g.
//
//	ubx_sim -n 60 | ubx_dump
//	ubx_sim -rate 1s -garbage > /tmp/gnss.fifo
func main() {
	cfg := sim.DefaultConfig()
	flag.Float64Var(&cfg.Latitude, "lat", cfg.Latitude, "centre latitude")
	flag.Float64Var(&cfg.Longitude, "lon", cfg.Longitude, "centre longitude")
	flag.Float64Var(&cfg.RadiusM, "radius", cfg.RadiusM, "circle radius in metres")
	flag.Float64Var(&cfg.SpeedMS, "speed", cfg.SpeedMS, "speed over ground in m/s")
	flag.BoolVar(&cfg.Garbage, "garbage", false, "insert random bytes between epochs")
	flag.IntVar(&cfg.Corrupt, "corrupt", 0, "corrupt one in N frames (0 = never)")
	flag.BoolVar(&cfg.NMEA, "nmea", false, "append a GPRMC sentence to each epoch")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	n := flag.Int("n", 0, "number of epochs, 0 = forever")
	rate := flag.Duration("rate", 0, "wall-clock delay between epochs, 0 = as fast as possible")
	flag.Parse()

	logging.ConfigureRuntime()

	start := time.Now().UTC().Truncate(time.Second)
	g := sim.NewGenerator(cfg, start)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for i := 0; *n == 0 || i < *n; i++ {
		epoch, err := g.Epoch(start.Add(time.Duration(i) * time.Second))
		if err != nil {
			log.Fatal().Err(err).Msg("epoch")
		}
		if _, err := out.Write(epoch); err != nil {
			log.Error().Err(err).Msg("write")
			return
		}
		if *rate > 0 {
			if err := out.Flush(); err != nil {
				log.Error().Err(err).Msg("write")
				return
			}
			time.Sleep(*rate)
		}
	}
}
