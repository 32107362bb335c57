// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/ubx_gateway/internal/app"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
)

func main() {
	file := flag.String("f", "-", "capture file to decode, - for stdin")
	chunk := flag.Int("chunk", pipeline.DefaultChunkSize, "read size in bytes")
	nmea := flag.Bool("nmea", false, "pass interleaved NMEA sentences through")
	asJSON := flag.Bool("json", false, "print one JSON object per record")
	rejects := flag.Bool("rejects", false, "also print dropped frames and resync events")
	flag.Parse()

	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var in io.Reader = os.Stdin
	name := "stdin"
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("open capture")
		}
		defer f.Close()
		in, name = f, *file
	}

	_, err := app.RunDump(ctx, in, os.Stdout, app.DumpOptions{
		Name:      name,
		ChunkSize: *chunk,
		NMEA:      *nmea,
		JSON:      *asJSON,
		Rejects:   *rejects,
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("dump")
	}
}
