// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/config"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/observability"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/serialport"
	"github.com/relabs-tech/ubx_gateway/internal/signalk"
	"github.com/relabs-tech/ubx_gateway/internal/sim"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

type ProducerOptions struct {
	// Simulate replaces the serial port with the synthetic receiver.
	Simulate bool
	Sim      sim.Config
}

// RunUBXProducer reads the receiver, decodes UBX and publishes records,
// fixes, Signal K deltas and periodic stats to MQTT until ctx ends.
func RunUBXProducer(ctx context.Context, opts ProducerOptions) error {
	cfg := config.Get()
	log := logging.For("producer")

	codec, err := NewCodec(cfg.PayloadEncoding)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sink := NewGatewaySink(mqttPublisher{client: client}, codec, Topics{
		GPS:       cfg.TopicGPS,
		SignalK:   cfg.TopicSignalK,
		UBXPrefix: cfg.TopicUBXPrefix,
		Stats:     cfg.TopicStats,
	}, cfg.MQTTQoS, signalk.Options{Context: cfg.SignalKContext, Label: cfg.SignalKSourceLabel})

	src, name, closeSrc, err := openSource(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	p := pipeline.New(sink, pipeline.Options{
		Name: name,
		Scanner: ubx.ScannerConfig{
			MaxPayload:    cfg.UBXMaxPayload,
			SyncLookahead: cfg.UBXSyncLookahead,
			NMEA:          cfg.UBXParseNMEA,
		},
	})

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, log)
		defer shutdownServer(srv, log)
	}

	go publishStats(ctx, p, sink, cfg.StatsInterval, log)

	err = p.Run(ctx, src)
	if ctx.Err() != nil {
		log.Info().Msg("producer shutting down")
		return nil
	}
	if errors.Is(err, pipeline.ErrStreamClosed) {
		return fmt.Errorf("receiver %s closed the stream", name)
	}
	return err
}

// openSource returns the byte source plus a close func that is safe to call
// more than once. Cancelling ctx closes the port to unblock a pending Read.
func openSource(ctx context.Context, cfg *config.Config, opts ProducerOptions) (pipeline.Source, string, func(), error) {
	if opts.Simulate {
		ch := make(chan []byte, 4)
		go runSimulator(ctx, sim.NewGenerator(opts.Sim, time.Now()), ch)
		return pipeline.NewChanSource(ch), "sim", func() {}, nil
	}

	port, name, err := serialport.Open(serialport.Config{Port: cfg.GPSSerialPort, BaudRate: cfg.GPSBaudRate})
	if err != nil {
		return nil, "", nil, err
	}
	var once sync.Once
	closePort := func() { once.Do(func() { port.Close() }) }
	go func() {
		<-ctx.Done()
		closePort()
	}()
	return pipeline.NewReaderSource(port, cfg.UBXChunkSize), name, closePort, nil
}

func runSimulator(ctx context.Context, g *sim.Generator, ch chan<- []byte) {
	defer close(ch)
	log := logging.For("sim")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			epoch, err := g.Epoch(now)
			if err != nil {
				log.Error().Err(err).Msg("sim epoch")
				return
			}
			select {
			case ch <- epoch:
			case <-ctx.Done():
				return
			}
		}
	}
}

func publishStats(ctx context.Context, p *pipeline.Pipeline, sink *GatewaySink, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := p.Stats()
			if err := sink.PublishStats(st); err != nil {
				log.Warn().Err(err).Msg("stats publish failed")
				continue
			}
			log.Info().
				Uint64("frames", st.Frames).
				Uint64("records", st.Records).
				Uint64("rejected", st.Rejected()).
				Uint64("discarded_bytes", st.DiscardedBytes).
				Msg("pipeline stats")
		}
	}
}

func newMetricsRouter(log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log))
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func startMetricsServer(addr string, log zerolog.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newMetricsRouter(log)}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
}
