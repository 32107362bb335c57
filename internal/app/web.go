package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/config"
	"github.com/relabs-tech/ubx_gateway/internal/gps"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/observability"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/signalk"
)

const (
	serverName    = "ubx_gateway"
	serverVersion = "0.3.0"
	signalKAPI    = "1.7.0"
)

// webState is the latest data seen on MQTT.
type webState struct {
	mu        sync.RWMutex
	fix       gps.Fix
	haveFix   bool
	stats     pipeline.Stats
	haveStats bool
	lastDelta []byte
	started   time.Time

	sk  signalk.Options
	hub *streamHub
}

func newWebState(sk signalk.Options, hub *streamHub) *webState {
	return &webState{sk: sk, hub: hub, started: time.Now()}
}

func (s *webState) onFix(payload []byte) error {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return err
	}
	s.mu.Lock()
	s.fix, s.haveFix = f, true
	s.mu.Unlock()
	return nil
}

func (s *webState) onStats(payload []byte) error {
	var st pipeline.Stats
	if err := json.Unmarshal(payload, &st); err != nil {
		return err
	}
	s.mu.Lock()
	s.stats, s.haveStats = st, true
	s.mu.Unlock()
	return nil
}

// onDelta forwards a producer delta to stream clients as is.
func (s *webState) onDelta(payload []byte) error {
	if !json.Valid(payload) {
		return errors.New("signalk payload is not JSON")
	}
	msg := append([]byte(nil), payload...)
	s.mu.Lock()
	s.lastDelta = msg
	s.mu.Unlock()
	s.hub.Broadcast(msg)
	return nil
}

func newWebRouter(state *webState, corsOrigins []string, staticDir string, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log))
	r.Use(observability.RequestMetricsMiddleware())
	corsCfg := cors.Config{
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(corsOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/api/gps", func(c *gin.Context) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.haveFix {
			c.String(http.StatusServiceUnavailable, "no data yet")
			return
		}
		c.JSON(http.StatusOK, state.fix)
	})

	r.GET("/api/stats", func(c *gin.Context) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.haveStats {
			c.String(http.StatusServiceUnavailable, "no data yet")
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": state.stats, "rejected": state.stats.Rejected()})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(state.started).String(),
			"clients": state.hub.Len(),
			"version": serverVersion,
		})
	})

	r.GET("/metrics", gin.WrapH(observability.Handler()))

	r.GET("/signalk", func(c *gin.Context) {
		scheme, ws := "http", "ws"
		if c.Request.TLS != nil {
			scheme, ws = "https", "wss"
		}
		c.JSON(http.StatusOK, gin.H{
			"endpoints": gin.H{
				"v1": gin.H{
					"version":      signalKAPI,
					"signalk-ws":   fmt.Sprintf("%s://%s/signalk/v1/stream", ws, c.Request.Host),
					"signalk-http": fmt.Sprintf("%s://%s/api/gps", scheme, c.Request.Host),
				},
			},
			"server": gin.H{"id": serverName, "version": serverVersion},
		})
	})

	r.GET("/signalk/v1/stream", func(c *gin.Context) {
		hello, err := json.Marshal(signalk.NewHello(serverName, signalKAPI, state.sk, time.Now()))
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		state.mu.RLock()
		last := state.lastDelta
		state.mu.RUnlock()
		state.hub.Serve(c.Writer, c.Request, hello, last)
	})

	// Static files from ./web as the root
	if staticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}
	return r
}

// RunWeb serves the latest fix, stats and the Signal K stream fed from MQTT.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("web")

	state := newWebState(
		signalk.Options{Context: cfg.SignalKContext, Label: cfg.SignalKSourceLabel},
		newStreamHub(cfg.WebCORSOrigins, log),
	)

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for topic, handle := range map[string]func([]byte) error{
		cfg.TopicGPS:     state.onFix,
		cfg.TopicStats:   state.onStats,
		cfg.TopicSignalK: state.onDelta,
	} {
		if err := subscribe(client, topic, cfg.MQTTQoS, func(payload []byte) {
			if err := handle(payload); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("MQTT payload unmarshal error")
			}
		}, log); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	srv := &http.Server{Addr: addr, Handler: newWebRouter(state, cfg.WebCORSOrigins, "web", log)}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownServer(srv, log)
		return nil
	}
}
