// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/relabs-tech/ubx_gateway/internal/config"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
)

// Start configures logging, loads the global config and returns a context
// cancelled on SIGINT/SIGTERM.
func Start(configPath string) (context.Context, context.CancelFunc, error) {
	logging.ConfigureRuntime()
	gin.SetMode(gin.ReleaseMode)

	if err := config.InitGlobal(configPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyLogLevel(config.Get().LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, stop, nil
}

// applyLogLevel applies the configured LOG_LEVEL unless the environment
// already set one. It reports whether the level changed.
func applyLogLevel(lvl string) bool {
	if lvl == "" || os.Getenv(logging.EnvLogLevel) != "" {
		return false
	}
	if !logging.SetLevel(lvl) {
		log := logging.For("startup")
		log.Warn().Str("level", lvl).Msg("unknown LOG_LEVEL, keeping default")
		return false
	}
	return true
}
