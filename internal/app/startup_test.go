// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/logging"
)

func TestApplyLogLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	tests := []struct {
		name    string
		env     string
		level   string
		applied bool
	}{
		{"empty", "", "", false},
		{"unknown level", "", "loud", false},
		{"environment wins", "debug", "error", false},
		{"configured", "", "error", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(logging.EnvLogLevel, tt.env)
			zerolog.SetGlobalLevel(zerolog.Disabled)

			if got := applyLogLevel(tt.level); got != tt.applied {
				t.Fatalf("applyLogLevel(%q)=%v want %v", tt.level, got, tt.applied)
			}
			want := zerolog.Disabled
			if tt.applied {
				want = zerolog.ErrorLevel
			}
			if lvl := zerolog.GlobalLevel(); lvl != want {
				t.Fatalf("level=%v want %v", lvl, want)
			}
		})
	}
}
