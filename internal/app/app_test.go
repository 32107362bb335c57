// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

func init() {
	logging.ConfigureTests()
	gin.SetMode(gin.TestMode)
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, qos, retained, append([]byte(nil), payload...)})
	return p.err
}

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.topic)
	}
	return out
}

func (p *fakePublisher) last(topic string) (published, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.msgs) - 1; i >= 0; i-- {
		if p.msgs[i].topic == topic {
			return p.msgs[i], true
		}
	}
	return published{}, false
}

func latLonFrame(t *testing.T, lat, lon float64) []byte {
	t.Helper()
	p := make([]byte, 8)
	binary.LittleEndian.PutUint32(p[0:], uint32(int32(math.Round(lat*1e7))))
	binary.LittleEndian.PutUint32(p[4:], uint32(int32(math.Round(lon*1e7))))
	f, err := ubx.Encode(ubx.NavPosLLH, p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return f.Bytes()
}
