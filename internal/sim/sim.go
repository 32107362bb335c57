// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim generates a synthetic receiver stream: a vessel circling a
// point, reported as NAV-PVT and NAV-POSLLH frames.
package sim

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

const earthRadiusM = 6371000.0

type Config struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
	SpeedMS   float64
	// Garbage inserts a few random bytes before each epoch.
	Garbage bool
	// Corrupt flips a checksum byte in roughly one of every Corrupt
	// epochs; 0 disables.
	Corrupt int
	// NMEA appends a GPRMC sentence to every epoch.
	NMEA bool
	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Latitude:  47.1234567,
		Longitude: -8.2345678,
		RadiusM:   200,
		SpeedMS:   5,
	}
}

type Generator struct {
	cfg   Config
	start time.Time
	rng   *rand.Rand
}

func NewGenerator(cfg Config, start time.Time) *Generator {
	if cfg.RadiusM <= 0 {
		cfg.RadiusM = DefaultConfig().RadiusM
	}
	return &Generator{
		cfg:   cfg,
		start: start,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// At returns the solution the vessel reports at time t.
func (g *Generator) At(t time.Time) ubx.PVT {
	elapsed := t.Sub(g.start).Seconds()
	theta := elapsed * g.cfg.SpeedMS / g.cfg.RadiusM

	north := g.cfg.RadiusM * math.Sin(theta)
	east := g.cfg.RadiusM * (1 - math.Cos(theta))
	lat := g.cfg.Latitude + north/earthRadiusM*180/math.Pi
	lon := g.cfg.Longitude + east/(earthRadiusM*math.Cos(g.cfg.Latitude*math.Pi/180))*180/math.Pi

	vn := g.cfg.SpeedMS * math.Cos(theta)
	ve := g.cfg.SpeedMS * math.Sin(theta)
	heading := math.Mod(theta*180/math.Pi+360, 360)

	utc := t.UTC().Truncate(time.Millisecond)
	return ubx.PVT{
		ITOW:          towMillis(utc),
		Time:          utc,
		ValidDate:     true,
		ValidTime:     true,
		FullyResolved: true,
		TimeAccNs:     30,
		FixType:       ubx.Fix3D,
		GNSSFixOK:     true,
		NumSV:         12,
		Latitude:      lat,
		Longitude:     lon,
		HeightM:       452.3,
		HeightMSLM:    404.1,
		HAccM:         1.2,
		VAccM:         1.9,
		VelNorthMS:    vn,
		VelEastMS:     ve,
		GroundSpeedMS: g.cfg.SpeedMS,
		HeadingDeg:    heading,
		SpeedAccMS:    0.15,
		HeadingAccDeg: 0.8,
		PDOP:          1.3,
	}
}

// Epoch renders one navigation epoch as wire bytes.
func (g *Generator) Epoch(t time.Time) ([]byte, error) {
	pvt := g.At(t)
	var out []byte

	if g.cfg.Garbage {
		n := 1 + g.rng.IntN(6)
		for len(out) < n {
			// never a frame or sentence start
			if b := byte(g.rng.UintN(256)); b != ubx.Sync1 && b != '$' {
				out = append(out, b)
			}
		}
	}

	for _, m := range []struct {
		id      ubx.MessageID
		payload []byte
	}{
		{ubx.NavPVT, pvtPayload(pvt)},
		{ubx.NavPosLLH, posLLHPayload(pvt)},
	} {
		f, err := ubx.Encode(m.id, m.payload)
		if err != nil {
			return nil, fmt.Errorf("sim: encode %s: %w", m.id, err)
		}
		b := f.Bytes()
		if g.cfg.Corrupt > 0 && g.rng.IntN(g.cfg.Corrupt) == 0 {
			b[len(b)-1] ^= 0xFF
		}
		out = append(out, b...)
	}

	if g.cfg.NMEA {
		out = append(out, rmc(pvt)...)
	}
	return out, nil
}

func towMillis(t time.Time) uint32 {
	weekday := int64(t.Weekday())
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return uint32(weekday*86400000 + t.Sub(midnight).Milliseconds())
}

func pvtPayload(r ubx.PVT) []byte {
	p := make([]byte, 92)
	le := binary.LittleEndian
	le.PutUint32(p[0:], r.ITOW)
	le.PutUint16(p[4:], uint16(r.Time.Year()))
	p[6], p[7], p[8] = byte(r.Time.Month()), byte(r.Time.Day()), byte(r.Time.Hour())
	p[9], p[10] = byte(r.Time.Minute()), byte(r.Time.Second())
	p[11] = flag(r.ValidDate, 0x01) | flag(r.ValidTime, 0x02) | flag(r.FullyResolved, 0x04)
	le.PutUint32(p[12:], r.TimeAccNs)
	le.PutUint32(p[16:], uint32(int32(r.Time.Nanosecond())))
	p[20] = byte(r.FixType)
	p[21] = flag(r.GNSSFixOK, 0x01) | flag(r.DiffSoln, 0x02)
	p[23] = byte(r.NumSV)
	le.PutUint32(p[24:], uint32(scaled(r.Longitude, 1e7)))
	le.PutUint32(p[28:], uint32(scaled(r.Latitude, 1e7)))
	le.PutUint32(p[32:], uint32(scaled(r.HeightM, 1000)))
	le.PutUint32(p[36:], uint32(scaled(r.HeightMSLM, 1000)))
	le.PutUint32(p[40:], uint32(scaled(r.HAccM, 1000)))
	le.PutUint32(p[44:], uint32(scaled(r.VAccM, 1000)))
	le.PutUint32(p[48:], uint32(scaled(r.VelNorthMS, 1000)))
	le.PutUint32(p[52:], uint32(scaled(r.VelEastMS, 1000)))
	le.PutUint32(p[56:], uint32(scaled(r.VelDownMS, 1000)))
	le.PutUint32(p[60:], uint32(scaled(r.GroundSpeedMS, 1000)))
	le.PutUint32(p[64:], uint32(scaled(r.HeadingDeg, 1e5)))
	le.PutUint32(p[68:], uint32(scaled(r.SpeedAccMS, 1000)))
	le.PutUint32(p[72:], uint32(scaled(r.HeadingAccDeg, 1e5)))
	le.PutUint16(p[76:], uint16(math.Round(r.PDOP*100)))
	return p
}

func posLLHPayload(r ubx.PVT) []byte {
	p := make([]byte, 28)
	le := binary.LittleEndian
	le.PutUint32(p[0:], r.ITOW)
	le.PutUint32(p[4:], uint32(scaled(r.Longitude, 1e7)))
	le.PutUint32(p[8:], uint32(scaled(r.Latitude, 1e7)))
	le.PutUint32(p[12:], uint32(scaled(r.HeightM, 1000)))
	le.PutUint32(p[16:], uint32(scaled(r.HeightMSLM, 1000)))
	le.PutUint32(p[20:], uint32(scaled(r.HAccM, 1000)))
	le.PutUint32(p[24:], uint32(scaled(r.VAccM, 1000)))
	return p
}

func rmc(r ubx.PVT) string {
	body := fmt.Sprintf("GPRMC,%s,A,%s,%s,%.1f,%.1f,%s,,",
		r.Time.Format("150405.00"),
		nmeaCoord(r.Latitude, 2, "N", "S"),
		nmeaCoord(r.Longitude, 3, "E", "W"),
		r.GroundSpeedMS*3600/1852,
		r.HeadingDeg,
		r.Time.Format("020106"),
	)
	var ck byte
	for i := 0; i < len(body); i++ {
		ck ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, ck)
}

func nmeaCoord(v float64, degDigits int, pos, neg string) string {
	hemi := pos
	if v < 0 {
		hemi, v = neg, -v
	}
	d := math.Floor(v)
	m := (v - d) * 60
	return fmt.Sprintf("%0*d%07.4f,%s", degDigits, int(d), m, hemi)
}

func scaled(v, scale float64) int32 {
	return int32(math.Round(v * scale))
}

func flag(b bool, bit byte) byte {
	if b {
		return bit
	}
	return 0
}
