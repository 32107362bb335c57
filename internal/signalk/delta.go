// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package signalk builds Signal K delta messages from GNSS fixes.
package signalk

import (
	"math"
	"time"

	"github.com/relabs-tech/ubx_gateway/internal/gps"
)

const (
	DefaultContext = "vessels.self"
	DefaultLabel   = "GNSS"

	PathPosition        = "navigation.position"
	PathSpeedOverGround = "navigation.speedOverGround"
	PathCourseTrue      = "navigation.courseOverGroundTrue"
	PathSatellites      = "navigation.gnss.satellites"
	PathAntennaAltitude = "navigation.gnss.antennaAltitude"
	PathDatetime        = "navigation.datetime"
)

type Delta struct {
	Context string   `json:"context"`
	Updates []Update `json:"updates"`
}

type Update struct {
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Values    []Value   `json:"values"`
}

type Source struct {
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

type Value struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Position is the value of navigation.position.
type Position struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// Hello is the first message on a stream connection.
type Hello struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Self      string    `json:"self"`
	Roles     []string  `json:"roles"`
	Timestamp time.Time `json:"timestamp"`
}

type Options struct {
	Context string
	Label   string
}

func (o Options) withDefaults() Options {
	if o.Context == "" {
		o.Context = DefaultContext
	}
	if o.Label == "" {
		o.Label = DefaultLabel
	}
	return o
}

// FromFix converts a fix to a single-update delta in SI units: speeds in
// m/s, angles in radians.
func FromFix(f gps.Fix, opts Options) Delta {
	opts = opts.withDefaults()

	pos := Position{Latitude: f.Latitude, Longitude: f.Longitude}
	if f.AltitudeM != 0 {
		alt := f.AltitudeM
		pos.Altitude = &alt
	}
	values := []Value{
		{Path: PathPosition, Value: pos},
		{Path: PathSpeedOverGround, Value: f.SpeedMS},
		{Path: PathCourseTrue, Value: f.CourseDeg * math.Pi / 180},
	}
	if f.NumSV > 0 {
		values = append(values, Value{Path: PathSatellites, Value: f.NumSV})
	}
	if f.AltitudeM != 0 {
		values = append(values, Value{Path: PathAntennaAltitude, Value: f.AltitudeM})
	}

	ts := f.Timestamp.UTC()
	if !ts.IsZero() {
		values = append(values, Value{Path: PathDatetime, Value: ts.Format(time.RFC3339Nano)})
	}

	return Delta{
		Context: opts.Context,
		Updates: []Update{{
			Source:    Source{Label: opts.Label, Type: "UBX"},
			Timestamp: ts,
			Values:    values,
		}},
	}
}

func NewHello(name, version string, opts Options, now time.Time) Hello {
	opts = opts.withDefaults()
	return Hello{
		Name:      name,
		Version:   version,
		Self:      opts.Context,
		Roles:     []string{"master", "main"},
		Timestamp: now.UTC(),
	}
}
