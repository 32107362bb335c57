// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package signalk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidDelta = errors.New("signalk: invalid delta")

// ValidationError points at the offending part of a delta.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("signalk: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDelta }

// Validate checks the structural rules a Signal K server enforces on
// deltas plus value ranges for the paths this package emits. All
// problems are returned joined.
func Validate(d Delta) error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(d.Context) == "" {
		bad("context", "empty")
	}
	if len(d.Updates) == 0 {
		bad("updates", "empty")
	}
	for i, u := range d.Updates {
		field := fmt.Sprintf("updates[%d]", i)
		if u.Source.Label == "" {
			bad(field+".source.label", "empty")
		}
		if len(u.Values) == 0 {
			bad(field+".values", "empty")
		}
		for j, v := range u.Values {
			vf := fmt.Sprintf("%s.values[%d]", field, j)
			if !validPath(v.Path) {
				bad(vf+".path", "malformed %q", v.Path)
				continue
			}
			if reason := checkValue(v.Path, v.Value); reason != "" {
				bad(vf+".value", "%s: %s", v.Path, reason)
			}
		}
	}
	return errors.Join(errs...)
}

func validPath(p string) bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, ".") {
		if seg == "" || strings.ContainsAny(seg, " \t/") {
			return false
		}
	}
	return true
}

func checkValue(path string, v any) string {
	switch path {
	case PathPosition:
		pos, ok := v.(Position)
		if !ok {
			return fmt.Sprintf("want Position, got %T", v)
		}
		if !finite(pos.Latitude) || pos.Latitude < -90 || pos.Latitude > 90 {
			return fmt.Sprintf("latitude %v out of range", pos.Latitude)
		}
		if !finite(pos.Longitude) || pos.Longitude < -180 || pos.Longitude > 180 {
			return fmt.Sprintf("longitude %v out of range", pos.Longitude)
		}
	case PathSpeedOverGround:
		f, ok := v.(float64)
		if !ok || !finite(f) || f < 0 {
			return fmt.Sprintf("speed %v invalid", v)
		}
	case PathCourseTrue:
		f, ok := v.(float64)
		if !ok || !finite(f) || f < 0 || f > 2*math.Pi {
			return fmt.Sprintf("course %v not in [0, 2pi]", v)
		}
	case PathSatellites:
		n, ok := v.(int)
		if !ok || n < 0 {
			return fmt.Sprintf("satellites %v invalid", v)
		}
	}
	return ""
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
