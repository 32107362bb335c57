package gps

import (
	"math"
	"time"
)

const knotsPerMS = 3600.0 / 1852.0

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "2025-12-06"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)

	SpeedMS   float64 `json:"speed_ms"`
	AltitudeM float64 `json:"alt_m"` // above mean sea level
	HAccM     float64 `json:"hacc_m,omitempty"`
	FixType   string  `json:"fix_type,omitempty"`
	NumSV     int     `json:"num_sv,omitempty"`
	// Source is the message that last moved the position.
	Source string `json:"source"`
	// Timestamp is the receiver UTC time when known, else arrival time.
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the receiver flagged the position as usable.
func (f Fix) Valid() bool { return f.Validity == "A" }

func (f *Fix) setSpeedMS(v float64) {
	f.SpeedMS = v
	f.SpeedKnots = math.Round(v*knotsPerMS*1000) / 1000
}

func (f *Fix) setUTC(t time.Time) {
	t = t.UTC()
	f.Time = t.Format("15:04:05")
	f.Date = t.Format("2006-01-02")
	f.Timestamp = t
}
