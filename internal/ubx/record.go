// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import "time"

// Record is a decoded message. Concrete types are plain values.
type Record interface {
	MessageName() string
}

// FixType is the GNSS fix type reported by NAV-PVT and NAV-STATUS.
type FixType uint8

const (
	FixNone FixType = iota
	FixDeadReckoning
	Fix2D
	Fix3D
	FixGNSSDeadReckoning
	FixTimeOnly
)

func (f FixType) String() string {
	switch f {
	case FixNone:
		return "no-fix"
	case FixDeadReckoning:
		return "dead-reckoning"
	case Fix2D:
		return "2d"
	case Fix3D:
		return "3d"
	case FixGNSSDeadReckoning:
		return "gnss+dr"
	case FixTimeOnly:
		return "time-only"
	default:
		return "invalid"
	}
}

// PositionFix is NAV-POSLLH. A compact 8-byte payload only carries
// latitude and longitude; LatLonOnly marks that case.
type PositionFix struct {
	ITOW       uint32  `json:"itow_ms"`
	Latitude   float64 `json:"lat"` // decimal degrees
	Longitude  float64 `json:"lon"` // decimal degrees
	HeightM    float64 `json:"height_m"`
	HeightMSLM float64 `json:"height_msl_m"`
	HAccM      float64 `json:"hacc_m"`
	VAccM      float64 `json:"vacc_m"`
	LatLonOnly bool    `json:"latlon_only,omitempty"`
}

func (PositionFix) MessageName() string { return NavPosLLH.String() }

// PVT is NAV-PVT, the combined position/velocity/time solution.
type PVT struct {
	ITOW          uint32    `json:"itow_ms"`
	Time          time.Time `json:"time"` // zero unless date and time are valid
	ValidDate     bool      `json:"valid_date"`
	ValidTime     bool      `json:"valid_time"`
	FullyResolved bool      `json:"fully_resolved"`
	TimeAccNs     uint32    `json:"tacc_ns"`
	FixType       FixType   `json:"fix_type"`
	GNSSFixOK     bool      `json:"gnss_fix_ok"`
	DiffSoln      bool      `json:"diff_soln"`
	NumSV         int       `json:"num_sv"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lon"`
	HeightM       float64   `json:"height_m"`
	HeightMSLM    float64   `json:"height_msl_m"`
	HAccM         float64   `json:"hacc_m"`
	VAccM         float64   `json:"vacc_m"`
	VelNorthMS    float64   `json:"vel_n_ms"`
	VelEastMS     float64   `json:"vel_e_ms"`
	VelDownMS     float64   `json:"vel_d_ms"`
	GroundSpeedMS float64   `json:"gspeed_ms"`
	HeadingDeg    float64   `json:"heading_deg"`
	SpeedAccMS    float64   `json:"sacc_ms"`
	HeadingAccDeg float64   `json:"headacc_deg"`
	PDOP          float64   `json:"pdop"`
}

func (PVT) MessageName() string { return NavPVT.String() }

// VelocityNED is NAV-VELNED.
type VelocityNED struct {
	ITOW          uint32  `json:"itow_ms"`
	VelNorthMS    float64 `json:"vel_n_ms"`
	VelEastMS     float64 `json:"vel_e_ms"`
	VelDownMS     float64 `json:"vel_d_ms"`
	SpeedMS       float64 `json:"speed_ms"` // 3D
	GroundSpeedMS float64 `json:"gspeed_ms"`
	HeadingDeg    float64 `json:"heading_deg"`
	SpeedAccMS    float64 `json:"sacc_ms"`
	HeadingAccDeg float64 `json:"cacc_deg"`
}

func (VelocityNED) MessageName() string { return NavVelNED.String() }

// TimeUTC is NAV-TIMEUTC.
type TimeUTC struct {
	ITOW      uint32    `json:"itow_ms"`
	TimeAccNs uint32    `json:"tacc_ns"`
	Time      time.Time `json:"time"`
	ValidTOW  bool      `json:"valid_tow"`
	ValidWKN  bool      `json:"valid_wkn"`
	ValidUTC  bool      `json:"valid_utc"`
}

func (TimeUTC) MessageName() string { return NavTimeUTC.String() }

// Status is NAV-STATUS.
type Status struct {
	ITOW      uint32        `json:"itow_ms"`
	FixType   FixType       `json:"fix_type"`
	GNSSFixOK bool          `json:"gnss_fix_ok"`
	DiffSoln  bool          `json:"diff_soln"`
	WeekSet   bool          `json:"week_set"`
	TOWSet    bool          `json:"tow_set"`
	TTFF      time.Duration `json:"ttff"`
	Uptime    time.Duration `json:"uptime"`
}

func (Status) MessageName() string { return NavStatus.String() }

// Ack is ACK-ACK or ACK-NAK for a previously sent configuration message.
type Ack struct {
	Acked bool      `json:"acked"`
	For   MessageID `json:"for"`
}

func (a Ack) MessageName() string {
	if a.Acked {
		return AckAck.String()
	}
	return AckNak.String()
}

// Unknown carries a verified frame whose type has no registered decoder.
type Unknown struct {
	ID      MessageID `json:"id"`
	Payload []byte    `json:"payload"`
}

func (u Unknown) MessageName() string { return u.ID.String() }
