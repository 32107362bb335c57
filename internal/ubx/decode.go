// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"encoding/binary"
	"errors"
	"time"
)

// DecodeFunc turns a payload into a record. It must not keep payload.
type DecodeFunc func(payload []byte) (Record, error)

// Decoder dispatches on MessageID. Register everything before first use;
// after that Decode is safe for concurrent callers.
type Decoder struct {
	funcs map[MessageID]DecodeFunc
}

// NewDecoder returns a decoder with the built-in NAV and ACK messages.
func NewDecoder() *Decoder {
	d := &Decoder{funcs: make(map[MessageID]DecodeFunc)}
	d.Register(NavPosLLH, decodePosLLH)
	d.Register(NavStatus, decodeStatus)
	d.Register(NavPVT, decodePVT)
	d.Register(NavVelNED, decodeVelNED)
	d.Register(NavTimeUTC, decodeTimeUTC)
	d.Register(AckAck, decodeAck(true))
	d.Register(AckNak, decodeAck(false))
	return d
}

// Register adds or replaces the decoder for id.
func (d *Decoder) Register(id MessageID, fn DecodeFunc) {
	d.funcs[id] = fn
}

// Decode decodes a checksum-verified frame. Unregistered types come back as
// Unknown with a nil error.
func (d *Decoder) Decode(f Frame) (Record, error) {
	id := f.MessageID()
	fn, ok := d.funcs[id]
	if !ok {
		return Unknown{ID: id, Payload: f.Payload()}, nil
	}
	rec, err := fn(f.payload())
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			out := *de
			out.ID = id
			return nil, &out
		}
		return nil, &DecodeError{ID: id, Length: int(f.Header().Length), Err: err}
	}
	if rec == nil {
		return nil, &DecodeError{ID: id, Length: int(f.Header().Length), Err: ErrNoRecord}
	}
	return rec, nil
}

var defaultDecoder = NewDecoder()

// Decode uses a decoder with only the built-in messages.
func Decode(f Frame) (Record, error) { return defaultDecoder.Decode(f) }

func u2(p []byte, off int) uint16 { return binary.LittleEndian.Uint16(p[off:]) }
func u4(p []byte, off int) uint32 { return binary.LittleEndian.Uint32(p[off:]) }
func i4(p []byte, off int) int32  { return int32(binary.LittleEndian.Uint32(p[off:])) }

// deg converts 1e-7 degree fixed point.
func deg(p []byte, off int) float64 { return float64(i4(p, off)) / 1e7 }

func mm(v int32) float64   { return float64(v) / 1000 }
func umm(v uint32) float64 { return float64(v) / 1000 }

const (
	posLLHLen        = 28
	posLLHCompactLen = 8
	statusLen        = 16
	pvtMinLen        = 84
	velNEDLen        = 36
	timeUTCLen       = 20
	ackLen           = 2
)

func decodePosLLH(p []byte) (Record, error) {
	if len(p) == posLLHCompactLen {
		return PositionFix{
			Latitude:   deg(p, 0),
			Longitude:  deg(p, 4),
			LatLonOnly: true,
		}, nil
	}
	if len(p) < posLLHLen {
		return nil, shortPayload(len(p), posLLHLen)
	}
	return PositionFix{
		ITOW:       u4(p, 0),
		Longitude:  deg(p, 4),
		Latitude:   deg(p, 8),
		HeightM:    mm(i4(p, 12)),
		HeightMSLM: mm(i4(p, 16)),
		HAccM:      umm(u4(p, 20)),
		VAccM:      umm(u4(p, 24)),
	}, nil
}

func decodePVT(p []byte) (Record, error) {
	if len(p) < pvtMinLen {
		return nil, shortPayload(len(p), pvtMinLen)
	}
	valid := p[11]
	flags := p[21]
	r := PVT{
		ITOW:          u4(p, 0),
		ValidDate:     valid&0x01 != 0,
		ValidTime:     valid&0x02 != 0,
		FullyResolved: valid&0x04 != 0,
		TimeAccNs:     u4(p, 12),
		FixType:       FixType(p[20]),
		GNSSFixOK:     flags&0x01 != 0,
		DiffSoln:      flags&0x02 != 0,
		NumSV:         int(p[23]),
		Longitude:     deg(p, 24),
		Latitude:      deg(p, 28),
		HeightM:       mm(i4(p, 32)),
		HeightMSLM:    mm(i4(p, 36)),
		HAccM:         umm(u4(p, 40)),
		VAccM:         umm(u4(p, 44)),
		VelNorthMS:    mm(i4(p, 48)),
		VelEastMS:     mm(i4(p, 52)),
		VelDownMS:     mm(i4(p, 56)),
		GroundSpeedMS: mm(i4(p, 60)),
		HeadingDeg:    float64(i4(p, 64)) / 1e5,
		SpeedAccMS:    umm(u4(p, 68)),
		HeadingAccDeg: float64(u4(p, 72)) / 1e5,
		PDOP:          float64(u2(p, 76)) / 100,
	}
	if r.ValidDate && r.ValidTime {
		r.Time = utcTime(p[4:], i4(p, 16))
	}
	return r, nil
}

// utcTime reads year u16, month, day, hour, min, sec and applies the signed
// nanosecond correction.
func utcTime(p []byte, nano int32) time.Time {
	t := time.Date(int(u2(p, 0)), time.Month(p[2]), int(p[3]),
		int(p[4]), int(p[5]), int(p[6]), 0, time.UTC)
	return t.Add(time.Duration(nano))
}

func decodeVelNED(p []byte) (Record, error) {
	if len(p) < velNEDLen {
		return nil, shortPayload(len(p), velNEDLen)
	}
	cm := func(v int32) float64 { return float64(v) / 100 }
	return VelocityNED{
		ITOW:          u4(p, 0),
		VelNorthMS:    cm(i4(p, 4)),
		VelEastMS:     cm(i4(p, 8)),
		VelDownMS:     cm(i4(p, 12)),
		SpeedMS:       float64(u4(p, 16)) / 100,
		GroundSpeedMS: float64(u4(p, 20)) / 100,
		HeadingDeg:    float64(i4(p, 24)) / 1e5,
		SpeedAccMS:    float64(u4(p, 28)) / 100,
		HeadingAccDeg: float64(u4(p, 32)) / 1e5,
	}, nil
}

func decodeTimeUTC(p []byte) (Record, error) {
	if len(p) < timeUTCLen {
		return nil, shortPayload(len(p), timeUTCLen)
	}
	valid := p[19]
	r := TimeUTC{
		ITOW:      u4(p, 0),
		TimeAccNs: u4(p, 4),
		ValidTOW:  valid&0x01 != 0,
		ValidWKN:  valid&0x02 != 0,
		ValidUTC:  valid&0x04 != 0,
	}
	if r.ValidUTC {
		r.Time = utcTime(p[12:], i4(p, 8))
	}
	return r, nil
}

func decodeStatus(p []byte) (Record, error) {
	if len(p) < statusLen {
		return nil, shortPayload(len(p), statusLen)
	}
	flags := p[5]
	return Status{
		ITOW:      u4(p, 0),
		FixType:   FixType(p[4]),
		GNSSFixOK: flags&0x01 != 0,
		DiffSoln:  flags&0x02 != 0,
		WeekSet:   flags&0x04 != 0,
		TOWSet:    flags&0x08 != 0,
		TTFF:      time.Duration(u4(p, 8)) * time.Millisecond,
		Uptime:    time.Duration(u4(p, 12)) * time.Millisecond,
	}, nil
}

func decodeAck(acked bool) DecodeFunc {
	return func(p []byte) (Record, error) {
		if len(p) < ackLen {
			return nil, shortPayload(len(p), ackLen)
		}
		return Ack{Acked: acked, For: NewMessageID(p[0], p[1])}, nil
	}
}
