// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"encoding/binary"
	"fmt"
)

// Wire layout:
//
//	0xB5 0x62 | class | id | length (u16 LE) | payload | ckA | ckB
const (
	Sync1 = 0xB5
	Sync2 = 0x62

	HeaderLen   = 6 // sync + class + id + length
	TrailerLen  = 2
	MinFrameLen = HeaderLen + TrailerLen

	MaxPayloadLen = 0xFFFF
)

// MessageID combines class and id as class<<8 | id.
type MessageID uint16

const (
	NavPosLLH  MessageID = 0x0102
	NavStatus  MessageID = 0x0103
	NavPVT     MessageID = 0x0107
	NavVelNED  MessageID = 0x0112
	NavTimeUTC MessageID = 0x0121
	AckNak     MessageID = 0x0500
	AckAck     MessageID = 0x0501
)

var messageNames = map[MessageID]string{
	NavPosLLH:  "NAV-POSLLH",
	NavStatus:  "NAV-STATUS",
	NavPVT:     "NAV-PVT",
	NavVelNED:  "NAV-VELNED",
	NavTimeUTC: "NAV-TIMEUTC",
	AckNak:     "ACK-NAK",
	AckAck:     "ACK-ACK",
}

func NewMessageID(class, id uint8) MessageID {
	return MessageID(uint16(class)<<8 | uint16(id))
}

func (m MessageID) Class() uint8 { return uint8(m >> 8) }
func (m MessageID) ID() uint8    { return uint8(m) }

func (m MessageID) String() string {
	if name, ok := messageNames[m]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X 0x%02X", m.Class(), m.ID())
}

// Header is the decoded fixed part of a frame.
type Header struct {
	Class  uint8
	ID     uint8
	Length uint16
}

func (h Header) MessageID() MessageID { return NewMessageID(h.Class, h.ID) }

// Frame is one complete candidate message, sync through trailer. Its bytes
// are never modified after construction.
type Frame struct {
	b []byte
}

// NewFrame copies b and checks that it is a structurally complete frame.
// The checksum is not checked here; see Verify.
func NewFrame(b []byte) (Frame, error) {
	if len(b) < MinFrameLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(b))
	}
	if b[0] != Sync1 || b[1] != Sync2 {
		return Frame{}, ErrBadSync
	}
	n := int(binary.LittleEndian.Uint16(b[4:6]))
	if MinFrameLen+n != len(b) {
		return Frame{}, fmt.Errorf("%w: declared %d, frame %d", ErrLengthMismatch, n, len(b))
	}
	return Frame{b: append([]byte(nil), b...)}, nil
}

// Encode builds a frame for id with a valid checksum.
func Encode(id MessageID, payload []byte) (Frame, error) {
	if len(payload) > MaxPayloadLen {
		return Frame{}, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, 0, MinFrameLen+len(payload))
	buf = append(buf, Sync1, Sync2, id.Class(), id.ID())
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ck := Compute(buf[2:])
	buf = append(buf, ck.A, ck.B)
	return Frame{b: buf}, nil
}

func (f Frame) Header() Header {
	if len(f.b) < MinFrameLen {
		return Header{}
	}
	return Header{
		Class:  f.b[2],
		ID:     f.b[3],
		Length: binary.LittleEndian.Uint16(f.b[4:6]),
	}
}

func (f Frame) MessageID() MessageID { return f.Header().MessageID() }

// Len is the full frame size in bytes.
func (f Frame) Len() int { return len(f.b) }

// Bytes returns a copy of the raw frame.
func (f Frame) Bytes() []byte { return append([]byte(nil), f.b...) }

// Payload returns a copy of the payload bytes.
func (f Frame) Payload() []byte { return append([]byte(nil), f.payload()...) }

func (f Frame) payload() []byte {
	if len(f.b) < MinFrameLen {
		return nil
	}
	return f.b[HeaderLen : len(f.b)-TrailerLen]
}

// Covered is the checksum-covered region (class through payload). The
// returned slice aliases the frame and must not be modified.
func (f Frame) Covered() []byte {
	if len(f.b) < MinFrameLen {
		return nil
	}
	return f.b[2 : len(f.b)-TrailerLen]
}

// Trailer returns the two checksum bytes as transmitted.
func (f Frame) Trailer() (ckA, ckB uint8) {
	if len(f.b) < MinFrameLen {
		return 0, 0
	}
	return f.b[len(f.b)-2], f.b[len(f.b)-1]
}
