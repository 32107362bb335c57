// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"errors"
	"fmt"
)

var (
	ErrShortFrame      = errors.New("ubx: frame shorter than minimum size")
	ErrBadSync         = errors.New("ubx: missing sync header")
	ErrLengthMismatch  = errors.New("ubx: declared length does not match frame size")
	ErrPayloadTooLarge = errors.New("ubx: payload too large")
	ErrNoSync          = errors.New("ubx: no sync within lookahead")
	ErrLengthTooLarge  = errors.New("ubx: declared payload length too large")
	ErrChecksum        = errors.New("ubx: checksum mismatch")
	ErrShortPayload    = errors.New("ubx: payload too short")
	ErrNoRecord        = errors.New("ubx: decoder returned no record")
)

// FramingError reports a resynchronization event in the scanner.
// It is never fatal; the scanner has already skipped past the bad bytes.
type FramingError struct {
	Err       error
	Discarded int    // bytes dropped for this event
	Length    uint16 // declared length, for ErrLengthTooLarge
}

func (e *FramingError) Error() string {
	if errors.Is(e.Err, ErrLengthTooLarge) {
		return fmt.Sprintf("%v: %d", e.Err, e.Length)
	}
	return fmt.Sprintf("%v: discarded %d bytes", e.Err, e.Discarded)
}

func (e *FramingError) Unwrap() error { return e.Err }

// ChecksumError is returned when a frame's trailer disagrees with the
// recomputed checksum.
type ChecksumError struct {
	ID   MessageID
	Want Checksum
	Got  Checksum
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("ubx: checksum mismatch for %s: want %02X%02X got %02X%02X",
		e.ID, e.Want.A, e.Want.B, e.Got.A, e.Got.B)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksum }

// DecodeError is returned when a payload cannot be decoded for its message type.
type DecodeError struct {
	ID     MessageID
	Length int
	Need   int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("ubx: decode %s: %v (have %d, need %d)", e.ID, e.Err, e.Length, e.Need)
	}
	return fmt.Sprintf("ubx: decode %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func shortPayload(have, need int) error {
	return &DecodeError{Length: have, Need: need, Err: ErrShortPayload}
}
