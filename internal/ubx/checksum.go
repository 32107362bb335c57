// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

// Checksum is the two-byte 8-bit Fletcher checksum carried in every UBX
// trailer. Both accumulators wrap at 256.
type Checksum struct {
	A uint8
	B uint8
}

// Compute returns the checksum of the covered region: class, id, length and
// payload. Sync bytes and the trailer itself are not part of it.
func Compute(covered []byte) Checksum {
	return Checksum{}.Update(covered)
}

// Update continues the running checksum over p.
func (c Checksum) Update(p []byte) Checksum {
	for _, b := range p {
		c.A += b
		c.B += c.A
	}
	return c
}

// Verify recomputes the checksum of f and compares it byte-for-byte with the
// frame trailer.
//
// Known limitation: like any additive checksum it can be fooled by
// compensating changes in two or more bytes. A single changed byte in the
// covered region always changes A.
func Verify(f Frame) bool {
	a, b := f.Trailer()
	got := Compute(f.Covered())
	return got.A == a && got.B == b
}
