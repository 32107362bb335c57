// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode_Layout(t *testing.T) {
	f, err := Encode(NewMessageID(0x06, 0x01), []byte{0x01, 0x07})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xB5, 0x62, 0x06, 0x01, 0x02, 0x00, 0x01, 0x07}
	ck := Compute(want[2:])
	want = append(want, ck.A, ck.B)
	if !bytes.Equal(f.Bytes(), want) {
		t.Fatalf("frame=% X want % X", f.Bytes(), want)
	}
	h := f.Header()
	if h.Class != 0x06 || h.ID != 0x01 || h.Length != 2 {
		t.Fatalf("header=%+v", h)
	}
	if !bytes.Equal(f.Payload(), []byte{0x01, 0x07}) {
		t.Fatalf("payload=% X", f.Payload())
	}
}

func TestEncode_PayloadTooLarge(t *testing.T) {
	_, err := Encode(NavPVT, make([]byte, MaxPayloadLen+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err=%v want ErrPayloadTooLarge", err)
	}
}

func TestNewFrame_Validation(t *testing.T) {
	good, _ := Encode(NavPosLLH, []byte{1, 2, 3, 4})
	raw := good.Bytes()

	badSync := append([]byte(nil), raw...)
	badSync[1] = 0x00

	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"short", raw[:7], ErrShortFrame},
		{"bad sync", badSync, ErrBadSync},
		{"truncated", raw[:len(raw)-1], ErrLengthMismatch},
		{"extra trailing byte", append(append([]byte(nil), raw...), 0x00), ErrLengthMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFrame(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}

	if _, err := NewFrame(raw); err != nil {
		t.Fatalf("good frame rejected: %v", err)
	}
}

func TestNewFrame_CopiesInput(t *testing.T) {
	good, _ := Encode(NavPosLLH, []byte{1, 2, 3, 4})
	raw := good.Bytes()
	f, err := NewFrame(raw)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	raw[6] = 0xEE
	if f.Payload()[0] != 1 {
		t.Fatalf("frame aliased caller buffer")
	}
}

func TestMessageID_String(t *testing.T) {
	if got := NavPVT.String(); got != "NAV-PVT" {
		t.Fatalf("got %q", got)
	}
	if got := NewMessageID(0x0A, 0x04).String(); got != "0x0A 0x04" {
		t.Fatalf("got %q", got)
	}
	id := NewMessageID(0x01, 0x02)
	if id != NavPosLLH || id.Class() != 0x01 || id.ID() != 0x02 {
		t.Fatalf("id=%04X", uint16(id))
	}
}
