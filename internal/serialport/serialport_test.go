// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import "testing"

func TestPickPort(t *testing.T) {
	tests := []struct {
		name  string
		cands []Candidate
		want  string
		ok    bool
	}{
		{"none", nil, "", false},
		{"unrelated only", []Candidate{{Name: "/dev/null"}}, "", false},
		{"uart", []Candidate{{Name: "/dev/serial0"}}, "/dev/serial0", true},
		{
			"acm beats uart",
			[]Candidate{{Name: "/dev/ttyAMA0"}, {Name: "/dev/ttyACM0"}},
			"/dev/ttyACM0", true,
		},
		{
			"u-blox vid beats acm",
			[]Candidate{{Name: "/dev/ttyACM0"}, {Name: "/dev/ttyUSB3", USB: true, VID: "1546"}},
			"/dev/ttyUSB3", true,
		},
		{
			"product string",
			[]Candidate{{Name: "/dev/ttyUSB0", USB: true, VID: "0403"}, {Name: "/dev/ttyACM1", Product: "u-blox GNSS receiver"}},
			"/dev/ttyACM1", true,
		},
		{
			"lowest name on tie",
			[]Candidate{{Name: "/dev/ttyUSB1"}, {Name: "/dev/ttyUSB0"}},
			"/dev/ttyUSB0", true,
		},
		{"windows", []Candidate{{Name: "COM4"}}, "COM4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickPort(tt.cands)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("PickPort=%q,%v want %q,%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
