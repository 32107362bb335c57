// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"
)

// Sentence is an NMEA line that arrived interleaved with UBX frames.
type Sentence struct {
	Raw    string
	Parsed nmea.Sentence
}

func (s Sentence) MessageName() string {
	if s.Parsed == nil {
		return "NMEA"
	}
	return "NMEA-" + s.Parsed.DataType()
}

// SentenceError is reported for lines that go-nmea rejects.
type SentenceError struct {
	Raw string
	Err error
}

func (e *SentenceError) Error() string {
	return fmt.Sprintf("pipeline: bad nmea sentence %q: %v", e.Raw, e.Err)
}

func (e *SentenceError) Unwrap() error { return e.Err }

func parseSentence(raw string) (Sentence, error) {
	s, err := nmea.Parse(raw)
	if err != nil {
		return Sentence{}, &SentenceError{Raw: raw, Err: err}
	}
	return Sentence{Raw: raw, Parsed: s}, nil
}
