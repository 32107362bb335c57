// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"errors"

	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

// Sink receives every decoded record in stream order, including
// ubx.Unknown and NMEA Sentence records.
type Sink interface {
	Record(rec ubx.Record) error
}

// RejectSink is implemented by sinks that also want rejected frames:
// *ubx.ChecksumError, *ubx.DecodeError, *ubx.FramingError and
// *SentenceError.
type RejectSink interface {
	Rejected(err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec ubx.Record) error

func (f SinkFunc) Record(rec ubx.Record) error { return f(rec) }

// MultiSink fans out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Record(rec ubx.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Rejected(err error) {
	for _, s := range m {
		if rs, ok := s.(RejectSink); ok {
			rs.Rejected(err)
		}
	}
}
