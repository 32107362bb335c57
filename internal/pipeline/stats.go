// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import "sync/atomic"

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	Frames             uint64 `json:"frames"`
	Records            uint64 `json:"records"`
	Unknown            uint64 `json:"unknown"`
	ChecksumMismatches uint64 `json:"checksum_mismatches"`
	DecodeErrors       uint64 `json:"decode_errors"`
	FramingErrors      uint64 `json:"framing_errors"`
	Sentences          uint64 `json:"sentences"`
	SentenceErrors     uint64 `json:"sentence_errors"`
	DiscardedBytes     uint64 `json:"discarded_bytes"`
	SinkErrors         uint64 `json:"sink_errors"`
}

// Rejected is the number of frames that never reached the sink.
func (s Stats) Rejected() uint64 {
	return s.ChecksumMismatches + s.DecodeErrors
}

type counters struct {
	frames             atomic.Uint64
	records            atomic.Uint64
	unknown            atomic.Uint64
	checksumMismatches atomic.Uint64
	decodeErrors       atomic.Uint64
	framingErrors      atomic.Uint64
	sentences          atomic.Uint64
	sentenceErrors     atomic.Uint64
	discardedBytes     atomic.Uint64
	sinkErrors         atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Frames:             c.frames.Load(),
		Records:            c.records.Load(),
		Unknown:            c.unknown.Load(),
		ChecksumMismatches: c.checksumMismatches.Load(),
		DecodeErrors:       c.decodeErrors.Load(),
		FramingErrors:      c.framingErrors.Load(),
		Sentences:          c.sentences.Load(),
		SentenceErrors:     c.sentenceErrors.Load(),
		DiscardedBytes:     c.discardedBytes.Load(),
		SinkErrors:         c.sinkErrors.Load(),
	}
}
