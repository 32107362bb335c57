// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/observability"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

var ErrStreamClosed = errors.New("pipeline: stream closed")

// StreamError wraps a read failure from the Source.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string { return fmt.Sprintf("pipeline: stream error: %v", e.Err) }
func (e *StreamError) Unwrap() error { return e.Err }

// Outcome is how a single frame left the pipeline.
type Outcome int

const (
	OutcomeEmitted Outcome = iota
	OutcomeUnknown
	OutcomeChecksumMismatch
	OutcomeDecodeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmitted:
		return "emitted"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeChecksumMismatch:
		return "checksum_mismatch"
	case OutcomeDecodeError:
		return "decode_error"
	default:
		return "invalid"
	}
}

type Options struct {
	// Name labels logs and metrics, e.g. the serial device.
	Name    string
	Scanner ubx.ScannerConfig
	// Decoder defaults to ubx.NewDecoder().
	Decoder *ubx.Decoder
}

// Pipeline runs scanner -> checksum -> decoder -> sink for one stream.
// Frames are handled strictly in arrival order, one at a time. Feed and Run
// must not be called concurrently; Stats may be read from anywhere.
type Pipeline struct {
	name    string
	scanner *ubx.Scanner
	decoder *ubx.Decoder
	sink    Sink
	rejects RejectSink
	log     zerolog.Logger

	c             counters
	seenDiscarded uint64
}

func New(sink Sink, opts Options) *Pipeline {
	if opts.Name == "" {
		opts.Name = "ubx"
	}
	if opts.Decoder == nil {
		opts.Decoder = ubx.NewDecoder()
	}
	p := &Pipeline{
		name:    opts.Name,
		scanner: ubx.NewScanner(opts.Scanner),
		decoder: opts.Decoder,
		sink:    sink,
		log:     logging.For("pipeline").With().Str("stream", opts.Name).Logger(),
	}
	if rs, ok := sink.(RejectSink); ok {
		p.rejects = rs
	}
	return p
}

func (p *Pipeline) Stats() Stats { return p.c.snapshot() }

// Feed processes one chunk. Bytes of an incomplete frame stay buffered for
// the next call.
func (p *Pipeline) Feed(chunk []byte) {
	p.scanner.Write(chunk)
	for tok := range p.scanner.All() {
		p.handle(tok)
	}
	p.syncDiscarded()
}

// Run reads src until it ends. It returns ErrStreamClosed on io.EOF, a
// *StreamError on read failure and ctx.Err() on cancellation. A partial
// frame still buffered at that point is dropped.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	p.log.Info().Msg("pipeline started")
	defer p.scanner.Reset()

	for {
		chunk, err := src.Next(ctx)
		if len(chunk) > 0 {
			p.Feed(chunk)
		}
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			continue
		}

		switch {
		case ctx.Err() != nil:
			p.summary(p.log.Info()).Msg("pipeline cancelled")
			return ctx.Err()
		case errors.Is(err, io.EOF):
			p.summary(p.log.Info()).Msg("pipeline stream closed")
			return ErrStreamClosed
		default:
			p.summary(p.log.Error().Err(err)).Msg("pipeline stream error")
			return &StreamError{Err: err}
		}
	}
}

func (p *Pipeline) summary(ev *zerolog.Event) *zerolog.Event {
	st := p.Stats()
	return ev.Uint64("frames", st.Frames).
		Uint64("records", st.Records).
		Uint64("rejected", st.Rejected()).
		Int("partial_bytes", p.scanner.Buffered())
}

func (p *Pipeline) handle(tok ubx.Token) {
	switch tok.Kind {
	case ubx.TokenFrame:
		p.handleFrame(tok.Frame)
	case ubx.TokenSentence:
		p.handleSentence(tok.Sentence)
	case ubx.TokenFramingError:
		p.c.framingErrors.Add(1)
		reason := "no_sync"
		if errors.Is(tok.Err, ubx.ErrLengthTooLarge) {
			reason = "length_too_large"
		}
		observability.RecordFramingError(p.name, reason)
		p.log.Debug().Err(tok.Err).Msg("resync")
		p.reject(tok.Err)
	}
}

func (p *Pipeline) handleFrame(f ubx.Frame) {
	p.c.frames.Add(1)
	id := f.MessageID()

	if !ubx.Verify(f) {
		a, b := f.Trailer()
		err := &ubx.ChecksumError{ID: id, Want: ubx.Compute(f.Covered()), Got: ubx.Checksum{A: a, B: b}}
		p.c.checksumMismatches.Add(1)
		p.rejectFrame(id, OutcomeChecksumMismatch, err)
		return
	}

	rec, err := p.decoder.Decode(f)
	if err != nil {
		p.c.decodeErrors.Add(1)
		p.rejectFrame(id, OutcomeDecodeError, err)
		return
	}

	outcome := OutcomeEmitted
	if _, ok := rec.(ubx.Unknown); ok {
		p.c.unknown.Add(1)
		outcome = OutcomeUnknown
		p.log.Debug().Stringer("id", id).Uint16("len", f.Header().Length).Msg("unknown message")
	}
	observability.RecordFrame(p.name, id.String(), outcome.String())
	p.emit(rec)
}

func (p *Pipeline) handleSentence(raw string) {
	s, err := parseSentence(raw)
	if err != nil {
		p.c.sentenceErrors.Add(1)
		observability.RecordSentence(p.name, "invalid", "rejected")
		p.log.Debug().Err(err).Msg("nmea rejected")
		p.reject(err)
		return
	}
	p.c.sentences.Add(1)
	observability.RecordSentence(p.name, s.Parsed.DataType(), "emitted")
	p.emit(s)
}

func (p *Pipeline) emit(rec ubx.Record) {
	p.c.records.Add(1)
	if err := p.sink.Record(rec); err != nil {
		p.c.sinkErrors.Add(1)
		observability.RecordSinkError(p.name)
		p.log.Warn().Err(err).Str("message", rec.MessageName()).Msg("sink error")
	}
}

func (p *Pipeline) rejectFrame(id ubx.MessageID, outcome Outcome, err error) {
	observability.RecordFrame(p.name, id.String(), outcome.String())
	p.log.Debug().Err(err).Stringer("id", id).Str("outcome", outcome.String()).Msg("frame rejected")
	p.reject(err)
}

func (p *Pipeline) reject(err error) {
	if p.rejects != nil {
		p.rejects.Rejected(err)
	}
}

func (p *Pipeline) syncDiscarded() {
	d := p.scanner.Discarded()
	if d > p.seenDiscarded {
		observability.RecordDiscarded(p.name, d-p.seenDiscarded)
		p.seenDiscarded = d
		p.c.discardedBytes.Store(d)
	}
}
