// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"encoding/binary"
	"iter"
	"strings"
)

// TokenKind tells which field of a Token is set.
type TokenKind int

const (
	TokenFrame TokenKind = iota
	TokenSentence
	TokenFramingError
)

func (k TokenKind) String() string {
	switch k {
	case TokenFrame:
		return "frame"
	case TokenSentence:
		return "sentence"
	case TokenFramingError:
		return "framing_error"
	default:
		return "unknown"
	}
}

// Token is one item carved out of the byte stream.
type Token struct {
	Kind     TokenKind
	Frame    Frame
	Sentence string
	Err      *FramingError
}

// ScannerConfig bounds scanner memory use and resync behaviour.
type ScannerConfig struct {
	// MaxPayload rejects declared lengths above it. Values <= 0 or above
	// 65535 mean the full u16 range.
	MaxPayload int
	// SyncLookahead is how many garbage bytes may be dropped before a
	// FramingError is reported.
	SyncLookahead int
	// NMEA passes '$'-started text lines through as sentence tokens
	// instead of discarding them.
	NMEA        bool
	MaxSentence int
}

func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		MaxPayload:    MaxPayloadLen,
		SyncLookahead: 1024,
		MaxSentence:   128,
	}
}

// Scanner turns arbitrarily chunked input into frames. Feed it with Write
// and drain it with Next; a chunk may end anywhere, including inside the
// sync header. The emitted token sequence does not depend on chunking.
//
// A Scanner is not safe for concurrent use.
type Scanner struct {
	cfg       ScannerConfig
	buf       []byte
	skipped   int // garbage run not yet reported
	discarded uint64
}

func NewScanner(cfg ScannerConfig) *Scanner {
	def := DefaultScannerConfig()
	if cfg.MaxPayload <= 0 || cfg.MaxPayload > MaxPayloadLen {
		cfg.MaxPayload = def.MaxPayload
	}
	if cfg.SyncLookahead <= 0 {
		cfg.SyncLookahead = def.SyncLookahead
	}
	if cfg.MaxSentence <= 0 {
		cfg.MaxSentence = def.MaxSentence
	}
	return &Scanner{cfg: cfg}
}

// Write buffers p. It never fails.
func (s *Scanner) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Buffered is the number of bytes held waiting for more input.
func (s *Scanner) Buffered() int { return len(s.buf) }

// Discarded is the total number of bytes dropped while resynchronizing.
func (s *Scanner) Discarded() uint64 { return s.discarded }

// Reset drops any partial frame. Counters are kept.
func (s *Scanner) Reset() {
	s.buf = nil
	s.skipped = 0
}

// All yields every token available from the bytes written so far.
func (s *Scanner) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok, ok := s.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Next returns the next complete token, or false if more input is needed.
func (s *Scanner) Next() (Token, bool) {
	for len(s.buf) > 0 {
		if i := s.startIndex(); i > 0 {
			if tok, ok := s.skip(i); ok {
				return tok, true
			}
			continue
		}

		if s.cfg.NMEA && s.buf[0] == '$' {
			tok, ok, wait := s.sentence()
			if ok {
				return tok, true
			}
			if wait {
				return Token{}, false
			}
			if tok, ok := s.skip(1); ok {
				return tok, true
			}
			continue
		}

		if len(s.buf) < HeaderLen {
			return Token{}, false
		}
		n := binary.LittleEndian.Uint16(s.buf[4:6])
		if int(n) > s.cfg.MaxPayload {
			s.consume(1)
			s.discarded++
			s.skipped = 0
			return Token{
				Kind: TokenFramingError,
				Err:  &FramingError{Err: ErrLengthTooLarge, Discarded: 1, Length: n},
			}, true
		}
		total := MinFrameLen + int(n)
		if len(s.buf) < total {
			return Token{}, false
		}
		f := Frame{b: append([]byte(nil), s.buf[:total]...)}
		s.consume(total)
		s.skipped = 0
		return Token{Kind: TokenFrame, Frame: f}, true
	}
	return Token{}, false
}

// startIndex returns the offset of the first possible frame start. A lone
// Sync1 at the very end counts, since its partner may be in the next chunk.
func (s *Scanner) startIndex() int {
	for i, b := range s.buf {
		switch b {
		case Sync1:
			if i+1 == len(s.buf) || s.buf[i+1] == Sync2 {
				return i
			}
		case '$':
			if s.cfg.NMEA {
				return i
			}
		}
	}
	return len(s.buf)
}

// skip drops up to n garbage bytes, stopping at the lookahead boundary so
// that reports land on the same stream offsets for any chunking.
func (s *Scanner) skip(n int) (Token, bool) {
	if room := s.cfg.SyncLookahead - s.skipped; n > room {
		n = room
	}
	s.consume(n)
	s.discarded += uint64(n)
	s.skipped += n
	if s.skipped < s.cfg.SyncLookahead {
		return Token{}, false
	}
	s.skipped = 0
	return Token{
		Kind: TokenFramingError,
		Err:  &FramingError{Err: ErrNoSync, Discarded: s.cfg.SyncLookahead},
	}, true
}

// sentence extracts a '$'-started line. wait is true when the line may still
// complete; ok and wait both false means the '$' is not a sentence start.
// NMEA is printable ASCII, so any other byte before the terminator (a UBX
// sync byte included) ends the attempt.
func (s *Scanner) sentence() (tok Token, ok, wait bool) {
	limit := min(len(s.buf), s.cfg.MaxSentence)
	for j := 1; j < limit; j++ {
		switch b := s.buf[j]; {
		case b == '\n':
			line := strings.TrimRight(string(s.buf[:j]), "\r")
			s.consume(j + 1)
			s.skipped = 0
			return Token{Kind: TokenSentence, Sentence: line}, true, false
		case b == '\r':
		case b < 0x20 || b > 0x7E:
			return Token{}, false, false
		}
	}
	return Token{}, false, len(s.buf) < s.cfg.MaxSentence
}

func (s *Scanner) consume(n int) {
	s.buf = s.buf[n:]
	if len(s.buf) == 0 {
		s.buf = nil
	}
}
