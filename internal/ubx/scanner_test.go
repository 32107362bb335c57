// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ubx

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func mustEncode(t *testing.T, id MessageID, payload []byte) []byte {
	t.Helper()
	f, err := Encode(id, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return f.Bytes()
}

// scanChunks feeds in using the given chunk sizes (cycled) and returns a
// printable trace of the emitted tokens.
func scanChunks(cfg ScannerConfig, in []byte, sizes ...int) []string {
	s := NewScanner(cfg)
	var out []string
	for i, n := 0, 0; i < len(in); n++ {
		size := len(in)
		if len(sizes) > 0 {
			size = sizes[n%len(sizes)]
		}
		end := min(i+size, len(in))
		s.Write(in[i:end])
		i = end
		for tok := range s.All() {
			out = append(out, describe(tok))
		}
	}
	return out
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenFrame:
		return fmt.Sprintf("frame % X", tok.Frame.Bytes())
	case TokenSentence:
		return "sentence " + tok.Sentence
	default:
		return "error " + tok.Err.Error()
	}
}

func TestScanner_SingleFrame(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 28))
	s := NewScanner(DefaultScannerConfig())
	s.Write(raw)
	tok, ok := s.Next()
	if !ok || tok.Kind != TokenFrame {
		t.Fatalf("expected frame, got ok=%v kind=%v", ok, tok.Kind)
	}
	if !bytes.Equal(tok.Frame.Bytes(), raw) {
		t.Fatalf("frame mismatch")
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("expected no more tokens")
	}
	if s.Buffered() != 0 {
		t.Fatalf("buffered=%d want 0", s.Buffered())
	}
}

func TestScanner_GarbagePrefixDiscarded(t *testing.T) {
	garbage := []byte{0x00, 0x13, 0xB5, 0x00, 0x62, 0xFF, 0xB5}
	raw := mustEncode(t, NavPVT, make([]byte, 92))
	got := scanChunks(DefaultScannerConfig(), append(garbage, raw...))
	if len(got) != 1 || got[0] != describe(Token{Kind: TokenFrame, Frame: Frame{b: raw}}) {
		t.Fatalf("tokens=%v", got)
	}
}

func TestScanner_ChunkingInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var stream []byte
	for i := 0; i < 30; i++ {
		junk := make([]byte, rng.Intn(40))
		rng.Read(junk)
		stream = append(stream, junk...)
		payload := make([]byte, rng.Intn(64))
		rng.Read(payload)
		stream = append(stream, mustEncode(t, NewMessageID(0x01, uint8(i)), payload)...)
	}
	stream = append(stream, []byte("$GPGGA,1*00\r\n")...)

	for _, cfg := range []ScannerConfig{
		DefaultScannerConfig(),
		{SyncLookahead: 16, MaxPayload: 40},
		{SyncLookahead: 5, NMEA: true, MaxSentence: 32},
	} {
		whole := scanChunks(cfg, stream)
		for _, sizes := range [][]int{{1}, {2}, {3, 7, 1}, {64}, {5, 1, 200}} {
			got := scanChunks(cfg, stream, sizes...)
			if len(got) != len(whole) {
				t.Fatalf("cfg=%+v sizes=%v: %d tokens want %d", cfg, sizes, len(got), len(whole))
			}
			for i := range got {
				if got[i] != whole[i] {
					t.Fatalf("cfg=%+v sizes=%v token %d: %q want %q", cfg, sizes, i, got[i], whole[i])
				}
			}
		}
	}
}

func TestScanner_TruncatedFrameNeverEmitted(t *testing.T) {
	in := []byte{Sync1, Sync2, 0x01, 0x02, 0xFF, 0xFF, 1, 2, 3, 4}
	s := NewScanner(DefaultScannerConfig())
	s.Write(in)
	if tok, ok := s.Next(); ok {
		t.Fatalf("unexpected token %v", describe(tok))
	}
	if s.Buffered() != len(in) {
		t.Fatalf("buffered=%d want %d", s.Buffered(), len(in))
	}
	s.Reset()
	if s.Buffered() != 0 {
		t.Fatalf("reset left %d bytes", s.Buffered())
	}
}

func TestScanner_LengthTooLargeResyncs(t *testing.T) {
	bogus := []byte{Sync1, Sync2, 0x01, 0x02, 0x00, 0x10} // 4096
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	s := NewScanner(ScannerConfig{MaxPayload: 512})
	s.Write(append(bogus, raw...))

	tok, ok := s.Next()
	if !ok || tok.Kind != TokenFramingError || !errors.Is(tok.Err, ErrLengthTooLarge) {
		t.Fatalf("expected length framing error, got %v", describe(tok))
	}
	if tok.Err.Length != 0x1000 {
		t.Fatalf("length=%d", tok.Err.Length)
	}
	tok, ok = s.Next()
	if !ok || tok.Kind != TokenFrame || !bytes.Equal(tok.Frame.Bytes(), raw) {
		t.Fatalf("expected frame after resync, got ok=%v %v", ok, describe(tok))
	}
}

func TestScanner_NoSyncReportedPerLookahead(t *testing.T) {
	junk := bytes.Repeat([]byte{0x11}, 25)
	got := scanChunks(ScannerConfig{SyncLookahead: 10}, junk)
	if len(got) != 2 {
		t.Fatalf("tokens=%v want 2 no-sync errors", got)
	}
	for _, g := range got {
		if g != "error "+(&FramingError{Err: ErrNoSync, Discarded: 10}).Error() {
			t.Fatalf("token=%q", g)
		}
	}
}

func TestScanner_DiscardedCount(t *testing.T) {
	s := NewScanner(DefaultScannerConfig())
	s.Write([]byte{1, 2, 3})
	s.Write(mustEncode(t, NavPosLLH, make([]byte, 8)))
	for range s.All() {
	}
	if s.Discarded() != 3 {
		t.Fatalf("discarded=%d want 3", s.Discarded())
	}
}

func TestScanner_LoneSyncAcrossChunks(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	s := NewScanner(DefaultScannerConfig())
	s.Write([]byte{0x00, raw[0]})
	if _, ok := s.Next(); ok {
		t.Fatalf("unexpected token")
	}
	if s.Buffered() != 1 {
		t.Fatalf("sync byte not retained, buffered=%d", s.Buffered())
	}
	s.Write(raw[1:])
	tok, ok := s.Next()
	if !ok || tok.Kind != TokenFrame {
		t.Fatalf("expected frame")
	}
}

func TestScanner_NMEASentences(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	var in []byte
	in = append(in, "$GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r\n"...)
	in = append(in, raw...)
	in = append(in, "$GNGGA,1\r\n"...)

	got := scanChunks(ScannerConfig{NMEA: true}, in, 3)
	want := []string{
		"sentence $GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
		describe(Token{Kind: TokenFrame, Frame: Frame{b: raw}}),
		"sentence $GNGGA,1",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("tokens=%q\nwant   %q", got, want)
	}

	// Without NMEA the text is just garbage.
	got = scanChunks(DefaultScannerConfig(), in)
	if len(got) != 1 || got[0] != want[1] {
		t.Fatalf("tokens=%q", got)
	}
}

func TestScanner_UnterminatedSentenceDropped(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	in := append([]byte("$GPGSV,no newline here"), raw...)
	in = append(in, bytes.Repeat([]byte{0x20}, 8)...)
	got := scanChunks(ScannerConfig{NMEA: true, MaxSentence: 16}, in)
	if len(got) != 1 || got[0] != describe(Token{Kind: TokenFrame, Frame: Frame{b: raw}}) {
		t.Fatalf("tokens=%q", got)
	}
}

func TestScanner_StrayDollarBeforeFrame(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	in := append([]byte{0x01, '$', 0x02}, raw...)
	in = append(in, '\n')

	want := describe(Token{Kind: TokenFrame, Frame: Frame{b: raw}})
	for _, sizes := range [][]int{nil, {1}, {2}, {4, 1}} {
		got := scanChunks(ScannerConfig{NMEA: true}, in, sizes...)
		if len(got) != 1 || got[0] != want {
			t.Fatalf("sizes=%v tokens=%q", sizes, got)
		}
	}
}

func TestScanner_SentenceAbortsOnSyncBytes(t *testing.T) {
	raw := mustEncode(t, NavPosLLH, make([]byte, 8))
	in := append([]byte("$GPRMC,1234"), raw...)
	in = append(in, "\r\n"...)

	s := NewScanner(ScannerConfig{NMEA: true})
	s.Write(in)
	var kinds []TokenKind
	for tok := range s.All() {
		kinds = append(kinds, tok.Kind)
	}
	if len(kinds) != 1 || kinds[0] != TokenFrame {
		t.Fatalf("kinds=%v want [frame]", kinds)
	}
	if s.Discarded() != uint64(len("$GPRMC,1234")+2) {
		t.Fatalf("discarded=%d", s.Discarded())
	}
}
