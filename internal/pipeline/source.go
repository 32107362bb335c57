// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"context"
	"io"
)

// Source delivers raw byte chunks of any size. It returns io.EOF once the
// stream is closed; any other error is a stream error.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

const DefaultChunkSize = 256

// ReaderSource adapts an io.Reader such as an open serial port or a capture
// file. The reader is owned by the caller, who must close it; closing it is
// also how a blocked Read is interrupted.
type ReaderSource struct {
	r   io.Reader
	buf []byte
	err error
}

func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderSource{r: r, buf: make([]byte, chunkSize)}
}

func (s *ReaderSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	n, err := s.r.Read(s.buf)
	if n > 0 {
		// Hand the data over now and report err on the following call.
		s.err = err
		return append([]byte(nil), s.buf[:n]...), nil
	}
	return nil, err
}

// ChanSource reads chunks pushed by an asynchronous transport. Closing the
// channel ends the stream.
type ChanSource struct {
	ch <-chan []byte
}

func NewChanSource(ch <-chan []byte) *ChanSource {
	return &ChanSource{ch: ch}
}

func (s *ChanSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case chunk, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	}
}
