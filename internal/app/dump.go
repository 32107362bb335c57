// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

type DumpOptions struct {
	Name      string
	ChunkSize int
	NMEA      bool
	// JSON prints one JSON object per record instead of text lines.
	JSON bool
	// Rejects also prints dropped frames and resync events.
	Rejects bool
}

// RunDump decodes a capture (file or stdin) and prints every record to out.
// Reaching the end of the input is success.
func RunDump(ctx context.Context, in io.Reader, out io.Writer, opts DumpOptions) (pipeline.Stats, error) {
	sink := &consoleSink{out: out, json: opts.JSON, rejects: opts.Rejects}
	p := pipeline.New(sink, pipeline.Options{
		Name:    opts.Name,
		Scanner: ubx.ScannerConfig{NMEA: opts.NMEA},
	})
	err := p.Run(ctx, pipeline.NewReaderSource(in, opts.ChunkSize))
	st := p.Stats()
	if errors.Is(err, pipeline.ErrStreamClosed) {
		err = nil
	}
	fmt.Fprintf(out, "[STAT] frames=%d records=%d unknown=%d checksum=%d decode=%d framing=%d nmea=%d discarded=%d\n",
		st.Frames, st.Records, st.Unknown, st.ChecksumMismatches, st.DecodeErrors,
		st.FramingErrors, st.Sentences, st.DiscardedBytes)
	return st, err
}

type consoleSink struct {
	out     io.Writer
	json    bool
	rejects bool
}

func (s *consoleSink) Record(rec ubx.Record) error {
	if s.json {
		b, err := json.Marshal(struct {
			Message string     `json:"message"`
			Record  ubx.Record `json:"record"`
		}{rec.MessageName(), jsonRecord(rec)})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(s.out, "%s\n", b)
		return err
	}
	_, err := fmt.Fprintln(s.out, formatRecord(rec))
	return err
}

func (s *consoleSink) Rejected(err error) {
	if s.rejects {
		fmt.Fprintf(s.out, "[DROP] %v\n", err)
	}
}

func jsonRecord(rec ubx.Record) ubx.Record {
	if snt, ok := rec.(pipeline.Sentence); ok {
		return sentenceMessage{Type: snt.MessageName(), Raw: snt.Raw}
	}
	return rec
}

func (m sentenceMessage) MessageName() string { return m.Type }

// formatRecord renders one record as a console line.
func formatRecord(rec ubx.Record) string {
	switch r := rec.(type) {
	case ubx.PVT:
		return fmt.Sprintf("[PVT ] %s fix=%s ok=%t sv=%d lat=%.7f lon=%.7f alt=%.1fm speed=%.2fm/s head=%.1f° hacc=%.1fm",
			formatTime(r), r.FixType, r.GNSSFixOK, r.NumSV, r.Latitude, r.Longitude,
			r.HeightMSLM, r.GroundSpeedMS, r.HeadingDeg, r.HAccM)
	case ubx.PositionFix:
		if r.LatLonOnly {
			return fmt.Sprintf("[POS ] lat=%.7f lon=%.7f", r.Latitude, r.Longitude)
		}
		return fmt.Sprintf("[POS ] itow=%d lat=%.7f lon=%.7f alt=%.1fm hacc=%.1fm",
			r.ITOW, r.Latitude, r.Longitude, r.HeightMSLM, r.HAccM)
	case ubx.VelocityNED:
		return fmt.Sprintf("[VEL ] n=%.2f e=%.2f d=%.2f gspeed=%.2fm/s head=%.1f°",
			r.VelNorthMS, r.VelEastMS, r.VelDownMS, r.GroundSpeedMS, r.HeadingDeg)
	case ubx.TimeUTC:
		if !r.ValidUTC {
			return fmt.Sprintf("[TIME] itow=%d utc=invalid", r.ITOW)
		}
		return fmt.Sprintf("[TIME] %s tacc=%dns", r.Time.Format("2006-01-02T15:04:05.000Z"), r.TimeAccNs)
	case ubx.Status:
		return fmt.Sprintf("[NAVS] fix=%s ok=%t ttff=%s uptime=%s", r.FixType, r.GNSSFixOK, r.TTFF, r.Uptime)
	case ubx.Ack:
		return fmt.Sprintf("[ACK ] %s for %s", r.MessageName(), r.For)
	case ubx.Unknown:
		return fmt.Sprintf("[UBX ] %s len=%d % X", r.ID, len(r.Payload), truncate(r.Payload, 16))
	case pipeline.Sentence:
		return fmt.Sprintf("[NMEA] %s", r.Raw)
	default:
		return fmt.Sprintf("[%s] %+v", rec.MessageName(), rec)
	}
}

func formatTime(r ubx.PVT) string {
	if r.Time.IsZero() {
		return fmt.Sprintf("itow=%d", r.ITOW)
	}
	return r.Time.Format("2006-01-02T15:04:05.000Z")
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
