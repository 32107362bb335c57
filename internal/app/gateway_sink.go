// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/ubx_gateway/internal/gps"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/observability"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/signalk"
	"github.com/relabs-tech/ubx_gateway/internal/ubx"
)

type Topics struct {
	GPS       string
	SignalK   string
	UBXPrefix string
	Stats     string
}

// sentenceMessage is what an NMEA passthrough record looks like on MQTT.
type sentenceMessage struct {
	Type string `json:"type"`
	Raw  string `json:"raw"`
}

// GatewaySink publishes every record under its own topic and, whenever
// the position moves, the combined fix and a Signal K delta.
type GatewaySink struct {
	pub     Publisher
	codec   Codec
	topics  Topics
	qos     byte
	sk      signalk.Options
	tracker *gps.Tracker
	log     zerolog.Logger
}

var _ pipeline.Sink = (*GatewaySink)(nil)
var _ pipeline.RejectSink = (*GatewaySink)(nil)

func NewGatewaySink(pub Publisher, codec Codec, topics Topics, qos byte, sk signalk.Options) *GatewaySink {
	return &GatewaySink{
		pub:     pub,
		codec:   codec,
		topics:  topics,
		qos:     qos,
		sk:      sk,
		tracker: gps.NewTracker(),
		log:     logging.For("gateway"),
	}
}

func (s *GatewaySink) Tracker() *gps.Tracker { return s.tracker }

func (s *GatewaySink) Record(rec ubx.Record) error {
	var errs []error
	if err := s.publishRecord(rec); err != nil {
		errs = append(errs, err)
	}
	if s.tracker.Apply(rec) {
		fix, _ := s.tracker.Fix()
		if err := s.publishFix(fix); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *GatewaySink) Rejected(err error) {
	var ce *ubx.ChecksumError
	if errors.As(err, &ce) {
		s.log.Debug().Stringer("id", ce.ID).Msg("dropped frame with bad checksum")
		return
	}
	s.log.Debug().Err(err).Msg("dropped input")
}

func (s *GatewaySink) publishRecord(rec ubx.Record) error {
	var v any = rec
	if snt, ok := rec.(pipeline.Sentence); ok {
		v = sentenceMessage{Type: snt.MessageName(), Raw: snt.Raw}
	}
	payload, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.MessageName(), err)
	}
	err = s.pub.Publish(s.topics.UBXPrefix+"/"+rec.MessageName(), s.qos, false, payload)
	observability.RecordPublish("record", err)
	return err
}

func (s *GatewaySink) publishFix(fix gps.Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("GPS JSON marshal error: %w", err)
	}
	err = s.pub.Publish(s.topics.GPS, s.qos, true, payload)
	observability.RecordPublish("fix", err)
	if err != nil {
		return err
	}
	s.log.Debug().Float64("lat", fix.Latitude).Float64("lon", fix.Longitude).Str("source", fix.Source).Msg("published fix")

	delta := signalk.FromFix(fix, s.sk)
	if err := signalk.Validate(delta); err != nil {
		s.log.Warn().Err(err).Msg("signalk delta rejected")
		return nil
	}
	payload, err = json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("signalk marshal: %w", err)
	}
	err = s.pub.Publish(s.topics.SignalK, s.qos, false, payload)
	observability.RecordPublish("signalk", err)
	return err
}

// PublishStats sends a pipeline counter snapshot.
func (s *GatewaySink) PublishStats(st pipeline.Stats) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	err = s.pub.Publish(s.topics.Stats, s.qos, true, payload)
	observability.RecordPublish("stats", err)
	return err
}
