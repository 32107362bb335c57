package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relabs-tech/ubx_gateway/internal/config"
	"github.com/relabs-tech/ubx_gateway/internal/gps"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/signalk"
)

// RunConsoleMQTT prints fixes, Signal K deltas and stats until ctx ends.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("console")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	out := os.Stdout
	handlers := map[string]func([]byte) (string, error){
		cfg.TopicGPS:     formatFixMessage,
		cfg.TopicSignalK: formatDeltaMessage,
		cfg.TopicStats:   formatStatsMessage,
	}
	for topic, format := range handlers {
		if err := subscribe(client, topic, cfg.MQTTQoS, func(payload []byte) {
			printMessage(out, topic, payload, format)
		}, log); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Info().Msg("console shutting down")
	return nil
}

func printMessage(out io.Writer, topic string, payload []byte, format func([]byte) (string, error)) {
	line, err := format(payload)
	if err != nil {
		log := logging.For("console")
		log.Warn().Err(err).Str("topic", topic).Msg("unmarshal error")
		return
	}
	fmt.Fprintln(out, line)
}

func formatFixMessage(payload []byte) (string, error) {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s fix=%s sv=%d src=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity, f.FixType, f.NumSV, f.Source,
	), nil
}

func formatDeltaMessage(payload []byte) (string, error) {
	var d struct {
		Context string `json:"context"`
		Updates []struct {
			Source signalk.Source `json:"source"`
			Values []struct {
				Path  string          `json:"path"`
				Value json.RawMessage `json:"value"`
			} `json:"values"`
		} `json:"updates"`
	}
	if err := json.Unmarshal(payload, &d); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[SK  ]  %s", d.Context)
	for _, u := range d.Updates {
		fmt.Fprintf(&b, " <%s>", u.Source.Label)
		for _, v := range u.Values {
			fmt.Fprintf(&b, " %s=%s", strings.TrimPrefix(v.Path, "navigation."), v.Value)
		}
	}
	return b.String(), nil
}

func formatStatsMessage(payload []byte) (string, error) {
	var st pipeline.Stats
	if err := json.Unmarshal(payload, &st); err != nil {
		return "", err
	}
	return fmt.Sprintf("[STAT]  frames=%d records=%d rejected=%d framing=%d discarded=%dB sink_errors=%d",
		st.Frames, st.Records, st.Rejected(), st.FramingErrors, st.DiscardedBytes, st.SinkErrors), nil
}
