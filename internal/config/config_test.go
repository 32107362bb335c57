package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoad_KeyValue(t *testing.T) {
	p := writeFile(t, "ubx_gateway.config", `
# broker
MQTT_BROKER=tcp://broker.local:1883
GPS_SERIAL_PORT=/dev/ttyACM0
GPS_BAUD_RATE=115200
PAYLOAD_ENCODING=CBOR
TOPIC_UBX_PREFIX=boat/ubx/
UBX_PARSE_NMEA=true
UBX_SYNC_LOOKAHEAD=64
STATS_INTERVAL=2500
WEB_CORS_ORIGINS=http://a.local, http://b.local ,
DISPLAY_LEFT_I2C_ADDR=0x3D
DISPLAY_RIGHT_CONTENT=stats
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker.local:1883" || cfg.GPSSerialPort != "/dev/ttyACM0" || cfg.GPSBaudRate != 115200 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.PayloadEncoding != EncodingCBOR || cfg.TopicUBXPrefix != "boat/ubx" {
		t.Fatalf("encoding=%q prefix=%q", cfg.PayloadEncoding, cfg.TopicUBXPrefix)
	}
	if !cfg.UBXParseNMEA || cfg.UBXSyncLookahead != 64 || cfg.StatsInterval != 2500*time.Millisecond {
		t.Fatalf("ubx=%v/%d stats=%v", cfg.UBXParseNMEA, cfg.UBXSyncLookahead, cfg.StatsInterval)
	}
	if !reflect.DeepEqual(cfg.WebCORSOrigins, []string{"http://a.local", "http://b.local"}) {
		t.Fatalf("cors=%q", cfg.WebCORSOrigins)
	}
	if cfg.DisplayLeftI2CAddr != 0x3D || cfg.DisplayRightContent != "stats" {
		t.Fatalf("display=%#x %q", cfg.DisplayLeftI2CAddr, cfg.DisplayRightContent)
	}
	// untouched keys keep their defaults
	if cfg.TopicGPS != Default().TopicGPS || cfg.UBXMaxPayload != 65535 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "gw.yaml", `
mqtt:
  broker: tcp://yaml:1883
  qos: 1
gps:
  serial_port: auto
  baud_rate: 38400
ubx_max_payload: 512
stats_interval: 15s
web:
  cors_origins: ["http://x.local"]
display_left_i2c_addr: 0x3C
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://yaml:1883" || cfg.MQTTQoS != 1 || cfg.GPSBaudRate != 38400 || cfg.GPSSerialPort != "auto" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.UBXMaxPayload != 512 || cfg.StatsInterval != 15*time.Second {
		t.Fatalf("max=%d stats=%v", cfg.UBXMaxPayload, cfg.StatsInterval)
	}
	if len(cfg.WebCORSOrigins) != 1 || cfg.WebCORSOrigins[0] != "http://x.local" || cfg.DisplayLeftI2CAddr != 0x3C {
		t.Fatalf("cors=%q addr=%#x", cfg.WebCORSOrigins, cfg.DisplayLeftI2CAddr)
	}
}

func TestLoad_TOML(t *testing.T) {
	p := writeFile(t, "gw.toml", `
payload_encoding = "cbor"

[signalk]
source_label = "ubx0"
context = "vessels.urn:mrn:imo:mmsi:230099999"

[web]
server_port = 9090
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PayloadEncoding != EncodingCBOR || cfg.SignalKSourceLabel != "ubx0" || cfg.WebServerPort != 9090 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.SignalKContext != "vessels.urn:mrn:imo:mmsi:230099999" {
		t.Fatalf("context=%q", cfg.SignalKContext)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, file, body, want string
	}{
		{"no equals", "a.config", "MQTT_BROKER\n", "invalid config line 1"},
		{"unknown key", "a.config", "\nFOO=1\n", "config line 2: unknown config key"},
		{"bad encoding", "a.config", "PAYLOAD_ENCODING=xml\n", "PAYLOAD_ENCODING must be"},
		{"lookahead range", "a.config", "UBX_SYNC_LOOKAHEAD=0\n", "UBX_SYNC_LOOKAHEAD must be"},
		{"payload range", "a.config", "UBX_MAX_PAYLOAD=70000\n", "UBX_MAX_PAYLOAD must be"},
		{"qos", "a.config", "MQTT_QOS=3\n", "MQTT_QOS must be 0-2"},
		{"empty broker", "a.config", "MQTT_BROKER=\n", "MQTT_BROKER is required"},
		{"display content", "a.config", "DISPLAY_LEFT_CONTENT=compass\n", "display content must be one of"},
		{"bad interval", "a.config", "STATS_INTERVAL=soon\n", "invalid STATS_INTERVAL"},
		{"yaml unknown", "a.yaml", "foo: 1\n", "config key FOO"},
		{"toml syntax", "a.toml", "= nope\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.config")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().validate(); err != nil {
		t.Fatalf("Default().validate: %v", err)
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "ubx_gateway.config"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UBXMaxPayload != 8192 {
		t.Fatalf("UBXMaxPayload=%d want 8192", cfg.UBXMaxPayload)
	}
	def := Default()
	cfg.UBXMaxPayload = def.UBXMaxPayload
	if !reflect.DeepEqual(cfg, def) {
		t.Fatalf("sample config drifted from defaults:\n%+v\nwant\n%+v", cfg, def)
	}
}
