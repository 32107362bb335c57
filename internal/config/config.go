package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTQoS              byte

	// Topics
	TopicGPS       string
	TopicSignalK   string
	TopicUBXPrefix string // per-message topics: <prefix>/<MESSAGE-NAME>
	TopicStats     string

	// "json" or "cbor" for the per-message topics
	PayloadEncoding string

	// GPS
	GPSSerialPort string // device path or "auto"
	GPSBaudRate   int

	// UBX decoding
	UBXMaxPayload    int
	UBXSyncLookahead int
	UBXParseNMEA     bool
	UBXChunkSize     int

	// Signal K
	SignalKSourceLabel string
	SignalKContext     string

	StatsInterval time.Duration
	LogLevel      string
	// Producer /metrics listen address; empty disables it.
	MetricsAddr string

	// Web Server
	WebServerPort  int
	WebCORSOrigins []string

	// Display
	DisplayLeftI2CAddr    uint16
	DisplayRightI2CAddr   uint16
	DisplayUpdateInterval int    // milliseconds
	DisplayLeftContent    string // what to show: "position", "quality", "stats"
	DisplayRightContent   string
}

const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// DisplayContents lists the accepted DISPLAY_*_CONTENT values.
var DisplayContents = []string{"position", "quality", "stats"}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration that works against a local broker and
// an auto-detected receiver.
func Default() *Config {
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDProducer:  "ubx-gateway-producer",
		MQTTClientIDConsole:   "ubx-gateway-console",
		MQTTClientIDWeb:       "ubx-gateway-web",
		MQTTClientIDDisplay:   "ubx-gateway-display",
		TopicGPS:              "ubx/gps",
		TopicSignalK:          "ubx/signalk",
		TopicUBXPrefix:        "ubx/msg",
		TopicStats:            "ubx/stats",
		PayloadEncoding:       EncodingJSON,
		GPSSerialPort:         "auto",
		GPSBaudRate:           9600,
		UBXMaxPayload:         65535,
		UBXSyncLookahead:      1024,
		UBXChunkSize:          256,
		SignalKSourceLabel:    "GNSS",
		SignalKContext:        "vessels.self",
		StatsInterval:         10 * time.Second,
		LogLevel:              "info",
		MetricsAddr:           ":9100",
		WebServerPort:         8080,
		DisplayLeftI2CAddr:    0x3C,
		DisplayRightI2CAddr:   0x3D,
		DisplayUpdateInterval: 500,
		DisplayLeftContent:    "position",
		DisplayRightContent:   "quality",
	}
}

// Load reads a configuration file on top of Default(). The format follows
// the extension: .yaml/.yml, .toml, anything else is KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.loadYAML(file)
	case ".toml":
		err = cfg.loadTOML(file)
	default:
		err = cfg.loadKeyValue(file)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadKeyValue(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_QOS":
		qos, err := intInRange(key, value, 0, 2)
		if err != nil {
			return err
		}
		c.MQTTQoS = byte(qos)

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_SIGNALK":
		c.TopicSignalK = value
	case "TOPIC_UBX_PREFIX":
		c.TopicUBXPrefix = strings.TrimRight(value, "/")
	case "TOPIC_STATS":
		c.TopicStats = value
	case "PAYLOAD_ENCODING":
		enc := strings.ToLower(value)
		if enc != EncodingJSON && enc != EncodingCBOR {
			return fmt.Errorf("PAYLOAD_ENCODING must be %q or %q, got %q", EncodingJSON, EncodingCBOR, value)
		}
		c.PayloadEncoding = enc

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// UBX decoding
	case "UBX_MAX_PAYLOAD":
		n, err := intInRange(key, value, 1, 65535)
		if err != nil {
			return err
		}
		c.UBXMaxPayload = n
	case "UBX_SYNC_LOOKAHEAD":
		n, err := intInRange(key, value, 1, 1<<20)
		if err != nil {
			return err
		}
		c.UBXSyncLookahead = n
	case "UBX_PARSE_NMEA":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid UBX_PARSE_NMEA %q: %w", value, err)
		}
		c.UBXParseNMEA = v
	case "UBX_CHUNK_SIZE":
		n, err := intInRange(key, value, 1, 1<<16)
		if err != nil {
			return err
		}
		c.UBXChunkSize = n

	// Signal K
	case "SIGNALK_SOURCE_LABEL":
		c.SignalKSourceLabel = value
	case "SIGNALK_CONTEXT":
		c.SignalKContext = value

	case "STATS_INTERVAL":
		d, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("invalid STATS_INTERVAL %q: %w", value, err)
		}
		c.StatsInterval = d
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "METRICS_ADDR":
		c.MetricsAddr = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port
	case "WEB_CORS_ORIGINS":
		c.WebCORSOrigins = nil
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.WebCORSOrigins = append(c.WebCORSOrigins, o)
			}
		}

	// Display
	case "DISPLAY_LEFT_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_LEFT_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayLeftI2CAddr = uint16(addr)
	case "DISPLAY_RIGHT_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_RIGHT_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayRightI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "DISPLAY_LEFT_CONTENT":
		c.DisplayLeftContent = value
	case "DISPLAY_RIGHT_CONTENT":
		c.DisplayRightContent = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	if c.TopicGPS == "" || c.TopicSignalK == "" || c.TopicUBXPrefix == "" || c.TopicStats == "" {
		return fmt.Errorf("TOPIC_GPS, TOPIC_SIGNALK, TOPIC_UBX_PREFIX and TOPIC_STATS are required")
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	for _, content := range []string{c.DisplayLeftContent, c.DisplayRightContent} {
		if !validDisplayContent(content) {
			return fmt.Errorf("display content must be one of %v, got %q", DisplayContents, content)
		}
	}
	return nil
}

func validDisplayContent(s string) bool {
	for _, c := range DisplayContents {
		if s == c {
			return true
		}
	}
	return false
}

func intInRange(key, value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, n)
	}
	return n, nil
}

// parseInterval accepts a Go duration ("15s") or plain milliseconds.
func parseInterval(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
