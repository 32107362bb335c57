package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/ubx_gateway/internal/config"
	"github.com/relabs-tech/ubx_gateway/internal/gps"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// displayData holds the latest data for display
type displayData struct {
	fix       gps.Fix
	haveFix   bool
	stats     pipeline.Stats
	haveStats bool
}

func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("display")

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	leftDisplay, err := newDisplay(bus, cfg.DisplayLeftI2CAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize left display: %w", err)
	}
	log.Info().Msgf("left display initialized at 0x%02X", cfg.DisplayLeftI2CAddr)

	rightDisplay, err := newDisplay(bus, cfg.DisplayRightI2CAddr)
	if err != nil {
		return fmt.Errorf("failed to initialize right display: %w", err)
	}
	log.Info().Msgf("right display initialized at 0x%02X", cfg.DisplayRightI2CAddr)

	for _, d := range []*ssd1306.Dev{leftDisplay, rightDisplay} {
		if err := drawScreen(d, splashLines()); err != nil {
			log.Warn().Err(err).Msg("error showing splash")
		}
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	updates := make(chan func(*displayData), 16)
	if err := subscribeDisplayTopics(ctx, client, cfg, updates); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	log.Info().Msg("starting update loop")

	var data displayData
	for {
		select {
		case <-ctx.Done():
			return nil
		case apply := <-updates:
			apply(&data)
		case <-ticker.C:
			if err := drawScreen(leftDisplay, screenLines(cfg.DisplayLeftContent, data)); err != nil {
				log.Warn().Err(err).Msg("error updating left display")
			}
			if err := drawScreen(rightDisplay, screenLines(cfg.DisplayRightContent, data)); err != nil {
				log.Warn().Err(err).Msg("error updating right display")
			}
		}
	}
}

// subscribeDisplayTopics subscribes once per topic the configured screens
// need; updates are applied on the display loop goroutine.
func subscribeDisplayTopics(ctx context.Context, client mqtt.Client, cfg *config.Config, updates chan<- func(*displayData)) error {
	log := logging.For("display")
	needFix, needStats := false, false
	for _, content := range []string{cfg.DisplayLeftContent, cfg.DisplayRightContent} {
		switch content {
		case "position", "quality":
			needFix = true
		case "stats":
			needStats = true
		default:
			return fmt.Errorf("unknown display content type: %s", content)
		}
	}

	if needFix {
		if err := subscribe(client, cfg.TopicGPS, cfg.MQTTQoS, func(payload []byte) {
			var f gps.Fix
			if err := json.Unmarshal(payload, &f); err != nil {
				log.Warn().Err(err).Msg("gps unmarshal error")
				return
			}
			sendUpdate(ctx, updates, func(d *displayData) { d.fix, d.haveFix = f, true })
		}, log); err != nil {
			return err
		}
	}
	if needStats {
		if err := subscribe(client, cfg.TopicStats, cfg.MQTTQoS, func(payload []byte) {
			var st pipeline.Stats
			if err := json.Unmarshal(payload, &st); err != nil {
				log.Warn().Err(err).Msg("stats unmarshal error")
				return
			}
			sendUpdate(ctx, updates, func(d *displayData) { d.stats, d.haveStats = st, true })
		}, log); err != nil {
			return err
		}
	}
	return nil
}

// sendUpdate hands fn to the display loop, giving up once ctx is done so
// MQTT callbacks never block after the loop has exited.
func sendUpdate(ctx context.Context, updates chan<- func(*displayData), fn func(*displayData)) bool {
	select {
	case updates <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// addrBus sends every transaction to addr. The ssd1306 driver always
// addresses 0x3C; this lets a second panel sit at 0x3D on the same bus.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func newDisplay(bus i2c.Bus, addr uint16) (*ssd1306.Dev, error) {
	return ssd1306.NewI2C(&addrBus{Bus: bus, addr: addr}, &ssd1306.DefaultOpts)
}

// screenLines returns up to four text lines for a 128x64 screen.
func screenLines(content string, d displayData) []string {
	switch content {
	case "position":
		if !d.haveFix {
			return []string{"", "GPS Position", "Waiting..."}
		}
		return []string{
			hemisphere(d.fix.Latitude, "N", "S"),
			hemisphere(d.fix.Longitude, "E", "W"),
			fmt.Sprintf("Alt: %.0fm", d.fix.AltitudeM),
			fmt.Sprintf("%.1fkn %03.0f", d.fix.SpeedKnots, d.fix.CourseDeg),
		}
	case "quality":
		if !d.haveFix {
			return []string{"", "GPS Quality", "Waiting..."}
		}
		valid := "VOID"
		if d.fix.Valid() {
			valid = "VALID"
		}
		return []string{
			fmt.Sprintf("Fix: %s %s", d.fix.FixType, valid),
			fmt.Sprintf("Sats: %d", d.fix.NumSV),
			fmt.Sprintf("HAcc: %.1fm", d.fix.HAccM),
			d.fix.Time,
		}
	case "stats":
		if !d.haveStats {
			return []string{"", "UBX Stats", "Waiting..."}
		}
		return []string{
			fmt.Sprintf("Frm: %d", d.stats.Frames),
			fmt.Sprintf("Rec: %d", d.stats.Records),
			fmt.Sprintf("Bad: %d", d.stats.Rejected()),
			fmt.Sprintf("Skip: %dB", d.stats.DiscardedBytes),
		}
	default:
		return []string{"Unknown", content}
	}
}

func splashLines() []string {
	return []string{"", "UBX Gateway", "Looking for", "sats"}
}

func hemisphere(v float64, pos, neg string) string {
	dir := pos
	if v < 0 {
		dir, v = neg, -v
	}
	return fmt.Sprintf("%.5f%s", v, dir)
}

func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return img
}

func drawScreen(dev *ssd1306.Dev, lines []string) error {
	return dev.Draw(dev.Bounds(), renderLines(lines), image.Point{})
}
