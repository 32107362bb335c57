// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport opens the GNSS receiver's serial device.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
	bugserial "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/relabs-tech/ubx_gateway/internal/logging"
)

// Auto asks Open to pick the receiver among the attached ports.
const Auto = "auto"

// u-blox USB vendor ID.
const ubloxVID = "1546"

var ErrNoPort = errors.New("serialport: no candidate serial port found")

type Config struct {
	Port     string
	BaudRate int
}

// Candidate is a port seen during detection.
type Candidate struct {
	Name    string
	USB     bool
	VID     string
	Product string
}

// Open opens the configured port (or detects one for Auto) in raw 8N1 mode.
// The caller owns the returned port and must close it; closing also
// unblocks a pending Read.
func Open(cfg Config) (io.ReadWriteCloser, string, error) {
	log := logging.For("serial")

	name := cfg.Port
	if name == "" || strings.EqualFold(name, Auto) {
		found, err := Detect()
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("port", found).Msg("detected GNSS serial port")
		name = found
	}

	opts := serial.OpenOptions{
		PortName:              name,
		BaudRate:              uint(cfg.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, "", fmt.Errorf("serialport: open %s: %w", name, err)
	}
	log.Info().Str("port", name).Int("baud", cfg.BaudRate).Msg("serial port opened")
	return port, name, nil
}

// Detect lists attached ports and picks the most likely receiver.
func Detect() (string, error) {
	var cands []Candidate
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		for _, d := range details {
			cands = append(cands, Candidate{Name: d.Name, USB: d.IsUSB, VID: d.VID, Product: d.Product})
		}
	} else {
		names, lerr := bugserial.GetPortsList()
		if lerr != nil {
			return "", fmt.Errorf("serialport: list ports: %w", errors.Join(err, lerr))
		}
		for _, n := range names {
			cands = append(cands, Candidate{Name: n})
		}
	}

	name, ok := PickPort(cands)
	if !ok {
		return "", ErrNoPort
	}
	return name, nil
}

// PickPort ranks candidates: u-blox USB devices first, then USB CDC-ACM
// and USB serial adapters, then on-board UARTs. Ties go to the lowest name.
func PickPort(cands []Candidate) (string, bool) {
	best, bestRank := "", 0
	sorted := append([]Candidate(nil), cands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, c := range sorted {
		if r := rank(c); r > bestRank {
			best, bestRank = c.Name, r
		}
	}
	return best, bestRank > 0
}

func rank(c Candidate) int {
	name := strings.ToLower(c.Name)
	switch {
	case c.USB && strings.EqualFold(c.VID, ubloxVID):
		return 5
	case strings.Contains(strings.ToLower(c.Product), "u-blox"):
		return 4
	case strings.Contains(name, "ttyacm"), strings.Contains(name, "usbmodem"):
		return 3
	case strings.Contains(name, "ttyusb"), strings.Contains(name, "usbserial"), c.USB:
		return 2
	case strings.Contains(name, "serial0"), strings.Contains(name, "ttyama"), strings.Contains(name, "ttys"),
		strings.HasPrefix(strings.ToUpper(c.Name), "COM"):
		return 1
	}
	return 0
}
