// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	// Import all detectors to register them
	_ "github.com/ZaparooProject/go-mfrc522/detection/i2c"
	_ "github.com/ZaparooProject/go-mfrc522/detection/spi"
	_ "github.com/ZaparooProject/go-mfrc522/detection/uart"
	"github.com/ZaparooProject/go-mfrc522/pins"
	"github.com/ZaparooProject/go-mfrc522/polling"
	"github.com/ZaparooProject/go-mfrc522/transport/i2c"
	"github.com/ZaparooProject/go-mfrc522/transport/spi"
	"github.com/ZaparooProject/go-mfrc522/transport/uart"
)

type config struct {
	devicePath   *string
	gpio         *string
	key          *string
	newUID       *string
	timeout      *time.Duration
	pollInterval *time.Duration
	resetPin     *int
	gain         *int
	debug        *bool
	selfTest     *bool
	watch        *bool
	unbrick      *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Device path (e.g., /dev/spidev0.0, /dev/i2c-1 or /dev/ttyUSB0). Leave empty for auto-detection."),
		gpio:     flag.String("gpio", "sysfs", "GPIO backend for the reset pin: sysfs or periph"),
		resetPin: flag.Int("reset-pin", -1, "GPIO number wired to NRSTPD (-1 for none)"),
		key:      flag.String("key", "FFFFFFFFFFFF", "MIFARE Classic key A used for reading, as 12 hex digits"),
		newUID:   flag.String("new-uid", "", "Rewrite the UID of a UID changeable card (hex, e.g. DEADBEEF)"),
		unbrick:  flag.Bool("unbrick", false, "Write a valid block 0 to a UID changeable card"),
		timeout:  flag.Duration("timeout", 30*time.Second, "Timeout for tag detection (default: 30s)"),
		pollInterval: flag.Duration("poll-interval", 100*time.Millisecond,
			"Polling interval for tag detection (default: 100ms)"),
		gain:     flag.Int("gain", 0, "Receiver gain in dB (18, 23, 33, 38, 43 or 48; 0 keeps the default)"),
		selfTest: flag.Bool("selftest", false, "Run the chip self test before reading"),
		watch:    flag.Bool("watch", false, "Keep dumping cards until interrupted"),
		debug:    flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	// Enable debug output if --debug flag is set
	if *cfg.debug {
		mfrc522.SetDebugEnabled(true)
		pins.SetDebugEnabled(true)
	}

	return cfg
}

func parseKey(s string) (mfrc522.Key, error) {
	var key mfrc522.Key
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return key, fmt.Errorf("invalid key: %w", err)
	}
	if len(b) != len(key) {
		return key, fmt.Errorf("invalid key: %d bytes, want %d", len(b), len(key))
	}
	copy(key[:], b)
	return key, nil
}

func parseUID(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), ":", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid uid: %w", err)
	}
	if len(b) != 4 {
		return nil, fmt.Errorf("invalid uid: %d bytes, only 4 byte UIDs can be written", len(b))
	}
	return b, nil
}

func newPinBackend(name string) (pins.Backend, error) {
	switch name {
	case "sysfs":
		return pins.NewSysfsBackend(), nil
	case "periph":
		return pins.NewPeriphBackend(), nil
	default:
		return nil, fmt.Errorf("unknown gpio backend: %s", name)
	}
}

// transportKind guesses the host interface from a device path.
func transportKind(path string) string {
	pathLower := strings.ToLower(path)
	switch {
	case strings.Contains(pathLower, "i2c"):
		return "i2c"
	case strings.Contains(pathLower, "spi"):
		return "spi"
	default:
		return "uart"
	}
}

// newTransport creates a new transport for the given host interface.
func newTransport(kind, path string) (mfrc522.Transport, error) {
	switch kind {
	case "i2c":
		// Detected I2C candidates are reported as bus:address
		bus, _, _ := strings.Cut(path, ":")
		bus = strings.TrimPrefix(bus, "/dev/i2c-")
		transport, err := i2c.New(bus)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	case "spi":
		spiCfg := spi.ReaderConfig()
		spiCfg.Path = path
		bus, err := spi.Open(spiCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return spi.NewTransport(bus), nil
	case "uart":
		transport, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", kind)
	}
}

func openTransport(ctx context.Context, path string) (mfrc522.Transport, error) {
	if path != "" {
		_, _ = fmt.Printf("Opening device: %s\n", path)
		return newTransport(transportKind(path), path)
	}

	_, _ = fmt.Println("Auto-detecting MFRC522 devices...")
	opts := detection.DefaultOptions()
	opts.Mode = detection.Safe
	devices, err := detection.DetectAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("auto-detection failed: %w", err)
	}
	for _, device := range devices {
		if device.Confidence < detection.High {
			continue
		}
		_, _ = fmt.Printf("Found %s (%s)\n", device.Name, device.Metadata["chip"])
		return newTransport(device.Transport, device.Path)
	}
	return nil, detection.ErrNoDevicesFound
}

func connectToDevice(ctx context.Context, cfg *config, registry *pins.Registry) (*mfrc522.Device, error) {
	transport, err := openTransport(ctx, *cfg.devicePath)
	if err != nil {
		return nil, err
	}

	var opts []mfrc522.Option
	if *cfg.resetPin >= 0 {
		opts = append(opts, mfrc522.WithResetPin(registry, *cfg.resetPin))
	}
	device, err := mfrc522.New(transport, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	if err := device.Init(); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to initialize MFRC522: %w", err)
	}
	if _, err := device.Connected(); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to connect to MFRC522: %w", err)
	}
	return device, nil
}

func prepareDevice(device *mfrc522.Device, cfg *config) error {
	if err := device.DumpVersion(os.Stdout); err != nil {
		return err
	}

	if *cfg.selfTest {
		passed, err := device.SelfTest()
		if err != nil {
			return fmt.Errorf("self test failed: %w", err)
		}
		if passed {
			_, _ = fmt.Println("Self test: OK")
		} else {
			_, _ = fmt.Println("Self test: DEFECT or UNKNOWN")
		}
	}

	if *cfg.gain != 0 {
		gain, ok := mfrc522.ParseRxGain(*cfg.gain)
		if !ok {
			return fmt.Errorf("unsupported gain: %d dB", *cfg.gain)
		}
		if err := device.SetAntennaGain(gain); err != nil {
			return fmt.Errorf("failed to set antenna gain: %w", err)
		}
	}
	return nil
}

// dumpCards dumps the first card, or every new card in watch mode.
func dumpCards(ctx context.Context, device *mfrc522.Device, cfg *config, key mfrc522.Key) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorConfig := polling.DefaultConfig()
	monitorConfig.PollInterval = *cfg.pollInterval
	monitorConfig.CardRemovalTimeout = max(monitorConfig.CardRemovalTimeout, 3*(*cfg.pollInterval))
	monitor := polling.NewMonitor(device, monitorConfig)

	dumped := false
	dump := func(card *polling.Card) error {
		_, _ = fmt.Print("\n=== Card ===\n")
		err := device.Dump(os.Stdout, card.UID, key)
		if !*cfg.watch {
			dumped = true
			cancel()
		}
		return err
	}
	monitor.OnCardDetected = dump
	monitor.OnCardChanged = dump
	monitor.OnCardRemoved = func() {
		_, _ = fmt.Println("Card removed - ready for next card...")
	}

	err := monitor.Start(ctx)
	switch {
	case dumped:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		_, _ = fmt.Printf("timeout: no card detected within %s\n", *cfg.timeout)
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

// rewriteCard runs the UID backdoor operation on the next card.
func rewriteCard(ctx context.Context, device *mfrc522.Device, cfg *config, key mfrc522.Key) error {
	var newUID []byte
	if *cfg.newUID != "" {
		var err error
		if newUID, err = parseUID(*cfg.newUID); err != nil {
			return err
		}
	}

	scannerConfig := polling.DefaultConfig()
	scannerConfig.PollInterval = *cfg.pollInterval
	scannerConfig.CardRemovalTimeout = max(scannerConfig.CardRemovalTimeout, 3*(*cfg.pollInterval))
	scanner, err := polling.NewScanner(device, scannerConfig)
	if err != nil {
		return err
	}
	if err := scanner.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = scanner.Stop() }()

	_, _ = fmt.Println("Waiting for a UID changeable card...")
	err = scanner.WriteToNextTag(ctx, *cfg.timeout, func(card *polling.Card) error {
		_, _ = fmt.Printf("Card UID: %s\n", card.UID)
		var status mfrc522.Status
		var err error
		if newUID != nil {
			status, err = device.SetUID(newUID, key)
		} else {
			status, err = device.UnbrickUIDSector()
		}
		if err != nil {
			return err
		}
		if status != mfrc522.StatusOK {
			return fmt.Errorf("card refused the new block 0: %s", status)
		}
		return nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		_, _ = fmt.Printf("timeout: no card detected within %s\n", *cfg.timeout)
		return nil
	}
	if err != nil {
		return fmt.Errorf("write operation failed: %w", err)
	}

	_, _ = fmt.Println("Block 0 written. Remove and present the card again to read it.")
	return nil
}

func run(ctx context.Context, cfg *config) error {
	key, err := parseKey(*cfg.key)
	if err != nil {
		return err
	}

	backend, err := newPinBackend(*cfg.gpio)
	if err != nil {
		return err
	}
	registry := pins.NewRegistry(backend)
	defer func() {
		if err := registry.ReleaseAll(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to release pins: %v\n", err)
		}
	}()

	device, err := connectToDevice(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	if err := prepareDevice(device, cfg); err != nil {
		return err
	}

	if *cfg.newUID != "" || *cfg.unbrick {
		return rewriteCard(ctx, device, cfg, key)
	}

	if !*cfg.watch {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *cfg.timeout)
		defer cancel()
		_, _ = fmt.Printf("Waiting for card (timeout: %s, poll interval: %s)...\n", *cfg.timeout, *cfg.pollInterval)
	} else {
		_, _ = fmt.Println("Watching for cards, press Ctrl+C to stop...")
	}
	return dumpCards(ctx, device, cfg, key)
}

func main() {
	cfg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
