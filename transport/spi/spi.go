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

// Package spi provides the SPI host interface of the MFRC522: a full duplex
// bus opened through periph.io and a register transport on top of it.
package spi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Bus errors
var (
	// ErrOpen means the bus could not be opened.
	ErrOpen = errors.New("spi: open failed")
	// ErrConfig means the bus rejected or could not honor the configuration.
	ErrConfig = errors.New("spi: invalid configuration")
	// ErrTransfer means a transaction failed.
	ErrTransfer = errors.New("spi: transfer failed")
)

// The chip's SPI interface runs at up to 10 Mbit/s.
const maxSpeed = 10 * physic.MegaHertz

// Config describes how the bus is opened.
type Config struct {
	// Path is the spidev device, for example "/dev/spidev0.0". Any name
	// spireg understands works.
	Path string
	// Mode is the clock polarity and phase.
	Mode spi.Mode
	// Speed is the clock frequency.
	Speed physic.Frequency
	// BitsPerWord is the word size.
	BitsPerWord int
	// Delay is waited after each transaction.
	Delay time.Duration
}

// DefaultConfig returns the generic bus defaults: /dev/spidev0.0, mode 0,
// 8 bits per word and 500 kHz.
func DefaultConfig() Config {
	return Config{
		Path:        "/dev/spidev0.0",
		Mode:        spi.Mode0,
		Speed:       500 * physic.KiloHertz,
		BitsPerWord: 8,
	}
}

// ReaderConfig returns the defaults used for the MFRC522: DefaultConfig
// at 4 MHz.
func ReaderConfig() Config {
	c := DefaultConfig()
	c.Speed = 4 * physic.MegaHertz
	return c
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if c.Path == "" {
		errs = append(errs, fmt.Errorf("%w: empty device path", ErrConfig))
	}
	if c.Mode&^spi.Mode3 != 0 {
		errs = append(errs, fmt.Errorf("%w: unsupported mode flags %#x", ErrConfig, int(c.Mode)))
	}
	if c.Speed <= 0 || c.Speed > maxSpeed {
		errs = append(errs, fmt.Errorf("%w: speed %s outside (0, %s]", ErrConfig, c.Speed, maxSpeed))
	}
	if c.BitsPerWord != 8 {
		errs = append(errs, fmt.Errorf("%w: %d bits per word, the chip needs 8", ErrConfig, c.BitsPerWord))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("%w: negative delay", ErrConfig))
	}
	return errors.Join(errs...)
}

// Bus is an open full duplex SPI connection.
type Bus struct {
	port   spi.PortCloser
	conn   spi.Conn
	config Config
	mu     sync.Mutex
	closed bool
}

// Open validates cfg, initializes the periph host drivers and opens the
// bus at cfg.Path.
func Open(cfg Config) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize periph host: %w", ErrOpen, err)
	}
	port, err := spireg.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, cfg.Path, err)
	}
	return OpenPort(port, cfg)
}

// OpenPort connects an already opened port with cfg. The port is closed
// when the connection cannot be established.
func OpenPort(port spi.PortCloser, cfg Config) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		_ = port.Close()
		return nil, err
	}
	if err := port.LimitSpeed(cfg.Speed); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: limit speed to %s: %w", ErrConfig, cfg.Speed, err)
	}
	c, err := port.Connect(cfg.Speed, cfg.Mode, cfg.BitsPerWord)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: connect: %w", ErrConfig, err)
	}
	if d := c.Duplex(); d != conn.Full {
		_ = port.Close()
		return nil, fmt.Errorf("%w: connection is %s, need full duplex", ErrConfig, d)
	}

	mfrc522.Debugf("spi: opened %s at %s, mode %d", cfg.Path, cfg.Speed, int(cfg.Mode))
	return &Bus{port: port, conn: c, config: cfg}, nil
}

// Config returns the configuration the bus was opened with.
func (b *Bus) Config() Config {
	return b.config
}

// String returns the device path.
func (b *Bus) String() string {
	return b.config.Path
}

// TransferDuplex clocks tx out and returns the bytes clocked in at the same
// time, in one transaction with chip select held.
func (b *Bus) TransferDuplex(tx []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, mfrc522.ErrTransportClosed)
	}
	rx := make([]byte, len(tx))
	if len(tx) == 0 {
		return rx, nil
	}
	if err := b.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	if b.config.Delay > 0 {
		time.Sleep(b.config.Delay)
	}
	return rx, nil
}

// TransferByte transfers a single byte.
func (b *Bus) TransferByte(v byte) (byte, error) {
	rx, err := b.TransferDuplex([]byte{v})
	if err != nil {
		return 0, err
	}
	return rx[0], nil
}

// Close releases the bus. Closing twice is a no-op.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("spi: close %s: %w", b.config.Path, err)
	}
	return nil
}
