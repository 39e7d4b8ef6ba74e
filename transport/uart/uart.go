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

// Package uart provides the UART host interface of the MFRC522.
package uart

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the rate the chip starts with after reset.
	DefaultBaudRate = 9600

	// DefaultReadTimeout bounds the wait for each byte the chip sends back.
	DefaultReadTimeout = 50 * time.Millisecond
)

// Config holds the serial port settings.
type Config struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// DefaultConfig returns 9600 8N1 settings for port.
func DefaultConfig(port string) Config {
	return Config{
		Port:        port,
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is empty"))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud rate %d must be positive", c.BaudRate))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read timeout %v must be positive", c.ReadTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", mfrc522.ErrInvalidParameter, errors.Join(errs...))
	}
	return nil
}

// Transport implements the mfrc522.Transport interface over a serial port.
//
// A register write sends the address and one data byte, and the chip echoes
// the address. A read sends the address with bit 7 set and the chip answers
// with the register value. Multi byte access repeats this per byte.
type Transport struct {
	port   io.ReadWriteCloser
	name   string
	mu     sync.Mutex
	closed bool
}

// New opens port with the default settings.
func New(port string) (*Transport, error) {
	return Open(DefaultConfig(port))
}

// Open opens the serial port described by cfg.
func Open(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, mfrc522.NewTransportError("open", cfg.Port,
			fmt.Errorf("%w: %w", mfrc522.ErrDeviceNotFound, err), mfrc522.ErrorTypePermanent)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		mfrc522.Debugf("uart %s: reset input buffer: %v", cfg.Port, err)
	}
	return NewFromPort(port, cfg.Port), nil
}

// NewFromPort wraps an already opened port. Reads from port must return
// (0, nil) or an error when nothing arrives in time.
func NewFromPort(port io.ReadWriteCloser, name string) *Transport {
	return &Transport{port: port, name: name}
}

// WriteRegister writes values to reg, one byte per exchange.
func (t *Transport) WriteRegister(reg byte, values ...byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return mfrc522.ErrTransportClosed
	}
	addr := reg & 0x3F
	for _, value := range values {
		if err := t.send("write register", mfrc522.ErrTransportWrite, addr, value); err != nil {
			return err
		}
		echo, err := t.receive("write register")
		if err != nil {
			return err
		}
		if echo != addr {
			return mfrc522.NewEchoMismatchError("write register", t.name, addr, echo)
		}
	}
	return nil
}

// ReadRegister reads reg n times.
func (t *Transport) ReadRegister(reg byte, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, mfrc522.ErrTransportClosed
	}
	out := make([]byte, 0, max(n, 0))
	for range n {
		if err := t.send("read register", mfrc522.ErrTransportRead, 0x80|reg&0x3F); err != nil {
			return nil, err
		}
		value, err := t.receive("read register")
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func (t *Transport) send(op string, kind error, data ...byte) error {
	if _, err := t.port.Write(data); err != nil {
		return mfrc522.NewTransportError(op, t.name, fmt.Errorf("%w: %w", kind, err), mfrc522.ErrorTypeTransient)
	}
	return nil
}

func (t *Transport) receive(op string) (byte, error) {
	var buf [1]byte
	n, err := t.port.Read(buf[:])
	if err != nil {
		return 0, mfrc522.NewTransportError(op, t.name,
			fmt.Errorf("%w: %w", mfrc522.ErrTransportRead, err), mfrc522.ErrorTypeTransient)
	}
	if n == 0 {
		return 0, mfrc522.NewTimeoutError(op, t.name)
	}
	return buf[0], nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.name, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportUART
}

var _ mfrc522.Transport = (*Transport)(nil)
