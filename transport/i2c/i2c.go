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

// Package i2c provides the I2C host interface of the MFRC522
package i2c

import (
	"fmt"
	"io"
	"sync"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7 bit address of the chip with ADR_0 to ADR_5
	// strapped for 0x28.
	DefaultAddress = 0x28

	// Max clock frequency (400 kHz fast mode).
	maxClockFreq = 400 * physic.KiloHertz
)

// Transport implements the mfrc522.Transport interface for I2C
// communication. A register write is the register address followed by the
// data; a read writes the address and reads n bytes after a repeated start.
// The chip does not increment the address, so n bytes of FIFODataReg drain
// the FIFO.
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.Bus
	busName string
	mu      sync.Mutex
	closed  bool
}

// New opens the named I2C bus ("" for the first one) and addresses the chip
// at DefaultAddress.
func New(busName string) (*Transport, error) {
	return NewWithAddress(busName, DefaultAddress)
}

// NewWithAddress opens the named I2C bus and addresses the chip at addr.
func NewWithAddress(busName string, addr uint16) (*Transport, error) {
	if addr > 0x7F {
		return nil, fmt.Errorf("%w: i2c address 0x%X is not 7 bit", mfrc522.ErrInvalidParameter, addr)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, mfrc522.NewTransportError("open", busName,
			fmt.Errorf("%w: %w", mfrc522.ErrDeviceNotFound, err), mfrc522.ErrorTypePermanent)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	return NewFromBus(bus, addr, busName), nil
}

// NewFromBus wraps an already opened bus. Close closes it when it
// implements io.Closer.
func NewFromBus(bus i2c.Bus, addr uint16, busName string) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		bus:     bus,
		busName: busName,
	}
}

// WriteRegister writes values to reg in one bus transaction.
func (t *Transport) WriteRegister(reg byte, values ...byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return mfrc522.ErrTransportClosed
	}
	w := make([]byte, 0, len(values)+1)
	w = append(append(w, reg&0x3F), values...)
	if err := t.dev.Tx(w, nil); err != nil {
		return mfrc522.NewTransportError("write register", t.busName,
			fmt.Errorf("%w: %w", mfrc522.ErrTransportWrite, err), mfrc522.ErrorTypeTransient)
	}
	return nil
}

// ReadRegister reads reg n times in one bus transaction.
func (t *Transport) ReadRegister(reg byte, n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, mfrc522.ErrTransportClosed
	}
	r := make([]byte, max(n, 0))
	if n <= 0 {
		return r, nil
	}
	if err := t.dev.Tx([]byte{reg & 0x3F}, r); err != nil {
		return nil, mfrc522.NewTransportError("read register", t.busName,
			fmt.Errorf("%w: %w", mfrc522.ErrTransportRead, err), mfrc522.ErrorTypeTransient)
	}
	return r, nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if c, ok := t.bus.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close i2c bus %s: %w", t.busName, err)
		}
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportI2C
}

var _ mfrc522.Transport = (*Transport)(nil)
