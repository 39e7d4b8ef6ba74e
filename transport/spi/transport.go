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

package spi

import (
	"errors"
	"fmt"
	"io"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Duplexer runs one full duplex SPI transaction. *Bus implements it.
type Duplexer interface {
	TransferDuplex(tx []byte) ([]byte, error)
}

// Transport implements the mfrc522.Transport interface over SPI.
//
// The address byte is 0XXXXXX0 for a write and 1XXXXXX0 for a read, with the
// register in bits 6 to 1. A read of n bytes clocks the address n times and
// a final 0x00; each byte comes back one position later.
type Transport struct {
	bus  Duplexer
	name string
}

// NewTransport creates a register transport on bus. Close closes the bus
// when it implements io.Closer.
func NewTransport(bus Duplexer) *Transport {
	name := "spi"
	if s, ok := bus.(fmt.Stringer); ok {
		name = s.String()
	}
	return &Transport{bus: bus, name: name}
}

func writeAddress(reg byte) byte {
	return (reg << 1) & 0x7E
}

func readAddress(reg byte) byte {
	return 0x80 | (reg<<1)&0x7E
}

// WriteRegister writes values to reg in one transaction.
func (t *Transport) WriteRegister(reg byte, values ...byte) error {
	tx := make([]byte, 0, len(values)+1)
	tx = append(append(tx, writeAddress(reg)), values...)
	if _, err := t.bus.TransferDuplex(tx); err != nil {
		return t.wrap("write register", err, mfrc522.ErrTransportWrite)
	}
	return nil
}

// ReadRegister reads reg n times in one transaction.
func (t *Transport) ReadRegister(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	tx := make([]byte, n+1)
	for i := range n {
		tx[i] = readAddress(reg)
	}
	rx, err := t.bus.TransferDuplex(tx)
	if err != nil {
		return nil, t.wrap("read register", err, mfrc522.ErrTransportRead)
	}
	if len(rx) != len(tx) {
		return nil, mfrc522.NewTransportError("read register", t.name,
			fmt.Errorf("%w: %d of %d bytes", mfrc522.ErrTransportRead, len(rx), len(tx)),
			mfrc522.ErrorTypeTransient)
	}
	return rx[1:], nil
}

func (t *Transport) wrap(op string, err, kind error) error {
	if errors.Is(err, mfrc522.ErrTransportClosed) {
		return mfrc522.NewTransportError(op, t.name, err, mfrc522.ErrorTypePermanent)
	}
	return mfrc522.NewTransportError(op, t.name, fmt.Errorf("%w: %w", kind, err), mfrc522.ErrorTypeTransient)
}

// Close closes the underlying bus.
func (t *Transport) Close() error {
	if c, ok := t.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() mfrc522.TransportType {
	return mfrc522.TransportSPI
}

var _ mfrc522.Transport = (*Transport)(nil)
