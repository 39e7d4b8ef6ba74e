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

// Package i2c detects I2C buses that may carry an MFRC522. Importing it
// registers the detector.
package i2c

import (
	"context"
	"runtime"
	"strconv"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	i2ctransport "github.com/ZaparooProject/go-mfrc522/transport/i2c"
)

// detector implements the Detector interface for I2C devices
type detector struct {
	open    func(bus int, addr uint16) (mfrc522.Transport, error)
	pattern string
	addrs   []uint16
}

// New creates a new I2C detector looking at the default chip address.
func New() detection.Detector {
	return &detector{
		pattern: "/dev/i2c-*",
		addrs:   []uint16{i2ctransport.DefaultAddress},
		open:    openTransport,
	}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

func openTransport(bus int, addr uint16) (mfrc522.Transport, error) {
	return i2ctransport.NewWithAddress(strconv.Itoa(bus), addr)
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "i2c"
}

// Detect searches for MFRC522 devices on I2C buses
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	// Only Linux exposes I2C buses as /dev/i2c-N
	switch runtime.GOOS {
	case "linux":
		return d.detectLinux(ctx, opts)
	default:
		return nil, detection.ErrUnsupportedPlatform
	}
}
