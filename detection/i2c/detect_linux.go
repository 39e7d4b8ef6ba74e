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

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
)

// i2cBusInfo contains information about an I2C bus
type i2cBusInfo struct {
	Path   string // Device path, e.g., "/dev/i2c-1"
	Number int    // Bus number
}

// detectLinux lists one candidate per bus and address
func (d *detector) detectLinux(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	buses, err := d.findI2CBuses()
	if err != nil {
		return nil, err
	}

	var devices []detection.DeviceInfo
	for _, bus := range buses {
		for _, addr := range d.addrs {
			select {
			case <-ctx.Done():
				return devices, detection.ErrDetectionTimeout
			default:
			}

			device, ok := d.createDeviceInfo(bus, addr, opts)
			if ok {
				devices = append(devices, device)
			}
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// createDeviceInfo creates a DeviceInfo for a single address
func (d *detector) createDeviceInfo(bus i2cBusInfo, addr uint16, opts *detection.Options) (
	detection.DeviceInfo, bool,
) {
	devicePath := fmt.Sprintf("%s:0x%02X", bus.Path, addr)

	// Skip explicitly ignored buses and addresses
	if detection.IsPathIgnored(devicePath, opts.IgnorePaths) || detection.IsPathIgnored(bus.Path, opts.IgnorePaths) {
		return detection.DeviceInfo{}, false
	}

	device := detection.DeviceInfo{
		Transport: "i2c",
		Path:      devicePath,
		Name:      fmt.Sprintf("I2C device at %s address 0x%02X", bus.Path, addr),
		Metadata: map[string]string{
			"bus":     bus.Path,
			"address": fmt.Sprintf("0x%02X", addr),
		},
		// An unprobed address on an I2C bus is a guess
		Confidence: detection.Low,
	}

	if opts.Mode == detection.Passive {
		return device, true
	}
	return detection.Apply(device, func() (mfrc522.Transport, error) { return d.open(bus.Number, addr) })
}

// findI2CBuses discovers available I2C buses on the system
func (d *detector) findI2CBuses() ([]i2cBusInfo, error) {
	matches, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C devices: %w", err)
	}
	sort.Strings(matches)

	buses := make([]i2cBusInfo, 0, len(matches))
	for _, path := range matches {
		var busNum int
		if _, err := fmt.Sscanf(filepath.Base(path), "i2c-%d", &busNum); err != nil {
			continue
		}
		buses = append(buses, i2cBusInfo{
			Path:   path,
			Number: busNum,
		})
	}

	return buses, nil
}
