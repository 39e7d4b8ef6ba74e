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

// Package spi detects spidev buses. Importing it registers the detector.
package spi

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	spitransport "github.com/ZaparooProject/go-mfrc522/transport/spi"
)

// DefaultPattern matches the Linux spidev character devices.
const DefaultPattern = "/dev/spidev*.*"

// detector implements the Detector interface for spidev buses
type detector struct {
	open    func(path string) (mfrc522.Transport, error)
	pattern string
}

// New creates a spidev detector
func New() detection.Detector {
	return &detector{pattern: DefaultPattern, open: openTransport}
}

func init() {
	detection.RegisterDetector(New())
}

func openTransport(path string) (mfrc522.Transport, error) {
	cfg := spitransport.ReaderConfig()
	cfg.Path = path
	bus, err := spitransport.Open(cfg)
	if err != nil {
		return nil, err
	}
	return spitransport.NewTransport(bus), nil
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "spi"
}

// Detect lists spidev buses not in opts.IgnorePaths. A bus that is not
// probed has Medium confidence; one whose chip answers has High.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	paths, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for spidev devices: %w", err)
	}
	sort.Strings(paths)

	var devices []detection.DeviceInfo
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if detection.IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}

		info := detection.DeviceInfo{
			Transport:  "spi",
			Path:       path,
			Name:       "SPI bus " + filepath.Base(path),
			Confidence: detection.Medium,
			Metadata:   map[string]string{"bus": path},
		}
		if opts.Mode != detection.Passive {
			var ok bool
			if info, ok = detection.Apply(info, func() (mfrc522.Transport, error) { return d.open(path) }); !ok {
				continue
			}
		}
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}
