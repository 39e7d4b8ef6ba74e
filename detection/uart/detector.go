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

// Package uart detects serial ports that may carry an MFRC522. Importing it
// registers the detector.
package uart

import (
	"context"
	"fmt"
	"sort"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	uarttransport "github.com/ZaparooProject/go-mfrc522/transport/uart"
	"go.bug.st/serial/enumerator"
)

// detector implements the Detector interface for serial ports
type detector struct {
	list func() ([]*enumerator.PortDetails, error)
	open func(port string) (mfrc522.Transport, error)
}

// New creates a serial port detector
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList, open: openTransport}
}

func init() {
	detection.RegisterDetector(New())
}

func openTransport(port string) (mfrc522.Transport, error) {
	return uarttransport.New(port)
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports. USB adapters on the blocklist are skipped
// without being opened. Without probing every port has Low confidence.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	var devices []detection.DeviceInfo
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		device, ok := d.createDeviceInfo(port, opts)
		if ok {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func (d *detector) createDeviceInfo(port *enumerator.PortDetails, opts *detection.Options) (
	detection.DeviceInfo, bool,
) {
	if detection.IsPathIgnored(port.Name, opts.IgnorePaths) {
		return detection.DeviceInfo{}, false
	}

	device := detection.DeviceInfo{
		Transport:  "uart",
		Path:       port.Name,
		Name:       "Serial port " + port.Name,
		Confidence: detection.Low,
		Metadata:   map[string]string{},
	}
	if port.IsUSB {
		vidpid := detection.USBID(port.VID, port.PID)
		if detection.IsBlocked(vidpid, opts.Blocklist) {
			mfrc522.Debugf("detection: skipping blocked USB device %s at %s", vidpid, port.Name)
			return detection.DeviceInfo{}, false
		}
		device.Metadata["vidpid"] = vidpid
		device.Metadata["serial"] = port.SerialNumber
		if port.Product != "" {
			device.Name = port.Product + " (" + port.Name + ")"
		}
	}

	if opts.Mode == detection.Passive {
		return device, true
	}
	return detection.Apply(device, func() (mfrc522.Transport, error) { return d.open(port.Name) })
}
