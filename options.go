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

package mfrc522

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mfrc522/pins"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithResetPin routes Init through the hardware reset line on pin, claimed
// from registry.
func WithResetPin(registry *pins.Registry, pin int) Option {
	return func(d *Device) error {
		if registry == nil || pin < 0 {
			return fmt.Errorf("%w: reset pin %d", ErrInvalidParameter, pin)
		}
		d.pins = registry
		d.resetPin = pin
		return nil
	}
}

// WithConfig replaces the device configuration
func WithConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		c := *config
		d.config = &c
		return nil
	}
}

// WithResetDelay sets the settle time after a hard reset and the poll
// interval of a soft reset.
func WithResetDelay(delay time.Duration) Option {
	return func(d *Device) error {
		d.config.ResetSettle = delay
		d.config.ResetPollInterval = delay
		return nil
	}
}

// WithPollLatency sets the assumed cost of one register poll.
func WithPollLatency(latency time.Duration) Option {
	return func(d *Device) error {
		d.config.PollLatency = latency
		return nil
	}
}

// WithTimeouts sets the CRC and PICC communication wait bounds.
func WithTimeouts(crc, comm time.Duration) Option {
	return func(d *Device) error {
		d.config.CRCTimeout = crc
		d.config.CommTimeout = comm
		return nil
	}
}
