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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/poll"
	"github.com/ZaparooProject/go-mfrc522/pins"
)

// NoResetPin disables the hardware reset path.
const NoResetPin = -1

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// PollLatency is the assumed cost of one register poll over the host
	// interface. Busy waits convert their timeouts into iteration ceilings
	// with it. 17.7µs is the figure measured for a 4 MHz SPI bus and has
	// not been validated on other hosts.
	PollLatency time.Duration
	// CRCTimeout bounds the wait for the CRC coprocessor.
	CRCTimeout time.Duration
	// CommTimeout bounds the wait for a PICC exchange to complete. The chip
	// timer programmed by Init fires after 25ms, so this only expires when
	// the chip stops responding.
	CommTimeout time.Duration
	// ResetSettle is the wait after a hard reset pulse, generous next to
	// the oscillator start-up time.
	ResetSettle time.Duration
	// ResetPollInterval and ResetPollAttempts bound the wait for a soft
	// reset to finish.
	ResetPollInterval time.Duration
	ResetPollAttempts int
	// PowerUpTimeout bounds SoftPowerUp.
	PowerUpTimeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		PollLatency:       17700 * time.Nanosecond,
		CRCTimeout:        89 * time.Millisecond,
		CommTimeout:       36 * time.Millisecond,
		ResetSettle:       50 * time.Millisecond,
		ResetPollInterval: 50 * time.Millisecond,
		ResetPollAttempts: 3,
		PowerUpTimeout:    500 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c *DeviceConfig) Validate() error {
	var errs []error
	if c.PollLatency <= 0 {
		errs = append(errs, fmt.Errorf("%w: poll latency must be positive", ErrInvalidParameter))
	}
	if c.CRCTimeout <= 0 || c.CommTimeout <= 0 || c.PowerUpTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeouts must be positive", ErrInvalidParameter))
	}
	if c.ResetSettle < 0 || c.ResetPollInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: reset delays must not be negative", ErrInvalidParameter))
	}
	if c.ResetPollAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: reset poll attempts must be at least 1", ErrInvalidParameter))
	}
	return errors.Join(errs...)
}

func (c *DeviceConfig) crcBudget() poll.Budget {
	return poll.Budget{Timeout: c.CRCTimeout, Latency: c.PollLatency}
}

func (c *DeviceConfig) commBudget() poll.Budget {
	return poll.Budget{Timeout: c.CommTimeout, Latency: c.PollLatency}
}

// Device represents an MFRC522 reader chip and the card it last selected.
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. No method
// can be cancelled; every wait for the chip is bounded by DeviceConfig.
type Device struct {
	transport Transport
	config    *DeviceConfig
	pins      *pins.Registry
	resetPin  int
	uid       UID
}

// New creates a new MFRC522 device with the given transport and options.
// The chip is not touched until Init.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
		resetPin:  NoResetPin,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	if err := device.config.Validate(); err != nil {
		return nil, err
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns a copy of the device configuration.
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// Close closes the transport and releases the reset pin.
func (d *Device) Close() error {
	var errs []error
	if err := d.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
	}
	if d.pins != nil && d.resetPin != NoResetPin {
		if err := d.pins.Release(d.resetPin); err != nil {
			errs = append(errs, fmt.Errorf("failed to release reset pin: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d *Device) writeReg(reg Register, values ...byte) error {
	if err := d.transport.WriteRegister(reg, values...); err != nil {
		return fmt.Errorf("write register 0x%02X: %w", reg, err)
	}
	return nil
}

func (d *Device) readReg(reg Register) (byte, error) {
	values, err := d.readRegs(reg, 1)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

func (d *Device) readRegs(reg Register, n int) ([]byte, error) {
	values, err := d.transport.ReadRegister(reg, n)
	if err != nil {
		return nil, fmt.Errorf("read register 0x%02X: %w", reg, err)
	}
	if len(values) != n {
		return nil, fmt.Errorf("read register 0x%02X: %w: got %d bytes, want %d",
			reg, ErrTransportRead, len(values), n)
	}
	return values, nil
}

// readFIFO drains len(dst) bytes from the FIFO into dst. With a non-zero
// rxAlign the bits of dst[0] below rxAlign are kept: they hold bits the
// caller already knows.
func (d *Device) readFIFO(dst []byte, rxAlign int) error {
	if len(dst) == 0 {
		return nil
	}
	values, err := d.readRegs(FIFODataReg, len(dst))
	if err != nil {
		return err
	}
	if rxAlign != 0 {
		mask := byte(0xFF << rxAlign)
		dst[0] = dst[0]&^mask | values[0]&mask
		copy(dst[1:], values[1:])
		return nil
	}
	copy(dst, values)
	return nil
}

func (d *Device) setBits(reg Register, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v|mask)
}

func (d *Device) clearBits(reg Register, mask byte) error {
	v, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, v&^mask)
}
