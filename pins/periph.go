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

package pins

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBackend controls pins through the periph.io host drivers, which use
// the GPIO character device or memory-mapped registers where available.
type PeriphBackend struct {
	// Lookup resolves a pin number to a periph pin. gpioreg.ByName when nil.
	Lookup func(name string) gpio.PinIO

	pins    map[int]gpio.PinIO
	initErr error
	once    sync.Once
	mu      sync.Mutex
}

// NewPeriphBackend returns a backend backed by the periph.io pin registry.
func NewPeriphBackend() *PeriphBackend {
	return &PeriphBackend{}
}

func (b *PeriphBackend) init() error {
	b.once.Do(func() {
		if b.Lookup == nil {
			if _, err := host.Init(); err != nil {
				b.initErr = fmt.Errorf("failed to initialize periph host: %w", err)
				return
			}
			b.Lookup = gpioreg.ByName
		}
	})
	return b.initErr
}

// Export resolves the pin and keeps a handle to it.
func (b *PeriphBackend) Export(pin int) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	if err := b.init(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pins == nil {
		b.pins = make(map[int]gpio.PinIO)
	}
	if _, ok := b.pins[pin]; ok {
		return nil
	}
	p := b.Lookup(strconv.Itoa(pin))
	if p == nil {
		return fmt.Errorf("no such pin: %d", pin)
	}
	b.pins[pin] = p
	return nil
}

// Unexport halts the pin and drops the handle.
func (b *PeriphBackend) Unexport(pin int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		return nil
	}
	delete(b.pins, pin)
	if err := p.Halt(); err != nil {
		return fmt.Errorf("failed to halt pin: %w", err)
	}
	return nil
}

// SetDirection configures the pin. Outputs start low.
func (b *PeriphBackend) SetDirection(pin int, dir Direction) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	if dir == Out {
		err = p.Out(gpio.Low)
	} else {
		err = p.In(gpio.Float, gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("failed to set direction %s: %w", dir, err)
	}
	return nil
}

// Write drives the pin.
func (b *PeriphBackend) Write(pin int, level Level) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Level(level)); err != nil {
		return fmt.Errorf("failed to write pin: %w", err)
	}
	return nil
}

// Read samples the pin.
func (b *PeriphBackend) Read(pin int) (Level, error) {
	p, err := b.pin(pin)
	if err != nil {
		return Low, err
	}
	return Level(p.Read()), nil
}

func (b *PeriphBackend) pin(pin int) (gpio.PinIO, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not exported", pin)
	}
	return p, nil
}

var _ Backend = (*PeriphBackend)(nil)
