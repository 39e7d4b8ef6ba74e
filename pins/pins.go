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

// Package pins tracks which digital I/O lines a process has claimed from the
// operating system and releases them again. It knows nothing about the chips
// attached to those lines.
package pins

import (
	"errors"
	"fmt"
)

// Direction is the configured direction of a claimed pin.
type Direction int

const (
	// In configures the pin as an input.
	In Direction = iota
	// Out configures the pin as an output.
	Out
)

// String returns the sysfs spelling of the direction.
func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Level is the logic level of a pin.
type Level bool

const (
	// Low is logic 0.
	Low Level = false
	// High is logic 1.
	High Level = true
)

func (l Level) String() string {
	if l {
		return "1"
	}
	return "0"
}

// Claim records one pin owned by the registry.
type Claim struct {
	Pin       int
	Direction Direction
}

// Registry errors
var (
	ErrNotClaimed = errors.New("pin not claimed")
	ErrInvalidPin = errors.New("invalid pin number")
)

// PinError describes a failed operation on a single pin.
type PinError struct {
	Err error
	Op  string
	Pin int
}

func (e *PinError) Error() string {
	return fmt.Sprintf("gpio%d: %s: %v", e.Pin, e.Op, e.Err)
}

func (e *PinError) Unwrap() error {
	return e.Err
}

// Backend performs the operating system side of pin control.
type Backend interface {
	// Export makes the pin available to user space.
	Export(pin int) error
	// Unexport returns the pin to the kernel.
	Unexport(pin int) error
	// SetDirection configures an exported pin.
	SetDirection(pin int, dir Direction) error
	// Write drives an output pin.
	Write(pin int, level Level) error
	// Read samples a pin.
	Read(pin int) (Level, error)
}
