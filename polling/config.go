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

package polling

import (
	"errors"
	"fmt"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Config holds the monitor timing.
type Config struct {
	// PollInterval is the pause between two presence checks.
	PollInterval time.Duration

	// CardRemovalTimeout is how long a card may go unseen before it is
	// reported as removed.
	CardRemovalTimeout time.Duration

	// IdleInterval is the slower poll interval used once no card has been
	// seen for IdleAfter. Zero keeps PollInterval.
	IdleInterval time.Duration
	IdleAfter    time.Duration

	// MaxConsecutiveErrors stops the monitor after that many failed polls
	// in a row. Zero never stops.
	MaxConsecutiveErrors int
}

// DefaultConfig returns the default monitor timing.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:         100 * time.Millisecond,
		CardRemovalTimeout:   600 * time.Millisecond,
		IdleInterval:         500 * time.Millisecond,
		IdleAfter:            5 * time.Second,
		MaxConsecutiveErrors: 10,
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval %v must be positive", c.PollInterval))
	}
	if c.CardRemovalTimeout < c.PollInterval {
		errs = append(errs, fmt.Errorf("card removal timeout %v is shorter than the poll interval %v",
			c.CardRemovalTimeout, c.PollInterval))
	}
	if c.IdleInterval < 0 || c.IdleAfter < 0 {
		errs = append(errs, errors.New("idle interval and idle after must not be negative"))
	}
	if c.MaxConsecutiveErrors < 0 {
		errs = append(errs, fmt.Errorf("max consecutive errors %d must not be negative", c.MaxConsecutiveErrors))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", mfrc522.ErrInvalidParameter, errors.Join(errs...))
	}
	return nil
}
