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
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of the monitor counters.
type Metrics struct {
	PollCycles      int64         // Total number of polling cycles
	PollErrors      int64         // Number of polling errors
	CardsDetected   int64         // Number of cards detected
	CallbackErrors  int64         // Number of callback errors
	LastPollLatency time.Duration // Duration of last polling operation
}

type counters struct {
	pollCycles      atomic.Int64
	pollErrors      atomic.Int64
	cardsDetected   atomic.Int64
	callbackErrors  atomic.Int64
	lastPollLatency atomic.Int64 // in nanoseconds
	currentInterval atomic.Int64 // in nanoseconds
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		PollCycles:      c.pollCycles.Load(),
		PollErrors:      c.pollErrors.Load(),
		CardsDetected:   c.cardsDetected.Load(),
		CallbackErrors:  c.callbackErrors.Load(),
		LastPollLatency: time.Duration(c.lastPollLatency.Load()),
	}
}

// nextInterval slows polling down once no card has been seen for
// IdleAfter.
func nextInterval(config *Config, sinceLastCard time.Duration) time.Duration {
	if config.IdleInterval <= config.PollInterval || config.IdleAfter == 0 {
		return config.PollInterval
	}
	if sinceLastCard > config.IdleAfter {
		return config.IdleInterval
	}
	return config.PollInterval
}
