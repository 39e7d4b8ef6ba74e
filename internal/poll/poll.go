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

// Package poll provides the bounded busy-wait helpers the driver uses to wait
// for chip completion conditions. The chip offers no interrupt line to block
// on, so every wait is a spin with an explicit ceiling.
package poll

import (
	"time"
)

// Check reports whether the awaited condition holds. A non-nil error stops
// the wait immediately.
type Check func() (done bool, err error)

// Budget describes a bounded wait as a wall-clock timeout and the assumed cost
// of one poll iteration. The iteration ceiling is derived from the two, so the
// timeout contract stays true when the per-iteration cost is re-measured on
// another platform.
type Budget struct {
	Timeout time.Duration
	Latency time.Duration
}

// Iterations returns the iteration ceiling of the budget. It is never less
// than one, so a condition that already holds is always observed.
func (b Budget) Iterations() int {
	if b.Latency <= 0 || b.Timeout <= 0 {
		return 1
	}
	n := int(b.Timeout / b.Latency)
	if n < 1 {
		return 1
	}
	return n
}

// Spin evaluates check back to back until it reports done, returns an error,
// or the iteration ceiling of the budget is exhausted. It reports whether the
// condition was met.
func Spin(budget Budget, check Check) (bool, error) {
	for i := budget.Iterations(); i > 0; i-- {
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
	return false, nil
}

// Every sleeps interval before each evaluation of check, up to attempts
// times. It is used where the chip needs real time to pass between polls,
// such as the oscillator restart after a soft reset.
func Every(interval time.Duration, attempts int, check Check) (bool, error) {
	for i := 0; i < attempts; i++ {
		if interval > 0 {
			time.Sleep(interval)
		}
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
	return false, nil
}

// Deadline evaluates check until it reports done or timeout has elapsed,
// sleeping interval between attempts.
func Deadline(timeout, interval time.Duration, check Check) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		done, err := check()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}
