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
	"context"
)

// startScanning runs the main polling loop using the underlying Monitor
func (s *Scanner) startScanning(ctx context.Context) error {
	s.monitor = NewMonitor(s.reader, s.config)
	s.setupEventHandlers()
	return s.monitor.Start(ctx)
}

// setupEventHandlers configures the monitor callbacks to integrate with Scanner functionality
func (s *Scanner) setupEventHandlers() {
	s.monitor.OnCardDetected = func(card *Card) error {
		// Pending writes go first, while the card is still selected.
		s.processPendingWrites(card)

		if s.OnTagDetected != nil {
			return s.OnTagDetected(card)
		}
		return nil
	}

	s.monitor.OnCardRemoved = func() {
		if s.OnTagRemoved != nil {
			s.OnTagRemoved()
		}
	}

	s.monitor.OnCardChanged = func(card *Card) error {
		s.processPendingWrites(card)

		if s.OnTagChanged != nil {
			return s.OnTagChanged(card)
		}
		return nil
	}
}
