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
	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
)

// MockTransport is a Transport backed by the register level simulator of
// internal/testing: a simulated MFRC522 whose field holds virtual cards.
type MockTransport struct {
	*testutil.Chip
}

// NewMockTransport creates a mock transport with the given cards in the
// field of a simulated version 2.0 chip.
func NewMockTransport(cards ...*testutil.VirtualCard) *MockTransport {
	return &MockTransport{Chip: testutil.NewChip(cards...)}
}

// Type returns the transport type
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
