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
	"sync"
	"testing"

	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
	"github.com/ZaparooProject/go-mfrc522/pins"
	"github.com/stretchr/testify/require"
)

// newTestDevice returns an initialized device on a simulated chip with the
// given cards in its field.
func newTestDevice(t *testing.T, cards ...*testutil.VirtualCard) (*Device, *MockTransport) {
	t.Helper()
	mock := NewMockTransport(cards...)
	device, err := New(mock, WithResetDelay(0))
	require.NoError(t, err)
	require.NoError(t, device.Init())
	return device, mock
}

// selectCard runs REQA and selection and returns the selected UID.
func selectCard(t *testing.T, device *Device) UID {
	t.Helper()
	present, err := device.IsNewCardPresent()
	require.NoError(t, err)
	require.True(t, present, "no card answered REQA")
	selected, err := device.ReadCardSerial()
	require.NoError(t, err)
	require.True(t, selected, "selection failed")
	return device.UID()
}

// authenticate selects the card and opens a session for the sector of block
// with the transport key.
func authenticate(t *testing.T, device *Device, block byte) UID {
	t.Helper()
	uid := selectCard(t, device)
	status, err := device.Authenticate(KeyA, block, DefaultKey, uid)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)
	return uid
}

func anticollisionFrames(frames []testutil.Frame) []testutil.Frame {
	var out []testutil.Frame
	for _, f := range frames {
		if f.IsAnticollision() {
			out = append(out, f)
		}
	}
	return out
}

// countingTransport records how often each register is written.
type countingTransport struct {
	Transport
	writes map[Register][][]byte
	mu     sync.Mutex
}

func newCountingTransport(inner Transport) *countingTransport {
	return &countingTransport{Transport: inner, writes: make(map[Register][][]byte)}
}

func (c *countingTransport) WriteRegister(reg byte, values ...byte) error {
	c.mu.Lock()
	c.writes[reg] = append(c.writes[reg], append([]byte(nil), values...))
	c.mu.Unlock()
	return c.Transport.WriteRegister(reg, values...)
}

func (c *countingTransport) written(reg Register) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[reg]
}

func (c *countingTransport) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = make(map[Register][][]byte)
}

// memoryPins is an in-memory pins.Backend recording every level written.
type memoryPins struct {
	levels map[int]pins.Level
	dirs   map[int]pins.Direction
	writes []pins.Level
	mu     sync.Mutex
}

func newMemoryPins() *memoryPins {
	return &memoryPins{
		levels: make(map[int]pins.Level),
		dirs:   make(map[int]pins.Direction),
	}
}

func (m *memoryPins) Export(int) error   { return nil }
func (m *memoryPins) Unexport(int) error { return nil }

func (m *memoryPins) SetDirection(pin int, dir pins.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[pin] = dir
	return nil
}

func (m *memoryPins) Write(pin int, level pins.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = level
	m.writes = append(m.writes, level)
	return nil
}

func (m *memoryPins) Read(pin int) (pins.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}
