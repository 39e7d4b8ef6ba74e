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

package i2c

import (
	"errors"
	"testing"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// chipBus puts the simulated chip on an I2C bus at one address.
type chipBus struct {
	chip   *testutil.Chip
	err    error
	addr   uint16
	closed bool
}

func (*chipBus) String() string                  { return "chipbus" }
func (*chipBus) SetSpeed(physic.Frequency) error { return nil }

func (b *chipBus) Close() error {
	b.closed = true
	return nil
}

func (b *chipBus) Tx(addr uint16, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	if addr != b.addr {
		return errors.New("no ack")
	}
	if len(w) == 0 {
		return errors.New("no register address")
	}
	if len(r) == 0 {
		return b.chip.WriteRegister(w[0], w[1:]...)
	}
	values, err := b.chip.ReadRegister(w[0], len(r))
	if err != nil {
		return err
	}
	copy(r, values)
	return nil
}

func TestTransport_Framing(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{0x2A, 0x80}},
			{Addr: DefaultAddress, W: []byte{0x09}, R: []byte{0x01, 0x02, 0x03}},
		},
	}
	transport := NewFromBus(bus, DefaultAddress, "playback")

	require.NoError(t, transport.WriteRegister(byte(mfrc522.TModeReg), 0x80))
	values, err := transport.ReadRegister(byte(mfrc522.FIFODataReg), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, values)

	require.NoError(t, transport.Close(), "every recorded operation was played")
	assert.Equal(t, mfrc522.TransportI2C, transport.Type())
}

func TestTransport_Errors(t *testing.T) {
	t.Parallel()

	bus := &chipBus{chip: testutil.NewChip(), addr: DefaultAddress, err: errors.New("arbitration lost")}
	transport := NewFromBus(bus, DefaultAddress, "chipbus")

	err := transport.WriteRegister(byte(mfrc522.CommandReg), mfrc522.PCDIdle)
	require.ErrorIs(t, err, mfrc522.ErrTransportWrite)
	assert.True(t, mfrc522.IsRetryable(err))

	_, err = transport.ReadRegister(byte(mfrc522.VersionReg), 1)
	require.ErrorIs(t, err, mfrc522.ErrTransportRead)

	wrongAddr := NewFromBus(&chipBus{chip: testutil.NewChip(), addr: 0x29}, DefaultAddress, "chipbus")
	_, err = wrongAddr.ReadRegister(byte(mfrc522.VersionReg), 1)
	require.Error(t, err)

	require.NoError(t, transport.Close())
	assert.True(t, bus.closed)
	require.ErrorIs(t, transport.WriteRegister(byte(mfrc522.CommandReg), 0), mfrc522.ErrTransportClosed)
	_, err = transport.ReadRegister(byte(mfrc522.VersionReg), 1)
	require.ErrorIs(t, err, mfrc522.ErrTransportClosed)
}

func TestNewWithAddress_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewWithAddress("", 0x80)
	require.ErrorIs(t, err, mfrc522.ErrInvalidParameter)
}

func TestTransport_Device(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualUltralight(nil)
	bus := &chipBus{chip: testutil.NewChip(card), addr: DefaultAddress}
	device, err := mfrc522.New(NewFromBus(bus, DefaultAddress, "chipbus"), mfrc522.WithResetDelay(0))
	require.NoError(t, err)
	require.NoError(t, device.Init())

	present, err := device.IsNewCardPresent()
	require.NoError(t, err)
	require.True(t, present)
	selected, err := device.ReadCardSerial()
	require.NoError(t, err)
	require.True(t, selected)
	assert.Equal(t, testutil.TestUltralightUID, device.UID().Data())

	require.NoError(t, device.Close())
	assert.True(t, bus.closed)
}
