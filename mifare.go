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
	"encoding/binary"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// Key is a 6 byte MIFARE Classic sector key.
type Key [6]byte

// DefaultKey is the transport key of blank MIFARE Classic cards.
var DefaultKey = Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// KeyType selects which sector key authenticates.
type KeyType byte

// Key types
const (
	KeyA KeyType = KeyType(PICCCmdAuthA)
	KeyB KeyType = KeyType(PICCCmdAuthB)
)

// Authenticate opens a Crypto1 session for the sector of block with key.
// The cipher runs on the chip; the session stays open until StopCrypto1 or
// until the card leaves ACTIVE.
func (d *Device) Authenticate(keyType KeyType, block byte, key Key, uid UID) (Status, error) {
	if keyType != KeyA && keyType != KeyB {
		return StatusInvalid, nil
	}
	if uid.Size < 4 {
		return StatusInvalid, nil
	}

	send := make([]byte, 12)
	defer clear(send)
	defer clear(key[:])
	send[0] = byte(keyType)
	send[1] = block
	copy(send[2:8], key[:])
	copy(send[8:12], uid.Bytes[:4])

	_, status, err := d.communicate(piccRequest{
		command: PCDMFAuthent,
		waitIRq: irqIdle,
		send:    send,
	})
	return status, err
}

// StopCrypto1 ends the Crypto1 session. Regular communication with other
// cards needs it after Authenticate.
func (d *Device) StopCrypto1() error {
	return d.clearBits(Status2Reg, mfCrypto1On)
}

// Read reads the 16 bytes of a MIFARE Classic block, or four Ultralight
// pages starting at block. The CRC_A of the answer is checked and removed.
func (d *Device) Read(block byte) ([]byte, Status, error) {
	cmd := []byte{PICCCmdRead, block}
	crc, status, err := d.CalculateCRC(cmd)
	if err != nil || status != StatusOK {
		return nil, status, err
	}

	back := make([]byte, 18)
	res, status, err := d.transceive(append(cmd, crc[:]...), back, 0, true)
	if err != nil || status != StatusOK {
		return nil, status, err
	}
	if res.n != 18 {
		return nil, StatusError, nil
	}
	return back[:16], StatusOK, nil
}

// Write writes 16 bytes to a MIFARE Classic block. Command and data are
// acknowledged separately.
func (d *Device) Write(block byte, data []byte) (Status, error) {
	if len(data) != 16 {
		return StatusInvalid, nil
	}
	status, err := d.mifareTransceive([]byte{PICCCmdWrite, block}, false)
	if err != nil || status != StatusOK {
		return status, err
	}
	return d.mifareTransceive(data, false)
}

// UltralightWrite writes one 4 byte page of a MIFARE Ultralight.
func (d *Device) UltralightWrite(page byte, data []byte) (Status, error) {
	if len(data) != 4 {
		return StatusInvalid, nil
	}
	cmd := append([]byte{PICCCmdULWrite, page}, data...)
	return d.mifareTransceive(cmd, false)
}

// Increment adds delta to the value block and keeps the result in the
// card's transfer buffer. Use Transfer to store it.
func (d *Device) Increment(block byte, delta int32) (Status, error) {
	return d.twoStep(PICCCmdInc, block, delta)
}

// Decrement subtracts delta from the value block and keeps the result in
// the card's transfer buffer. Use Transfer to store it.
func (d *Device) Decrement(block byte, delta int32) (Status, error) {
	return d.twoStep(PICCCmdDec, block, delta)
}

// Restore copies the value block into the card's transfer buffer.
func (d *Device) Restore(block byte) (Status, error) {
	// The second step carries no meaning but is required.
	return d.twoStep(PICCCmdRestore, block, 0)
}

// Transfer writes the card's transfer buffer to block.
func (d *Device) Transfer(block byte) (Status, error) {
	return d.mifareTransceive([]byte{PICCCmdXfer, block}, false)
}

// GetValue reads a value block. A block whose redundant copies disagree is
// StatusError.
func (d *Device) GetValue(block byte) (int32, Status, error) {
	data, status, err := d.Read(block)
	if err != nil || status != StatusOK {
		return 0, status, err
	}
	value, _, ok := frame.DecodeValueBlock(data)
	if !ok {
		debugf("block %d is not a value block", block)
		return 0, StatusError, nil
	}
	return value, StatusOK, nil
}

// SetValue formats block as a value block holding value.
func (d *Device) SetValue(block byte, value int32) (Status, error) {
	data := make([]byte, 16)
	frame.EncodeValueBlock(data, value, block)
	return d.Write(block, data)
}

func (d *Device) twoStep(command, block byte, data int32) (Status, error) {
	status, err := d.mifareTransceive([]byte{command, block}, false)
	if err != nil || status != StatusOK {
		return status, err
	}
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(data))
	// The card does not acknowledge the operand.
	return d.mifareTransceive(payload, true)
}

// mifareTransceive sends data with its CRC_A and expects a MIFARE ACK.
func (d *Device) mifareTransceive(data []byte, acceptTimeout bool) (Status, error) {
	if len(data) == 0 || len(data) > 16 {
		return StatusInvalid, nil
	}
	crc, status, err := d.CalculateCRC(data)
	if err != nil || status != StatusOK {
		return status, err
	}
	cmd := make([]byte, 0, len(data)+2)
	cmd = append(append(cmd, data...), crc[:]...)

	back := make([]byte, 18)
	res, status, err := d.transceive(cmd, back, 0, false)
	if err != nil {
		return StatusError, err
	}
	if acceptTimeout && status == StatusTimeout {
		return StatusOK, nil
	}
	if status != StatusOK {
		return status, nil
	}
	if res.n != 1 || res.validBits != 4 {
		return StatusError, nil
	}
	if back[0] != MifareACK {
		return StatusMifareNACK, nil
	}
	return StatusOK, nil
}
