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

import "github.com/ZaparooProject/go-mfrc522/internal/frame"

// Backdoor commands of UID changeable ("magic") MIFARE Classic clones.
const (
	backdoorUnlock1 byte = 0x40
	backdoorUnlock2 byte = 0x43
)

// OpenUIDBackdoor halts the selected card and sends the unlock sequence of
// UID changeable cards. While the backdoor is open block 0 can be written
// without authentication. Genuine cards do not answer: StatusTimeout.
func (d *Device) OpenUIDBackdoor() (Status, error) {
	if _, err := d.HaltA(); err != nil {
		return StatusError, err
	}

	back := make([]byte, 32)
	for _, step := range []struct {
		cmd  byte
		bits int
	}{
		{backdoorUnlock1, 7},
		{backdoorUnlock2, 0},
	} {
		res, status, err := d.transceive([]byte{step.cmd}, back, step.bits, false)
		if err != nil || status != StatusOK {
			debugf("backdoor command 0x%02X: %v", step.cmd, status)
			return status, err
		}
		if res.n != 1 || back[0] != MifareACK {
			debugf("backdoor command 0x%02X answered % X", step.cmd, back[:res.n])
			return StatusError, nil
		}
	}
	return StatusOK, nil
}

// SetUID rewrites block 0 of a UID changeable card with newUID and its BCC.
// The card must carry key in key A of sector 0; when no card is selected
// one is selected first. The card is woken up again at the end, so a new
// selection reports the new UID.
func (d *Device) SetUID(newUID []byte, key Key) (Status, error) {
	if len(newUID) == 0 || len(newUID) > 15 {
		return StatusInvalid, nil
	}

	status, err := d.Authenticate(KeyA, 1, key, d.uid)
	if err != nil {
		return status, err
	}
	if status != StatusOK {
		// Timeout: no card selected yet.
		if status != StatusTimeout && status != StatusInvalid {
			return status, nil
		}
		present, err := d.IsNewCardPresent()
		if err != nil {
			return StatusError, err
		}
		if !present {
			return StatusTimeout, nil
		}
		selected, err := d.ReadCardSerial()
		if err != nil {
			return StatusError, err
		}
		if !selected {
			return StatusTimeout, nil
		}
		status, err = d.Authenticate(KeyA, 1, key, d.uid)
		if err != nil || status != StatusOK {
			return status, err
		}
	}

	block0, status, err := d.Read(0)
	if err != nil || status != StatusOK {
		return status, err
	}
	copy(block0, newUID)
	block0[len(newUID)] = frame.BCC(newUID)

	if err := d.StopCrypto1(); err != nil {
		return StatusError, err
	}
	status, err = d.OpenUIDBackdoor()
	if err != nil || status != StatusOK {
		return status, err
	}
	status, err = d.Write(0, block0)
	if err != nil || status != StatusOK {
		return status, err
	}

	if _, _, err := d.WakeupA(); err != nil {
		return StatusError, err
	}
	debugf("uid rewritten to % X", newUID)
	return StatusOK, nil
}

// UnbrickUIDSector writes a valid block 0 (UID 01 02 03 04) to a UID
// changeable card whose block 0 was corrupted, which makes it selectable
// again.
func (d *Device) UnbrickUIDSector() (Status, error) {
	if _, err := d.OpenUIDBackdoor(); err != nil {
		return StatusError, err
	}
	block0 := []byte{
		0x01, 0x02, 0x03, 0x04, 0x04, 0x08, 0x04, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	return d.Write(0, block0)
}

// AccessBits encodes the access conditions of the four block groups of a
// sector into bytes 6 to 8 of its trailer. Each group value holds the bits
// C1 C2 C3 from high to low. g3 applies to the trailer itself.
func AccessBits(g0, g1, g2, g3 byte) [3]byte {
	c1 := (g3&4)<<1 | (g2&4)<<0 | (g1&4)>>1 | (g0&4)>>2
	c2 := (g3&2)<<2 | (g2&2)<<1 | (g1&2)<<0 | (g0&2)>>1
	c3 := (g3&1)<<3 | (g2&1)<<2 | (g1&1)<<1 | (g0&1)<<0
	return [3]byte{
		(^c2&0x0F)<<4 | ^c1&0x0F,
		c1<<4 | ^c3&0x0F,
		c3<<4 | c2,
	}
}

// accessGroups decodes bytes 6 to 8 of a sector trailer. ok is false when
// the inverted copies do not match.
func accessGroups(trailer []byte) (g [4]byte, ok bool) {
	c1 := trailer[7] >> 4
	c2 := trailer[8] & 0x0F
	c3 := trailer[8] >> 4
	c1n := trailer[6] & 0x0F
	c2n := trailer[6] >> 4
	c3n := trailer[7] & 0x0F
	ok = c1 == ^c1n&0x0F && c2 == ^c2n&0x0F && c3 == ^c3n&0x0F

	g[0] = (c1&1)<<2 | (c2&1)<<1 | (c3&1)<<0
	g[1] = (c1&2)<<1 | (c2&2)<<0 | (c3&2)>>1
	g[2] = (c1&4)<<0 | (c2&4)>>1 | (c3&4)>>2
	g[3] = (c1&8)>>1 | (c2&8)>>2 | (c3&8)>>3
	return g, ok
}
