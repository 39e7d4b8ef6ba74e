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

package frame

import "encoding/binary"

// EncodeValueBlock writes value and addr into the 16 byte block in the
// MIFARE Classic value block format: the value, its complement and the value
// again (little endian), then addr, ^addr, addr, ^addr.
func EncodeValueBlock(block []byte, value int32, addr byte) {
	binary.LittleEndian.PutUint32(block[0:4], uint32(value))
	binary.LittleEndian.PutUint32(block[4:8], ^uint32(value))
	binary.LittleEndian.PutUint32(block[8:12], uint32(value))
	block[12], block[13], block[14], block[15] = addr, ^addr, addr, ^addr
}

// DecodeValueBlock returns the value and address stored in a value block and
// whether the redundant copies agree.
func DecodeValueBlock(block []byte) (value int32, addr byte, ok bool) {
	if len(block) < 16 {
		return 0, 0, false
	}
	v := binary.LittleEndian.Uint32(block[0:4])
	if binary.LittleEndian.Uint32(block[4:8]) != ^v || binary.LittleEndian.Uint32(block[8:12]) != v {
		return 0, 0, false
	}
	if block[12] != block[14] || block[13] != block[15] || block[12] != ^block[13] {
		return 0, 0, false
	}
	return int32(v), block[12], true
}
