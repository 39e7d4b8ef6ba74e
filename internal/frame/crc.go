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

// Package frame provides ISO/IEC 14443-A frame helpers shared by the driver
// and the register-level simulator.
package frame

// CRC_A parameters (ISO/IEC 14443-3, Annex B).
const (
	CRCPreset = 0x6363
	crcPoly   = 0x8408 // x^16 + x^12 + x^5 + 1, reflected
)

// CascadeTag is the first byte of a cascade level that is continued in the
// next level.
const CascadeTag = 0x88

// CRCA computes the CRC_A of data.
func CRCA(data []byte) uint16 {
	crc := uint16(CRCPreset)
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// AppendCRCA appends the CRC_A of data to data, least significant byte first,
// which is the order it is sent on the air.
func AppendCRCA(data []byte) []byte {
	crc := CRCA(data)
	return append(data, byte(crc), byte(crc>>8))
}

// CheckCRCA reports whether the last two bytes of data are the CRC_A of the
// bytes before them.
func CheckCRCA(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	crc := CRCA(data[:len(data)-2])
	return data[len(data)-2] == byte(crc) && data[len(data)-1] == byte(crc>>8)
}

// BCC returns the block check character of a cascade level: the XOR of all
// bytes given.
func BCC(data []byte) byte {
	var bcc byte
	for _, b := range data {
		bcc ^= b
	}
	return bcc
}
