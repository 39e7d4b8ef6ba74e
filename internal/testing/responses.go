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

package testing

import "github.com/ZaparooProject/go-mfrc522/internal/frame"

// PICC commands understood by the virtual cards.
const (
	CmdREQA        = 0x26
	CmdWUPA        = 0x52
	CmdSelectCL1   = 0x93
	CmdSelectCL2   = 0x95
	CmdSelectCL3   = 0x97
	CmdHLTA        = 0x50
	CmdAuthKeyA    = 0x60
	CmdAuthKeyB    = 0x61
	CmdRead        = 0x30
	CmdWrite       = 0xA0
	CmdDecrement   = 0xC0
	CmdIncrement   = 0xC1
	CmdRestore     = 0xC2
	CmdTransfer    = 0xB0
	CmdULWrite     = 0xA2
	CmdBackdoorOne = 0x40
	CmdBackdoorTwo = 0x43
)

// MIFARE acknowledge nibbles.
const (
	ACK        = 0x0A
	NAKInvalid = 0x04
	NAKParity  = 0x05
)

// Common UIDs for testing
var (
	// TestMIFARE1KUID is a sample MIFARE Classic 1K UID
	TestMIFARE1KUID = []byte{0x12, 0x34, 0x56, 0x78}

	// TestMIFARE4KUID is a sample MIFARE Classic 4K UID
	TestMIFARE4KUID = []byte{0xAB, 0xCD, 0xEF, 0x01}

	// TestMIFAREMiniUID is a sample MIFARE Mini UID
	TestMIFAREMiniUID = []byte{0x3C, 0x5A, 0x10, 0x07}

	// TestUltralightUID is a sample 7 byte Ultralight UID
	TestUltralightUID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestTripleUID is a sample 10 byte UID
	TestTripleUID = []byte{0x08, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x99, 0xAA}

	// DefaultKey is the transport key of a blank MIFARE Classic card
	DefaultKey = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// reply is what a card modulates back: a bit string, least significant bit
// of each byte first, and the position of its first bit within the cascade
// level (non-zero only for anticollision answers).
type reply struct {
	bits   []byte
	offset int
}

// bitsOf unpacks bits [from, to) of data, least significant bit first.
func bitsOf(data []byte, from, to int) []byte {
	out := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, (data[i/8]>>(i%8))&1)
	}
	return out
}

func byteReply(data ...byte) *reply {
	return &reply{bits: bitsOf(data, 0, len(data)*8)}
}

func crcReply(data ...byte) *reply {
	return byteReply(frame.AppendCRCA(append([]byte(nil), data...))...)
}

func nibbleReply(n byte) *reply {
	return &reply{bits: bitsOf([]byte{n}, 0, 4)}
}

// merge combines simultaneous answers the way the air interface does: bits
// all cards agree on come through, the first disagreeing bit reads as one,
// and everything after it is cleared. It returns the received bits and the
// index of the collision, or -1.
func merge(replies []*reply) ([]byte, int) {
	out := append([]byte(nil), replies[0].bits...)
	for i := range out {
		for _, r := range replies[1:] {
			if i < len(r.bits) && r.bits[i] == out[i] {
				continue
			}
			out[i] = 1
			for j := i + 1; j < len(out); j++ {
				out[j] = 0
			}
			return out, i
		}
	}
	return out, -1
}

// Frame is one transmission of the simulated chip towards the cards.
type Frame struct {
	Data     []byte
	LastBits int
}

// IsAnticollision reports whether f is an anticollision (not a select) frame
// of any cascade level.
func (f Frame) IsAnticollision() bool {
	if len(f.Data) < 2 {
		return false
	}
	switch f.Data[0] {
	case CmdSelectCL1, CmdSelectCL2, CmdSelectCL3:
		return f.Data[1] != 0x70
	}
	return false
}
