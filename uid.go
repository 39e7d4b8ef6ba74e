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
	"encoding/hex"
	"fmt"
	"strings"
)

// UID is the identifier of a selected card: 4, 7 or 10 bytes plus the SAK
// of the last cascade level.
type UID struct {
	Bytes [10]byte
	Size  int
	SAK   byte
}

// NewUID builds a UID from its bytes.
func NewUID(uid []byte, sak byte) (UID, error) {
	var u UID
	switch len(uid) {
	case 4, 7, 10:
	default:
		return u, fmt.Errorf("%w: uid of %d bytes", ErrInvalidParameter, len(uid))
	}
	copy(u.Bytes[:], uid)
	u.Size = len(uid)
	u.SAK = sak
	return u, nil
}

// Data returns a copy of the UID bytes.
func (u UID) Data() []byte {
	if u.Size <= 0 || u.Size > len(u.Bytes) {
		return nil
	}
	return append([]byte(nil), u.Bytes[:u.Size]...)
}

// String returns the UID as upper case hex.
func (u UID) String() string {
	return strings.ToUpper(hex.EncodeToString(u.Data()))
}

// Type returns the card type indicated by the SAK.
func (u UID) Type() PICCType {
	return PICCTypeOf(u.SAK)
}

// ATQA is the answer of a card to REQA or WUPA, in reception order.
type ATQA [2]byte

// PICCType is the card family derived from the SAK byte.
type PICCType int

// Card types
const (
	PICCTypeUnknown PICCType = iota
	PICCTypeISO14443Part4
	PICCTypeISO18092
	PICCTypeMifareMini
	PICCTypeMifare1K
	PICCTypeMifare4K
	PICCTypeMifareUL
	PICCTypeMifarePlus
	PICCTypeMifareDESFire
	PICCTypeTNP3XXX
	PICCTypeNotComplete
)

// PICCTypeOf maps a SAK to a card type. Bit 8 of the SAK is ignored.
func PICCTypeOf(sak byte) PICCType {
	switch sak & 0x7F {
	case 0x04:
		return PICCTypeNotComplete
	case 0x09:
		return PICCTypeMifareMini
	case 0x08:
		return PICCTypeMifare1K
	case 0x18:
		return PICCTypeMifare4K
	case 0x00:
		return PICCTypeMifareUL
	case 0x10, 0x11:
		return PICCTypeMifarePlus
	case 0x01:
		return PICCTypeTNP3XXX
	case 0x20:
		return PICCTypeISO14443Part4
	case 0x40:
		return PICCTypeISO18092
	default:
		return PICCTypeUnknown
	}
}

func (t PICCType) String() string {
	switch t {
	case PICCTypeISO14443Part4:
		return "PICC compliant with ISO/IEC 14443-4"
	case PICCTypeISO18092:
		return "PICC compliant with ISO/IEC 18092 (NFC)"
	case PICCTypeMifareMini:
		return "MIFARE Mini, 320 bytes"
	case PICCTypeMifare1K:
		return "MIFARE 1KB"
	case PICCTypeMifare4K:
		return "MIFARE 4KB"
	case PICCTypeMifareUL:
		return "MIFARE Ultralight or Ultralight C"
	case PICCTypeMifarePlus:
		return "MIFARE Plus"
	case PICCTypeMifareDESFire:
		return "MIFARE DESFire"
	case PICCTypeTNP3XXX:
		return "MIFARE TNP3XXX"
	case PICCTypeNotComplete:
		return "SAK indicates UID is not complete."
	default:
		return "Unknown type"
	}
}

// IsClassic reports whether the type is a MIFARE Classic family member.
func (t PICCType) IsClassic() bool {
	return t == PICCTypeMifareMini || t == PICCTypeMifare1K || t == PICCTypeMifare4K
}

// Sectors returns the number of sectors of a MIFARE Classic type.
func (t PICCType) Sectors() int {
	switch t {
	case PICCTypeMifareMini:
		return 5
	case PICCTypeMifare1K:
		return 16
	case PICCTypeMifare4K:
		return 40
	default:
		return 0
	}
}
