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
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// DumpVersion writes the chip version to w.
func (d *Device) DumpVersion(w io.Writer) error {
	v, err := d.Version()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Firmware Version: 0x%02X = %s\n", v, ChipName(v)); err != nil {
		return err
	}
	if v == 0x00 || v == 0xFF {
		_, err = fmt.Fprintln(w, "WARNING: Communication failure, is the MFRC522 properly connected?")
	}
	return err
}

// DumpDetails writes UID, SAK and card type to w.
func DumpDetails(w io.Writer, uid UID) error {
	var b strings.Builder
	b.WriteString("Card UID:")
	for _, v := range uid.Data() {
		fmt.Fprintf(&b, " %02X", v)
	}
	fmt.Fprintf(&b, "\nCard SAK: %02X\n", uid.SAK)
	fmt.Fprintf(&b, "PICC type: %s\n", uid.Type())
	_, err := io.WriteString(w, b.String())
	return err
}

// Dump writes the details and the memory of the selected card to w, then
// halts it. Classic cards are read with key as key A of every sector.
func (d *Device) Dump(w io.Writer, uid UID, key Key) error {
	if err := DumpDetails(w, uid); err != nil {
		return err
	}
	piccType := uid.Type()
	switch {
	case piccType.IsClassic():
		if err := d.DumpClassic(w, uid, piccType, key); err != nil {
			return err
		}
	case piccType == PICCTypeMifareUL:
		if err := d.DumpUltralight(w); err != nil {
			return err
		}
	case piccType == PICCTypeISO14443Part4, piccType == PICCTypeMifareDESFire,
		piccType == PICCTypeISO18092, piccType == PICCTypeMifarePlus,
		piccType == PICCTypeTNP3XXX:
		if _, err := fmt.Fprintln(w, "Dumping memory contents not implemented for that PICC type."); err != nil {
			return err
		}
	}
	_, err := d.HaltA()
	return err
}

// DumpClassic writes all sectors of a MIFARE Classic card to w, highest
// sector first, then halts the card and ends the Crypto1 session.
func (d *Device) DumpClassic(w io.Writer, uid UID, piccType PICCType, key Key) error {
	if sectors := piccType.Sectors(); sectors > 0 {
		if _, err := fmt.Fprintln(w, "Sector Block   0  1  2  3   4  5  6  7   8  9 10 11  12 13 14 15  AccessBits"); err != nil {
			return err
		}
		for sector := sectors - 1; sector >= 0; sector-- {
			if err := d.DumpClassicSector(w, uid, key, sector); err != nil {
				return err
			}
		}
	}
	if _, err := d.HaltA(); err != nil {
		return err
	}
	return d.StopCrypto1()
}

// DumpClassicSector writes one sector of a MIFARE Classic card to w, with
// the decoded access bits of each block group and the content of value
// blocks. Protocol failures are written to w; only host interface errors
// are returned.
func (d *Device) DumpClassicSector(w io.Writer, uid UID, key Key, sector int) error {
	var firstBlock, blocks int
	switch {
	case sector < 0:
		return nil
	case sector < 32:
		blocks = 4
		firstBlock = sector * blocks
	case sector < 40:
		blocks = 16
		firstBlock = 128 + (sector-32)*blocks
	default:
		return nil
	}

	var (
		groups        [4]byte
		groupsValid   bool
		isTrailer     = true
		printedHeader bool
	)
	for offset := blocks - 1; offset >= 0; offset-- {
		var line strings.Builder
		addr := firstBlock + offset
		if !printedHeader {
			fmt.Fprintf(&line, "%4d   ", sector)
			printedHeader = true
		} else {
			line.WriteString("       ")
		}
		fmt.Fprintf(&line, "%4d  ", addr)

		if isTrailer {
			status, err := d.Authenticate(KeyA, byte(firstBlock), key, uid)
			if err != nil {
				return err
			}
			if status != StatusOK {
				line.WriteString("PCD_Authenticate() failed: " + status.String() + "\n")
				_, err = io.WriteString(w, line.String())
				return err
			}
		}

		data, status, err := d.Read(byte(addr))
		if err != nil {
			return err
		}
		if status != StatusOK {
			line.WriteString("MIFARE_Read() failed: " + status.String() + "\n")
			if _, err := io.WriteString(w, line.String()); err != nil {
				return err
			}
			continue
		}
		for i, v := range data {
			fmt.Fprintf(&line, " %02X", v)
			if i%4 == 3 {
				line.WriteString(" ")
			}
		}

		if isTrailer {
			groups, groupsValid = accessGroups(data)
			isTrailer = false
		}

		var group int
		var firstInGroup bool
		if blocks == 4 {
			group = offset
			firstInGroup = true
		} else {
			group = offset / 5
			firstInGroup = group == 3 || group != (offset+1)/5
		}
		if firstInGroup {
			g := groups[group]
			fmt.Fprintf(&line, " [ %d %d %d ] ", (g>>2)&1, (g>>1)&1, g&1)
			if !groupsValid {
				line.WriteString(" Inverted access bits did not match! ")
			}
		}
		if group != 3 && (groups[group] == 1 || groups[group] == 6) {
			if value, valueAddr, ok := frame.DecodeValueBlock(data); ok {
				fmt.Fprintf(&line, " Value=%d Adr=0x%X", value, valueAddr)
			} else {
				line.WriteString(" Value=(malformed)")
			}
		}
		line.WriteString("\n")
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// DumpUltralight writes the first 16 pages of a MIFARE Ultralight to w.
func (d *Device) DumpUltralight(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Page  0  1  2  3"); err != nil {
		return err
	}
	for page := 0; page < 16; page += 4 {
		data, status, err := d.Read(byte(page))
		if err != nil {
			return err
		}
		if status != StatusOK {
			_, err := fmt.Fprintf(w, "MIFARE_Read() failed: %s\n", status)
			return err
		}
		var b strings.Builder
		for offset := 0; offset < 4; offset++ {
			fmt.Fprintf(&b, "%3d  ", page+offset)
			for _, v := range data[4*offset : 4*offset+4] {
				fmt.Fprintf(&b, " %02X", v)
			}
			b.WriteString("\n")
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
