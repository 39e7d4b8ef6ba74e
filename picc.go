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

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"github.com/ZaparooProject/go-mfrc522/internal/poll"
)

// piccRequest is one exchange between the chip and the card.
type piccRequest struct {
	send []byte
	// back receives the answer; nil when the answer is not read.
	back       []byte
	command    byte
	waitIRq    byte
	txLastBits int
	rxAlign    int
	checkCRC   bool
}

// piccResponse describes what was read into piccRequest.back.
type piccResponse struct {
	n         int
	validBits int
}

// communicate loads the FIFO, runs command and waits for it to raise one of
// the waitIRq bits in ComIrqReg.
func (d *Device) communicate(req piccRequest) (piccResponse, Status, error) {
	var res piccResponse

	setup := []struct {
		reg    Register
		values []byte
	}{
		{CommandReg, []byte{PCDIdle}},
		{ComIrqReg, []byte{0x7F}},
		{FIFOLevelReg, []byte{fifoFlush}},
		{FIFODataReg, req.send},
		{BitFramingReg, []byte{byte(req.rxAlign<<4 | req.txLastBits)}},
		{CommandReg, []byte{req.command}},
	}
	for _, s := range setup {
		if err := d.writeReg(s.reg, s.values...); err != nil {
			return res, StatusError, fmt.Errorf("communicate: %w", err)
		}
	}
	if req.command == PCDTransceive {
		if err := d.setBits(BitFramingReg, startSend); err != nil {
			return res, StatusError, fmt.Errorf("communicate: %w", err)
		}
	}

	timedOut := false
	done, err := poll.Spin(d.config.commBudget(), func() (bool, error) {
		n, err := d.readReg(ComIrqReg)
		if err != nil {
			return false, err
		}
		if n&req.waitIRq != 0 {
			return true, nil
		}
		// The chip timer fired: nobody answered within 25ms.
		if n&irqTimer != 0 {
			timedOut = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return res, StatusError, fmt.Errorf("communicate: %w", err)
	}
	if !done || timedOut {
		return res, StatusTimeout, nil
	}

	errReg, err := d.readReg(ErrorReg)
	if err != nil {
		return res, StatusError, fmt.Errorf("communicate: %w", err)
	}
	if errReg&(errBufferOvfl|errParity|errProtocol) != 0 {
		debugf("communicate: ErrorReg 0x%02X", errReg)
		return res, StatusError, nil
	}

	if req.back != nil {
		level, err := d.readReg(FIFOLevelReg)
		if err != nil {
			return res, StatusError, fmt.Errorf("communicate: %w", err)
		}
		n := int(level & 0x7F)
		if n > len(req.back) {
			return res, StatusNoRoom, nil
		}
		if err := d.readFIFO(req.back[:n], req.rxAlign); err != nil {
			return res, StatusError, fmt.Errorf("communicate: %w", err)
		}
		control, err := d.readReg(ControlReg)
		if err != nil {
			return res, StatusError, fmt.Errorf("communicate: %w", err)
		}
		res.n = n
		res.validBits = int(control & 0x07)
	}

	if errReg&errCollision != 0 {
		return res, StatusCollision, nil
	}

	if req.back != nil && req.checkCRC {
		if res.n == 1 && res.validBits == 4 {
			return res, StatusMifareNACK, nil
		}
		if res.n < 2 || res.validBits != 0 {
			return res, StatusCRCWrong, nil
		}
		crc, status, err := d.CalculateCRC(req.back[:res.n-2])
		if err != nil || status != StatusOK {
			return res, status, err
		}
		if req.back[res.n-2] != crc[0] || req.back[res.n-1] != crc[1] {
			return res, StatusCRCWrong, nil
		}
	}
	return res, StatusOK, nil
}

// transceive sends send to the card and reads the answer into back.
func (d *Device) transceive(send, back []byte, txLastBits int, checkCRC bool) (piccResponse, Status, error) {
	return d.communicate(piccRequest{
		command:    PCDTransceive,
		waitIRq:    irqRx | irqIdle,
		send:       send,
		back:       back,
		txLastBits: txLastBits,
		checkCRC:   checkCRC,
	})
}

// RequestA sends REQA, which moves cards in IDLE to READY.
func (d *Device) RequestA() (ATQA, Status, error) {
	return d.requestOrWakeup(PICCCmdREQA)
}

// WakeupA sends WUPA, which moves cards in IDLE or HALT to READY.
func (d *Device) WakeupA() (ATQA, Status, error) {
	return d.requestOrWakeup(PICCCmdWUPA)
}

func (d *Device) requestOrWakeup(command byte) (ATQA, Status, error) {
	var atqa ATQA
	if err := d.clearBits(CollReg, valuesAfterCol); err != nil {
		return atqa, StatusError, err
	}
	// Short frame: seven bits.
	res, status, err := d.transceive([]byte{command}, atqa[:], 7, false)
	if err != nil || status != StatusOK {
		return atqa, status, err
	}
	if res.n != 2 || res.validBits != 0 {
		return atqa, StatusError, nil
	}
	return atqa, StatusOK, nil
}

// HaltA moves the selected card to HALT. A card acknowledges HLTA by not
// answering, so a timeout is success and any answer is StatusError.
func (d *Device) HaltA() (Status, error) {
	cmd := []byte{PICCCmdHLTA, 0x00}
	crc, status, err := d.CalculateCRC(cmd)
	if err != nil || status != StatusOK {
		return status, err
	}
	_, status, err = d.transceive(append(cmd, crc[:]...), nil, 0, false)
	if err != nil {
		return StatusError, err
	}
	switch status {
	case StatusTimeout:
		return StatusOK, nil
	case StatusOK:
		return StatusError, nil
	default:
		return status, nil
	}
}

// IsNewCardPresent reports whether a card in IDLE answers REQA. Cards in
// HALT are not found; use WakeupA for those.
func (d *Device) IsNewCardPresent() (bool, error) {
	for _, s := range []struct {
		reg   Register
		value byte
	}{
		{TxModeReg, 0x00},
		{RxModeReg, 0x00},
		{ModWidthReg, 0x26},
	} {
		if err := d.writeReg(s.reg, s.value); err != nil {
			return false, err
		}
	}

	_, status, err := d.RequestA()
	if err != nil {
		return false, err
	}
	return status == StatusOK || status == StatusCollision, nil
}

// ReadCardSerial selects one card in READY and records its UID. The
// recorded UID is cleared when selection fails.
func (d *Device) ReadCardSerial() (bool, error) {
	var uid UID
	status, err := d.Select(&uid, 0)
	if err != nil || status != StatusOK {
		d.uid = UID{}
		return false, err
	}
	d.uid = uid
	debugf("selected card %s, SAK 0x%02X", uid, uid.SAK)
	return true, nil
}

// UID returns the UID recorded by the last successful ReadCardSerial.
func (d *Device) UID() UID {
	return d.uid
}

// Select runs the ISO/IEC 14443-3 anticollision and select loop. validBits
// is the number of UID bits already known in uid (0 when nothing is known);
// uid.Size must be set when validBits is not zero. On success uid holds the
// full UID, its size and the final SAK.
func (d *Device) Select(uid *UID, validBits int) (Status, error) {
	if uid == nil || validBits < 0 || validBits > 80 {
		return StatusInvalid, nil
	}
	if err := d.clearBits(CollReg, valuesAfterCol); err != nil {
		return StatusError, err
	}

	// SEL, NVB, four UID bytes or CT plus three, BCC, CRC_A
	var buffer [9]byte
	level := 1
	for {
		var uidIndex int
		var useCascadeTag bool
		switch level {
		case 1:
			buffer[0] = PICCCmdSelCL1
			uidIndex = 0
			useCascadeTag = validBits > 0 && uid.Size > 4
		case 2:
			buffer[0] = PICCCmdSelCL2
			uidIndex = 3
			useCascadeTag = validBits > 0 && uid.Size > 7
		case 3:
			buffer[0] = PICCCmdSelCL3
			uidIndex = 6
		default:
			return StatusInternalError, nil
		}

		known := max(validBits-8*uidIndex, 0)
		index := 2
		if useCascadeTag {
			buffer[index] = PICCCmdCT
			index++
		}
		if n := (known + 7) / 8; n > 0 {
			maxBytes := 4
			if useCascadeTag {
				maxBytes = 3
			}
			n = min(n, maxBytes)
			copy(buffer[index:index+n], uid.Bytes[uidIndex:uidIndex+n])
		}
		if useCascadeTag {
			known += 8
		}

		res, status, err := d.anticollision(&buffer, known)
		if err != nil || status != StatusOK {
			return status, err
		}

		if buffer[2] == PICCCmdCT {
			copy(uid.Bytes[uidIndex:uidIndex+3], buffer[3:6])
		} else {
			copy(uid.Bytes[uidIndex:uidIndex+4], buffer[2:6])
		}

		sak := buffer[6:9]
		if res.n != 3 || res.validBits != 0 {
			return StatusError, nil
		}
		crc, status, err := d.CalculateCRC(sak[:1])
		if err != nil || status != StatusOK {
			return status, err
		}
		if sak[1] != crc[0] || sak[2] != crc[1] {
			return StatusCRCWrong, nil
		}

		if sak[0]&0x04 == 0 {
			uid.SAK = sak[0]
			break
		}
		level++
	}

	uid.Size = 3*level + 1
	return StatusOK, nil
}

// anticollision resolves the UID bytes of one cascade level and selects it.
// buffer holds the SEL byte and the known bits of the level; on success the
// level's UID bytes are in buffer[2:6] and the SAK with its CRC_A in
// buffer[6:9].
func (d *Device) anticollision(buffer *[9]byte, known int) (piccResponse, Status, error) {
	for {
		var (
			used       int
			txLastBits int
			back       []byte
		)
		if known >= 32 {
			buffer[1] = 0x70
			buffer[6] = frame.BCC(buffer[2:6])
			crc, status, err := d.CalculateCRC(buffer[:7])
			if err != nil || status != StatusOK {
				return piccResponse{}, status, err
			}
			buffer[7], buffer[8] = crc[0], crc[1]
			used = 9
			back = buffer[6:9]
		} else {
			txLastBits = known % 8
			index := 2 + known/8
			buffer[1] = byte(index<<4 + txLastBits)
			used = index
			if txLastBits != 0 {
				used++
			}
			back = buffer[index:]
		}

		// The answer continues at the first unknown bit.
		rxAlign := txLastBits
		res, status, err := d.communicate(piccRequest{
			command:    PCDTransceive,
			waitIRq:    irqRx | irqIdle,
			send:       append([]byte(nil), buffer[:used]...),
			back:       back,
			txLastBits: txLastBits,
			rxAlign:    rxAlign,
		})
		if err != nil {
			return res, StatusError, err
		}

		switch status {
		case StatusCollision:
			coll, err := d.readReg(CollReg)
			if err != nil {
				return res, StatusError, err
			}
			if coll&collPosInvalid != 0 {
				return res, StatusCollision, nil
			}
			pos := int(coll & 0x1F)
			if pos == 0 {
				pos = 32
			}
			if pos <= known {
				return res, StatusInternalError, nil
			}
			// Take the 1 branch at the collision and continue with
			// every bit up to it known.
			known = pos
			buffer[2+(known-1)/8] |= 1 << ((known - 1) % 8)
			debugf("anticollision: collision at bit %d", pos)
		case StatusOK:
			if known >= 32 {
				return res, StatusOK, nil
			}
			known = 32
		default:
			return res, status, nil
		}
	}
}
