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
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/poll"
	"github.com/ZaparooProject/go-mfrc522/pins"
)

// Init brings the chip from power down or an unknown state into a ready
// state: reset, 25ms PICC timeout, 100% ASK, CRC preset 0x6363, antenna on.
func (d *Device) Init() error {
	hard, err := d.hardReset()
	if err != nil {
		return err
	}
	if !hard {
		if err := d.Reset(); err != nil {
			return err
		}
	}

	steps := []struct {
		reg   Register
		value byte
	}{
		// 106 kBd in both directions
		{TxModeReg, 0x00},
		{RxModeReg, 0x00},
		{ModWidthReg, 0x26},
		// Timer starts after every transmission: f_timer = 13.56MHz/(2*0xA9+1)
		// = 40kHz, 25µs per tick, reload 1000 ticks = 25ms.
		{TModeReg, 0x80},
		{TPrescalerReg, 0xA9},
		{TReloadRegH, 0x03},
		{TReloadRegL, 0xE8},
		{TxASKReg, 0x40},
		{ModeReg, 0x3D},
	}
	for _, s := range steps {
		if err := d.writeReg(s.reg, s.value); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	if err := d.AntennaOn(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	debugf("initialized (hard reset: %v)", hard)
	return nil
}

// hardReset pulses the reset line when it is held low, which means the chip
// is in hard power down. It reports whether the pulse was given.
func (d *Device) hardReset() (bool, error) {
	if d.pins == nil || d.resetPin == NoResetPin {
		return false, nil
	}
	if err := d.pins.Claim(d.resetPin, pins.In); err != nil {
		return false, fmt.Errorf("claim reset pin: %w", err)
	}
	level, err := d.pins.Read(d.resetPin)
	if err != nil {
		return false, fmt.Errorf("read reset pin: %w", err)
	}
	if level == pins.High {
		return false, nil
	}

	if err := d.pins.Release(d.resetPin); err != nil {
		return false, fmt.Errorf("release reset pin: %w", err)
	}
	if err := d.pins.Claim(d.resetPin, pins.Out); err != nil {
		return false, fmt.Errorf("claim reset pin: %w", err)
	}
	if err := d.pins.Write(d.resetPin, pins.Low); err != nil {
		return false, fmt.Errorf("reset pulse: %w", err)
	}
	time.Sleep(2 * time.Microsecond)
	if err := d.pins.Write(d.resetPin, pins.High); err != nil {
		return false, fmt.Errorf("reset pulse: %w", err)
	}
	debugf("hard reset on gpio%d, settling %v", d.resetPin, d.config.ResetSettle)
	time.Sleep(d.config.ResetSettle)
	return true, nil
}

// Reset issues a soft reset and waits for the oscillator to restart.
func (d *Device) Reset() error {
	if err := d.writeReg(CommandReg, PCDSoftReset); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	done, err := poll.Every(d.config.ResetPollInterval, d.config.ResetPollAttempts, d.poweredUp)
	if err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	if !done {
		return ErrResetTimeout
	}
	return nil
}

func (d *Device) poweredUp() (bool, error) {
	v, err := d.readReg(CommandReg)
	if err != nil {
		return false, err
	}
	return v&cmdPowerDown == 0, nil
}

// AntennaOn turns the antenna drivers on. The register is only written when
// a driver is off.
func (d *Device) AntennaOn() error {
	v, err := d.readReg(TxControlReg)
	if err != nil {
		return err
	}
	if v&txAntenna != txAntenna {
		return d.writeReg(TxControlReg, v|txAntenna)
	}
	return nil
}

// AntennaOff turns the antenna drivers off.
func (d *Device) AntennaOff() error {
	return d.clearBits(TxControlReg, txAntenna)
}

// AntennaGain returns the receiver gain.
func (d *Device) AntennaGain() (RxGain, error) {
	v, err := d.readReg(RFCfgReg)
	if err != nil {
		return 0, err
	}
	return RxGain(v & rxGainMask), nil
}

// SetAntennaGain sets the receiver gain. Nothing is written when the gain
// is already set.
func (d *Device) SetAntennaGain(gain RxGain) error {
	current, err := d.AntennaGain()
	if err != nil {
		return err
	}
	if current == gain&rxGainMask {
		return nil
	}
	if err := d.clearBits(RFCfgReg, rxGainMask); err != nil {
		return err
	}
	return d.setBits(RFCfgReg, byte(gain)&rxGainMask)
}

// CalculateCRC computes the CRC_A of data on the chip's coprocessor. The
// result is in transmission order, low byte first.
func (d *Device) CalculateCRC(data []byte) ([2]byte, Status, error) {
	var result [2]byte
	setup := []struct {
		reg    Register
		values []byte
	}{
		{CommandReg, []byte{PCDIdle}},
		{DivIrqReg, []byte{irqCRC}},
		{FIFOLevelReg, []byte{fifoFlush}},
		{FIFODataReg, data},
		{CommandReg, []byte{PCDCalcCRC}},
	}
	for _, s := range setup {
		if err := d.writeReg(s.reg, s.values...); err != nil {
			return result, StatusError, fmt.Errorf("calculate crc: %w", err)
		}
	}

	done, err := poll.Spin(d.config.crcBudget(), func() (bool, error) {
		n, err := d.readReg(DivIrqReg)
		return n&irqCRC != 0, err
	})
	if err != nil {
		return result, StatusError, fmt.Errorf("calculate crc: %w", err)
	}
	if !done {
		debugln("crc coprocessor timed out")
		return result, StatusTimeout, nil
	}

	if err := d.writeReg(CommandReg, PCDIdle); err != nil {
		return result, StatusError, fmt.Errorf("calculate crc: %w", err)
	}
	if result[0], err = d.readReg(CRCResultRegL); err != nil {
		return result, StatusError, fmt.Errorf("calculate crc: %w", err)
	}
	if result[1], err = d.readReg(CRCResultRegH); err != nil {
		return result, StatusError, fmt.Errorf("calculate crc: %w", err)
	}
	return result, StatusOK, nil
}

// Version returns the content of VersionReg.
func (d *Device) Version() (byte, error) {
	return d.readReg(VersionReg)
}

// ChipName names a VersionReg value.
func ChipName(version byte) string {
	switch version {
	case 0x88:
		return "FM17522 (clone)"
	case 0x89:
		return "FM17522E (clone)"
	case 0xB2:
		return "FM17522_1 (clone)"
	case 0x90:
		return "v0.0"
	case 0x91:
		return "v1.0"
	case 0x92:
		return "v2.0"
	case 0x12:
		return "counterfeit chip"
	default:
		return "(unknown)"
	}
}

// Connected reads VersionReg and reports ErrCommunicationFailed when the
// bus only returns 0x00 or 0xFF.
func (d *Device) Connected() (byte, error) {
	v, err := d.Version()
	if err != nil {
		return 0, err
	}
	if v == 0x00 || v == 0xFF {
		return v, ErrCommunicationFailed
	}
	return v, nil
}

// SoftPowerDown sets CommandReg.PowerDown. The FIFO and the registers keep
// their content; only the analog parts and the oscillator stop.
func (d *Device) SoftPowerDown() error {
	return d.setBits(CommandReg, cmdPowerDown)
}

// SoftPowerUp clears CommandReg.PowerDown and waits for the chip to report
// it has woken up.
func (d *Device) SoftPowerUp() error {
	if err := d.clearBits(CommandReg, cmdPowerDown); err != nil {
		return err
	}
	done, err := poll.Deadline(d.config.PowerUpTimeout, time.Millisecond, d.poweredUp)
	if err != nil {
		return err
	}
	if !done {
		return ErrPowerUpTimeout
	}
	return nil
}
