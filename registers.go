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

// Register is an MFRC522 register address.
type Register = byte

// Page 0: command and status
const (
	CommandReg    Register = 0x01
	ComIEnReg     Register = 0x02
	DivIEnReg     Register = 0x03
	ComIrqReg     Register = 0x04
	DivIrqReg     Register = 0x05
	ErrorReg      Register = 0x06
	Status1Reg    Register = 0x07
	Status2Reg    Register = 0x08
	FIFODataReg   Register = 0x09
	FIFOLevelReg  Register = 0x0A
	WaterLevelReg Register = 0x0B
	ControlReg    Register = 0x0C
	BitFramingReg Register = 0x0D
	CollReg       Register = 0x0E
)

// Page 1: command
const (
	ModeReg        Register = 0x11
	TxModeReg      Register = 0x12
	RxModeReg      Register = 0x13
	TxControlReg   Register = 0x14
	TxASKReg       Register = 0x15
	TxSelReg       Register = 0x16
	RxSelReg       Register = 0x17
	RxThresholdReg Register = 0x18
	DemodReg       Register = 0x19
	MfTxReg        Register = 0x1C
	MfRxReg        Register = 0x1D
	SerialSpeedReg Register = 0x1F
)

// Page 2: configuration
const (
	CRCResultRegH   Register = 0x21
	CRCResultRegL   Register = 0x22
	ModWidthReg     Register = 0x24
	RFCfgReg        Register = 0x26
	GsNReg          Register = 0x27
	CWGsPReg        Register = 0x28
	ModGsPReg       Register = 0x29
	TModeReg        Register = 0x2A
	TPrescalerReg   Register = 0x2B
	TReloadRegH     Register = 0x2C
	TReloadRegL     Register = 0x2D
	TCounterValRegH Register = 0x2E
	TCounterValRegL Register = 0x2F
)

// Page 3: test registers
const (
	TestSel1Reg     Register = 0x31
	TestSel2Reg     Register = 0x32
	TestPinEnReg    Register = 0x33
	TestPinValueReg Register = 0x34
	TestBusReg      Register = 0x35
	AutoTestReg     Register = 0x36
	VersionReg      Register = 0x37
	AnalogTestReg   Register = 0x38
	TestDAC1Reg     Register = 0x39
	TestDAC2Reg     Register = 0x3A
	TestADCReg      Register = 0x3B
)

// PCD commands, written to CommandReg.
const (
	PCDIdle             byte = 0x00
	PCDMem              byte = 0x01
	PCDGenerateRandomID byte = 0x02
	PCDCalcCRC          byte = 0x03
	PCDTransmit         byte = 0x04
	PCDNoCmdChange      byte = 0x07
	PCDReceive          byte = 0x08
	PCDTransceive       byte = 0x0C
	PCDMFAuthent        byte = 0x0E
	PCDSoftReset        byte = 0x0F
)

// PICC commands
const (
	PICCCmdREQA    byte = 0x26
	PICCCmdWUPA    byte = 0x52
	PICCCmdCT      byte = 0x88
	PICCCmdSelCL1  byte = 0x93
	PICCCmdSelCL2  byte = 0x95
	PICCCmdSelCL3  byte = 0x97
	PICCCmdHLTA    byte = 0x50
	PICCCmdRATS    byte = 0xE0
	PICCCmdAuthA   byte = 0x60
	PICCCmdAuthB   byte = 0x61
	PICCCmdRead    byte = 0x30
	PICCCmdWrite   byte = 0xA0
	PICCCmdDec     byte = 0xC0
	PICCCmdInc     byte = 0xC1
	PICCCmdRestore byte = 0xC2
	PICCCmdXfer    byte = 0xB0
	PICCCmdULWrite byte = 0xA2
)

// MifareACK is the acknowledge nibble of a MIFARE card.
const MifareACK byte = 0x0A

// Register bits
const (
	cmdPowerDown   = 0x10 // CommandReg
	irqTimer       = 0x01 // ComIrqReg
	irqIdle        = 0x10
	irqRx          = 0x20
	irqCRC         = 0x04 // DivIrqReg
	errProtocol    = 0x01 // ErrorReg
	errParity      = 0x02
	errCollision   = 0x08
	errBufferOvfl  = 0x10
	fifoFlush      = 0x80 // FIFOLevelReg
	startSend      = 0x80 // BitFramingReg
	valuesAfterCol = 0x80 // CollReg
	collPosInvalid = 0x20
	mfCrypto1On    = 0x08 // Status2Reg
	txAntenna      = 0x03 // TxControlReg: Tx1RFEn | Tx2RFEn
	rxGainMask     = 0x07 << 4
	selfTestEnable = 0x09 // AutoTestReg
)

// RxGain is the receiver gain field of RFCfgReg.
type RxGain byte

// Receiver gains
const (
	RxGain18dB  RxGain = 0x00 << 4
	RxGain23dB  RxGain = 0x01 << 4
	RxGain18dB2 RxGain = 0x02 << 4
	RxGain23dB2 RxGain = 0x03 << 4
	RxGain33dB  RxGain = 0x04 << 4
	RxGain38dB  RxGain = 0x05 << 4
	RxGain43dB  RxGain = 0x06 << 4
	RxGain48dB  RxGain = 0x07 << 4
	RxGainMin   RxGain = RxGain18dB
	RxGainAvg   RxGain = RxGain33dB
	RxGainMax   RxGain = RxGain48dB
)

// ParseRxGain maps a gain in dB to its register value.
func ParseRxGain(db int) (RxGain, bool) {
	switch db {
	case 18:
		return RxGain18dB, true
	case 23:
		return RxGain23dB, true
	case 33:
		return RxGain33dB, true
	case 38:
		return RxGain38dB, true
	case 43:
		return RxGain43dB, true
	case 48:
		return RxGain48dB, true
	default:
		return 0, false
	}
}

// DB returns the gain in dB.
func (g RxGain) DB() int {
	return []int{18, 23, 18, 23, 33, 38, 43, 48}[(g>>4)&0x07]
}
