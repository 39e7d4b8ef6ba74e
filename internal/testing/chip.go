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

import (
	"errors"
	"sync"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// Registers of the simulated chip.
const (
	regCommand    = 0x01
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regError      = 0x06
	regStatus2    = 0x08
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regColl       = 0x0E
	regCRCResultH = 0x21
	regCRCResultL = 0x22
	regAutoTest   = 0x36
	regVersion    = 0x37
)

// Chip commands.
const (
	cmdIdle       = 0x00
	cmdMem        = 0x01
	cmdCalcCRC    = 0x03
	cmdTransceive = 0x0C
	cmdMFAuthent  = 0x0E
	cmdSoftReset  = 0x0F
)

const (
	irqTimer = 0x01
	irqCRC   = 0x04
	irqIdle  = 0x10
	irqRx    = 0x20
	irqTx    = 0x40

	errCollision = 0x08
	errBufferOvf = 0x10

	powerDown     = 0x10
	crypto1On     = 0x08
	collPosNotVal = 0x20
	fifoSize      = 64
)

// ErrChipClosed is returned by register access after Close.
var ErrChipClosed = errors.New("simulated chip closed")

// resetValues holds the documented register reset values.
var resetValues = map[byte]byte{
	0x01: 0x20, 0x02: 0x80, 0x04: 0x14, 0x07: 0x21, 0x0B: 0x08, 0x0C: 0x10,
	0x0E: 0xA0, 0x11: 0x3F, 0x14: 0x80, 0x16: 0x10, 0x17: 0x84, 0x18: 0x84,
	0x19: 0x4D, 0x1C: 0x62, 0x1F: 0xEB, 0x21: 0xFF, 0x22: 0xFF, 0x24: 0x26,
	0x26: 0x48, 0x27: 0x88, 0x28: 0x20, 0x29: 0x20, 0x36: 0x40,
}

// Chip simulates the register file of an MFRC522 together with the RF field
// it drives. Cards placed in Cards answer the frames the chip transmits.
type Chip struct {
	Cards []*VirtualCard

	// Version is returned by VersionReg.
	Version byte
	// SelfTestResult is what the digital self test leaves in the FIFO.
	SelfTestResult []byte

	// StallComm keeps the chip from ever raising a ComIrqReg bit.
	StallComm bool
	// StallCRC keeps the CRC coprocessor from ever finishing.
	StallCRC bool
	// StuckPowerDown keeps CommandReg.PowerDown set.
	StuckPowerDown bool
	// CollPosInvalid reports collisions outside the valid data bits.
	CollPosInvalid bool
	// ErrorBits are ORed into ErrorReg after every transceive.
	ErrorBits byte

	// ReadErr and WriteErr are returned by register access when set.
	ReadErr  error
	WriteErr error

	frames []Frame
	fifo   []byte
	regs   [64]byte
	mu     sync.Mutex
	closed bool
}

// NewChip creates a simulated version 2.0 chip with the given cards in its
// field.
func NewChip(cards ...*VirtualCard) *Chip {
	c := &Chip{Cards: cards, Version: 0x92}
	c.reset()
	return c
}

func (c *Chip) reset() {
	c.regs = [64]byte{}
	for reg, value := range resetValues {
		c.regs[reg] = value
	}
	c.fifo = c.fifo[:0]
	if c.StuckPowerDown {
		c.regs[regCommand] |= powerDown
	}
	for _, card := range c.Cards {
		card.dropAuth()
	}
}

// WriteRegister writes values to reg, one after another.
func (c *Chip) WriteRegister(reg byte, values ...byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChipClosed
	}
	if c.WriteErr != nil {
		return c.WriteErr
	}
	for _, v := range values {
		c.write(reg&0x3F, v)
	}
	return nil
}

// ReadRegister reads reg n times.
func (c *Chip) ReadRegister(reg byte, n int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChipClosed
	}
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = c.read(reg & 0x3F)
	}
	return out, nil
}

// TransferDuplex decodes one SPI transaction in the chip's SPI address
// format, so the simulator can sit behind the SPI register transport.
func (c *Chip) TransferDuplex(tx []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrChipClosed
	}
	rx := make([]byte, len(tx))
	if len(tx) == 0 {
		return rx, nil
	}
	if tx[0]&0x80 == 0 {
		if c.WriteErr != nil {
			return nil, c.WriteErr
		}
		reg := (tx[0] >> 1) & 0x3F
		for _, v := range tx[1:] {
			c.write(reg, v)
		}
		return rx, nil
	}
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	for i := 1; i < len(tx); i++ {
		addr := tx[i-1]
		if addr&0x80 == 0 {
			break
		}
		rx[i] = c.read((addr >> 1) & 0x3F)
	}
	return rx, nil
}

// Register returns the raw content of reg without read side effects.
func (c *Chip) Register(reg byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reg&0x3F == regVersion {
		return c.Version
	}
	return c.regs[reg&0x3F]
}

// SetRegister overwrites the raw content of reg. Setting VersionReg
// changes the reported Version.
func (c *Chip) SetRegister(reg, value byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reg&0x3F == regVersion {
		c.Version = value
		return
	}
	c.regs[reg&0x3F] = value
}

// Frames returns the frames transmitted so far.
func (c *Chip) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

// ResetFrames clears the transmission log.
func (c *Chip) ResetFrames() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// Close marks the chip closed.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (c *Chip) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Chip) read(reg byte) byte {
	switch reg {
	case regFIFOData:
		if len(c.fifo) == 0 {
			return 0
		}
		v := c.fifo[0]
		c.fifo = c.fifo[1:]
		return v
	case regFIFOLevel:
		return byte(len(c.fifo))
	case regVersion:
		return c.Version
	default:
		return c.regs[reg]
	}
}

func (c *Chip) write(reg, value byte) {
	switch reg {
	case regCommand:
		c.command(value)
	case regComIrq, regDivIrq:
		if value&0x80 != 0 {
			c.regs[reg] |= value & 0x7F
		} else {
			c.regs[reg] &^= value & 0x7F
		}
	case regFIFOData:
		if len(c.fifo) >= fifoSize {
			c.regs[regError] |= errBufferOvf
			return
		}
		c.fifo = append(c.fifo, value)
	case regFIFOLevel:
		if value&0x80 != 0 {
			c.fifo = c.fifo[:0]
			c.regs[regError] &^= errBufferOvf
		}
	case regControl:
		c.regs[reg] = c.regs[reg]&0x07 | value&0x38
	case regBitFraming:
		c.regs[reg] = value
		if value&0x80 != 0 && c.regs[regCommand]&0x0F == cmdTransceive {
			c.transceive()
		}
	case regStatus2:
		c.regs[reg] = value
		if value&crypto1On == 0 {
			for _, card := range c.Cards {
				card.dropAuth()
			}
		}
	case regVersion:
	default:
		c.regs[reg] = value
	}
}

func (c *Chip) command(value byte) {
	pd := value & powerDown
	if c.StuckPowerDown && c.regs[regCommand]&powerDown != 0 {
		pd = powerDown
	}
	cmd := value & 0x0F
	c.regs[regCommand] = c.regs[regCommand]&0x20 | pd | cmd

	switch cmd {
	case cmdSoftReset:
		c.reset()
	case cmdMem:
		c.fifo = c.fifo[:0]
		c.regs[regCommand] &^= 0x0F
	case cmdCalcCRC:
		c.calcCRC()
	case cmdMFAuthent:
		c.authenticate()
		c.regs[regCommand] &^= 0x0F
	case cmdTransceive:
		if c.regs[regBitFraming]&0x80 != 0 {
			c.transceive()
		}
	}
}

func (c *Chip) calcCRC() {
	if c.regs[regAutoTest]&0x0F == 0x09 {
		result := c.SelfTestResult
		if result == nil {
			result = make([]byte, fifoSize)
		}
		c.fifo = append(c.fifo[:0], result...)
		return
	}
	if c.StallCRC {
		return
	}
	crc := frame.CRCA(c.fifo)
	c.fifo = c.fifo[:0]
	c.regs[regCRCResultL] = byte(crc)
	c.regs[regCRCResultH] = byte(crc >> 8)
	c.regs[regDivIrq] |= irqCRC
}

func (c *Chip) transceive() {
	lastBits := int(c.regs[regBitFraming] & 0x07)
	rxAlign := int(c.regs[regBitFraming]>>4) & 0x07
	data := append([]byte(nil), c.fifo...)
	c.fifo = c.fifo[:0]
	c.frames = append(c.frames, Frame{Data: data, LastBits: lastBits})

	c.regs[regError] = 0
	c.regs[regColl] = c.regs[regColl]&0x80 | collPosNotVal
	if c.StallComm {
		return
	}

	var replies []*reply
	for _, card := range c.Cards {
		if r := card.receive(data, lastBits); r != nil {
			replies = append(replies, r)
		}
	}
	c.regs[regError] |= c.ErrorBits
	if len(replies) == 0 {
		c.regs[regComIrq] |= irqTimer
		return
	}

	bits, at := merge(replies)
	if at >= 0 {
		c.regs[regError] |= errCollision
		if !c.CollPosInvalid {
			pos := (replies[0].offset + at + 1) & 0x1F
			c.regs[regColl] = c.regs[regColl]&0x80 | byte(pos)
		}
	}
	c.load(bits, rxAlign)
	c.regs[regComIrq] |= irqTx | irqRx | irqIdle
}

// load stores received bits in the FIFO, the first bit at position rxAlign
// of the first byte, and sets ControlReg.RxLastBits.
func (c *Chip) load(bits []byte, rxAlign int) {
	total := rxAlign + len(bits)
	buf := make([]byte, (total+7)/8)
	for i, b := range bits {
		p := rxAlign + i
		buf[p/8] |= b << (p % 8)
	}
	c.fifo = append(c.fifo[:0], buf...)
	c.regs[regControl] = c.regs[regControl]&^0x07 | byte(total%8)
}

func (c *Chip) authenticate() {
	data := append([]byte(nil), c.fifo...)
	c.fifo = c.fifo[:0]
	if c.StallComm {
		return
	}
	if len(data) == 12 {
		for _, card := range c.Cards {
			if card.authenticate(data[0], data[1], data[2:8], data[8:12]) {
				c.regs[regStatus2] |= crypto1On
				c.regs[regComIrq] |= irqIdle
				return
			}
		}
	}
	c.regs[regComIrq] |= irqTimer
}
