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
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
)

// Card types of the virtual cards.
const (
	TypeMIFAREMini = "MIFAREMINI"
	TypeMIFARE1K   = "MIFARE1K"
	TypeMIFARE4K   = "MIFARE4K"
	TypeUltralight = "ULTRALIGHT"
)

// CardState is the ISO/IEC 14443-3 state of a virtual card.
type CardState int

// Card states.
const (
	StateIdle CardState = iota
	StateReady
	StateActive
	StateHalt
)

func (s CardState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateActive:
		return "ACTIVE"
	case StateHalt:
		return "HALT"
	default:
		return fmt.Sprintf("CardState(%d)", int(s))
	}
}

var errNotPresent = errors.New("card not present")

// VirtualCard represents a simulated ISO/IEC 14443-A card answering the frames
// of a simulated reader chip.
type VirtualCard struct {
	Type   string
	UID    []byte
	Memory []byte // flat: 16 byte blocks for Classic, 4 byte pages for Ultralight
	ATQA   [2]byte
	SAK    byte

	Present bool
	// Magic makes the card answer the Chinese "UID changeable" backdoor.
	Magic bool
	// AckHalt makes the card acknowledge HLTA, which a conforming card never does.
	AckHalt bool

	state      CardState
	wasHalted  bool
	level      int
	authSector int
	backdoor   int
	pending    byte
	pendingArg byte
	value      int32
}

// NewVirtualMIFARE1K creates a virtual MIFARE Classic 1K card with blank
// sectors and transport keys.
func NewVirtualMIFARE1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMIFARE1KUID
	}
	return newClassic(TypeMIFARE1K, uid, 64, 0x08)
}

// NewVirtualMIFARE4K creates a virtual MIFARE Classic 4K card.
func NewVirtualMIFARE4K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMIFARE4KUID
	}
	card := newClassic(TypeMIFARE4K, uid, 256, 0x18)
	card.ATQA = [2]byte{0x02, 0x00}
	return card
}

// NewVirtualMIFAREMini creates a virtual MIFARE Mini card.
func NewVirtualMIFAREMini(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestMIFAREMiniUID
	}
	return newClassic(TypeMIFAREMini, uid, 20, 0x09)
}

// NewVirtualUltralight creates a virtual MIFARE Ultralight with 16 pages.
func NewVirtualUltralight(uid []byte) *VirtualCard {
	if uid == nil {
		uid = TestUltralightUID
	}
	card := &VirtualCard{
		Type:       TypeUltralight,
		UID:        append([]byte(nil), uid...),
		Memory:     make([]byte, 16*4),
		ATQA:       [2]byte{0x44, 0x00},
		SAK:        0x00,
		Present:    true,
		authSector: -1,
	}
	copy(card.Memory, uid[:3])
	card.Memory[3] = frame.CascadeTag ^ uid[0] ^ uid[1] ^ uid[2]
	if len(uid) >= 7 {
		copy(card.Memory[4:8], uid[3:7])
		card.Memory[8] = frame.BCC(uid[3:7])
	}
	return card
}

func newClassic(cardType string, uid []byte, blocks int, sak byte) *VirtualCard {
	card := &VirtualCard{
		Type:       cardType,
		UID:        append([]byte(nil), uid...),
		Memory:     make([]byte, blocks*16),
		ATQA:       [2]byte{0x04, 0x00},
		SAK:        sak,
		Present:    true,
		authSector: -1,
	}
	if len(uid) != 4 {
		card.ATQA = [2]byte{0x44, 0x00}
	}

	// Block 0: UID, BCC, SAK, ATQA and manufacturer data
	copy(card.Memory, uid)
	if len(uid) == 4 {
		card.Memory[4] = frame.BCC(uid)
	}
	card.Memory[5] = sak
	card.Memory[6] = card.ATQA[1]
	card.Memory[7] = card.ATQA[0]

	for block := 0; block < blocks; block++ {
		if isTrailer(block) {
			copy(card.Memory[block*16:], []byte{
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
				0xFF, 0x07, 0x80, 0x69, // Access bits
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
			})
		}
	}
	return card
}

// GetUIDString returns the UID as a hex string
func (v *VirtualCard) GetUIDString() string {
	return hex.EncodeToString(v.UID)
}

// State returns the protocol state of the card.
func (v *VirtualCard) State() CardState {
	return v.state
}

// Authenticated reports whether a Crypto1 session is open on the card.
func (v *VirtualCard) Authenticated() bool {
	return v.authSector >= 0
}

// ReadBlock returns a copy of a 16 byte block (Classic) or of four pages
// starting at the given page (Ultralight).
func (v *VirtualCard) ReadBlock(block int) ([]byte, error) {
	if !v.Present {
		return nil, errNotPresent
	}
	offset, ok := v.offset(block)
	if !ok {
		return nil, fmt.Errorf("block %d out of range", block)
	}
	data := make([]byte, 16)
	for i := range data {
		data[i] = v.Memory[(offset+i)%len(v.Memory)]
	}
	return data, nil
}

// WriteBlock stores data directly into card memory, bypassing the protocol.
func (v *VirtualCard) WriteBlock(block int, data []byte) error {
	offset, ok := v.offset(block)
	if !ok {
		return fmt.Errorf("block %d out of range", block)
	}
	if len(data) != v.unit() {
		return fmt.Errorf("data must be exactly %d bytes, got %d", v.unit(), len(data))
	}
	copy(v.Memory[offset:], data)
	return nil
}

// Remove takes the card out of the field. It loses all protocol state.
func (v *VirtualCard) Remove() {
	v.Present = false
	v.reset(StateIdle)
}

// Insert puts the card back into the field.
func (v *VirtualCard) Insert() {
	v.Present = true
	v.reset(StateIdle)
}

func (v *VirtualCard) reset(state CardState) {
	v.state = state
	v.level = 0
	v.authSector = -1
	v.backdoor = 0
	v.pending = 0
}

func (v *VirtualCard) classic() bool {
	return v.Type != TypeUltralight
}

func (v *VirtualCard) unit() int {
	if v.classic() {
		return 16
	}
	return 4
}

func (v *VirtualCard) offset(block int) (int, bool) {
	offset := block * v.unit()
	if block < 0 || offset >= len(v.Memory) {
		return 0, false
	}
	return offset, true
}

func isTrailer(block int) bool {
	if block < 128 {
		return block%4 == 3
	}
	return (block-128)%16 == 15
}

func sectorOf(block int) int {
	if block < 128 {
		return block / 4
	}
	return 32 + (block-128)/16
}

func trailerOf(sector int) int {
	if sector < 32 {
		return sector*4 + 3
	}
	return 128 + (sector-32)*16 + 15
}

// levelData returns the five bytes a card sends during anticollision of the
// given cascade level: four UID (or cascade tag plus three UID) bytes and BCC.
func (v *VirtualCard) levelData(level int) []byte {
	var part []byte
	switch {
	case len(v.UID) == 4:
		part = v.UID
	case len(v.UID) == 7 && level == 0:
		part = []byte{frame.CascadeTag, v.UID[0], v.UID[1], v.UID[2]}
	case len(v.UID) == 7:
		part = v.UID[3:7]
	case level < 2:
		part = []byte{frame.CascadeTag, v.UID[3*level], v.UID[3*level+1], v.UID[3*level+2]}
	default:
		part = v.UID[6:10]
	}
	return append(append([]byte(nil), part...), frame.BCC(part))
}

func (v *VirtualCard) levels() int {
	switch len(v.UID) {
	case 7:
		return 2
	case 10:
		return 3
	default:
		return 1
	}
}

// receive handles one frame from the reader and returns the card's answer,
// or nil when the card stays silent.
func (v *VirtualCard) receive(data []byte, lastBits int) *reply {
	if !v.Present || len(data) == 0 {
		return nil
	}

	if len(data) == 1 && lastBits == 7 {
		switch data[0] {
		case CmdREQA:
			return v.request(false)
		case CmdWUPA:
			return v.request(true)
		case CmdBackdoorOne:
			if v.Magic && (v.state == StateHalt || v.state == StateIdle) {
				v.backdoor = 1
				return nibbleReply(ACK)
			}
		}
		return nil
	}

	if len(data) == 1 && data[0] == CmdBackdoorTwo && v.backdoor == 1 {
		v.reset(StateActive)
		v.backdoor = 2
		return nibbleReply(ACK)
	}

	switch v.state {
	case StateReady:
		return v.anticollision(data)
	case StateActive:
		return v.command(data)
	}
	return nil
}

func (v *VirtualCard) request(wakeup bool) *reply {
	switch v.state {
	case StateIdle:
		v.wasHalted = false
	case StateHalt:
		if !wakeup {
			return nil
		}
		v.wasHalted = true
	default:
		// Unexpected in READY and ACTIVE: fall back without answering.
		v.fallBack()
		return nil
	}
	v.reset(StateReady)
	return byteReply(v.ATQA[0], v.ATQA[1])
}

func (v *VirtualCard) fallBack() {
	if v.wasHalted {
		v.reset(StateHalt)
		return
	}
	v.reset(StateIdle)
}

func (v *VirtualCard) anticollision(data []byte) *reply {
	sel := []byte{CmdSelectCL1, CmdSelectCL2, CmdSelectCL3}[v.level]
	if data[0] != sel || len(data) < 2 {
		v.fallBack()
		return nil
	}
	level := v.levelData(v.level)

	if data[1] == 0x70 {
		if len(data) != 9 || !frame.CheckCRCA(data) {
			return nil
		}
		for i := range level {
			if data[2+i] != level[i] {
				return nil
			}
		}
		if v.level+1 < v.levels() {
			v.level++
			return crcReply(0x04)
		}
		v.state = StateActive
		return crcReply(v.SAK)
	}

	known := (int(data[1]>>4)-2)*8 + int(data[1]&0x0F)
	if known < 0 || known >= 32 || len(data[2:])*8 < known {
		return nil
	}
	sent := bitsOf(data[2:], 0, known)
	mine := bitsOf(level, 0, known)
	for i := range sent {
		if sent[i] != mine[i] {
			return nil
		}
	}
	return &reply{bits: bitsOf(level, known, 40), offset: known}
}

func (v *VirtualCard) command(data []byte) *reply {
	if !frame.CheckCRCA(data) {
		v.pending = 0
		return nibbleReply(NAKParity)
	}
	payload := data[:len(data)-2]
	if len(payload) == 0 {
		return nil
	}

	if v.pending != 0 {
		cmd, arg := v.pending, v.pendingArg
		v.pending = 0
		return v.secondPhase(cmd, arg, payload)
	}

	switch payload[0] {
	case CmdHLTA:
		if len(payload) != 2 || payload[1] != 0x00 {
			return nil
		}
		v.reset(StateHalt)
		if v.AckHalt {
			return nibbleReply(ACK)
		}
		return nil
	case CmdRead:
		if len(payload) != 2 || !v.allowed(int(payload[1])) {
			return nibbleReply(NAKInvalid)
		}
		block, err := v.ReadBlock(int(payload[1]))
		if err != nil {
			return nibbleReply(NAKInvalid)
		}
		return crcReply(block...)
	case CmdWrite:
		if len(payload) != 2 || !v.allowed(int(payload[1])) {
			return nibbleReply(NAKInvalid)
		}
		if payload[1] == 0 && v.backdoor != 2 {
			return nibbleReply(NAKInvalid)
		}
		v.pending, v.pendingArg = CmdWrite, payload[1]
		return nibbleReply(ACK)
	case CmdULWrite:
		if v.classic() || len(payload) != 6 || payload[1] < 4 {
			return nibbleReply(NAKInvalid)
		}
		if err := v.WriteBlock(int(payload[1]), payload[2:6]); err != nil {
			return nibbleReply(NAKInvalid)
		}
		return nibbleReply(ACK)
	case CmdIncrement, CmdDecrement, CmdRestore:
		if len(payload) != 2 || !v.classic() || !v.allowed(int(payload[1])) {
			return nibbleReply(NAKInvalid)
		}
		value, ok := v.valueOf(int(payload[1]))
		if !ok {
			return nibbleReply(NAKInvalid)
		}
		v.value = value
		v.pending, v.pendingArg = payload[0], payload[1]
		return nibbleReply(ACK)
	case CmdTransfer:
		if len(payload) != 2 || !v.classic() || !v.allowed(int(payload[1])) {
			return nibbleReply(NAKInvalid)
		}
		block := make([]byte, 16)
		frame.EncodeValueBlock(block, v.value, payload[1])
		if err := v.WriteBlock(int(payload[1]), block); err != nil {
			return nibbleReply(NAKInvalid)
		}
		return nibbleReply(ACK)
	}

	v.fallBack()
	return nibbleReply(NAKInvalid)
}

func (v *VirtualCard) secondPhase(cmd, arg byte, payload []byte) *reply {
	switch cmd {
	case CmdWrite:
		if len(payload) != 16 || v.WriteBlock(int(arg), payload) != nil {
			return nibbleReply(NAKInvalid)
		}
		if arg == 0 && v.Magic && len(v.UID) == 4 {
			v.UID = append([]byte(nil), payload[:4]...)
		}
		return nibbleReply(ACK)
	case CmdIncrement, CmdDecrement, CmdRestore:
		if len(payload) != 4 {
			return nibbleReply(NAKInvalid)
		}
		delta := int32(binary.LittleEndian.Uint32(payload))
		switch cmd {
		case CmdIncrement:
			v.value += delta
		case CmdDecrement:
			v.value -= delta
		}
		// Value operations are not acknowledged.
		return nil
	}
	return nibbleReply(NAKInvalid)
}

// allowed reports whether the block may be accessed in the current session.
func (v *VirtualCard) allowed(block int) bool {
	if _, ok := v.offset(block); !ok {
		return false
	}
	if !v.classic() || v.backdoor == 2 {
		return true
	}
	return v.authSector == sectorOf(block)
}

// authenticate runs the (opaque) three pass authentication for the sector of
// block. A failed attempt drops the card back to IDLE.
func (v *VirtualCard) authenticate(keyType, block byte, key, uid []byte) bool {
	if !v.Present || v.state != StateActive || !v.classic() {
		return false
	}
	if _, ok := v.offset(int(block)); !ok || len(v.UID) < 4 {
		v.fallBack()
		return false
	}
	sector := sectorOf(int(block))
	trailer := v.Memory[trailerOf(sector)*16:]
	want := trailer[0:6]
	if keyType == CmdAuthKeyB {
		want = trailer[10:16]
	}
	for i := range 6 {
		if key[i] != want[i] {
			v.fallBack()
			return false
		}
	}
	for i := range 4 {
		if uid[i] != v.UID[i] {
			v.fallBack()
			return false
		}
	}
	v.authSector = sector
	return true
}

func (v *VirtualCard) dropAuth() {
	v.authSector = -1
}

func (v *VirtualCard) valueOf(block int) (int32, bool) {
	data, err := v.ReadBlock(block)
	if err != nil {
		return 0, false
	}
	value, _, ok := frame.DecodeValueBlock(data)
	return value, ok
}
