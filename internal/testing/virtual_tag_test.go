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
	"testing"

	"github.com/ZaparooProject/go-mfrc522/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selectCard walks a card through REQA and the select of every level.
func selectCard(t *testing.T, card *VirtualCard) {
	t.Helper()
	require.NotNil(t, card.receive([]byte{CmdREQA}, 7))
	for level := range card.levels() {
		sel := []byte{CmdSelectCL1, CmdSelectCL2, CmdSelectCL3}[level]
		cmd := frame.AppendCRCA(append([]byte{sel, 0x70}, card.levelData(level)...))
		require.NotNil(t, card.receive(cmd, 0), "level %d", level)
	}
	require.Equal(t, StateActive, card.State())
}

func send(card *VirtualCard, data ...byte) *reply {
	return card.receive(frame.AppendCRCA(append([]byte(nil), data...)), 0)
}

func TestVirtualCard_StateMachine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		steps []func(card *VirtualCard) *reply
		want  CardState
		reply bool
	}{
		{
			name:  "REQA_From_Idle",
			steps: []func(*VirtualCard) *reply{reqa},
			want:  StateReady,
			reply: true,
		},
		{
			name:  "REQA_In_Ready_Falls_Back",
			steps: []func(*VirtualCard) *reply{reqa, reqa},
			want:  StateIdle,
		},
		{
			name:  "REQA_Ignored_When_Halted",
			steps: []func(*VirtualCard) *reply{reqa, selectAll, hlta, reqa},
			want:  StateHalt,
		},
		{
			name:  "WUPA_Wakes_Halted",
			steps: []func(*VirtualCard) *reply{reqa, selectAll, hlta, wupa},
			want:  StateReady,
			reply: true,
		},
		{
			name:  "Halted_Card_Falls_Back_To_Halt",
			steps: []func(*VirtualCard) *reply{reqa, selectAll, hlta, wupa, wupa},
			want:  StateHalt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card := NewVirtualMIFARE1K(nil)
			var last *reply
			for _, step := range tt.steps {
				last = step(card)
			}
			assert.Equal(t, tt.want, card.State())
			assert.Equal(t, tt.reply, last != nil)
		})
	}
}

func reqa(card *VirtualCard) *reply { return card.receive([]byte{CmdREQA}, 7) }
func wupa(card *VirtualCard) *reply { return card.receive([]byte{CmdWUPA}, 7) }
func hlta(card *VirtualCard) *reply { return send(card, CmdHLTA, 0x00) }

func selectAll(card *VirtualCard) *reply {
	cmd := frame.AppendCRCA(append([]byte{CmdSelectCL1, 0x70}, card.levelData(0)...))
	return card.receive(cmd, 0)
}

func TestVirtualCard_LevelData(t *testing.T) {
	t.Parallel()

	card := NewVirtualMIFARE1K(TestTripleUID)
	require.Equal(t, 3, card.levels())
	assert.Equal(t, []byte{frame.CascadeTag, 0x08, 0x11, 0x22}, card.levelData(0)[:4])
	assert.Equal(t, []byte{frame.CascadeTag, 0x33, 0x44, 0x55}, card.levelData(1)[:4])
	assert.Equal(t, []byte{0x66, 0x77, 0x99, 0xAA}, card.levelData(2)[:4])

	for level := range 3 {
		data := card.levelData(level)
		assert.Equal(t, frame.BCC(data[:4]), data[4])
	}
}

func TestVirtualCard_Authenticate(t *testing.T) {
	t.Parallel()

	card := NewVirtualMIFARE1K(nil)
	selectCard(t, card)

	assert.True(t, card.authenticate(CmdAuthKeyA, 4, DefaultKey, card.UID[:4]))
	assert.True(t, card.Authenticated())

	// Read inside and outside the sector
	r := send(card, CmdRead, 5)
	require.NotNil(t, r)
	assert.Len(t, r.bits, 18*8)
	r = send(card, CmdRead, 8)
	require.NotNil(t, r)
	assert.Len(t, r.bits, 4)

	wrong := []byte{0, 1, 2, 3, 4, 5}
	assert.False(t, card.authenticate(CmdAuthKeyA, 4, wrong, card.UID[:4]))
	assert.False(t, card.Authenticated())
	assert.Equal(t, StateIdle, card.State())
}

func TestVirtualCard_WriteAndValue(t *testing.T) {
	t.Parallel()

	card := NewVirtualMIFARE1K(nil)
	selectCard(t, card)
	require.True(t, card.authenticate(CmdAuthKeyA, 4, DefaultKey, card.UID[:4]))

	block := make([]byte, 16)
	frame.EncodeValueBlock(block, 10, 4)
	require.NotNil(t, send(card, CmdWrite, 4))
	require.NotNil(t, send(card, block...))

	require.NotNil(t, send(card, CmdIncrement, 4))
	assert.Nil(t, send(card, 5, 0, 0, 0), "the operand is not acknowledged")
	require.NotNil(t, send(card, CmdTransfer, 4))

	value, ok := card.valueOf(4)
	require.True(t, ok)
	assert.Equal(t, int32(15), value)
}

func TestVirtualCard_CorruptedFrame(t *testing.T) {
	t.Parallel()

	card := NewVirtualMIFARE1K(nil)
	selectCard(t, card)

	r := card.receive([]byte{CmdRead, 4, 0x00, 0x00}, 0)
	require.NotNil(t, r)
	assert.Equal(t, bitsOf([]byte{NAKParity}, 0, 4), r.bits)
}

func TestVirtualCard_Backdoor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		magic     bool
		wantReply bool
	}{
		{name: "Magic", magic: true, wantReply: true},
		{name: "Genuine", magic: false, wantReply: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card := NewVirtualMIFARE1K(nil)
			card.Magic = tt.magic
			selectCard(t, card)
			assert.Nil(t, hlta(card))

			first := card.receive([]byte{CmdBackdoorOne}, 7)
			assert.Equal(t, tt.wantReply, first != nil)
			if !tt.wantReply {
				return
			}
			require.NotNil(t, card.receive([]byte{CmdBackdoorTwo}, 0))

			newBlock := make([]byte, 16)
			copy(newBlock, []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xAA ^ 0xBB ^ 0xCC ^ 0xDD})
			require.NotNil(t, send(card, CmdWrite, 0))
			require.NotNil(t, send(card, newBlock...))
			assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, card.UID)
			assert.Equal(t, "aabbccdd", card.GetUIDString())
		})
	}
}

func TestVirtualCard_RemoveInsert(t *testing.T) {
	t.Parallel()

	card := NewVirtualUltralight(nil)
	selectCard(t, card)

	card.Remove()
	assert.Nil(t, reqa(card))
	_, err := card.ReadBlock(0)
	require.Error(t, err)

	card.Insert()
	assert.NotNil(t, reqa(card))
	assert.Equal(t, StateReady, card.State())
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a := byteReply(0x0F)
	b := byteReply(0x0B)
	bits, at := merge([]*reply{a, b})
	assert.Equal(t, 2, at)
	assert.Equal(t, []byte{1, 1, 1, 0, 0, 0, 0, 0}, bits)

	bits, at = merge([]*reply{a, byteReply(0x0F)})
	assert.Equal(t, -1, at)
	assert.Equal(t, a.bits, bits)
}
