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
	"bytes"
	"math"
	"strings"
	"testing"

	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uid  []byte
		want string
		sak  byte
	}{
		{
			name: "Classic_1K",
			uid:  testutil.TestMIFARE1KUID,
			sak:  0x08,
			want: "Card UID: 12 34 56 78\nCard SAK: 08\nPICC type: MIFARE 1KB\n",
		},
		{
			name: "Ultralight",
			uid:  testutil.TestUltralightUID,
			sak:  0x00,
			want: "Card UID: 04 AB CD EF 12 34 56\nCard SAK: 00\nPICC type: MIFARE Ultralight or Ultralight C\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uid, err := NewUID(tt.uid, tt.sak)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, DumpDetails(&buf, uid))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDevice_DumpVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		version     byte
		want        string
		wantWarning bool
	}{
		{name: "Version_2", version: 0x92, want: "Firmware Version: 0x92 = v2.0\n"},
		{name: "No_Chip", version: 0x00, wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := NewMockTransport()
			mock.Version = tt.version
			device, err := New(mock)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, device.DumpVersion(&buf))
			if tt.wantWarning {
				assert.Contains(t, buf.String(), "WARNING: Communication failure")
			} else {
				assert.Equal(t, tt.want, buf.String())
			}
		})
	}
}

func TestDevice_DumpClassic(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFAREMini(nil)
	device, _ := newTestDevice(t, card)
	uid := selectCard(t, device)

	var buf bytes.Buffer
	require.NoError(t, device.Dump(&buf, uid, DefaultKey))
	out := buf.String()

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	// Details, the column header and 20 blocks
	require.Len(t, lines, 3+1+20)
	assert.Equal(t, "PICC type: MIFARE Mini, 320 bytes", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Sector Block"))
	assert.True(t, strings.HasPrefix(lines[4], "   4     19   FF FF FF FF"), lines[4])
	assert.Contains(t, lines[4], "[ 0 0 1 ]")
	assert.True(t, strings.HasPrefix(lines[5], "         18   00 00 00 00"), lines[5])
	assert.Contains(t, lines[5], "[ 0 0 0 ]")
	assert.True(t, strings.HasPrefix(lines[23], "          0   3C 5A 10 07"), lines[23])

	assert.NotContains(t, out, "failed")
	assert.Equal(t, testutil.StateHalt, card.State())
	assert.False(t, card.Authenticated())
}

func TestDevice_DumpClassicSectorWrongKey(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := newTestDevice(t, card)
	uid := selectCard(t, device)

	var buf bytes.Buffer
	wrongKey := Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	require.NoError(t, device.DumpClassicSector(&buf, uid, wrongKey, 0))
	assert.Equal(t, "   0      3  PCD_Authenticate() failed: Timeout in communication.\n", buf.String())
}

func TestDevice_DumpClassicSectorValueBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value *int32
		name  string
		want  string
	}{
		{name: "positive", value: int32Ptr(0x1234), want: " Value=4660 Adr=0x1"},
		{name: "negative", value: int32Ptr(-5), want: " Value=-5 Adr=0x1"},
		{name: "min int32", value: int32Ptr(math.MinInt32), want: " Value=-2147483648 Adr=0x1"},
		{name: "not formatted", want: " Value=(malformed)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card := testutil.NewVirtualMIFARE1K(nil)
			access := AccessBits(0, 6, 0, 1)
			trailer := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, access[0], access[1], access[2], 0x69,
				0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
			require.NoError(t, card.WriteBlock(3, trailer))

			device, _ := newTestDevice(t, card)
			uid := authenticate(t, device, 1)
			if tt.value != nil {
				status, err := device.SetValue(1, *tt.value)
				require.NoError(t, err)
				require.Equal(t, StatusOK, status)
			}

			var buf bytes.Buffer
			require.NoError(t, device.DumpClassicSector(&buf, uid, DefaultKey, 0))
			out := buf.String()
			assert.Contains(t, out, "[ 1 1 0 ]")
			assert.Contains(t, out, tt.want)
			assert.Equal(t, 1, strings.Count(out, "Value="))
		})
	}
}

func int32Ptr(v int32) *int32 {
	return &v
}

func TestDevice_DumpUltralight(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualUltralight(nil)
	device, _ := newTestDevice(t, card)
	uid := selectCard(t, device)

	var buf bytes.Buffer
	require.NoError(t, device.Dump(&buf, uid, DefaultKey))
	out := buf.String()

	assert.Contains(t, out, "Page  0  1  2  3\n")
	assert.Contains(t, out, "  0   04 AB CD")
	assert.Contains(t, out, " 15   00 00 00 00\n")
	assert.Equal(t, testutil.StateHalt, card.State())
}

func TestDevice_DumpUnsupportedType(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	card.SAK = 0x20
	device, _ := newTestDevice(t, card)
	uid := selectCard(t, device)
	require.Equal(t, PICCTypeISO14443Part4, uid.Type())

	var buf bytes.Buffer
	require.NoError(t, device.Dump(&buf, uid, DefaultKey))
	assert.Contains(t, buf.String(), "Dumping memory contents not implemented for that PICC type.")
}
