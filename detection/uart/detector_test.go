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

package uart

import (
	"context"
	"errors"
	"testing"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	"github.com/ZaparooProject/go-mfrc522/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func testDetector() *detector {
	return &detector{
		list: func() ([]*enumerator.PortDetails, error) {
			return []*enumerator.PortDetails{
				{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1a86", PID: "7523", Product: "USB Serial"},
				{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", SerialNumber: "0001"},
				{Name: "/dev/ttyAMA0"},
			}, nil
		},
		open: func(port string) (mfrc522.Transport, error) {
			if port == "/dev/ttyUSB0" {
				return mfrc522.NewMockTransport(), nil
			}
			return nil, errors.New("no answer")
		},
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opts  *detection.Options
		name  string
		paths []string
		conf  detection.Confidence
	}{
		{
			name:  "passive",
			opts:  &detection.Options{},
			paths: []string{"/dev/ttyAMA0", "/dev/ttyUSB0", "/dev/ttyUSB1"},
			conf:  detection.Low,
		},
		{
			name:  "blocked and ignored",
			opts:  &detection.Options{Blocklist: []string{"1A86:7523"}, IgnorePaths: []string{"/dev/ttyAMA0"}},
			paths: []string{"/dev/ttyUSB0"},
			conf:  detection.Low,
		},
		{
			name:  "probed",
			opts:  &detection.Options{Mode: detection.Safe},
			paths: []string{"/dev/ttyUSB0"},
			conf:  detection.High,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			devices, err := testDetector().Detect(context.Background(), tt.opts)
			require.NoError(t, err)
			require.Len(t, devices, len(tt.paths))
			for i, device := range devices {
				assert.Equal(t, tt.paths[i], device.Path)
			}
			assert.Equal(t, tt.conf, devices[len(devices)-1].Confidence)
		})
	}
}

func TestDetect_Metadata(t *testing.T) {
	t.Parallel()

	devices, err := testDetector().Detect(context.Background(), &detection.Options{})
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, "10C4:EA60", devices[1].Metadata["vidpid"])
	assert.Equal(t, "0001", devices[1].Metadata["serial"])
	assert.Equal(t, "USB Serial (/dev/ttyUSB1)", devices[2].Name)
	assert.Empty(t, devices[0].Metadata)
}

func TestDetect_ListError(t *testing.T) {
	t.Parallel()

	d := &detector{list: func() ([]*enumerator.PortDetails, error) { return nil, errors.New("no sysfs") }}
	_, err := d.Detect(context.Background(), detection.DefaultOptions())
	require.Error(t, err)

	d = &detector{list: func() ([]*enumerator.PortDetails, error) { return nil, nil }}
	_, err = d.Detect(context.Background(), detection.DefaultOptions())
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}
