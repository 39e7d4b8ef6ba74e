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

package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
	testutil "github.com/ZaparooProject/go-mfrc522/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestReader returns an initialized device on a simulated chip.
func newTestReader(t *testing.T, cards ...*testutil.VirtualCard) (*mfrc522.Device, *mfrc522.MockTransport) {
	t.Helper()
	mock := mfrc522.NewMockTransport(cards...)
	device, err := mfrc522.New(mock, mfrc522.WithResetDelay(0))
	require.NoError(t, err)
	require.NoError(t, device.Init())
	return device, mock
}

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClockedMonitor(reader Reader, config *Config) (*Monitor, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	monitor := NewMonitor(reader, config)
	monitor.now = clock.Now
	monitor.lastCard = clock.Now()
	return monitor, clock
}

// failingReader answers every wake up with err.
type failingReader struct {
	err error
}

func (r *failingReader) WakeupA() (mfrc522.ATQA, mfrc522.Status, error) {
	return mfrc522.ATQA{}, mfrc522.StatusError, r.err
}

func (*failingReader) ReadCardSerial() (bool, error) { return false, nil }

func (*failingReader) UID() mfrc522.UID { return mfrc522.UID{} }

func (*failingReader) HaltA() (mfrc522.Status, error) { return mfrc522.StatusOK, nil }

func (*failingReader) StopCrypto1() error { return nil }

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		config  *Config
		name    string
		wantErr bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "zero interval", config: &Config{CardRemovalTimeout: time.Second}, wantErr: true},
		{
			name:    "removal shorter than interval",
			config:  &Config{PollInterval: time.Second, CardRemovalTimeout: time.Millisecond},
			wantErr: true,
		},
		{
			name: "negative idle",
			config: &Config{
				PollInterval: time.Millisecond, CardRemovalTimeout: time.Second, IdleInterval: -1,
			},
			wantErr: true,
		},
		{
			name: "negative error limit",
			config: &Config{
				PollInterval: time.Millisecond, CardRemovalTimeout: time.Second, MaxConsecutiveErrors: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, mfrc522.ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewMonitor(t *testing.T) {
	t.Parallel()
	device, _ := newTestReader(t)

	t.Run("WithDefaultConfig", func(t *testing.T) {
		t.Parallel()
		monitor := NewMonitor(device, nil)

		assert.Equal(t, DefaultConfig(), monitor.config)
		assert.Equal(t, StateIdle, monitor.GetState().DetectionState)
		assert.Equal(t, 100*time.Millisecond, monitor.GetCurrentPollInterval())
	})

	t.Run("WithCustomConfig", func(t *testing.T) {
		t.Parallel()
		config := &Config{PollInterval: 50 * time.Millisecond}
		monitor := NewMonitor(device, config)

		assert.Same(t, config, monitor.config)
		assert.Equal(t, 50*time.Millisecond, monitor.GetCurrentPollInterval())
	})
}

func TestMonitor_DetectAndRemove(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := newTestReader(t, card)
	monitor, clock := newClockedMonitor(device, DefaultConfig())

	var detected []*Card
	removed := 0
	monitor.OnCardDetected = func(c *Card) error {
		detected = append(detected, c)
		assert.Equal(t, StateReading, monitor.GetState().DetectionState)
		return nil
	}
	monitor.OnCardRemoved = func() { removed++ }

	require.NoError(t, monitor.PollOnce())
	require.Len(t, detected, 1)
	assert.Equal(t, testutil.TestMIFARE1KUID, detected[0].UID.Data())
	assert.Equal(t, mfrc522.PICCTypeMifare1K, detected[0].Type)
	assert.Equal(t, mfrc522.ATQA{0x04, 0x00}, detected[0].ATQA)
	assert.Equal(t, testutil.StateHalt, card.State(), "card is halted after each cycle")

	state := monitor.GetState()
	assert.True(t, state.Present)
	assert.Equal(t, StateTagDetected, state.DetectionState)
	assert.Equal(t, detected[0].UID.String(), state.LastUID)

	clock.Advance(100 * time.Millisecond)
	require.NoError(t, monitor.PollOnce())
	assert.Len(t, detected, 1, "same card is reported once")
	assert.Equal(t, clock.Now(), monitor.GetState().LastSeenTime)

	card.Remove()
	clock.Advance(300 * time.Millisecond)
	require.NoError(t, monitor.PollOnce())
	assert.Zero(t, removed, "removal waits for the timeout")
	assert.True(t, monitor.GetState().Present)

	clock.Advance(300 * time.Millisecond)
	require.NoError(t, monitor.PollOnce())
	assert.Equal(t, 1, removed)
	assert.Equal(t, CardState{}, monitor.GetState())

	metrics := monitor.GetMetrics()
	assert.Equal(t, int64(4), metrics.PollCycles)
	assert.Equal(t, int64(1), metrics.CardsDetected)
	assert.Zero(t, metrics.PollErrors)
}

func TestMonitor_CallbackAccessesCard(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualMIFARE1K(nil)
	device, _ := newTestReader(t, card)
	monitor, _ := newClockedMonitor(device, DefaultConfig())

	var block []byte
	monitor.OnCardDetected = func(c *Card) error {
		status, err := device.Authenticate(mfrc522.KeyA, 4, mfrc522.DefaultKey, c.UID)
		if err != nil || status != mfrc522.StatusOK {
			return errors.New("authenticate failed")
		}
		block, status, err = device.Read(4)
		if err != nil || status != mfrc522.StatusOK {
			return errors.New("read failed")
		}
		return nil
	}

	require.NoError(t, monitor.PollOnce())
	assert.Len(t, block, 16)
	assert.Zero(t, monitor.GetMetrics().CallbackErrors)
	assert.False(t, card.Authenticated())
	assert.Equal(t, testutil.StateHalt, card.State())
}

func TestMonitor_CallbackError(t *testing.T) {
	t.Parallel()

	device, _ := newTestReader(t, testutil.NewVirtualUltralight(nil))
	monitor, _ := newClockedMonitor(device, DefaultConfig())
	monitor.OnCardDetected = func(*Card) error { return errors.New("boom") }

	require.NoError(t, monitor.PollOnce())
	assert.Equal(t, int64(1), monitor.GetMetrics().CallbackErrors)
	assert.True(t, monitor.GetState().Present)
	assert.Equal(t, mfrc522.PICCTypeMifareUL, monitor.GetState().LastType)
}

func TestMonitor_CardChanged(t *testing.T) {
	t.Parallel()

	first := testutil.NewVirtualMIFARE1K(nil)
	second := testutil.NewVirtualMIFARE4K(nil)
	second.Remove()
	device, _ := newTestReader(t, first, second)
	monitor, clock := newClockedMonitor(device, DefaultConfig())

	var changed *Card
	detected := 0
	monitor.OnCardDetected = func(*Card) error {
		detected++
		return nil
	}
	monitor.OnCardChanged = func(c *Card) error {
		changed = c
		return nil
	}

	require.NoError(t, monitor.PollOnce())
	require.Equal(t, 1, detected)

	first.Remove()
	second.Insert()
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, monitor.PollOnce())

	require.NotNil(t, changed)
	assert.Equal(t, 1, detected)
	assert.Equal(t, testutil.TestMIFARE4KUID, changed.UID.Data())
	assert.Equal(t, changed.UID.String(), monitor.GetState().LastUID)
	assert.Equal(t, int64(2), monitor.GetMetrics().CardsDetected)
}

func TestMonitor_PollError(t *testing.T) {
	t.Parallel()

	reader := &failingReader{}
	monitor, _ := newClockedMonitor(reader, DefaultConfig())
	monitor.state = CardState{Present: true, DetectionState: StateTagDetected, LastUID: "01020304"}

	removed := false
	monitor.OnCardRemoved = func() { removed = true }

	reader.err = errors.New("bus gone")
	err := monitor.PollOnce()
	require.Error(t, err)
	assert.True(t, removed, "a failing reader drops the card at once")
	assert.Equal(t, int64(1), monitor.GetMetrics().PollErrors)
	assert.False(t, monitor.GetState().Present)
}

func TestMonitor_StartStopsAfterErrors(t *testing.T) {
	t.Parallel()

	config := &Config{
		PollInterval:         time.Millisecond,
		CardRemovalTimeout:   time.Millisecond,
		MaxConsecutiveErrors: 3,
	}
	monitor := NewMonitor(&failingReader{err: errors.New("bus gone")}, config)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := monitor.Start(ctx)
	require.ErrorIs(t, err, ErrTooManyErrors)
	assert.Equal(t, int64(3), monitor.GetMetrics().PollErrors)
}

func TestMonitor_StartInvalidConfig(t *testing.T) {
	t.Parallel()

	monitor := NewMonitor(&failingReader{}, &Config{})
	err := monitor.Start(context.Background())
	require.ErrorIs(t, err, mfrc522.ErrInvalidParameter)
}

func TestMonitor_StartLifecycle(t *testing.T) {
	t.Parallel()

	card := testutil.NewVirtualUltralight(nil)
	device, _ := newTestReader(t, card)
	config := &Config{PollInterval: time.Millisecond, CardRemovalTimeout: 5 * time.Millisecond}
	monitor := NewMonitor(device, config)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seen []byte
	monitor.OnCardDetected = func(c *Card) error {
		seen = c.UID.Data()
		card.Remove()
		return nil
	}
	monitor.OnCardRemoved = cancel

	err := monitor.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, testutil.TestUltralightUID, seen)
	assert.False(t, monitor.GetState().Present)
}

func TestMonitor_Close(t *testing.T) {
	t.Parallel()

	device, mock := newTestReader(t)
	monitor := NewMonitor(device, nil)
	require.NoError(t, monitor.Close())
	assert.True(t, mock.IsClosed())

	require.NoError(t, NewMonitor(&failingReader{}, nil).Close())
}

func TestNextInterval(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	tests := []struct {
		name   string
		config *Config
		since  time.Duration
		want   time.Duration
	}{
		{name: "recent card", config: config, since: time.Second, want: config.PollInterval},
		{name: "idle", config: config, since: 6 * time.Second, want: config.IdleInterval},
		{
			name:   "idle disabled",
			config: &Config{PollInterval: 10 * time.Millisecond},
			since:  time.Hour,
			want:   10 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, nextInterval(tt.config, tt.since))
		})
	}
}

func TestCardDetectionState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "detected", StateTagDetected.String())
	assert.Equal(t, "reading", StateReading.String())
	assert.Equal(t, "unknown", CardDetectionState(9).String())
}
