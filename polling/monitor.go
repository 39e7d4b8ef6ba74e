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
	"fmt"
	"io"
	"sync"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// ErrTooManyErrors is returned by Start after MaxConsecutiveErrors failed
// polls in a row.
var ErrTooManyErrors = errors.New("too many consecutive polling errors")

// Reader is the part of *mfrc522.Device the monitor drives.
type Reader interface {
	WakeupA() (mfrc522.ATQA, mfrc522.Status, error)
	ReadCardSerial() (bool, error)
	UID() mfrc522.UID
	HaltA() (mfrc522.Status, error)
	StopCrypto1() error
}

// Card is a card found by one poll. It stays selected while the monitor
// callbacks run, so they may authenticate and read or write it.
type Card struct {
	DetectedAt time.Time
	UID        mfrc522.UID
	ATQA       mfrc522.ATQA
	Type       mfrc522.PICCType
}

// Monitor handles continuous card monitoring with state machine.
//
// Every cycle wakes all cards in the field with WUPA, selects one, runs the
// callbacks when it is new or different, and halts it again. A card that
// has not answered for CardRemovalTimeout is reported as removed.
type Monitor struct {
	reader         Reader
	config         *Config
	OnCardDetected func(card *Card) error
	OnCardRemoved  func()
	OnCardChanged  func(card *Card) error
	now            func() time.Time
	lastCard       time.Time
	state          CardState
	counters       counters
	mu             sync.RWMutex
}

// NewMonitor creates a new card monitor
func NewMonitor(reader Reader, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	m := &Monitor{
		reader: reader,
		config: config,
		now:    time.Now,
	}
	m.lastCard = m.now()
	m.counters.currentInterval.Store(int64(config.PollInterval))
	return m
}

// Start polls until ctx is done or MaxConsecutiveErrors polls in a row
// fail. It blocks; the reader must not be used by anything else meanwhile.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return err
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := m.PollOnce(); err != nil {
			failures++
			if m.config.MaxConsecutiveErrors > 0 && failures >= m.config.MaxConsecutiveErrors {
				return fmt.Errorf("%w: %d in a row, last: %w", ErrTooManyErrors, failures, err)
			}
		} else {
			failures = 0
		}

		interval := nextInterval(m.config, m.now().Sub(m.lastCard))
		m.counters.currentInterval.Store(int64(interval))
		timer.Reset(interval)
	}
}

// PollOnce runs a single presence check and the callbacks it triggers.
func (m *Monitor) PollOnce() error {
	start := m.now()
	card, err := m.performSinglePoll()
	m.counters.pollCycles.Add(1)
	m.counters.lastPollLatency.Store(int64(m.now().Sub(start)))

	switch {
	case errors.Is(err, ErrNoTagInPoll):
		m.mu.RLock()
		due := m.state.RemovalDue(m.now(), m.config.CardRemovalTimeout)
		m.mu.RUnlock()
		if due {
			m.handleCardRemoval()
		}
		return nil
	case err != nil:
		m.counters.pollErrors.Add(1)
		m.handlePollingError(err)
		return err
	}

	m.processPollingResults(card)
	return nil
}

// GetState returns the current card state
func (m *Monitor) GetState() CardState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetMetrics returns current operational metrics
func (m *Monitor) GetMetrics() Metrics {
	return m.counters.snapshot()
}

// GetCurrentPollInterval returns the current adaptive polling interval
func (m *Monitor) GetCurrentPollInterval() time.Duration {
	return time.Duration(m.counters.currentInterval.Load())
}

// Close closes the reader when it implements io.Closer.
func (m *Monitor) Close() error {
	if c, ok := m.reader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close reader: %w", err)
		}
	}
	return nil
}

// performSinglePoll wakes and selects one card.
func (m *Monitor) performSinglePoll() (*Card, error) {
	atqa, status, err := m.reader.WakeupA()
	if err != nil {
		return nil, fmt.Errorf("wake up failed: %w", err)
	}
	// Several cards answering at once still leave one to select.
	if status != mfrc522.StatusOK && status != mfrc522.StatusCollision {
		return nil, ErrNoTagInPoll
	}

	selected, err := m.reader.ReadCardSerial()
	if err != nil {
		return nil, fmt.Errorf("select failed: %w", err)
	}
	if !selected {
		return nil, ErrNoTagInPoll
	}
	uid := m.reader.UID()

	return &Card{
		DetectedAt: m.now(),
		UID:        uid,
		ATQA:       atqa,
		Type:       uid.Type(),
	}, nil
}

// handlePollingError reports a present card as removed. A reader that stops
// answering usually means it was unplugged.
func (m *Monitor) handlePollingError(err error) {
	mfrc522.Debugf("polling: %v", err)
	m.handleCardRemoval()
}

// handleCardRemoval handles card removal state changes
func (m *Monitor) handleCardRemoval() {
	m.mu.Lock()
	present := m.state.Present
	m.state.TransitionToIdle()
	m.mu.Unlock()

	if present && m.OnCardRemoved != nil {
		m.OnCardRemoved()
	}
}

// processPollingResults updates the state with card, runs the callbacks for
// a new or different card and halts it.
func (m *Monitor) processPollingResults(card *Card) {
	defer m.release()

	now := m.now()
	m.lastCard = now

	m.mu.Lock()
	wasPresent := m.state.Present
	changed := wasPresent && m.state.LastUID != card.UID.String()
	m.state.TransitionToDetected(card, now)
	if wasPresent && !changed {
		m.mu.Unlock()
		return
	}
	m.state.TransitionToReading(now)
	m.mu.Unlock()

	m.counters.cardsDetected.Add(1)

	var err error
	switch {
	case changed && m.OnCardChanged != nil:
		err = m.OnCardChanged(card)
	case !changed && m.OnCardDetected != nil:
		err = m.OnCardDetected(card)
	}
	if err != nil {
		m.counters.callbackErrors.Add(1)
		mfrc522.Debugf("polling: callback for %s: %v", card.UID, err)
	}

	m.mu.Lock()
	m.state.DetectionState = StateTagDetected
	m.state.LastSeenTime = m.now()
	m.mu.Unlock()
}

// release halts the selected card and leaves crypto mode, so the next
// cycle can wake it again.
func (m *Monitor) release() {
	if _, err := m.reader.HaltA(); err != nil {
		mfrc522.Debugf("polling: halt: %v", err)
	}
	if err := m.reader.StopCrypto1(); err != nil {
		mfrc522.Debugf("polling: stop crypto1: %v", err)
	}
}
