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
	"sync"
	"sync/atomic"
	"time"
)

// Scanner provides a high-level interface for continuous card scanning
// with coordinated write operations. It runs a Monitor in the background
// and hands the next detected card to a queued operation.
type Scanner struct {
	reader        Reader
	config        *Config
	monitor       *Monitor
	pendingWrite  atomic.Pointer[WriteRequest]
	cancelFunc    context.CancelFunc
	done          chan struct{}
	err           error
	OnTagDetected func(*Card) error
	OnTagRemoved  func()
	OnTagChanged  func(*Card) error
	stopMutex     sync.Mutex
	running       atomic.Bool
}

// WriteRequest represents a pending write operation
type WriteRequest struct {
	operation func(*Card) error
	result    chan error
	ctx       context.Context
	createdAt time.Time
}

// Scanner-specific errors
var (
	ErrWriteAlreadyPending = errors.New("write operation already pending")
	ErrScannerNotRunning   = errors.New("scanner is not running")
	ErrScannerRunning      = errors.New("scanner is already running")
)

// NewScanner creates a new scanner instance with the given reader and configuration
func NewScanner(reader Reader, config *Config) (*Scanner, error) {
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Scanner{
		reader: reader,
		config: config,
	}, nil
}

// Start begins continuous scanning (non-blocking)
func (s *Scanner) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrScannerRunning
	}

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.stopMutex.Lock()
	s.cancelFunc = cancel
	s.done = done
	s.err = nil
	s.stopMutex.Unlock()

	go func() {
		defer close(done)
		defer s.running.Store(false)

		err := s.startScanning(scanCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.stopMutex.Lock()
			s.err = err
			s.stopMutex.Unlock()
		}
	}()

	return nil
}

// Stop gracefully stops the scanner. It blocks until the polling goroutine
// has returned and reports the error that ended it, if any.
func (s *Scanner) Stop() error {
	s.stopMutex.Lock()
	cancelFunc, done := s.cancelFunc, s.done
	s.stopMutex.Unlock()

	if cancelFunc == nil {
		return nil
	}
	cancelFunc()
	<-done

	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()
	s.cancelFunc = nil
	return s.err
}

// IsRunning returns whether the scanner is currently active
func (s *Scanner) IsRunning() bool {
	return s.running.Load()
}

// HasPendingWrite returns true if a write operation is waiting
func (s *Scanner) HasPendingWrite() bool {
	return s.pendingWrite.Load() != nil
}
