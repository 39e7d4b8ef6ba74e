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
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// WriteToNextTag waits for the next detected card and runs operation on it
// from the polling goroutine, while the card is selected. It blocks until
// the operation completes, times out, or ctx is cancelled.
func (s *Scanner) WriteToNextTag(ctx context.Context, timeout time.Duration, operation func(*Card) error) error {
	if !s.running.Load() {
		return ErrScannerNotRunning
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan error, 1)
	req := &WriteRequest{
		operation: operation,
		result:    result,
		ctx:       writeCtx,
		createdAt: time.Now(),
	}

	if !s.pendingWrite.CompareAndSwap(nil, req) {
		return ErrWriteAlreadyPending
	}
	defer s.pendingWrite.CompareAndSwap(req, nil)

	select {
	case err := <-result:
		return err
	case <-writeCtx.Done():
		return writeCtx.Err()
	}
}

// processPendingWrites hands card to a queued write request.
func (s *Scanner) processPendingWrites(card *Card) {
	req := s.pendingWrite.Swap(nil)
	if req == nil {
		return
	}

	if err := req.ctx.Err(); err != nil {
		sendWriteResult(req, err)
		return
	}

	mfrc522.Debugf("polling: write for %s queued %v ago", card.UID, time.Since(req.createdAt))
	sendWriteResult(req, req.operation(card))
}

// sendWriteResult delivers the result without blocking the polling loop.
func sendWriteResult(req *WriteRequest, err error) {
	select {
	case req.result <- err:
	default:
	}
}
