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
	"time"
)

// VerifyConfig controls WriteVerified and ReadVerified.
type VerifyConfig struct {
	// RetryDelay specifies delay between retry attempts
	RetryDelay time.Duration

	// Retries is the number of extra attempts after a transient failure:
	// no answer, a CRC error or data that does not match.
	Retries int
}

// DefaultVerifyConfig returns default verification settings
func DefaultVerifyConfig() *VerifyConfig {
	return &VerifyConfig{
		Retries:    3,
		RetryDelay: 10 * time.Millisecond,
	}
}

// retryable reports whether an attempt that ended with status may be
// repeated. NACKs and invalid arguments will not change on retry.
func retryable(status Status) bool {
	switch status {
	case StatusTimeout, StatusCRCWrong, StatusError, StatusCollision:
		return true
	default:
		return false
	}
}

// WriteVerified writes 16 bytes to a MIFARE Classic block and reads them
// back. The sector must be authenticated. Data that reads back different
// counts as StatusError.
func (d *Device) WriteVerified(block byte, data []byte, config *VerifyConfig) (Status, error) {
	if config == nil {
		config = DefaultVerifyConfig()
	}
	if len(data) != 16 {
		return StatusInvalid, nil
	}

	status := StatusError
	for attempt := 0; attempt <= config.Retries; attempt++ {
		if attempt > 0 {
			debugf("write verify of block %d: %s, retrying", block, status)
			time.Sleep(config.RetryDelay)
		}

		var err error
		status, err = d.Write(block, data)
		if err != nil {
			return StatusError, err
		}
		if status == StatusOK {
			var got []byte
			got, status, err = d.Read(block)
			if err != nil {
				return StatusError, err
			}
			if status == StatusOK {
				if bytes.Equal(got, data) {
					return StatusOK, nil
				}
				status = StatusError
			}
		}
		if !retryable(status) {
			return status, nil
		}
	}
	return status, nil
}

// ReadVerified reads a block until two consecutive reads agree. The sector
// must be authenticated.
func (d *Device) ReadVerified(block byte, config *VerifyConfig) ([]byte, Status, error) {
	if config == nil {
		config = DefaultVerifyConfig()
	}

	var last []byte
	status := StatusError
	for attempt := 0; attempt <= config.Retries+1; attempt++ {
		if attempt > 1 {
			time.Sleep(config.RetryDelay)
		}

		data, s, err := d.Read(block)
		if err != nil {
			return nil, StatusError, err
		}
		status = s
		if status != StatusOK {
			if !retryable(status) {
				return nil, status, nil
			}
			last = nil
			continue
		}
		if last != nil && bytes.Equal(last, data) {
			return data, StatusOK, nil
		}
		last = data
	}
	if status == StatusOK {
		// Every read succeeded but no two agreed.
		status = StatusError
	}
	return nil, status, nil
}
