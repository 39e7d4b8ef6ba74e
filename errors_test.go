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
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "silent chip retryable", err: ErrCommunicationFailed, want: true},
		{name: "wrapped read retryable", err: fmt.Errorf("read register 0x37: %w", ErrTransportRead), want: true},
		{name: "closed not retryable", err: ErrTransportClosed, want: false},
		{name: "invalid parameter not retryable", err: ErrInvalidParameter, want: false},
		{name: "reset timeout not retryable", err: ErrResetTimeout, want: false},
		{name: "unknown error not retryable", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable_TransportError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "retryable transport error",
			err:  NewTransportError("read", "/dev/spidev0.0", errors.New("short transfer"), ErrorTypeTransient),
			want: true,
		},
		{
			name: "permanent transport error",
			err:  NewTransportError("open", "/dev/spidev0.0", errors.New("no such file"), ErrorTypePermanent),
			want: false,
		},
		{
			name: "wrapped timeout error",
			err:  fmt.Errorf("communicate: %w", NewTimeoutError("read", "/dev/ttyS0")),
			want: true,
		},
		{
			name: "echo mismatch",
			err:  NewEchoMismatchError("read", "/dev/ttyS0", 0xB7, 0x00),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypePermanent},
		{name: "timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "read failure", err: ErrTransportRead, want: ErrorTypeTransient},
		{name: "write failure", err: ErrTransportWrite, want: ErrorTypeTransient},
		{name: "silent chip", err: ErrCommunicationFailed, want: ErrorTypeTransient},
		{name: "device not found", err: ErrDeviceNotFound, want: ErrorTypePermanent},
		{name: "power up timeout", err: ErrPowerUpTimeout, want: ErrorTypePermanent},
		{name: "transport error", err: NewTimeoutError("read", ""), want: ErrorTypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetErrorType(tt.err); got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()
	tests := map[ErrorType]string{
		ErrorTypePermanent: "permanent",
		ErrorTypeTransient: "transient",
		ErrorTypeTimeout:   "timeout",
		ErrorType(42):      "ErrorType(42)",
	}
	for errType, want := range tests {
		if got := errType.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestNewTransportError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err     error
		name    string
		op      string
		port    string
		errType ErrorType
	}{
		{
			name:    "basic transport error",
			op:      "open",
			port:    "/dev/spidev0.0",
			err:     errors.New("permission denied"),
			errType: ErrorTypePermanent,
		},
		{
			name:    "empty port",
			op:      "write",
			port:    "",
			err:     errors.New("bus busy"),
			errType: ErrorTypeTransient,
		},
		{
			name:    "timeout error",
			op:      "read",
			port:    "/dev/ttyAMA0",
			err:     ErrTransportTimeout,
			errType: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			te := NewTransportError(tt.op, tt.port, tt.err, tt.errType)

			if te.Op != tt.op {
				t.Errorf("Op = %q, want %q", te.Op, tt.op)
			}
			if te.Port != tt.port {
				t.Errorf("Port = %q, want %q", te.Port, tt.port)
			}
			if !errors.Is(te, tt.err) {
				t.Errorf("Err = %v, want %v", te.Err, tt.err)
			}
			if te.Type != tt.errType {
				t.Errorf("Type = %v, want %v", te.Type, tt.errType)
			}
			if te.Retryable != (tt.errType != ErrorTypePermanent) {
				t.Errorf("Retryable = %v for %v", te.Retryable, tt.errType)
			}
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		te   *TransportError
		want []string // Substrings that should be present
	}{
		{
			name: "with port",
			te: &TransportError{
				Err:  errors.New("transfer failed"),
				Op:   "read",
				Port: "/dev/spidev0.0",
			},
			want: []string{"read", "/dev/spidev0.0", "transfer failed"},
		},
		{
			name: "without port",
			te: &TransportError{
				Err: errors.New("device busy"),
				Op:  "write",
			},
			want: []string{"write", "device busy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.te.Error()
			for _, substr := range tt.want {
				if !strings.Contains(got, substr) {
					t.Errorf("Error() = %q, should contain %q", got, substr)
				}
			}
		})
	}
}

func TestNewTimeoutError(t *testing.T) {
	t.Parallel()
	te := NewTimeoutError("read", "/dev/ttyAMA0")

	if te.Type != ErrorTypeTimeout {
		t.Errorf("Type = %v, want %v", te.Type, ErrorTypeTimeout)
	}
	if !te.Retryable {
		t.Error("Retryable should be true for timeout errors")
	}
	if !errors.Is(te, ErrTransportTimeout) {
		t.Error("timeout error should wrap ErrTransportTimeout")
	}
}

func TestNewEchoMismatchError(t *testing.T) {
	t.Parallel()
	te := NewEchoMismatchError("read", "/dev/ttyAMA0", 0xB7, 0x37)

	if te.Type != ErrorTypeTransient {
		t.Errorf("Type = %v, want %v", te.Type, ErrorTypeTransient)
	}
	if !errors.Is(te, ErrTransportRead) {
		t.Error("echo mismatch should wrap ErrTransportRead")
	}
	if !strings.Contains(te.Error(), "0x37") || !strings.Contains(te.Error(), "0xB7") {
		t.Errorf("Error() = %q, should name both bytes", te.Error())
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()
	tests := map[Status]string{
		StatusOK:         "Success.",
		StatusTimeout:    "Timeout in communication.",
		StatusMifareNACK: "A MIFARE PICC responded with NAK.",
		Status(99):       "Status(99)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
	if !StatusOK.OK() || StatusError.OK() {
		t.Error("OK() must only hold for StatusOK")
	}
	if !StatusInvalid.IsProgrammingError() || StatusTimeout.IsProgrammingError() {
		t.Error("IsProgrammingError() misclassifies")
	}
}
