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

import "fmt"

// Status is the outcome of a protocol operation. Collisions, timeouts and
// negative acknowledgements are expected when cards come and go, so they are
// reported as a Status and not as an error. Operations return a Status next
// to an error: when the error is non-nil the host interface failed and the
// Status is StatusError and carries no information.
type Status int

// Status codes
const (
	// StatusOK means success.
	StatusOK Status = iota
	// StatusError means the card answered with something unusable.
	StatusError
	// StatusCollision means more than one card answered.
	StatusCollision
	// StatusTimeout means no card answered in time.
	StatusTimeout
	// StatusNoRoom means the answer did not fit the buffer.
	StatusNoRoom
	// StatusInternalError means the driver reached an impossible state.
	StatusInternalError
	// StatusInvalid means an invalid argument.
	StatusInvalid
	// StatusCRCWrong means the CRC_A of the answer did not match.
	StatusCRCWrong
	// StatusMifareNACK means a MIFARE card did not acknowledge.
	StatusMifareNACK
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "Success."
	case StatusError:
		return "Error in communication."
	case StatusCollision:
		return "Collision detected."
	case StatusTimeout:
		return "Timeout in communication."
	case StatusNoRoom:
		return "A buffer is not big enough."
	case StatusInternalError:
		return "Internal error in the code. Should not happen."
	case StatusInvalid:
		return "Invalid argument."
	case StatusCRCWrong:
		return "The CRC_A does not match."
	case StatusMifareNACK:
		return "A MIFARE PICC responded with NAK."
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// OK reports whether s is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

// IsProgrammingError reports whether s points at a bug in the caller or the
// driver rather than at a card condition.
func (s Status) IsProgrammingError() bool {
	return s == StatusInvalid || s == StatusInternalError || s == StatusNoRoom
}
