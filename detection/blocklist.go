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

package detection

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBlocklist returns the USB serial devices that are never probed.
// Entries are VID:PID pairs in hexadecimal, compared case-insensitively.
func DefaultBlocklist() []string {
	return []string{}
}

// USBID formats the VID and PID strings reported by the serial enumerator
// as a "VVVV:PPPP" pair. It returns "" unless both are 1 to 4 hex digits.
func USBID(vid, pid string) string {
	v, ok := hexID(vid)
	if !ok {
		return ""
	}
	p, ok := hexID(pid)
	if !ok {
		return ""
	}
	return v + ":" + p
}

func hexID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 4 {
		return "", false
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return "", false
	}
	return strings.ToUpper(strconv.FormatUint(n|0x10000, 16)[1:]), true
}

// IsBlocked reports whether the VID:PID pair is on the blocklist.
func IsBlocked(usbID string, blocklist []string) bool {
	if usbID == "" {
		return false
	}
	for _, blocked := range blocklist {
		if strings.EqualFold(strings.TrimSpace(blocked), strings.TrimSpace(usbID)) {
			return true
		}
	}
	return false
}

// IsPathIgnored reports whether devicePath is one of ignorePaths. Paths are
// cleaned and compared case-insensitively, so "com2" matches "COM2".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := filepath.Clean(devicePath)
	for _, ignored := range ignorePaths {
		if ignored != "" && strings.EqualFold(device, filepath.Clean(ignored)) {
			return true
		}
	}
	return false
}
