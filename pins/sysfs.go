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

package pins

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultSysfsRoot is the pin-control directory of the Linux sysfs GPIO
// interface.
const DefaultSysfsRoot = "/sys/class/gpio"

// Default time allowed for udev to hand the freshly exported attribute files
// to the gpio group.
const defaultExportSettle = 250 * time.Millisecond

// SysfsBackend controls pins through the sysfs GPIO files:
// <root>/export, <root>/unexport and <root>/gpio<N>/{direction,value}.
type SysfsBackend struct {
	// Root is the pin-control directory, DefaultSysfsRoot when empty.
	Root string
	// ExportSettle bounds how long SetDirection retries while the attribute
	// files of a just exported pin are not yet accessible.
	ExportSettle time.Duration
}

// NewSysfsBackend returns a backend rooted at DefaultSysfsRoot.
func NewSysfsBackend() *SysfsBackend {
	return &SysfsBackend{Root: DefaultSysfsRoot, ExportSettle: defaultExportSettle}
}

func (b *SysfsBackend) root() string {
	if b.Root == "" {
		return DefaultSysfsRoot
	}
	return b.Root
}

func (b *SysfsBackend) pinFile(pin int, attr string) string {
	return filepath.Join(b.root(), "gpio"+strconv.Itoa(pin), attr)
}

// Export writes the pin number to the export control file. A pin that the
// kernel reports as already exported is accepted.
func (b *SysfsBackend) Export(pin int) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	err := writeAttr(filepath.Join(b.root(), "export"), strconv.Itoa(pin))
	if err != nil && isBusy(err) {
		debugf("gpio%d already exported, reusing it", pin)
		return nil
	}
	return err
}

// Unexport writes the pin number to the unexport control file.
func (b *SysfsBackend) Unexport(pin int) error {
	if pin < 0 {
		return ErrInvalidPin
	}
	return writeAttr(filepath.Join(b.root(), "unexport"), strconv.Itoa(pin))
}

// SetDirection writes "in" or "out" to the direction file of the pin.
func (b *SysfsBackend) SetDirection(pin int, dir Direction) error {
	settle := b.ExportSettle
	path := b.pinFile(pin, "direction")

	deadline := time.Now().Add(settle)
	for {
		err := writeAttr(path, dir.String())
		if err == nil {
			return nil
		}
		if !isSettling(err) || !time.Now().Before(deadline) {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Write writes 0 or 1 to the value file of the pin.
func (b *SysfsBackend) Write(pin int, level Level) error {
	return writeAttr(b.pinFile(pin, "value"), level.String())
}

// Read reads the value file of the pin.
func (b *SysfsBackend) Read(pin int) (Level, error) {
	raw, err := os.ReadFile(b.pinFile(pin, "value"))
	if err != nil {
		return Low, fmt.Errorf("failed to read value: %w", err)
	}
	value := string(bytes.TrimSpace(raw))
	switch value {
	case "0":
		return Low, nil
	case "1":
		return High, nil
	default:
		return Low, fmt.Errorf("unexpected pin value %q", value)
	}
}

func writeAttr(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// isSettling reports whether err is the transient state right after export,
// when the attribute files are missing or still owned by root.
func isSettling(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || isPermission(err)
}

var _ Backend = (*SysfsBackend)(nil)
