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

// Package detection finds host interfaces an MFRC522 may be attached to.
// Transport subpackages register their detector on import.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mfrc522 "github.com/ZaparooProject/go-mfrc522"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no devices found")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrDetectionTimeout    = errors.New("detection timed out")
)

// Mode selects how far detection goes.
type Mode int

const (
	// Passive only lists candidate buses and ports.
	Passive Mode = iota
	// Safe opens each candidate and reads the chip version register.
	Safe
)

// Confidence rates how likely a candidate is an MFRC522.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// DeviceInfo describes one candidate.
type DeviceInfo struct {
	Metadata   map[string]string
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// Options controls a detection run.
type Options struct {
	// IgnorePaths are device paths that are never reported or opened.
	IgnorePaths []string
	// Blocklist holds USB VID:PID pairs that are never opened.
	Blocklist []string
	Timeout   time.Duration
	Mode      Mode
}

// DefaultOptions returns passive detection with the default blocklist.
func DefaultOptions() *Options {
	return &Options{
		Mode:      Passive,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds candidates on one kind of host interface.
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	detectorsMu sync.RWMutex
	detectors   = map[string]Detector{}
)

// RegisterDetector adds d, replacing any detector for the same transport.
func RegisterDetector(d Detector) {
	detectorsMu.Lock()
	defer detectorsMu.Unlock()
	detectors[d.Transport()] = d
}

// Detectors returns the registered detectors sorted by transport.
func Detectors() []Detector {
	detectorsMu.RLock()
	defer detectorsMu.RUnlock()

	out := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector and returns the candidates,
// most confident first. Detector errors only surface when nothing was
// found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var (
		found []DeviceInfo
		errs  []error
	)
	for _, d := range Detectors() {
		devices, err := d.Detect(ctx, opts)
		if err != nil && !errors.Is(err, ErrNoDevicesFound) {
			errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
		}
		found = append(found, devices...)
	}

	if len(found) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrNoDevicesFound, errors.Join(errs...))
		}
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Confidence > found[j].Confidence })
	return found, nil
}

// Probe reads the version register through transport. It reports the chip
// name when the value belongs to a known MFRC522 or clone.
func Probe(transport mfrc522.Transport) (name string, ok bool) {
	values, err := transport.ReadRegister(byte(mfrc522.VersionReg), 1)
	if err != nil || len(values) != 1 {
		return "", false
	}
	name = mfrc522.ChipName(values[0])
	return name, name != mfrc522.ChipName(0x00)
}

// Apply returns info with its confidence and metadata updated by a probe
// through open. A candidate whose chip does not answer keeps its passive
// confidence and is dropped when that was Low.
func Apply(info DeviceInfo, open func() (mfrc522.Transport, error)) (DeviceInfo, bool) {
	transport, err := open()
	if err != nil {
		mfrc522.Debugf("detection: open %s: %v", info.Path, err)
		return info, info.Confidence > Low
	}
	defer func() { _ = transport.Close() }()

	name, ok := Probe(transport)
	if !ok {
		return info, info.Confidence > Low
	}
	if info.Metadata == nil {
		info.Metadata = map[string]string{}
	}
	info.Metadata["chip"] = name
	info.Confidence = High
	return info, true
}
