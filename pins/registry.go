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
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry tracks the pins claimed through a Backend. It is safe for
// concurrent use: every operation is serialized by one mutex, so concurrent
// initialization paths see a consistent set of claims.
type Registry struct {
	backend Backend
	claims  map[int]Direction
	mu      sync.Mutex
}

// NewRegistry creates an empty registry on top of backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		claims:  make(map[int]Direction),
	}
}

// Claim exports pin and sets its direction. Claiming a pin that is already
// claimed is a no-op, whatever direction is requested.
func (r *Registry) Claim(pin int, dir Direction) error {
	if pin < 0 {
		return &PinError{Pin: pin, Op: "claim", Err: ErrInvalidPin}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claims[pin]; ok {
		return nil
	}

	if err := r.backend.Export(pin); err != nil {
		return &PinError{Pin: pin, Op: "export", Err: err}
	}
	if err := r.backend.SetDirection(pin, dir); err != nil {
		// Do not leave a half-configured pin exported.
		if unexportErr := r.backend.Unexport(pin); unexportErr != nil {
			err = errors.Join(err, unexportErr)
		}
		return &PinError{Pin: pin, Op: "direction", Err: err}
	}

	r.claims[pin] = dir
	return nil
}

// Write drives a claimed pin.
func (r *Registry) Write(pin int, level Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claims[pin]; !ok {
		return &PinError{Pin: pin, Op: "write", Err: ErrNotClaimed}
	}
	if err := r.backend.Write(pin, level); err != nil {
		return &PinError{Pin: pin, Op: "write", Err: err}
	}
	return nil
}

// Read samples a claimed pin.
func (r *Registry) Read(pin int) (Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claims[pin]; !ok {
		return Low, &PinError{Pin: pin, Op: "read", Err: ErrNotClaimed}
	}
	level, err := r.backend.Read(pin)
	if err != nil {
		return Low, &PinError{Pin: pin, Op: "read", Err: err}
	}
	return level, nil
}

// IsClaimed reports whether pin is currently claimed.
func (r *Registry) IsClaimed(pin int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.claims[pin]
	return ok
}

// Claimed returns the current claims ordered by pin number.
func (r *Registry) Claimed() []Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	claims := make([]Claim, 0, len(r.claims))
	for pin, dir := range r.claims {
		claims = append(claims, Claim{Pin: pin, Direction: dir})
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].Pin < claims[j].Pin })
	return claims
}

// Release returns pin to the operating system. Releasing a pin that is not
// claimed is a no-op. The claim is dropped even if the backend fails.
func (r *Registry) Release(pin int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releaseLocked(pin)
}

// ReleaseAll releases every claimed pin and leaves the registry empty. It is
// meant to run on shutdown and on unwind paths, so it never panics; backend
// failures are joined into the returned error.
func (r *Registry) ReleaseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for pin := range r.claims {
		if err := r.releaseLocked(pin); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) releaseLocked(pin int) (err error) {
	if _, ok := r.claims[pin]; !ok {
		return nil
	}
	delete(r.claims, pin)

	defer func() {
		if p := recover(); p != nil {
			err = &PinError{Pin: pin, Op: "unexport", Err: fmt.Errorf("backend panic: %v", p)}
		}
	}()

	if unexportErr := r.backend.Unexport(pin); unexportErr != nil {
		return &PinError{Pin: pin, Op: "unexport", Err: unexportErr}
	}
	return nil
}
