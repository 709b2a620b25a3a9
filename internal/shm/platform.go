/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package shm contains the platform helpers that map a file shared between
// processes and locate 32-bit words inside the mapping.
package shm

import (
	"errors"
)

var (
	// ErrNoSpace is returned when the shared memory filesystem cannot hold a new region.
	ErrNoSpace = errors.New("shm: not enough space left on shared memory filesystem")
	// ErrInvalidSize is returned for a non-positive mapping size.
	ErrInvalidSize = errors.New("shm: invalid region size")
	// ErrTooSmall is returned when an existing file is shorter than the requested mapping.
	ErrTooSmall = errors.New("shm: backing file is smaller than the requested size")
	// ErrOutOfRange is returned when a word does not fit inside the mapping.
	ErrOutOfRange = errors.New("shm: offset out of range")
	// ErrMisaligned is returned when a word offset is not 4-byte aligned.
	ErrMisaligned = errors.New("shm: offset is not 4-byte aligned")
)

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Path string
	Fd   int
	// Created is true when this call created the backing file.
	Created bool
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Path   string
	Size   int
	Create bool
}

// Function implementations are provided in platform-specific files (e.g., platform_unix.go).
