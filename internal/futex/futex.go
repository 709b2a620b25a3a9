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

// Package futex wraps the kernel wait/wake primitive used to block on a
// 32-bit word that may live in memory shared between processes.
//
// Wait returns nil for every benign outcome (woken, spurious wake, value
// already changed, interrupted by a signal). Callers are expected to re-check
// the word in a loop. Only conditions that cannot be fixed by retrying are
// returned as errors.
package futex

import (
	"errors"
	"unsafe"
)

var (
	// ErrTimedOut is returned by Wait when a bounded wait elapsed.
	ErrTimedOut = errors.New("futex: wait timed out")
	// ErrFault means the address is not mapped in the calling process.
	ErrFault = errors.New("futex: bad address")
	// ErrUnsupported means the host kernel does not provide the primitive.
	ErrUnsupported = errors.New("futex: not supported on this host")
	// ErrMisaligned means the address is not aligned for 32-bit atomic access.
	ErrMisaligned = errors.New("futex: address is not 4-byte aligned")
)

// WakeOne is the waiter count passed to Wake by a semaphore release.
const WakeOne = 1

func checkAddr(addr *uint32) error {
	if addr == nil {
		return ErrFault
	}
	if uintptr(unsafe.Pointer(addr))%4 != 0 {
		return ErrMisaligned
	}
	return nil
}
