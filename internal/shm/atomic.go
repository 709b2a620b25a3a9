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

package shm

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Uint32At returns a pointer to the 32-bit word at off inside mem. The word
// must lie entirely inside mem and be 4-byte aligned in memory.
func Uint32At(mem []byte, off int) (*uint32, error) {
	if off < 0 || off+4 > len(mem) {
		return nil, fmt.Errorf("%w: offset:%d, len:%d", ErrOutOfRange, off, len(mem))
	}
	p := unsafe.Pointer(&mem[off])
	if uintptr(p)%4 != 0 {
		return nil, fmt.Errorf("%w: offset:%d", ErrMisaligned, off)
	}
	return (*uint32)(p), nil
}

// AtomicLoadUint32 loads the word at off inside mem atomically.
func AtomicLoadUint32(mem []byte, off int) (uint32, error) {
	p, err := Uint32At(mem, off)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

// AtomicStoreUint32 stores val into the word at off inside mem atomically.
func AtomicStoreUint32(mem []byte, off int, val uint32) error {
	p, err := Uint32At(mem, off)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, val)
	return nil
}
