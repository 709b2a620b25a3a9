//go:build linux

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

package futex

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The private flag is deliberately absent: private futexes are keyed on the
// virtual address and would never match a waiter in another process.
const (
	futexWait = 0
	futexWake = 1
)

// Wait blocks the calling thread while *addr == val. A timeout <= 0 waits
// until woken.
func Wait(addr *uint32, val uint32, timeout time.Duration) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	_, _, e := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait),
		uintptr(val),
		uintptr(unsafe.Pointer(ts)),
		0, 0)
	switch e {
	case 0, unix.EAGAIN, unix.EINTR:
		return nil
	case unix.ETIMEDOUT:
		return ErrTimedOut
	default:
		return classify("wait", e)
	}
}

// Wake wakes at most n threads blocked in Wait on addr and reports how many
// were woken. Waking a word nobody waits on is not an error.
func Wake(addr *uint32, n int) (int, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	woken, _, e := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake),
		uintptr(n),
		0, 0, 0)
	if e != 0 {
		return 0, classify("wake", e)
	}
	return int(woken), nil
}

func classify(op string, e unix.Errno) error {
	switch e {
	case unix.EFAULT:
		return fmt.Errorf("%s: %w", op, ErrFault)
	case unix.ENOSYS:
		return fmt.Errorf("%s: %w", op, ErrUnsupported)
	case unix.EINVAL:
		return fmt.Errorf("%s: %w: %v", op, ErrMisaligned, e)
	default:
		return fmt.Errorf("futex %s: %w", op, e)
	}
}
