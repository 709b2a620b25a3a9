//go:build !linux

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
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Hosts without a futex syscall get a polling emulation. Waiters re-read the
// word with an exponential backoff capped at maxPoll, so a release in another
// process is observed within that bound.
const (
	minPoll = 50 * time.Microsecond
	maxPoll = 10 * time.Millisecond
)

// Wait blocks the calling goroutine while *addr == val. A timeout <= 0 waits
// until the value changes.
func Wait(addr *uint32, val uint32, timeout time.Duration) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minPoll
	b.MaxInterval = maxPoll
	b.MaxElapsedTime = 0
	b.Reset()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for atomic.LoadUint32(addr) == val {
		d := b.NextBackOff()
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				return ErrTimedOut
			}
			if d > left {
				d = left
			}
		}
		time.Sleep(d)
	}
	return nil
}

// Wake is a no-op: pollers notice the new value on their own.
func Wake(addr *uint32, n int) (int, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	return 0, nil
}
