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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWakeReportsWokenWaiter(t *testing.T) {
	var word uint32
	var stop, returned atomic.Bool
	go func() {
		for !stop.Load() {
			_ = Wait(&word, 0, 0)
		}
		returned.Store(true)
	}()

	// The waiter may not have entered the kernel yet; keep waking until it has.
	deadline := time.Now().Add(5 * time.Second)
	woken := 0
	for woken == 0 && time.Now().Before(deadline) {
		n, err := Wake(&word, WakeOne)
		require.NoError(t, err)
		woken = n
		if woken == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	assert.Equal(t, 1, woken)

	stop.Store(true)
	atomic.StoreUint32(&word, 1)
	_, err := Wake(&word, WakeOne)
	require.NoError(t, err)
	assert.Eventually(t, returned.Load, time.Second, time.Millisecond)
}
