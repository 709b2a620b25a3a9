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

	"github.com/stretchr/testify/suite"
)

type FutexTestSuite struct {
	suite.Suite
}

func (s *FutexTestSuite) TestWaitReturnsWhenValueDiffers() {
	var word uint32 = 7
	s.Require().NoError(Wait(&word, 3, 0))
}

func (s *FutexTestSuite) TestWaitTimesOut() {
	var word uint32
	start := time.Now()
	err := Wait(&word, 0, 20*time.Millisecond)
	s.Require().ErrorIs(err, ErrTimedOut)
	s.Require().GreaterOrEqual(time.Since(start), 15*time.Millisecond)
}

func (s *FutexTestSuite) TestWakeWithoutWaiters() {
	var word uint32
	n, err := Wake(&word, WakeOne)
	s.Require().NoError(err)
	s.Require().Equal(0, n)
}

func (s *FutexTestSuite) TestNilAddress() {
	s.Require().ErrorIs(Wait(nil, 0, 0), ErrFault)
	_, err := Wake(nil, WakeOne)
	s.Require().ErrorIs(err, ErrFault)
}

func (s *FutexTestSuite) TestStoreThenWakeUnblocksWaiter() {
	var word uint32
	done := make(chan struct{})
	go func() {
		defer close(done)
		for atomic.LoadUint32(&word) == 0 {
			if err := Wait(&word, 0, 0); err != nil {
				s.T().Errorf("wait: %v", err)
				return
			}
		}
	}()

	time.Sleep(10 * time.Millisecond)
	atomic.StoreUint32(&word, 1)
	_, err := Wake(&word, WakeOne)
	s.Require().NoError(err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.T().Fatal("waiter was not released")
	}
}

func TestFutexTestSuite(t *testing.T) {
	suite.Run(t, new(FutexTestSuite))
}
