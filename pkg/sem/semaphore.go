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

package sem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/srediag/shmsem/internal/futex"
)

// Semaphore is a handle on a semaphore word. The handle itself is process
// local and cheap; any number of handles, in any number of processes, may
// refer to the same word.
type Semaphore struct {
	word *uint32
	opts options
}

func validate(word *uint32) error {
	if word == nil {
		return fmt.Errorf("%w: nil word", ErrInvalidWord)
	}
	if uintptr(unsafe.Pointer(word))%4 != 0 {
		return fmt.Errorf("%w: word is not 4-byte aligned", ErrInvalidWord)
	}
	return nil
}

// Init stores initialCount into word with a single atomic write.
//
// It must be called by exactly one party before any Acquire or Release is
// issued against word. Calling it concurrently with other operations on the
// same word is undefined.
func Init(word *uint32, initialCount uint32) error {
	if err := validate(word); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	atomic.StoreUint32(word, initialCount)
	return nil
}

// Acquire decrements the count of word, blocking while it is zero.
func Acquire(word *uint32) error {
	if err := validate(word); err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	s := Semaphore{word: word, opts: defaultOptions()}
	return s.Acquire()
}

// Release increments the count of word and wakes one blocked Acquire, if any.
func Release(word *uint32) error {
	if err := validate(word); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	s := Semaphore{word: word, opts: defaultOptions()}
	return s.Release()
}

// New returns a handle on word. The word must already be initialized, or be
// initialized by the caller through Init before the handle is used.
func New(word *uint32, opts ...Option) (*Semaphore, error) {
	if err := validate(word); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.build(); err != nil {
		return nil, err
	}
	return &Semaphore{word: word, opts: o}, nil
}

// Word returns the word the handle operates on.
func (s *Semaphore) Word() *uint32 {
	return s.word
}

// Value returns the current count. It is a snapshot and may be stale as soon
// as it is returned.
func (s *Semaphore) Value() uint32 {
	return atomic.LoadUint32(s.word)
}

// Acquire decrements the count, blocking while it is zero.
func (s *Semaphore) Acquire() error {
	return s.acquire(context.Background())
}

// AcquireContext is Acquire bounded by ctx. When ctx ends before the count
// could be decremented, the count is left untouched and ctx.Err() is returned.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.acquire(ctx)
}

func (s *Semaphore) acquire(ctx context.Context) error {
	if s.tryDecrement() {
		s.opts.metrics.acquired()
		return nil
	}

	start := time.Now()
	ctx, span := s.opts.tracer.Start(ctx, "shmsem.acquire.wait")
	defer span.End()

	err := s.wait(ctx)
	s.opts.waitDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("acquired", err == nil)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.opts.metrics.failed("acquire")
		return err
	}
	s.opts.metrics.acquired()
	return nil
}

// wait loops until a decrement succeeds. Every return from the kernel, be it a
// wake, a spurious wake, a changed value or a signal, goes back to the top.
func (s *Semaphore) wait(ctx context.Context) error {
	done := ctx.Done()
	for {
		if s.tryDecrement() {
			return nil
		}

		var timeout time.Duration
		if done != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			timeout = s.opts.pollInterval
			if dl, ok := ctx.Deadline(); ok {
				if left := time.Until(dl); left < timeout {
					timeout = max(left, time.Microsecond)
				}
			}
		}

		s.opts.metrics.waited()
		s.opts.log.Tracef("acquire: count is 0, waiting on word %p", s.word)
		if err := futex.Wait(s.word, 0, timeout); err != nil && !errors.Is(err, futex.ErrTimedOut) {
			err = fatal("acquire", err)
			s.opts.log.Warnf("%v", err)
			return err
		}
	}
}

// tryDecrement performs the check-then-CAS step of acquire. It reports false
// only after observing a zero count.
func (s *Semaphore) tryDecrement() bool {
	for {
		v := atomic.LoadUint32(s.word)
		if v == 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(s.word, v, v-1) {
			return true
		}
	}
}

// Release increments the count and wakes one blocked Acquire, if any. It never
// blocks.
func (s *Semaphore) Release() error {
	for {
		v := atomic.LoadUint32(s.word)
		if v == math.MaxUint32 {
			s.opts.metrics.failed("release")
			return fmt.Errorf("release: %w", ErrOverflow)
		}
		if atomic.CompareAndSwapUint32(s.word, v, v+1) {
			break
		}
	}
	s.opts.metrics.released()

	// Waiters may be blocked even when the previous count was non-zero, so
	// the wake is unconditional.
	n, err := futex.Wake(s.word, futex.WakeOne)
	if err != nil {
		err = fatal("release", err)
		s.opts.log.Warnf("%v", err)
		s.opts.metrics.failed("release")
		return err
	}
	s.opts.metrics.woke(n)
	return nil
}
