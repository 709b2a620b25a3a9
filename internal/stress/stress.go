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

// Package stress drives one semaphore from many workers and reports what
// happened.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/shmsem/internal/logger"
	"github.com/srediag/shmsem/pkg/sem"
)

const defaultSampleCap = 4096

// Options configures a run.
type Options struct {
	// Workers is the number of goroutines contending for the semaphore.
	Workers int
	// Iterations is the number of acquire/release pairs per worker.
	Iterations int
	// Hold is how long a worker keeps the permit before releasing it.
	Hold time.Duration
	// SampleCap bounds the number of acquire latencies kept. Zero means 4096.
	SampleCap uint64
}

// Result summarizes a run.
type Result struct {
	Acquires   int64
	Releases   int64
	MaxHolders int32
	Elapsed    time.Duration
	Samples    []time.Duration
	P50        time.Duration
	P99        time.Duration
	Max        time.Duration
}

func (r *Result) String() string {
	return fmt.Sprintf("acquires:%d releases:%d max_holders:%d elapsed:%s p50:%s p99:%s max:%s",
		r.Acquires, r.Releases, r.MaxHolders, r.Elapsed, r.P50, r.P99, r.Max)
}

// Run makes every worker acquire and release s opts.Iterations times. The
// count of s is the same before and after a run that returns no error.
func Run(ctx context.Context, s *sem.Semaphore, opts Options) (*Result, error) {
	if opts.Workers <= 0 || opts.Iterations <= 0 {
		return nil, errors.New("stress: workers and iterations must be positive")
	}
	if opts.SampleCap == 0 {
		opts.SampleCap = defaultSampleCap
	}

	pool, err := ants.NewPool(opts.Workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("stress: create pool: %w", err)
	}
	defer pool.Release()

	samples := queue.NewRingBuffer(opts.SampleCap)
	defer samples.Dispose()

	var (
		res      Result
		holders  atomic.Int32
		peak     atomic.Int32
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	worker := func() {
		defer wg.Done()
		for i := 0; i < opts.Iterations; i++ {
			start := time.Now()
			if err := s.AcquireContext(ctx); err != nil {
				fail(err)
				return
			}
			atomic.AddInt64(&res.Acquires, 1)
			// Full ring: later samples are dropped.
			_, _ = samples.Offer(time.Since(start))

			n := holders.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			if opts.Hold > 0 {
				time.Sleep(opts.Hold)
			}
			holders.Add(-1)

			if err := s.Release(); err != nil {
				fail(err)
				return
			}
			atomic.AddInt64(&res.Releases, 1)
		}
	}

	begin := time.Now()
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		if err := pool.Submit(worker); err != nil {
			wg.Done()
			fail(fmt.Errorf("stress: submit worker: %w", err))
			break
		}
	}
	wg.Wait()
	res.Elapsed = time.Since(begin)
	res.MaxHolders = peak.Load()

	for samples.Len() > 0 {
		item, err := samples.Get()
		if err != nil {
			break
		}
		res.Samples = append(res.Samples, item.(time.Duration))
	}
	res.summarize()
	logger.Internal.Debugf("stress: %s", res.String())

	if firstErr != nil {
		return &res, firstErr
	}
	return &res, nil
}

func (r *Result) summarize() {
	if len(r.Samples) == 0 {
		return
	}
	sorted := make([]time.Duration, len(r.Samples))
	copy(sorted, r.Samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	r.P50 = sorted[len(sorted)/2]
	r.P99 = sorted[(len(sorted)*99)/100]
	r.Max = sorted[len(sorted)-1]
}
