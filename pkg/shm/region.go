//go:build linux || darwin || freebsd || netbsd || openbsd

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
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/shmsem/internal/logger"
	internalshm "github.com/srediag/shmsem/internal/shm"
	"github.com/srediag/shmsem/pkg/sem"
)

// DefaultPath returns where a region called name lives by default.
func DefaultPath(name string) string {
	return internalshm.DefaultPath(name)
}

type mapping struct {
	region *internalshm.MappedRegion
	refs   int
}

// regions holds one refcounted mapping per path.
var regions = cmap.New[*mapping]()

// Region is one reference on a mapped semaphore region.
type Region struct {
	path   string
	count  *uint32
	magic  *uint32
	closed atomic.Bool
}

// Create maps the region at path, creating the backing file if needed, and
// initializes its count to initialCount.
//
// Only one party may create a given region. Two Create calls racing on the
// same uninitialized file both write the count; coordinating that is the
// caller's job.
func Create(ctx context.Context, path string, initialCount uint32) (*Region, error) {
	r, created, err := openRegion(ctx, path, true)
	if err != nil {
		return nil, err
	}
	if !created && atomic.LoadUint32(r.magic) == Magic {
		_ = r.Close()
		return nil, fmt.Errorf("%w: path:%s", ErrExists, path)
	}
	if err := sem.Init(r.count, initialCount); err != nil {
		_ = r.Close()
		return nil, err
	}
	// Published after the count, so anyone observing the magic sees the count.
	atomic.StoreUint32(r.magic, Magic)
	logger.Internal.Infof("shm: created region %s with count %d", path, initialCount)
	return r, nil
}

// Open maps an existing, initialized region.
func Open(ctx context.Context, path string) (*Region, error) {
	r, _, err := openRegion(ctx, path, false)
	if errors.Is(err, internalshm.ErrTooSmall) {
		// The creator has not grown the file yet.
		return nil, fmt.Errorf("%w: path:%s: %v", ErrNotInitialized, path, err)
	}
	if err != nil {
		return nil, err
	}
	if atomic.LoadUint32(r.magic) != Magic {
		_ = r.Close()
		return nil, fmt.Errorf("%w: path:%s", ErrNotInitialized, path)
	}
	return r, nil
}

func openRegion(ctx context.Context, path string, create bool) (*Region, bool, error) {
	var (
		mapErr  error
		created bool
	)
	m := regions.Upsert(path, nil, func(exist bool, cur *mapping, _ *mapping) *mapping {
		if exist && cur != nil {
			cur.refs++
			return cur
		}
		region, err := internalshm.MapRegion(ctx, internalshm.MapOptions{
			Path:   path,
			Size:   RegionSize,
			Create: create,
		})
		if err != nil {
			mapErr = err
			return nil
		}
		created = region.Created
		return &mapping{region: region, refs: 1}
	})
	if mapErr != nil {
		regions.RemoveCb(path, func(_ string, v *mapping, exists bool) bool {
			return exists && v == nil
		})
		return nil, false, mapErr
	}

	mem := m.region.Addr
	count, err := internalshm.Uint32At(mem, countOffset)
	if err != nil {
		_ = release(path)
		return nil, false, err
	}
	magic, err := internalshm.Uint32At(mem, magicOffset)
	if err != nil {
		_ = release(path)
		return nil, false, err
	}
	return &Region{path: path, count: count, magic: magic}, created, nil
}

// release drops one reference on path and unmaps it with the last one.
func release(path string) error {
	var last *internalshm.MappedRegion
	regions.RemoveCb(path, func(_ string, m *mapping, exists bool) bool {
		if !exists || m == nil {
			return false
		}
		m.refs--
		if m.refs > 0 {
			return false
		}
		last = m.region
		return true
	})
	if last == nil {
		return nil
	}
	logger.Internal.Debugf("shm: unmapping region %s", path)
	return internalshm.UnmapRegion(context.Background(), last)
}

// Path returns the backing file path.
func (r *Region) Path() string {
	return r.path
}

// Word returns the semaphore word inside the mapping. It must not be used
// after Close.
func (r *Region) Word() *uint32 {
	return r.count
}

// Value returns the current count.
func (r *Region) Value() (uint32, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	return atomic.LoadUint32(r.count), nil
}

// Initialized reports whether the region's magic is published.
func (r *Region) Initialized() bool {
	return !r.closed.Load() && atomic.LoadUint32(r.magic) == Magic
}

// Semaphore returns a handle on the region's word.
func (r *Region) Semaphore(opts ...sem.Option) (*sem.Semaphore, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	return sem.New(r.count, opts...)
}

// Close drops this reference on the mapping. Closing twice is a no-op.
// The backing file is left in place; see Remove.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return release(r.path)
}

// Remove deletes the backing file. Processes that still map it keep working
// on the old pages.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("shm: remove %s: %w", path, err)
	}
	return nil
}
