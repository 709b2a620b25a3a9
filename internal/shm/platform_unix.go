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
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"

	"github.com/srediag/shmsem/internal/logger"
)

const devShm = "/dev/shm"

// DefaultPath returns where a region called name lives by default.
func DefaultPath(name string) string {
	if runtime.GOOS == "linux" {
		return filepath.Join(devShm, name)
	}
	return filepath.Join(os.TempDir(), name)
}

// MapRegion maps, and when opts.Create is set creates, the backing file at
// opts.Path. An existing file shorter than opts.Size is grown only when
// opts.Create is set.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if opts.Size <= 0 {
		return nil, ErrInvalidSize
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	flags := unix.O_RDWR | unix.O_CLOEXEC
	if opts.Create {
		if !canCreateOnDevShm(uint64(opts.Size), opts.Path) {
			return nil, fmt.Errorf("%w: path:%s, size:%d", ErrNoSpace, opts.Path, opts.Size)
		}
		flags |= unix.O_CREAT
	}

	if opts.Create {
		// O_EXCL first, so the caller learns whether it owns initialization.
		fd, err := unix.Open(opts.Path, flags|unix.O_EXCL, 0600)
		if err == nil {
			return mapFd(fd, opts, true)
		}
		if !errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("open: %w", err)
		}
	}
	fd, err := unix.Open(opts.Path, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return mapFd(fd, opts, false)
}

func mapFd(fd int, opts MapOptions, created bool) (*MappedRegion, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fstat: %w", err)
	}
	if st.Size < int64(opts.Size) {
		if !opts.Create {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("%w: path:%s, have:%d, want:%d", ErrTooSmall, opts.Path, st.Size, opts.Size)
		}
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
	}
	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &MappedRegion{
		Addr:    addr,
		Path:    opts.Path,
		Fd:      fd,
		Created: created,
	}, nil
}

// UnmapRegion unmaps the region and closes its file descriptor.
// The backing file is left in place.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := unix.Munmap(region.Addr); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	region.Addr = nil
	if err := unix.Close(region.Fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// canCreateOnDevShm only checks /dev/shm, every other path is assumed to fit.
func canCreateOnDevShm(size uint64, path string) bool {
	if runtime.GOOS != "linux" || !strings.HasPrefix(path, devShm) {
		return true
	}
	stat, err := disk.Usage(devShm)
	if err != nil {
		logger.Internal.Warnf("could not read %s free size, assuming %d bytes fit: %v", devShm, size, err)
		return true
	}
	return stat.Free >= size
}
