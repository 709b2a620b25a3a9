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
	"os"

	internalshm "github.com/srediag/shmsem/internal/shm"
)

// Detail is a snapshot of a region's header read straight from its file.
type Detail struct {
	Path        string
	Size        int
	Magic       uint32
	Count       uint32
	Initialized bool
}

// ReadDetail reads the header of the region file at path without mapping it.
func ReadDetail(path string) (Detail, error) {
	mem, err := os.ReadFile(path)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Path: path, Size: len(mem)}
	if len(mem) < RegionSize {
		return d, fmt.Errorf("shm: %s holds %d bytes, want at least %d", path, len(mem), RegionSize)
	}
	if d.Magic, err = internalshm.AtomicLoadUint32(mem, magicOffset); err != nil {
		return d, err
	}
	if d.Count, err = internalshm.AtomicLoadUint32(mem, countOffset); err != nil {
		return d, err
	}
	d.Initialized = d.Magic == Magic
	return d, nil
}

// DebugRegionDetail print the region's header which was mmap in the `path`
func DebugRegionDetail(path string) {
	d, err := ReadDetail(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("path:%s size:%d magic:%#x count:%d initialized:%t\n",
		d.Path, d.Size, d.Magic, d.Count, d.Initialized)
}
