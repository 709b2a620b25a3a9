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
	"errors"
)

const (
	// Magic marks an initialized region.
	Magic uint32 = 0x53454D31

	magicOffset = 0
	countOffset = 4

	// RegionSize is the size of the backing file.
	RegionSize = 8
)

var (
	// ErrNotInitialized is returned by Open for a region whose creator has not
	// finished initializing it.
	ErrNotInitialized = errors.New("shm: region is not initialized")
	// ErrExists is returned by Create for a region that is already initialized.
	ErrExists = errors.New("shm: region already initialized")
	// ErrClosed is returned when a closed Region is used.
	ErrClosed = errors.New("shm: region is closed")
)
