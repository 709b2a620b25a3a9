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
	"errors"
	"fmt"

	"github.com/srediag/shmsem/internal/futex"
)

var (
	// ErrInvalidWord is returned for a nil, misaligned or unmapped word.
	ErrInvalidWord = errors.New("sem: invalid semaphore word")
	// ErrUnsupported is returned when the host has no usable wait/wake primitive.
	ErrUnsupported = errors.New("sem: wait/wake primitive not supported on this host")
	// ErrOverflow is returned by Release when the count is already at its maximum.
	ErrOverflow = errors.New("sem: count overflow")
)

// fatal maps an error from the kernel primitive to the package's error set.
func fatal(op string, err error) error {
	switch {
	case errors.Is(err, futex.ErrFault), errors.Is(err, futex.ErrMisaligned):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidWord, err)
	case errors.Is(err, futex.ErrUnsupported):
		return fmt.Errorf("%s: %w", op, ErrUnsupported)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
