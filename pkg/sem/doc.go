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

// Package sem provides a counting semaphore whose entire state is one 32-bit
// word, so it can live in memory shared between unrelated processes.
//
// The word is passed explicitly to every operation. The package never owns,
// frees or resizes the memory behind it; whoever maps the memory must keep the
// mapping alive while any operation is in progress.
//
// Init must happen-before the first Acquire or Release issued by any party.
// Typically the process that creates the backing file calls Init before it
// starts the other participants.
//
// Example usage:
//
//	word := region.Word() // a *uint32 inside a MAP_SHARED mapping
//	if err := sem.Init(word, 0); err != nil {
//	  // ...
//	}
//	// in another process mapping the same file:
//	_ = sem.Release(word)
//	// here:
//	_ = sem.Acquire(word) // blocks until the release above
package sem
