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

// Package shm provides the shared memory regions that hold a semaphore word.
//
// A region is a small file mapped MAP_SHARED into every participating
// process. Its layout is
//
//	offset 0: magic (0x53454D31, "SEM1"), published last by the initializer
//	offset 4: count, the semaphore word handed to package sem
//
// Example usage:
//
//	// creating process
//	r, err := shm.Create(ctx, shm.DefaultPath("ipc_lock"), 0)
//	// ...
//	defer r.Close()
//	s, _ := r.Semaphore()
//	_ = s.Acquire()
//
//	// other process
//	r, err := shm.Open(ctx, shm.DefaultPath("ipc_lock"))
//	s, _ := r.Semaphore()
//	_ = s.Release()
//
// Opening the same path more than once in a process shares one mapping; it
// is unmapped when the last Region for that path is closed.
//
// Platform-specific helpers are in internal/shm.
package shm
