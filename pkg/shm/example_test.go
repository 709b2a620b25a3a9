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

package shm_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srediag/shmsem/pkg/shm"
)

func ExampleCreate() {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "shmsem")
	if err != nil {
		fmt.Println("failed to create dir:", err)
		return
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "ipc_lock")

	r, err := shm.Create(ctx, path, 1)
	if err != nil {
		fmt.Println("failed to create region:", err)
		return
	}
	defer r.Close()

	s, err := r.Semaphore()
	if err != nil {
		fmt.Println("failed to open semaphore:", err)
		return
	}
	_ = s.Acquire()
	fmt.Println("count after acquire:", s.Value())
	_ = s.Release()
	fmt.Println("count after release:", s.Value())
	// Output:
	// count after acquire: 0
	// count after release: 1
}
