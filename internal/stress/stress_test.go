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

package stress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/shmsem/pkg/sem"
)

func newSemaphore(t *testing.T, word *uint32, count uint32) *sem.Semaphore {
	require.NoError(t, sem.Init(word, count))
	s, err := sem.New(word, sem.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	return s
}

func TestRunKeepsCount(t *testing.T) {
	var word uint32
	s := newSemaphore(t, &word, 2)

	res, err := Run(context.Background(), s, Options{Workers: 8, Iterations: 100, SampleCap: 64})
	require.NoError(t, err)

	assert.Equal(t, int64(800), res.Acquires)
	assert.Equal(t, int64(800), res.Releases)
	assert.LessOrEqual(t, res.MaxHolders, int32(2))
	assert.GreaterOrEqual(t, res.MaxHolders, int32(1))
	assert.Equal(t, uint32(2), s.Value())
	assert.NotEmpty(t, res.Samples)
	assert.LessOrEqual(t, len(res.Samples), 800)
	assert.LessOrEqual(t, res.P50, res.Max)
	assert.Contains(t, res.String(), "acquires:800")
}

func TestRunSingleHolderIsExclusive(t *testing.T) {
	var word uint32
	s := newSemaphore(t, &word, 1)

	res, err := Run(context.Background(), s, Options{Workers: 4, Iterations: 20, Hold: 100 * time.Microsecond})
	require.NoError(t, err)
	assert.Equal(t, int32(1), res.MaxHolders)
	assert.Equal(t, uint32(1), s.Value())
}

func TestRunCancelled(t *testing.T) {
	var word uint32
	s := newSemaphore(t, &word, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	res, err := Run(ctx, s, Options{Workers: 2, Iterations: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), res.Acquires)
	assert.Equal(t, uint32(0), s.Value())
}

func TestRunRejectsOptions(t *testing.T) {
	var word uint32
	s := newSemaphore(t, &word, 1)

	_, err := Run(context.Background(), s, Options{Workers: 0, Iterations: 1})
	assert.Error(t, err)
	_, err = Run(context.Background(), s, Options{Workers: 1, Iterations: 0})
	assert.Error(t, err)
}
