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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegionTestSuite struct {
	suite.Suite
	ctx  context.Context
	path string
}

func (s *RegionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "ipc_lock")
}

func (s *RegionTestSuite) TestCreateThenOpen() {
	r1, err := Create(s.ctx, s.path, 3)
	s.Require().NoError(err)
	defer r1.Close()
	s.Require().True(r1.Initialized())

	r2, err := Open(s.ctx, s.path)
	s.Require().NoError(err)
	defer r2.Close()

	v, err := r2.Value()
	s.Require().NoError(err)
	s.Require().Equal(uint32(3), v)
	s.Require().Equal(s.path, r2.Path())
}

func (s *RegionTestSuite) TestCreateExisting() {
	r, err := Create(s.ctx, s.path, 0)
	s.Require().NoError(err)
	defer r.Close()

	_, err = Create(s.ctx, s.path, 0)
	s.Require().ErrorIs(err, ErrExists)
}

func (s *RegionTestSuite) TestCreateOverZeroedFile() {
	s.Require().NoError(os.WriteFile(s.path, make([]byte, RegionSize), 0600))

	r, err := Create(s.ctx, s.path, 1)
	s.Require().NoError(err)
	defer r.Close()
	v, err := r.Value()
	s.Require().NoError(err)
	s.Require().Equal(uint32(1), v)
}

func (s *RegionTestSuite) TestOpenUninitialized() {
	s.Require().NoError(os.WriteFile(s.path, make([]byte, RegionSize), 0600))

	_, err := Open(s.ctx, s.path)
	s.Require().ErrorIs(err, ErrNotInitialized)
	s.Require().False(regions.Has(s.path), "failed open must not leak a mapping")
}

func (s *RegionTestSuite) TestOpenEmptyFile() {
	s.Require().NoError(os.WriteFile(s.path, nil, 0600))

	_, err := Open(s.ctx, s.path)
	s.Require().ErrorIs(err, ErrNotInitialized)
	s.Require().False(regions.Has(s.path))
}

func (s *RegionTestSuite) TestOpenMissing() {
	_, err := Open(s.ctx, s.path)
	s.Require().Error(err)
	s.Require().False(regions.Has(s.path))
}

func (s *RegionTestSuite) TestMappingIsShared() {
	r1, err := Create(s.ctx, s.path, 0)
	s.Require().NoError(err)
	r2, err := Open(s.ctx, s.path)
	s.Require().NoError(err)

	s.Require().Same(r1.Word(), r2.Word())

	s.Require().NoError(r1.Close())
	s.Require().True(regions.Has(s.path))
	_, err = r1.Value()
	s.Require().ErrorIs(err, ErrClosed)

	sm, err := r2.Semaphore()
	s.Require().NoError(err)
	s.Require().NoError(sm.Release())
	s.Require().NoError(sm.Acquire())

	s.Require().NoError(r2.Close())
	s.Require().NoError(r2.Close())
	s.Require().False(regions.Has(s.path))
}

func (s *RegionTestSuite) TestSemaphoreOnClosedRegion() {
	r, err := Create(s.ctx, s.path, 0)
	s.Require().NoError(err)
	s.Require().NoError(r.Close())

	_, err = r.Semaphore()
	s.Require().ErrorIs(err, ErrClosed)
	s.Require().False(r.Initialized())
}

func (s *RegionTestSuite) TestReadDetail() {
	r, err := Create(s.ctx, s.path, 5)
	s.Require().NoError(err)
	defer r.Close()

	d, err := ReadDetail(s.path)
	s.Require().NoError(err)
	s.Require().True(d.Initialized)
	s.Require().Equal(Magic, d.Magic)
	s.Require().Equal(uint32(5), d.Count)
	s.Require().Equal(RegionSize, d.Size)

	DebugRegionDetail(s.path)
	DebugRegionDetail(filepath.Join(s.T().TempDir(), "missing"))
}

func (s *RegionTestSuite) TestReadDetailShortFile() {
	s.Require().NoError(os.WriteFile(s.path, []byte{1, 2}, 0600))
	_, err := ReadDetail(s.path)
	s.Require().Error(err)
}

func (s *RegionTestSuite) TestRemove() {
	r, err := Create(s.ctx, s.path, 0)
	s.Require().NoError(err)
	s.Require().NoError(r.Close())

	s.Require().NoError(Remove(s.path))
	s.Require().NoError(Remove(s.path))
	_, err = os.Stat(s.path)
	s.Require().True(os.IsNotExist(err))
}

func TestRegionTestSuite(t *testing.T) {
	suite.Run(t, new(RegionTestSuite))
}
