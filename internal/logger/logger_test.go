/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
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

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
	saved int
}

func (s *LoggerTestSuite) SetupTest() {
	s.saved = int(level.Load())
}

func (s *LoggerTestSuite) TearDownTest() {
	SetLevel(s.saved)
}

func (s *LoggerTestSuite) TestLogColor() {
	SetLevel(LevelTrace)

	Internal.Tracef("this is tracef %s", "hello world")
	Internal.Debugf("this is debugf %s", "hello world")
	Internal.Infof("this is infof %s", "hello world")
	Internal.Info("this is info")
	Internal.Warnf("this is warnf %s", "hello world")
	Internal.Errorf("this is errorf %s", "hello world")
	Internal.Error("this is error")
}

func (s *LoggerTestSuite) TestLevelFilters() {
	var out bytes.Buffer
	l := New("sem", &out)

	SetLevel(LevelWarn)
	l.Debugf("hidden %d", 1)
	l.Info("hidden")
	s.Require().Zero(out.Len())

	l.Warnf("shown %d", 2)
	s.Require().Contains(out.String(), "Warn")
	s.Require().Contains(out.String(), "shown 2")
	s.Require().Contains(out.String(), " sem ")
}

func (s *LoggerTestSuite) TestLocationIsCaller() {
	var out bytes.Buffer
	l := New("", &out)
	SetLevel(LevelInfo)

	l.Infof("where")
	s.Require().Contains(out.String(), "logger_test.go:")

	out.Reset()
	l.Error("where")
	s.Require().Contains(out.String(), "logger_test.go:")
}

func (s *LoggerTestSuite) TestNoPrint() {
	var out bytes.Buffer
	l := New("", &out)
	SetLevel(LevelNoPrint)
	l.Errorf("never")
	s.Require().Zero(out.Len())
}

func (s *LoggerTestSuite) TestSetLevelIgnoresOutOfRange() {
	SetLevel(LevelDebug)
	SetLevel(LevelNoPrint + 1)
	SetLevel(-1)
	s.Require().Equal(int32(LevelDebug), level.Load())
}

func (s *LoggerTestSuite) TestNilLoggerIsSilent() {
	var l *Logger
	s.Require().NotPanics(func() { l.Errorf("x") })
}

func TestLoggerTestSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}
