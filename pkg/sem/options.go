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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/srediag/shmsem/internal/logger"
)

const (
	instrumentationName = "github.com/srediag/shmsem/pkg/sem"

	// DefaultPollInterval bounds each kernel wait of AcquireContext when the
	// context has no earlier deadline, so cancellation is observed.
	DefaultPollInterval = 50 * time.Millisecond
)

// Option configures a Semaphore handle.
type Option func(*options)

type options struct {
	metrics      *Metrics
	tracer       trace.Tracer
	meter        metric.Meter
	waitDuration metric.Float64Histogram
	log          *logger.Logger
	pollInterval time.Duration
}

func defaultOptions() options {
	return options{
		tracer:       tracenoop.NewTracerProvider().Tracer(instrumentationName),
		waitDuration: metricnoop.Float64Histogram{},
		log:          logger.Internal,
		pollInterval: DefaultPollInterval,
	}
}

func (o *options) build() error {
	if o.pollInterval <= 0 {
		return fmt.Errorf("sem: poll interval must be positive, got %s", o.pollInterval)
	}
	if o.meter == nil {
		return nil
	}
	h, err := o.meter.Float64Histogram("shmsem.acquire.wait.duration",
		metric.WithDescription("Time spent blocked in acquire."),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("sem: create wait histogram: %w", err)
	}
	o.waitDuration = h
	return nil
}

// WithMetrics counts operations into m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer records a span around every blocking wait.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMeter records the duration of every blocking wait in a histogram.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithLogger replaces the internal logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPollInterval sets how long a single kernel wait of AcquireContext may
// last before the context is checked again.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) { o.pollInterval = d }
}
