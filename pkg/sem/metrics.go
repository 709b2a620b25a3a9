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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus counters of one or more Semaphore handles.
// It implements prometheus.Collector.
type Metrics struct {
	Acquires prometheus.Counter
	Releases prometheus.Counter
	Waits    prometheus.Counter
	Wakes    prometheus.Counter
	Failures *prometheus.CounterVec
}

// NewMetrics creates unregistered counters under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Acquires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semaphore_acquires_total",
			Help:      "Total number of completed acquire operations.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semaphore_releases_total",
			Help:      "Total number of completed release operations.",
		}),
		Waits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semaphore_waits_total",
			Help:      "Total number of kernel waits issued by acquire.",
		}),
		Wakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semaphore_woken_total",
			Help:      "Total number of waiters woken by release.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semaphore_failures_total",
			Help:      "Total number of failed operations.",
		}, []string{"op"}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.Acquires.Describe(ch)
	m.Releases.Describe(ch)
	m.Waits.Describe(ch)
	m.Wakes.Describe(ch)
	m.Failures.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.Acquires.Collect(ch)
	m.Releases.Collect(ch)
	m.Waits.Collect(ch)
	m.Wakes.Collect(ch)
	m.Failures.Collect(ch)
}

func (m *Metrics) acquired() {
	if m != nil {
		m.Acquires.Inc()
	}
}

func (m *Metrics) released() {
	if m != nil {
		m.Releases.Inc()
	}
}

func (m *Metrics) waited() {
	if m != nil {
		m.Waits.Inc()
	}
}

func (m *Metrics) woke(n int) {
	if m != nil && n > 0 {
		m.Wakes.Add(float64(n))
	}
}

func (m *Metrics) failed(op string) {
	if m != nil {
		m.Failures.WithLabelValues(op).Inc()
	}
}
