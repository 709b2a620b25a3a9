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

// Package health provides liveness, readiness and metrics for a mapped
// semaphore region.
package health

import (
	"errors"
	"fmt"
	"os"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// Region is what the checks need from a mapped region.
type Region interface {
	Path() string
	Value() (uint32, error)
	Initialized() bool
}

var errNotInitialized = errors.New("region is not initialized")

// NewHandler returns an http.Handler serving /live and /ready for r.
//
// Liveness fails once r is closed. Readiness additionally fails while the
// region is not initialized or its backing file is gone, since no new
// participant could open it. When reg is non-nil the check results are also
// exported as gauges under namespace.
func NewHandler(r Region, reg prometheus.Registerer, namespace string) healthcheck.Handler {
	var h healthcheck.Handler
	if reg != nil {
		h = healthcheck.NewMetricsHandler(reg, namespace)
	} else {
		h = healthcheck.NewHandler()
	}

	h.AddLivenessCheck("region-mapped", func() error {
		_, err := r.Value()
		return err
	})
	h.AddReadinessCheck("region-initialized", func() error {
		if !r.Initialized() {
			return errNotInitialized
		}
		return nil
	})
	h.AddReadinessCheck("backing-file", func() error {
		if _, err := os.Stat(r.Path()); err != nil {
			return fmt.Errorf("stat %s: %w", r.Path(), err)
		}
		return nil
	})
	return h
}

// NewValueGauge exports the current count of r. It reports -1 once r can no
// longer be read.
func NewValueGauge(r Region, namespace string) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "semaphore_count",
		Help:        "Current count of the semaphore word.",
		ConstLabels: prometheus.Labels{"path": r.Path()},
	}, func() float64 {
		v, err := r.Value()
		if err != nil {
			return -1
		}
		return float64(v)
	})
}
