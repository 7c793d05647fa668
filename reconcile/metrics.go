// Copyright 2026 The Peering Manager Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess     = "success"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

type syncMetrics struct {
	passes             *prometheus.CounterVec
	records            *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	lastSuccess        prometheus.Gauge
	duration           prometheus.Histogram
}

func (m *syncMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.passes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peering_manager_sync_passes_total",
			Help: "number of reconciliation passes by outcome",
		},
		[]string{"outcome"},
	)
	m.records = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peering_manager_sync_records_total",
			Help: "number of cache records changed by kind and action",
		},
		[]string{"kind", "action"},
	)
	m.validationFailures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peering_manager_sync_validation_failures_total",
			Help: "number of registry records skipped by kind",
		},
		[]string{"kind"},
	)
	m.lastSuccess = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "peering_manager_sync_last_success_timestamp_seconds",
		Help: "start time of the last successful reconciliation pass",
	})
	m.duration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "peering_manager_sync_duration_seconds",
			Help:    "duration of reconciliation passes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~3m
		},
	)
}

func (m *syncMetrics) observe(res *Result, outcome string) {
	m.passes.WithLabelValues(outcome).Inc()
	if res == nil {
		return
	}
	m.duration.Observe(res.Duration.Seconds())
	if outcome != outcomeSuccess {
		return
	}
	m.lastSuccess.Set(float64(res.Started.Unix()))
	for kindName, c := range res.Changes {
		m.records.WithLabelValues(kindName, "added").Add(float64(c.Added))
		m.records.WithLabelValues(kindName, "updated").Add(float64(c.Updated))
		m.records.WithLabelValues(kindName, "deleted").Add(float64(c.Deleted))
	}
	for _, f := range res.Failures {
		m.validationFailures.WithLabelValues(f.Kind).Inc()
	}
}
