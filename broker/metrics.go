// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import "time"

// Metrics receives broker-level measurements. Implementations must be
// safe for concurrent use; the OpenTelemetry implementation lives in
// server/otel, and NoopMetrics serves tests and metrics-disabled runs.
type Metrics interface {
	MessagePublished()
	MessageDelivered()
	MessageDeadLettered()
	MessageExpired()
	RequestHandled(kind string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) MessagePublished()                    {}
func (noopMetrics) MessageDelivered()                    {}
func (noopMetrics) MessageDeadLettered()                 {}
func (noopMetrics) MessageExpired()                      {}
func (noopMetrics) RequestHandled(string, time.Duration) {}

// NoopMetrics discards all measurements.
func NoopMetrics() Metrics {
	return noopMetrics{}
}
