// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OpenTelemetry metric instruments for the broker.
type Metrics struct {
	meter metric.Meter

	// Counters
	messagesPublished    metric.Int64Counter
	messagesDelivered    metric.Int64Counter
	messagesDeadLettered metric.Int64Counter
	messagesExpired      metric.Int64Counter

	// Histograms
	requestDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		meter: otel.Meter("courier-broker"),
	}

	var err error

	m.messagesPublished, err = m.meter.Int64Counter(
		"courier.messages.published.total",
		metric.WithDescription("Total messages accepted for routing"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesPublished counter: %w", err)
	}

	m.messagesDelivered, err = m.meter.Int64Counter(
		"courier.messages.delivered.total",
		metric.WithDescription("Total messages handed to receivers"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesDelivered counter: %w", err)
	}

	m.messagesDeadLettered, err = m.meter.Int64Counter(
		"courier.messages.dead_lettered.total",
		metric.WithDescription("Total messages redirected to a dead letter exchange"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesDeadLettered counter: %w", err)
	}

	m.messagesExpired, err = m.meter.Int64Counter(
		"courier.messages.expired.total",
		metric.WithDescription("Total messages found dead on dequeue"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesExpired counter: %w", err)
	}

	m.requestDuration, err = m.meter.Float64Histogram(
		"courier.request.duration.ms",
		metric.WithDescription("Request handling duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requestDuration histogram: %w", err)
	}

	return m, nil
}

// MessagePublished records a message accepted for routing.
func (m *Metrics) MessagePublished() {
	m.messagesPublished.Add(context.Background(), 1)
}

// MessageDelivered records a message handed to a receiver.
func (m *Metrics) MessageDelivered() {
	m.messagesDelivered.Add(context.Background(), 1)
}

// MessageDeadLettered records a message redirected to a dead letter exchange.
func (m *Metrics) MessageDeadLettered() {
	m.messagesDeadLettered.Add(context.Background(), 1)
}

// MessageExpired records a message found dead on dequeue.
func (m *Metrics) MessageExpired() {
	m.messagesExpired.Add(context.Background(), 1)
}

// RequestHandled records the duration of a handled request by kind.
func (m *Metrics) RequestHandled(kind string, d time.Duration) {
	m.requestDuration.Record(context.Background(), float64(d.Milliseconds()),
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
