// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"testing"
	"time"

	"github.com/courierq/courier/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(text string, ttl protocol.TTL) protocol.Message {
	key := protocol.NewRoutingKey(protocol.NewQueueID("orders"), protocol.DLXPreference{})
	return protocol.NewMessage(protocol.TextPayload(text), key, ttl)
}

func TestQueue_PushPop(t *testing.T) {
	q := NewQueue()

	q.Push(testMessage("first", protocol.PermanentTTL()))
	q.Push(testMessage("second", protocol.PermanentTTL()))

	assert.Equal(t, 2, q.Len())

	d, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "first", d.Message.Payload.Text)
	assert.Equal(t, StateValid, d.State)

	d, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "second", d.Message.Payload.Text)

	assert.Equal(t, 0, q.Len())
}

func TestQueue_PopEmpty(t *testing.T) {
	q := NewQueue()

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_TTLExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	q := NewQueue()
	q.now = func() time.Time { return now }

	q.Push(testMessage("short", protocol.DurationTTL(5*time.Second)))
	q.Push(testMessage("long", protocol.DurationTTL(time.Hour)))

	now = now.Add(10 * time.Second)

	d, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, StateDead, d.State)
	assert.Equal(t, "short", d.Message.Payload.Text)

	d, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, StateValid, d.State)
	assert.Equal(t, "long", d.Message.Payload.Text)
}

func TestQueue_TTLBoundary(t *testing.T) {
	now := time.Unix(1000, 0)
	q := NewQueue()
	q.now = func() time.Time { return now }

	q.Push(testMessage("edge", protocol.DurationTTL(5*time.Second)))

	// Validity holds strictly before inserted_at+d; at the boundary the
	// message is already dead.
	now = now.Add(5 * time.Second)

	d, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, StateDead, d.State)
}

func TestQueue_PermanentNeverExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	q := NewQueue()
	q.now = func() time.Time { return now }

	q.Push(testMessage("keep", protocol.PermanentTTL()))

	now = now.Add(1000 * time.Hour)

	d, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, StateValid, d.State)
}

func TestQueue_ExpiredStaysUntilPopped(t *testing.T) {
	now := time.Unix(1000, 0)
	q := NewQueue()
	q.now = func() time.Time { return now }

	q.Push(testMessage("stale", protocol.DurationTTL(time.Second)))
	now = now.Add(time.Minute)

	// Expiry is lazy; the message still counts until a pop classifies it.
	assert.Equal(t, 1, q.Len())
}
