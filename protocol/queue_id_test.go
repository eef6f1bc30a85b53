// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueID_Root(t *testing.T) {
	topic := NewTopicID("metrics", "eu", "berlin")
	assert.Equal(t, QueueID{Kind: KindTopic, Name: "metrics"}, topic.Root())

	queue := NewQueueID("orders")
	assert.Equal(t, queue, queue.Root())
}

func TestQueueID_DisjointKeySpaces(t *testing.T) {
	queue := NewQueueID("events")
	topic := QueueID{Kind: KindTopic, Name: "events"}

	// Same name, different kind: distinct map keys.
	assert.NotEqual(t, queue, topic)

	m := map[QueueID]int{queue: 1, topic: 2}
	assert.Len(t, m, 2)
}

func TestQueueID_ToFilter(t *testing.T) {
	queue := NewQueueID("orders")
	assert.Equal(t, NewQueueFilter("orders"), queue.ToFilter())

	topic := NewTopicID("metrics", "eu", "berlin")
	filter := topic.ToFilter()
	assert.True(t, filter.MatchesID(topic))
	assert.False(t, filter.MatchesID(NewTopicID("metrics", "eu", "munich")))
}

func TestQueueFilter_MatchesID(t *testing.T) {
	id := NewTopicID("metrics", "eu", "berlin")

	assert.True(t, NewTopicFilter("metrics", Lit("eu"), Lit("berlin")).MatchesID(id))
	assert.True(t, NewTopicFilter("metrics", Lit("eu"), Any()).MatchesID(id))
	assert.True(t, NewTopicFilter("metrics", Any(), Any()).MatchesID(id))
	assert.True(t, NewTopicFilter("metrics", Any(), Lit("berlin")).MatchesID(id))

	assert.False(t, NewTopicFilter("metrics", Lit("us"), Any()).MatchesID(id))
	assert.False(t, NewTopicFilter("other", Any(), Any()).MatchesID(id))
	assert.False(t, NewQueueFilter("metrics").MatchesID(id))
}

func TestQueueFilter_String(t *testing.T) {
	assert.Equal(t, "orders", NewQueueFilter("orders").String())
	assert.Equal(t, "metrics:eu:*", NewTopicFilter("metrics", Lit("eu"), Any()).String())
	assert.Equal(t, "metrics:*:*", NewTopicFilter("metrics", Any(), Any()).String())
}

func TestTopicLiteral_Matches(t *testing.T) {
	assert.True(t, Lit("eu").Matches("eu"))
	assert.False(t, Lit("eu").Matches("us"))
	assert.True(t, Any().Matches("anything"))
}
