// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"testing"

	"github.com/courierq/courier/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionManager_Subscribe(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewQueueID("orders"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	filter := protocol.NewQueueFilter("orders")
	assert.True(t, subs.Subscribe("c1", filter))
	assert.True(t, subs.Subscribed("c1", filter))

	got, ok := subs.Subscription("c1")
	require.True(t, ok)
	assert.Equal(t, filter, got)
}

func TestSubscriptionManager_SubscribeUnknownTargetClearsBinding(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewQueueID("orders"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	require.True(t, subs.Subscribe("c1", protocol.NewQueueFilter("orders")))

	// Binding to a nonexistent target fails and releases the old binding.
	assert.False(t, subs.Subscribe("c1", protocol.NewQueueFilter("missing")))
	_, ok := subs.Subscription("c1")
	assert.False(t, ok)
}

func TestSubscriptionManager_RebindReleasesPrevious(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewTopicID("metrics", "eu", "berlin"), protocol.QueueProperties{})
	store.Create(protocol.NewQueueID("orders"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	topicFilter := protocol.NewTopicFilter("metrics", protocol.Any(), protocol.Any())
	require.True(t, subs.Subscribe("c1", topicFilter))
	require.True(t, subs.Subscribe("c1", protocol.NewQueueFilter("orders")))

	// The topic registration is gone: publishing there finds no recipients.
	pub, ok := store.Publisher(protocol.NewTopicID("metrics", "eu", "berlin"))
	require.True(t, ok)
	err := pub.Publish(testMessage("orphan", protocol.PermanentTTL()))
	assert.ErrorIs(t, err, protocol.ErrNoRecipients)
}

func TestSubscriptionManager_RebindWithinTopic(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewTopicID("metrics", "eu", "berlin"), protocol.QueueProperties{})
	store.CreateIfAbsent(protocol.NewTopicID("metrics", "eu", "munich"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	require.True(t, subs.Subscribe("c1", protocol.NewTopicFilter("metrics", protocol.Lit("eu"), protocol.Lit("berlin"))))
	require.True(t, subs.Subscribe("c1", protocol.NewTopicFilter("metrics", protocol.Lit("eu"), protocol.Lit("munich"))))

	// The old filter no longer receives.
	pub, _ := store.Publisher(protocol.NewTopicID("metrics", "eu", "berlin"))
	assert.ErrorIs(t, pub.Publish(testMessage("old", protocol.PermanentTTL())), protocol.ErrNoRecipients)

	pub, _ = store.Publisher(protocol.NewTopicID("metrics", "eu", "munich"))
	assert.NoError(t, pub.Publish(testMessage("new", protocol.PermanentTTL())))
}

func TestSubscriptionManager_Disconnect(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewTopicID("metrics", "eu", "berlin"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	filter := protocol.NewTopicFilter("metrics", protocol.Lit("eu"), protocol.Lit("berlin"))
	require.True(t, subs.Subscribe("c1", filter))

	subs.Disconnect("c1")

	_, ok := subs.Subscription("c1")
	assert.False(t, ok)

	pub, _ := store.Publisher(protocol.NewTopicID("metrics", "eu", "berlin"))
	assert.ErrorIs(t, pub.Publish(testMessage("gone", protocol.PermanentTTL())), protocol.ErrNoRecipients)

	// Disconnecting an unknown client is a no-op.
	subs.Disconnect("c2")
}

func TestSubscriptionManager_Receivers(t *testing.T) {
	store := NewQueueStore(nil)
	store.Create(protocol.NewQueueID("orders"), protocol.QueueProperties{})
	store.Create(protocol.NewQueueID("invoices"), protocol.QueueProperties{})
	subs := NewSubscriptionManager(store, nil)

	require.True(t, subs.Subscribe("c1", protocol.NewQueueFilter("orders")))
	require.True(t, subs.Subscribe("c2", protocol.NewQueueFilter("orders")))
	require.True(t, subs.Subscribe("c3", protocol.NewQueueFilter("invoices")))

	assert.Equal(t, 2, subs.Receivers(protocol.NewQueueID("orders")))
	assert.Equal(t, 1, subs.Receivers(protocol.NewQueueID("invoices")))
	assert.Equal(t, 0, subs.Receivers(protocol.NewQueueID("missing")))
}
