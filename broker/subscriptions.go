// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"log/slog"
	"sync"

	"github.com/courierq/courier/protocol"
)

// SubscriptionManager tracks which filter each connected client is bound
// to receive from. It forwards the resource allocation a subscription
// needs (topic mailboxes) to the queue store and keeps the binding and
// the store's registrations consistent.
type SubscriptionManager struct {
	mu            sync.Mutex
	store         *QueueStore
	subscriptions map[protocol.ClientID]protocol.QueueFilter
	logger        *slog.Logger
}

// NewSubscriptionManager creates a manager backed by the given store.
func NewSubscriptionManager(store *QueueStore, logger *slog.Logger) *SubscriptionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionManager{
		store:         store,
		subscriptions: make(map[protocol.ClientID]protocol.QueueFilter),
		logger:        logger,
	}
}

// Subscribe binds a client to a filter so subsequent receive requests can
// be served from it. A client holds one subscription at a time; binding a
// new filter releases the previous one. It reports false, and clears any
// existing binding, when the target does not exist.
func (m *SubscriptionManager) Subscribe(client protocol.ClientID, filter protocol.QueueFilter) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, had := m.subscriptions[client]

	if !m.store.RegisterClient(client, filter) {
		if had {
			delete(m.subscriptions, client)
			m.store.DeregisterClient(client, previous)
		}
		return false
	}

	if had && previous.Root() != filter.Root() {
		m.store.DeregisterClient(client, previous)
	}

	m.logger.Info("client subscribed",
		slog.String("client", string(client)),
		slog.String("filter", filter.String()))
	m.subscriptions[client] = filter
	return true
}

// Subscription returns the client's active filter, if any.
func (m *SubscriptionManager) Subscription(client protocol.ClientID) (protocol.QueueFilter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.subscriptions[client]
	return f, ok
}

// Subscribed reports whether the client is currently bound to the filter.
func (m *SubscriptionManager) Subscribed(client protocol.ClientID, filter protocol.QueueFilter) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.subscriptions[client]
	return ok && f == filter
}

// Disconnect releases a client's binding and its store registrations.
// Called by the session layer when the connection goes away.
func (m *SubscriptionManager) Disconnect(client protocol.ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter, ok := m.subscriptions[client]
	if !ok {
		return
	}
	delete(m.subscriptions, client)
	m.store.DeregisterClient(client, filter)
	m.logger.Debug("client deregistered", slog.String("client", string(client)))
}

// Receivers counts the clients currently subscribed to a buffer, for the
// administrative listing.
func (m *SubscriptionManager) Receivers(root protocol.QueueID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, f := range m.subscriptions {
		if f.Root() == root {
			count++
		}
	}
	return count
}
