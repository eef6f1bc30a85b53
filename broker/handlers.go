// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"errors"

	"github.com/courierq/courier/protocol"
)

// One handler type per request kind. Each holds only the shared
// references it needs and performs exactly one logical operation per
// call; no handler keeps state of its own.

// ListQueuesHandler serves the administrative listing.
type ListQueuesHandler struct {
	store *QueueStore
	subs  *SubscriptionManager
}

func (h *ListQueuesHandler) Handle(_ protocol.ListQueues, _ protocol.ClientID) ([]protocol.QueueInfo, error) {
	infos := h.store.List()
	for i := range infos {
		if infos[i].ID.Kind == protocol.KindQueue {
			infos[i].Receivers = h.subs.Receivers(infos[i].ID)
		}
	}
	return infos, nil
}

// CheckQueueHandler reports buffer existence.
type CheckQueueHandler struct {
	store *QueueStore
}

func (h *CheckQueueHandler) Handle(req protocol.CheckQueue, _ protocol.ClientID) (protocol.Status, error) {
	if h.store.Exists(req.Queue) {
		return protocol.StatusExists, nil
	}
	return protocol.StatusFailed, nil
}

// CreateQueueHandler creates buffers. Re-creating an existing buffer is
// rejected rather than silently resetting it, so buffered messages are
// never discarded by a duplicate create.
type CreateQueueHandler struct {
	store *QueueStore
}

func (h *CreateQueueHandler) Handle(req protocol.CreateQueue, _ protocol.ClientID) (protocol.Status, error) {
	props := protocol.QueueProperties{User: req.Properties}
	if h.store.CreateIfAbsent(req.Queue, props) {
		return protocol.StatusCreated, nil
	}
	return protocol.StatusExists, nil
}

// DeleteQueueHandler removes buffers; the store refuses system buffers.
type DeleteQueueHandler struct {
	store *QueueStore
}

func (h *DeleteQueueHandler) Handle(req protocol.DeleteQueue, _ protocol.ClientID) (protocol.Status, error) {
	if h.store.Delete(req.Queue) {
		return protocol.StatusRemoved, nil
	}
	return protocol.StatusNotFound, nil
}

// GetPropertiesHandler reads a buffer's property set.
type GetPropertiesHandler struct {
	store *QueueStore
}

func (h *GetPropertiesHandler) Handle(req protocol.GetProperties, _ protocol.ClientID) (protocol.PropertiesResponse, error) {
	props, ok := h.store.Properties(req.Queue)
	return protocol.PropertiesResponse{Found: ok, Properties: props}, nil
}

// PublishHandler routes one message. The router's internal absorption of
// an empty fan-out is not reported; only a truly absent destination is.
type PublishHandler struct {
	router *Router
}

func (h *PublishHandler) Handle(req protocol.Publish, _ protocol.ClientID) (protocol.Status, error) {
	if err := h.router.Publish(req.Message); err != nil {
		if errors.Is(err, protocol.ErrNotFound) {
			return protocol.StatusNotFound, nil
		}
		return protocol.StatusError, err
	}
	return protocol.StatusSent, nil
}

// SubscribeHandler binds the requesting client to a filter.
type SubscribeHandler struct {
	subs *SubscriptionManager
}

func (h *SubscribeHandler) Handle(req protocol.Subscribe, client protocol.ClientID) (protocol.Status, error) {
	if h.subs.Subscribe(client, req.Filter) {
		return protocol.StatusConfigured, nil
	}
	return protocol.StatusNotFound, nil
}

// ReceiveHandler polls the client's subscription for the next valid
// message. No subscription or an empty buffer is a nil message, never an
// error.
type ReceiveHandler struct {
	subs   *SubscriptionManager
	router *Router
}

func (h *ReceiveHandler) Handle(_ protocol.Receive, client protocol.ClientID) (protocol.ReceiveResponse, error) {
	filter, ok := h.subs.Subscription(client)
	if !ok {
		return protocol.ReceiveResponse{}, nil
	}
	return protocol.ReceiveResponse{Message: h.router.ReceiveValid(client, filter)}, nil
}

// TopicBreakdownHandler reads a topic's addressable subtopic tree.
type TopicBreakdownHandler struct {
	store *QueueStore
}

func (h *TopicBreakdownHandler) Handle(req protocol.GetTopicBreakdown, _ protocol.ClientID) (protocol.TopicBreakdownResponse, error) {
	return h.store.Breakdown(req.Topic), nil
}
