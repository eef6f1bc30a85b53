// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"errors"
	"log/slog"

	"github.com/courierq/courier/protocol"
)

// DefaultDLXName is the name of the broker-wide default dead-letter queue.
const DefaultDLXName = "default_dlx"

// Router is the only component that publishes and re-routes messages; it
// encapsulates the dead-letter policy. It owns no locked state of its
// own: every mutation goes through the store's methods.
type Router struct {
	store      *QueueStore
	defaultDLX protocol.QueueID
	logger     *slog.Logger
	metrics    Metrics
}

// NewRouter creates a router and the default DLX queue it redirects to.
// The default DLX is system-owned, marked as a DLX sink and exists before
// any traffic is accepted.
func NewRouter(store *QueueStore, logger *slog.Logger, metrics Metrics) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	defaultDLX := protocol.NewQueueID(DefaultDLXName)
	store.CreateIfAbsent(defaultDLX, protocol.QueueProperties{
		System: protocol.SystemQueueProperties{IsSystem: true},
		User:   protocol.UserQueueProperties{IsDLX: true},
	})
	return &Router{
		store:      store,
		defaultDLX: defaultDLX,
		logger:     logger,
		metrics:    metrics,
	}
}

// Publish routes a message to its destination queue, regardless of buffer
// kind. On delivery failure the message is redirected to its dead-letter
// destination; the only failure surfaced to the caller afterwards is
// protocol.ErrNotFound. An empty topic fan-out is absorbed, since nobody
// listening is routine for topics.
func (r *Router) Publish(message protocol.Message) error {
	pub, ok := r.store.Publisher(message.RoutingKey.ID)
	if !ok {
		r.deadLetter(message)
		return protocol.ErrNotFound
	}

	err := pub.Publish(message)
	switch {
	case err == nil:
		r.metrics.MessagePublished()
		return nil
	case errors.Is(err, protocol.ErrNoRecipients):
		r.deadLetter(message)
		return nil
	case errors.Is(err, protocol.ErrNotFound):
		r.deadLetter(message)
		return protocol.ErrNotFound
	default:
		r.logger.Error("publish failed",
			slog.String("queue", message.RoutingKey.ID.String()),
			slog.String("error", err.Error()))
		r.deadLetter(message)
		return nil
	}
}

// ReceiveValid pops from the resolved receiver until a valid message is
// found or the buffer drains. Dead messages discovered on the way are
// each sent to their own dead-letter destination; expiry is discovered
// only here, on the read path. No error ever reaches the caller: a
// missing buffer or empty queue is a nil message.
func (r *Router) ReceiveValid(client protocol.ClientID, filter protocol.QueueFilter) *protocol.Message {
	message, dead := r.receiveUntilValid(client, filter)
	for _, m := range dead {
		r.metrics.MessageExpired()
		r.deadLetter(m)
	}
	if message != nil {
		r.metrics.MessageDelivered()
	}
	return message
}

func (r *Router) receiveUntilValid(client protocol.ClientID, filter protocol.QueueFilter) (*protocol.Message, []protocol.Message) {
	var dead []protocol.Message
	rx, ok := r.store.Receiver(client, filter)
	if !ok {
		return nil, nil
	}
	for {
		d, ok := rx.Receive()
		if !ok {
			return nil, dead
		}
		if d.State == StateDead {
			dead = append(dead, d.Message)
			continue
		}
		return &d.Message, dead
	}
}

// deadLetter redirects a failed message per its preference, logging
// instead of propagating: the drop preference is the terminal rule and
// anything else is an internal condition the original caller cannot act
// on.
func (r *Router) deadLetter(message protocol.Message) {
	if err := r.sendToDLX(message); err != nil {
		if errors.Is(err, protocol.ErrDropOnDLX) {
			r.logger.Warn("message dropped by DLX rule",
				slog.String("message", message.ID.String()))
			return
		}
		r.logger.Error("uncaught error sending message to DLX",
			slog.String("message", message.ID.String()),
			slog.String("error", err.Error()))
	}
}

// sendToDLX computes the dead-letter destination from the message's
// preference and republishes a new message there with the drop preference
// and a permanent TTL; dead-lettered messages do not re-expire. The drop
// case fails terminally, bounding the recursion through Publish.
func (r *Router) sendToDLX(message protocol.Message) error {
	r.logger.Debug("sending message to DLX",
		slog.String("message", message.ID.String()),
		slog.String("preference", message.RoutingKey.DLX.Kind.String()))

	var target protocol.QueueID
	switch message.RoutingKey.DLX.Kind {
	case protocol.DLXDefault:
		target = r.defaultDLX
	case protocol.DLXQueue:
		target = r.defaultDLX
		if props, ok := r.store.Properties(message.RoutingKey.ID); ok && props.User.DLX != nil {
			target = *props.User.DLX
		}
	case protocol.DLXOverride:
		target = message.RoutingKey.DLX.Target
	case protocol.DLXDrop:
		return protocol.ErrDropOnDLX
	default:
		return protocol.ErrInternal
	}

	key := protocol.NewRoutingKey(target, protocol.DLXPreference{Kind: protocol.DLXDrop})
	redirected := protocol.Message{
		ID:         message.ID,
		Payload:    message.Payload,
		RoutingKey: key,
		TTL:        protocol.PermanentTTL(),
	}
	if err := r.Publish(redirected); err != nil {
		return err
	}
	r.metrics.MessageDeadLettered()
	return nil
}

// DefaultDLX returns the identifier of the broker-wide default DLX.
func (r *Router) DefaultDLX() protocol.QueueID {
	return r.defaultDLX
}
