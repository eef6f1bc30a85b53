// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"time"

	"github.com/courierq/courier/protocol"
)

// MessageState classifies a dequeued message against its TTL.
type MessageState byte

const (
	// StateValid means the message may still be delivered.
	StateValid MessageState = iota
	// StateDead means the message outlived its TTL and must be routed to
	// its dead-letter destination instead of a subscriber.
	StateDead
)

// DequeuedMessage is a message popped off a queue together with its
// validity at the time of the pop.
type DequeuedMessage struct {
	Message protocol.Message
	State   MessageState
}

type queuedMessage struct {
	message    protocol.Message
	insertedAt time.Time
}

// Queue is an ordered in-memory message buffer with per-message TTL.
// Expiry is discovered lazily on Pop; nothing sweeps the buffer in the
// background. Queue is not safe for concurrent use; the owning store's
// lock covers it.
type Queue struct {
	messages []queuedMessage
	now      func() time.Time
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Push appends a message to the tail, stamping its insertion time.
func (q *Queue) Push(message protocol.Message) {
	q.messages = append(q.messages, queuedMessage{
		message:    message,
		insertedAt: q.now(),
	})
}

// Pop removes the head message and classifies it. The second return is
// false when the queue is empty, which is a routine outcome.
func (q *Queue) Pop() (DequeuedMessage, bool) {
	if len(q.messages) == 0 {
		return DequeuedMessage{}, false
	}
	head := q.messages[0]
	q.messages = q.messages[1:]

	state := StateValid
	if !head.message.TTL.Permanent && !q.now().Before(head.insertedAt.Add(head.message.TTL.Duration)) {
		state = StateDead
	}
	return DequeuedMessage{Message: head.message, State: state}, true
}

// Len reports the number of buffered messages, expired ones included.
func (q *Queue) Len() int {
	return len(q.messages)
}
