// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

// RequestKind tags the nine request types on the wire.
type RequestKind byte

const (
	ReqListQueues RequestKind = iota
	ReqCheckQueue
	ReqCreateQueue
	ReqDeleteQueue
	ReqGetProperties
	ReqPublish
	ReqSubscribe
	ReqReceive
	ReqGetTopicBreakdown
)

func (k RequestKind) String() string {
	switch k {
	case ReqListQueues:
		return "list_queues"
	case ReqCheckQueue:
		return "check_queue"
	case ReqCreateQueue:
		return "create_queue"
	case ReqDeleteQueue:
		return "delete_queue"
	case ReqGetProperties:
		return "get_properties"
	case ReqPublish:
		return "publish"
	case ReqSubscribe:
		return "subscribe"
	case ReqReceive:
		return "receive"
	case ReqGetTopicBreakdown:
		return "get_topic_breakdown"
	default:
		return "unknown"
	}
}

// Request is one decoded client request. The dispatcher type-switches on
// the concrete type.
type Request interface {
	Kind() RequestKind
}

// ListQueues asks for the administrative listing of all buffers.
type ListQueues struct{}

// CheckQueue asks whether a buffer exists.
type CheckQueue struct {
	Queue QueueID
}

// CreateQueue creates a buffer with the given user properties.
type CreateQueue struct {
	Queue      QueueID
	Properties UserQueueProperties
}

// DeleteQueue removes a buffer. System buffers refuse deletion.
type DeleteQueue struct {
	Queue QueueID
}

// GetProperties asks for a buffer's property set.
type GetProperties struct {
	Queue QueueID
}

// Publish routes one message to its destination.
type Publish struct {
	Message Message
}

// Subscribe binds the requesting client to a filter for later receives.
type Subscribe struct {
	Filter QueueFilter
}

// Receive polls the requesting client's current subscription for the next
// valid message.
type Receive struct{}

// GetTopicBreakdown asks for the subtopic tree of a topic buffer.
type GetTopicBreakdown struct {
	Topic string
}

func (ListQueues) Kind() RequestKind        { return ReqListQueues }
func (CheckQueue) Kind() RequestKind        { return ReqCheckQueue }
func (CreateQueue) Kind() RequestKind       { return ReqCreateQueue }
func (DeleteQueue) Kind() RequestKind       { return ReqDeleteQueue }
func (GetProperties) Kind() RequestKind     { return ReqGetProperties }
func (Publish) Kind() RequestKind           { return ReqPublish }
func (Subscribe) Kind() RequestKind         { return ReqSubscribe }
func (Receive) Kind() RequestKind           { return ReqReceive }
func (GetTopicBreakdown) Kind() RequestKind { return ReqGetTopicBreakdown }
