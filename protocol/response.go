// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

// QueueInfo is one row of the administrative listing.
type QueueInfo struct {
	ID        QueueID
	Senders   int
	Receivers int
	Depth     int
}

// PropertiesResponse carries a buffer's properties, or Found=false when
// the buffer does not exist.
type PropertiesResponse struct {
	Found      bool
	Properties QueueProperties
}

// ReceiveResponse carries at most one message. A nil Message is the
// routine "nothing available" outcome, not an error.
type ReceiveResponse struct {
	Message *Message
}

// SubtopicInfo is one subtopic and its registered subsubtopics.
type SubtopicInfo struct {
	Name        string
	Subsubtopic []string
}

// TopicBreakdownResponse describes a topic buffer's addressable tree.
// Found is false when the queried buffer is absent or not a topic.
type TopicBreakdownResponse struct {
	Found     bool
	Subtopics []SubtopicInfo
}
