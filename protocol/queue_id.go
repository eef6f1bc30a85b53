// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

import "strings"

const topicDelimiter = ":"

// Wildcard is the printable form of a wildcard filter component.
const Wildcard = "*"

// BufferKind distinguishes the two buffer families managed by the broker.
// Queue and topic identifiers never collide, even when their names do.
type BufferKind byte

const (
	KindQueue BufferKind = iota
	KindTopic
)

func (k BufferKind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// ClientID is the stable identity of a connected client, derived from its
// transport-level address.
type ClientID string

// TopicLiteral is one component of a topic subscription filter: either a
// concrete name or a wildcard matching any name at that position.
type TopicLiteral struct {
	Name     string
	Wildcard bool
}

// Lit builds a concrete-name literal.
func Lit(name string) TopicLiteral {
	return TopicLiteral{Name: name}
}

// Any builds a wildcard literal.
func Any() TopicLiteral {
	return TopicLiteral{Wildcard: true}
}

func (l TopicLiteral) String() string {
	if l.Wildcard {
		return Wildcard
	}
	return l.Name
}

// Matches reports whether the literal accepts the given concrete name.
func (l TopicLiteral) Matches(name string) bool {
	return l.Wildcard || l.Name == name
}

// QueueID identifies a destination exactly. For KindQueue only Name is set.
// For KindTopic, Subtopic and Subsubtopic are concrete names (never
// patterns) addressing a publish target inside the topic.
//
// QueueID is comparable and safe to use as a map key; the Kind field keeps
// queue and topic key spaces disjoint.
type QueueID struct {
	Kind        BufferKind
	Name        string
	Subtopic    string
	Subsubtopic string
}

// NewQueueID builds the identifier of a plain queue.
func NewQueueID(name string) QueueID {
	return QueueID{Kind: KindQueue, Name: name}
}

// NewTopicID builds the identifier of a topic publish target.
func NewTopicID(name, subtopic, subsubtopic string) QueueID {
	return QueueID{Kind: KindTopic, Name: name, Subtopic: subtopic, Subsubtopic: subsubtopic}
}

// Root strips the subtopic components, yielding the identifier under which
// the buffer itself is registered.
func (id QueueID) Root() QueueID {
	if id.Kind == KindTopic {
		return QueueID{Kind: KindTopic, Name: id.Name}
	}
	return id
}

// ToFilter converts a concrete identifier into the filter that matches only
// itself.
func (id QueueID) ToFilter() QueueFilter {
	if id.Kind == KindQueue {
		return NewQueueFilter(id.Name)
	}
	return NewTopicFilter(id.Name, Lit(id.Subtopic), Lit(id.Subsubtopic))
}

func (id QueueID) String() string {
	if id.Kind == KindQueue {
		return id.Name
	}
	return strings.Join([]string{id.Name, id.Subtopic, id.Subsubtopic}, topicDelimiter)
}

// QueueFilter identifies a subscription pattern: either a plain queue by
// name, or a topic with per-level literals that may be wildcards.
type QueueFilter struct {
	Kind BufferKind
	Name string
	Sub1 TopicLiteral
	Sub2 TopicLiteral
}

// NewQueueFilter builds a filter matching exactly one plain queue.
func NewQueueFilter(name string) QueueFilter {
	return QueueFilter{Kind: KindQueue, Name: name}
}

// NewTopicFilter builds a topic subscription pattern.
func NewTopicFilter(name string, sub1, sub2 TopicLiteral) QueueFilter {
	return QueueFilter{Kind: KindTopic, Name: name, Sub1: sub1, Sub2: sub2}
}

func (f QueueFilter) String() string {
	if f.Kind == KindQueue {
		return f.Name
	}
	return strings.Join([]string{f.Name, f.Sub1.String(), f.Sub2.String()}, topicDelimiter)
}

// Root returns the identifier of the buffer the filter reads from.
func (f QueueFilter) Root() QueueID {
	return QueueID{Kind: f.Kind, Name: f.Name}
}

// MatchesID reports whether a concrete publish address falls under the
// filter. Matching is independent per position; a wildcard accepts any
// name at its level.
func (f QueueFilter) MatchesID(id QueueID) bool {
	if f.Kind != id.Kind || f.Name != id.Name {
		return false
	}
	if f.Kind == KindQueue {
		return true
	}
	return f.Sub1.Matches(id.Subtopic) && f.Sub2.Matches(id.Subsubtopic)
}
