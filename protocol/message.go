// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"time"

	"github.com/google/uuid"
)

// DLXKind enumerates the dead-letter preferences a message can carry.
type DLXKind byte

const (
	// DLXDefault redirects failed messages to the broker-wide default DLX.
	DLXDefault DLXKind = iota
	// DLXQueue defers to the destination queue's configured dead-letter
	// target, falling back to the default DLX when it has none.
	DLXQueue
	// DLXOverride redirects to an explicit one-shot target.
	DLXOverride
	// DLXDrop discards the message instead of re-routing it. Every
	// dead-lettered message ends up with this preference, which is the
	// sole loop-breaking mechanism.
	DLXDrop
)

func (k DLXKind) String() string {
	switch k {
	case DLXDefault:
		return "default"
	case DLXQueue:
		return "queue"
	case DLXOverride:
		return "override"
	case DLXDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// DLXPreference is a message's dead-letter routing preference. Target is
// only meaningful for DLXOverride.
type DLXPreference struct {
	Kind   DLXKind
	Target QueueID
}

// OverrideDLX builds a one-shot override preference.
func OverrideDLX(target QueueID) DLXPreference {
	return DLXPreference{Kind: DLXOverride, Target: target}
}

// RoutingKey pairs a destination with a dead-letter preference.
type RoutingKey struct {
	ID  QueueID
	DLX DLXPreference
}

// NewRoutingKey constructs a routing key.
func NewRoutingKey(id QueueID, dlx DLXPreference) RoutingKey {
	return RoutingKey{ID: id, DLX: dlx}
}

// TTL is a message's time-to-live: either a duration from insertion or
// permanent validity.
type TTL struct {
	Permanent bool
	Duration  time.Duration
}

// PermanentTTL never expires.
func PermanentTTL() TTL {
	return TTL{Permanent: true}
}

// DurationTTL expires the message d after it is enqueued.
func DurationTTL(d time.Duration) TTL {
	return TTL{Duration: d}
}

// PayloadKind tags the payload encoding.
type PayloadKind byte

const (
	PayloadText PayloadKind = iota
	PayloadBlob
)

// Payload is the opaque body of a message, either text or a binary blob.
type Payload struct {
	Kind PayloadKind
	Text string
	Blob []byte
}

// TextPayload wraps a string payload.
func TextPayload(s string) Payload {
	return Payload{Kind: PayloadText, Text: s}
}

// BlobPayload wraps a binary payload.
func BlobPayload(b []byte) Payload {
	return Payload{Kind: PayloadBlob, Blob: b}
}

// Message is the unit of delivery: a payload, the routing key deciding
// where it goes and where it falls back to, and its time-to-live.
type Message struct {
	ID         uuid.UUID
	Payload    Payload
	RoutingKey RoutingKey
	TTL        TTL
}

// NewMessage constructs a message with a fresh ID.
func NewMessage(payload Payload, key RoutingKey, ttl TTL) Message {
	return Message{
		ID:         uuid.New(),
		Payload:    payload,
		RoutingKey: key,
		TTL:        ttl,
	}
}
