// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/courierq/courier/protocol"
)

// ErrUnknownTag is returned when a decoded type or request tag is outside
// the known range. Decoding never panics on malformed input.
var ErrUnknownTag = errors.New("unknown wire tag")

func EncodeQueueID(id protocol.QueueID) []byte {
	b := []byte{byte(id.Kind)}
	b = append(b, EncodeString(id.Name)...)
	if id.Kind == protocol.KindTopic {
		b = append(b, EncodeString(id.Subtopic)...)
		b = append(b, EncodeString(id.Subsubtopic)...)
	}
	return b
}

func DecodeQueueID(r io.Reader) (protocol.QueueID, error) {
	var id protocol.QueueID
	kind, err := DecodeByte(r)
	if err != nil {
		return id, err
	}
	switch protocol.BufferKind(kind) {
	case protocol.KindQueue, protocol.KindTopic:
		id.Kind = protocol.BufferKind(kind)
	default:
		return id, ErrUnknownTag
	}
	if id.Name, err = DecodeString(r); err != nil {
		return id, err
	}
	if id.Kind == protocol.KindTopic {
		if id.Subtopic, err = DecodeString(r); err != nil {
			return id, err
		}
		if id.Subsubtopic, err = DecodeString(r); err != nil {
			return id, err
		}
	}
	return id, nil
}

func EncodeTopicLiteral(l protocol.TopicLiteral) []byte {
	b := []byte{EncodeBool(l.Wildcard)}
	if !l.Wildcard {
		b = append(b, EncodeString(l.Name)...)
	}
	return b
}

func DecodeTopicLiteral(r io.Reader) (protocol.TopicLiteral, error) {
	var l protocol.TopicLiteral
	wildcard, err := DecodeBool(r)
	if err != nil {
		return l, err
	}
	l.Wildcard = wildcard
	if !wildcard {
		if l.Name, err = DecodeString(r); err != nil {
			return l, err
		}
	}
	return l, nil
}

func EncodeQueueFilter(f protocol.QueueFilter) []byte {
	b := []byte{byte(f.Kind)}
	b = append(b, EncodeString(f.Name)...)
	if f.Kind == protocol.KindTopic {
		b = append(b, EncodeTopicLiteral(f.Sub1)...)
		b = append(b, EncodeTopicLiteral(f.Sub2)...)
	}
	return b
}

func DecodeQueueFilter(r io.Reader) (protocol.QueueFilter, error) {
	var f protocol.QueueFilter
	kind, err := DecodeByte(r)
	if err != nil {
		return f, err
	}
	switch protocol.BufferKind(kind) {
	case protocol.KindQueue, protocol.KindTopic:
		f.Kind = protocol.BufferKind(kind)
	default:
		return f, ErrUnknownTag
	}
	if f.Name, err = DecodeString(r); err != nil {
		return f, err
	}
	if f.Kind == protocol.KindTopic {
		if f.Sub1, err = DecodeTopicLiteral(r); err != nil {
			return f, err
		}
		if f.Sub2, err = DecodeTopicLiteral(r); err != nil {
			return f, err
		}
	}
	return f, nil
}

func EncodeDLXPreference(p protocol.DLXPreference) []byte {
	b := []byte{byte(p.Kind)}
	if p.Kind == protocol.DLXOverride {
		b = append(b, EncodeQueueID(p.Target)...)
	}
	return b
}

func DecodeDLXPreference(r io.Reader) (protocol.DLXPreference, error) {
	var p protocol.DLXPreference
	kind, err := DecodeByte(r)
	if err != nil {
		return p, err
	}
	if kind > byte(protocol.DLXDrop) {
		return p, ErrUnknownTag
	}
	p.Kind = protocol.DLXKind(kind)
	if p.Kind == protocol.DLXOverride {
		if p.Target, err = DecodeQueueID(r); err != nil {
			return p, err
		}
	}
	return p, nil
}

func EncodeRoutingKey(k protocol.RoutingKey) []byte {
	b := EncodeQueueID(k.ID)
	return append(b, EncodeDLXPreference(k.DLX)...)
}

func DecodeRoutingKey(r io.Reader) (protocol.RoutingKey, error) {
	var k protocol.RoutingKey
	id, err := DecodeQueueID(r)
	if err != nil {
		return k, err
	}
	dlx, err := DecodeDLXPreference(r)
	if err != nil {
		return k, err
	}
	k.ID = id
	k.DLX = dlx
	return k, nil
}

func EncodeTTL(t protocol.TTL) []byte {
	b := []byte{EncodeBool(t.Permanent)}
	if !t.Permanent {
		b = append(b, EncodeUint64(uint64(t.Duration))...)
	}
	return b
}

func DecodeTTL(r io.Reader) (protocol.TTL, error) {
	var t protocol.TTL
	permanent, err := DecodeBool(r)
	if err != nil {
		return t, err
	}
	t.Permanent = permanent
	if !permanent {
		nanos, err := DecodeUint64(r)
		if err != nil {
			return t, err
		}
		t.Duration = time.Duration(nanos)
	}
	return t, nil
}

func EncodePayload(p protocol.Payload) []byte {
	b := []byte{byte(p.Kind)}
	if p.Kind == protocol.PayloadText {
		return append(b, EncodeBlob([]byte(p.Text))...)
	}
	return append(b, EncodeBlob(p.Blob)...)
}

func DecodePayload(r io.Reader) (protocol.Payload, error) {
	var p protocol.Payload
	kind, err := DecodeByte(r)
	if err != nil {
		return p, err
	}
	if kind > byte(protocol.PayloadBlob) {
		return p, ErrUnknownTag
	}
	p.Kind = protocol.PayloadKind(kind)
	body, err := DecodeBlob(r)
	if err != nil {
		return p, err
	}
	if p.Kind == protocol.PayloadText {
		p.Text = string(body)
	} else {
		p.Blob = body
	}
	return p, nil
}

func EncodeMessage(m protocol.Message) []byte {
	b := make([]byte, 0, 64)
	b = append(b, m.ID[:]...)
	b = append(b, EncodePayload(m.Payload)...)
	b = append(b, EncodeRoutingKey(m.RoutingKey)...)
	b = append(b, EncodeTTL(m.TTL)...)
	return b
}

func DecodeMessage(r io.Reader) (protocol.Message, error) {
	var m protocol.Message
	var id [16]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return m, err
	}
	m.ID = uuid.UUID(id)
	var err error
	if m.Payload, err = DecodePayload(r); err != nil {
		return m, err
	}
	if m.RoutingKey, err = DecodeRoutingKey(r); err != nil {
		return m, err
	}
	if m.TTL, err = DecodeTTL(r); err != nil {
		return m, err
	}
	return m, nil
}

func EncodeUserProperties(p protocol.UserQueueProperties) []byte {
	b := []byte{EncodeBool(p.IsDLX), EncodeBool(p.DLX != nil)}
	if p.DLX != nil {
		b = append(b, EncodeQueueID(*p.DLX)...)
	}
	return b
}

func DecodeUserProperties(r io.Reader) (protocol.UserQueueProperties, error) {
	var p protocol.UserQueueProperties
	isDLX, err := DecodeBool(r)
	if err != nil {
		return p, err
	}
	p.IsDLX = isDLX
	hasDLX, err := DecodeBool(r)
	if err != nil {
		return p, err
	}
	if hasDLX {
		id, err := DecodeQueueID(r)
		if err != nil {
			return p, err
		}
		p.DLX = &id
	}
	return p, nil
}

func EncodeProperties(p protocol.QueueProperties) []byte {
	b := []byte{EncodeBool(p.System.IsSystem)}
	return append(b, EncodeUserProperties(p.User)...)
}

func DecodeProperties(r io.Reader) (protocol.QueueProperties, error) {
	var p protocol.QueueProperties
	isSystem, err := DecodeBool(r)
	if err != nil {
		return p, err
	}
	p.System.IsSystem = isSystem
	if p.User, err = DecodeUserProperties(r); err != nil {
		return p, err
	}
	return p, nil
}
