// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"

	"github.com/courierq/courier/protocol"
)

// EncodeRequest prefixes the request body with its kind tag.
func EncodeRequest(req protocol.Request) []byte {
	b := []byte{byte(req.Kind())}
	switch r := req.(type) {
	case protocol.ListQueues, protocol.Receive:
		// no body
	case protocol.CheckQueue:
		b = append(b, EncodeQueueID(r.Queue)...)
	case protocol.CreateQueue:
		b = append(b, EncodeQueueID(r.Queue)...)
		b = append(b, EncodeUserProperties(r.Properties)...)
	case protocol.DeleteQueue:
		b = append(b, EncodeQueueID(r.Queue)...)
	case protocol.GetProperties:
		b = append(b, EncodeQueueID(r.Queue)...)
	case protocol.Publish:
		b = append(b, EncodeMessage(r.Message)...)
	case protocol.Subscribe:
		b = append(b, EncodeQueueFilter(r.Filter)...)
	case protocol.GetTopicBreakdown:
		b = append(b, EncodeString(r.Topic)...)
	}
	return b
}

// DecodeRequest reads one tagged request. Unknown tags yield ErrUnknownTag.
func DecodeRequest(r io.Reader) (protocol.Request, error) {
	tag, err := DecodeByte(r)
	if err != nil {
		return nil, err
	}

	switch protocol.RequestKind(tag) {
	case protocol.ReqListQueues:
		return protocol.ListQueues{}, nil
	case protocol.ReqCheckQueue:
		id, err := DecodeQueueID(r)
		if err != nil {
			return nil, err
		}
		return protocol.CheckQueue{Queue: id}, nil
	case protocol.ReqCreateQueue:
		id, err := DecodeQueueID(r)
		if err != nil {
			return nil, err
		}
		props, err := DecodeUserProperties(r)
		if err != nil {
			return nil, err
		}
		return protocol.CreateQueue{Queue: id, Properties: props}, nil
	case protocol.ReqDeleteQueue:
		id, err := DecodeQueueID(r)
		if err != nil {
			return nil, err
		}
		return protocol.DeleteQueue{Queue: id}, nil
	case protocol.ReqGetProperties:
		id, err := DecodeQueueID(r)
		if err != nil {
			return nil, err
		}
		return protocol.GetProperties{Queue: id}, nil
	case protocol.ReqPublish:
		msg, err := DecodeMessage(r)
		if err != nil {
			return nil, err
		}
		return protocol.Publish{Message: msg}, nil
	case protocol.ReqSubscribe:
		f, err := DecodeQueueFilter(r)
		if err != nil {
			return nil, err
		}
		return protocol.Subscribe{Filter: f}, nil
	case protocol.ReqReceive:
		return protocol.Receive{}, nil
	case protocol.ReqGetTopicBreakdown:
		topic, err := DecodeString(r)
		if err != nil {
			return nil, err
		}
		return protocol.GetTopicBreakdown{Topic: topic}, nil
	default:
		return nil, ErrUnknownTag
	}
}

func EncodeStatus(s protocol.Status) []byte {
	return []byte{byte(s)}
}

func DecodeStatus(r io.Reader) (protocol.Status, error) {
	b, err := DecodeByte(r)
	if err != nil {
		return protocol.StatusError, err
	}
	if b > byte(protocol.StatusError) {
		return protocol.StatusError, ErrUnknownTag
	}
	return protocol.Status(b), nil
}

func EncodeQueueInfoList(infos []protocol.QueueInfo) []byte {
	b := EncodeUint32(uint32(len(infos)))
	for _, info := range infos {
		b = append(b, EncodeQueueID(info.ID)...)
		b = append(b, EncodeUint32(uint32(info.Senders))...)
		b = append(b, EncodeUint32(uint32(info.Receivers))...)
		b = append(b, EncodeUint32(uint32(info.Depth))...)
	}
	return b
}

func DecodeQueueInfoList(r io.Reader) ([]protocol.QueueInfo, error) {
	count, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	infos := make([]protocol.QueueInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		var info protocol.QueueInfo
		if info.ID, err = DecodeQueueID(r); err != nil {
			return nil, err
		}
		senders, err := DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		receivers, err := DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		depth, err := DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		info.Senders = int(senders)
		info.Receivers = int(receivers)
		info.Depth = int(depth)
		infos = append(infos, info)
	}
	return infos, nil
}

func EncodePropertiesResponse(resp protocol.PropertiesResponse) []byte {
	b := []byte{EncodeBool(resp.Found)}
	if resp.Found {
		b = append(b, EncodeProperties(resp.Properties)...)
	}
	return b
}

func DecodePropertiesResponse(r io.Reader) (protocol.PropertiesResponse, error) {
	var resp protocol.PropertiesResponse
	found, err := DecodeBool(r)
	if err != nil {
		return resp, err
	}
	resp.Found = found
	if found {
		if resp.Properties, err = DecodeProperties(r); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

func EncodeReceiveResponse(resp protocol.ReceiveResponse) []byte {
	b := []byte{EncodeBool(resp.Message != nil)}
	if resp.Message != nil {
		b = append(b, EncodeMessage(*resp.Message)...)
	}
	return b
}

func DecodeReceiveResponse(r io.Reader) (protocol.ReceiveResponse, error) {
	var resp protocol.ReceiveResponse
	has, err := DecodeBool(r)
	if err != nil {
		return resp, err
	}
	if has {
		msg, err := DecodeMessage(r)
		if err != nil {
			return resp, err
		}
		resp.Message = &msg
	}
	return resp, nil
}

func EncodeTopicBreakdown(resp protocol.TopicBreakdownResponse) []byte {
	b := []byte{EncodeBool(resp.Found)}
	if !resp.Found {
		return b
	}
	b = append(b, EncodeUint16(uint16(len(resp.Subtopics)))...)
	for _, sub := range resp.Subtopics {
		b = append(b, EncodeString(sub.Name)...)
		b = append(b, EncodeUint16(uint16(len(sub.Subsubtopic)))...)
		for _, name := range sub.Subsubtopic {
			b = append(b, EncodeString(name)...)
		}
	}
	return b
}

func DecodeTopicBreakdown(r io.Reader) (protocol.TopicBreakdownResponse, error) {
	var resp protocol.TopicBreakdownResponse
	found, err := DecodeBool(r)
	if err != nil {
		return resp, err
	}
	resp.Found = found
	if !found {
		return resp, nil
	}
	count, err := DecodeUint16(r)
	if err != nil {
		return resp, err
	}
	resp.Subtopics = make([]protocol.SubtopicInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		var sub protocol.SubtopicInfo
		if sub.Name, err = DecodeString(r); err != nil {
			return resp, err
		}
		subCount, err := DecodeUint16(r)
		if err != nil {
			return resp, err
		}
		for j := uint16(0); j < subCount; j++ {
			name, err := DecodeString(r)
			if err != nil {
				return resp, err
			}
			sub.Subsubtopic = append(sub.Subsubtopic, name)
		}
		resp.Subtopics = append(resp.Subtopics, sub)
	}
	return resp, nil
}
