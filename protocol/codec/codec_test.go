// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/courierq/courier/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueIDRoundTrip(t *testing.T) {
	for _, id := range []protocol.QueueID{
		protocol.NewQueueID("orders"),
		protocol.NewTopicID("metrics", "eu", "berlin"),
		protocol.NewTopicID("metrics", "", ""),
	} {
		got, err := DecodeQueueID(bytes.NewReader(EncodeQueueID(id)))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestQueueFilterRoundTrip(t *testing.T) {
	for _, f := range []protocol.QueueFilter{
		protocol.NewQueueFilter("orders"),
		protocol.NewTopicFilter("metrics", protocol.Lit("eu"), protocol.Any()),
		protocol.NewTopicFilter("metrics", protocol.Any(), protocol.Any()),
	} {
		got, err := DecodeQueueFilter(bytes.NewReader(EncodeQueueFilter(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestDecodeQueueID_UnknownKind(t *testing.T) {
	_, err := DecodeQueueID(bytes.NewReader([]byte{0xFF}))
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestMessageRoundTrip(t *testing.T) {
	dlx := protocol.NewQueueID("orders_dlx")
	msg := protocol.NewMessage(
		protocol.TextPayload("hello"),
		protocol.NewRoutingKey(protocol.NewQueueID("orders"), protocol.OverrideDLX(dlx)),
		protocol.DurationTTL(30*time.Second))

	got, err := DecodeMessage(bytes.NewReader(EncodeMessage(msg)))
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestMessageRoundTrip_Blob(t *testing.T) {
	msg := protocol.NewMessage(
		protocol.BlobPayload([]byte{0x00, 0x01, 0xFF}),
		protocol.NewRoutingKey(protocol.NewTopicID("metrics", "eu", "berlin"), protocol.DLXPreference{Kind: protocol.DLXDrop}),
		protocol.PermanentTTL())

	got, err := DecodeMessage(bytes.NewReader(EncodeMessage(msg)))
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestPropertiesRoundTrip(t *testing.T) {
	dlx := protocol.NewQueueID("orders_dlx")
	props := protocol.QueueProperties{
		System: protocol.SystemQueueProperties{IsSystem: true},
		User:   protocol.UserQueueProperties{IsDLX: true, DLX: &dlx},
	}

	got, err := DecodeProperties(bytes.NewReader(EncodeProperties(props)))
	require.NoError(t, err)
	assert.Equal(t, props, got)
}

func TestRequestRoundTrip(t *testing.T) {
	dlx := protocol.NewQueueID("orders_dlx")
	msg := protocol.NewMessage(
		protocol.TextPayload("hi"),
		protocol.NewRoutingKey(protocol.NewQueueID("orders"), protocol.DLXPreference{Kind: protocol.DLXQueue}),
		protocol.PermanentTTL())

	for _, req := range []protocol.Request{
		protocol.ListQueues{},
		protocol.CheckQueue{Queue: protocol.NewQueueID("orders")},
		protocol.CreateQueue{Queue: protocol.NewQueueID("orders"), Properties: protocol.UserQueueProperties{DLX: &dlx}},
		protocol.DeleteQueue{Queue: protocol.NewTopicID("metrics", "eu", "berlin")},
		protocol.GetProperties{Queue: protocol.NewQueueID("orders")},
		protocol.Publish{Message: msg},
		protocol.Subscribe{Filter: protocol.NewTopicFilter("metrics", protocol.Any(), protocol.Any())},
		protocol.Receive{},
		protocol.GetTopicBreakdown{Topic: "metrics"},
	} {
		got, err := DecodeRequest(bytes.NewReader(EncodeRequest(req)))
		require.NoError(t, err, "request kind %s", req.Kind())
		assert.Equal(t, req, got)
	}
}

func TestDecodeRequest_UnknownTag(t *testing.T) {
	_, err := DecodeRequest(bytes.NewReader([]byte{0xFF}))
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecodeRequest_Truncated(t *testing.T) {
	full := EncodeRequest(protocol.CheckQueue{Queue: protocol.NewQueueID("orders")})

	// Every proper prefix must fail cleanly, never panic.
	for i := 0; i < len(full); i++ {
		_, err := DecodeRequest(bytes.NewReader(full[:i]))
		assert.Error(t, err, "prefix of length %d", i)
	}
}

func TestReceiveResponseRoundTrip(t *testing.T) {
	msg := protocol.NewMessage(
		protocol.TextPayload("hello"),
		protocol.NewRoutingKey(protocol.NewQueueID("orders"), protocol.DLXPreference{Kind: protocol.DLXDefault}),
		protocol.PermanentTTL())

	got, err := DecodeReceiveResponse(bytes.NewReader(EncodeReceiveResponse(protocol.ReceiveResponse{Message: &msg})))
	require.NoError(t, err)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)

	got, err = DecodeReceiveResponse(bytes.NewReader(EncodeReceiveResponse(protocol.ReceiveResponse{})))
	require.NoError(t, err)
	assert.Nil(t, got.Message)
}

func TestQueueInfoListRoundTrip(t *testing.T) {
	infos := []protocol.QueueInfo{
		{ID: protocol.NewQueueID("orders"), Receivers: 2, Depth: 7},
		{ID: protocol.QueueID{Kind: protocol.KindTopic, Name: "metrics"}, Receivers: 1},
	}

	got, err := DecodeQueueInfoList(bytes.NewReader(EncodeQueueInfoList(infos)))
	require.NoError(t, err)
	assert.Equal(t, infos, got)
}

func TestTopicBreakdownRoundTrip(t *testing.T) {
	resp := protocol.TopicBreakdownResponse{
		Found: true,
		Subtopics: []protocol.SubtopicInfo{
			{Name: "eu", Subsubtopic: []string{"berlin", "munich"}},
			{Name: "us", Subsubtopic: []string{"nyc"}},
		},
	}

	got, err := DecodeTopicBreakdown(bytes.NewReader(EncodeTopicBreakdown(resp)))
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	got, err = DecodeTopicBreakdown(bytes.NewReader(EncodeTopicBreakdown(protocol.TopicBreakdownResponse{})))
	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestDecodeBlob_MaxLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeUint32(maxBlobLength + 1))

	_, err := DecodeBlob(&buf)
	assert.ErrorIs(t, err, ErrMaxLengthExceeded)
}
