// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("hello frame")

	require.NoError(t, WriteFrame(&buf, body, false, 0))

	got, isErr, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.Equal(t, body, got)
}

func TestFrameErrorFlag(t *testing.T) {
	var buf bytes.Buffer
	body := EncodeString("queue not found")

	require.NoError(t, WriteFrame(&buf, body, true, 0))

	got, isErr, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.True(t, isErr)

	msg, err := DecodeString(bytes.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, "queue not found", msg)
}

func TestFrameCompression(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte("abcdefgh"), 4096)

	require.NoError(t, WriteFrame(&buf, body, false, 1024))

	// The wire frame carries less than the raw body.
	assert.Less(t, buf.Len(), len(body))

	got, isErr, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.False(t, isErr)
	assert.Equal(t, body, got)
}

func TestFrameCompressionBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("tiny")

	require.NoError(t, WriteFrame(&buf, body, false, 1024))

	got, _, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFrameIncompressibleStaysRaw(t *testing.T) {
	var buf bytes.Buffer
	body := make([]byte, 64)
	for i := range body {
		body[i] = byte(i * 37)
	}

	// Threshold below the body size, but compression would not shrink it.
	require.NoError(t, WriteFrame(&buf, body, false, 1))

	got, _, err := ReadFrame(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, make([]byte, 2048), false, 0))

	_, _, err := ReadFrame(&buf, 1024)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameTooLargeAfterDecompression(t *testing.T) {
	// A highly repetitive body compresses far below the cap on the wire
	// but must still be rejected against its decompressed size.
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0}, 32<<20)

	require.NoError(t, WriteFrame(&buf, body, false, 1))
	require.Less(t, buf.Len(), 1<<20)

	_, _, err := ReadFrame(&buf, 1<<20)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("truncated"), false, 0))

	short := buf.Bytes()[:buf.Len()-3]
	_, _, err := ReadFrame(bytes.NewReader(short), 0)
	assert.Error(t, err)
}
