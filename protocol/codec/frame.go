// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"io"

	"github.com/klauspost/compress/s2"
)

// Frame layout: uint32 body length, one flags byte, body. Bodies at or
// above the compression threshold are S2-compressed and flagged.
const (
	flagCompressed byte = 1 << 0
	flagError      byte = 1 << 1
)

// DefaultMaxFrameSize bounds incoming frames; larger ones are rejected
// before any allocation.
const DefaultMaxFrameSize = 16 << 20

// ErrFrameTooLarge is returned when an incoming frame exceeds the
// configured maximum.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// WriteFrame writes one frame. A non-positive compressThreshold disables
// compression. errFrame marks the body as an error payload so the peer
// can tell failure responses from regular ones.
func WriteFrame(w io.Writer, body []byte, errFrame bool, compressThreshold int) error {
	var flags byte
	if errFrame {
		flags |= flagError
	}
	if compressThreshold > 0 && len(body) >= compressThreshold {
		compressed := s2.Encode(nil, body)
		if len(compressed) < len(body) {
			body = compressed
			flags |= flagCompressed
		}
	}

	header := EncodeUint32(uint32(len(body)))
	header = append(header, flags)
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFrame reads one frame and returns the decompressed body and whether
// the peer flagged it as an error payload.
func ReadFrame(r io.Reader, maxFrameSize uint32) ([]byte, bool, error) {
	length, err := DecodeUint32(r)
	if err != nil {
		return nil, false, err
	}
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	if length > maxFrameSize {
		return nil, false, ErrFrameTooLarge
	}
	flags, err := DecodeByte(r)
	if err != nil {
		return nil, false, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, false, err
	}

	if flags&flagCompressed != 0 {
		decoded, err := s2.DecodedLen(body)
		if err != nil {
			return nil, false, err
		}
		if decoded < 0 || uint64(decoded) > uint64(maxFrameSize) {
			return nil, false, ErrFrameTooLarge
		}
		if body, err = s2.Decode(nil, body); err != nil {
			return nil, false, err
		}
	}
	return body, flags&flagError != 0, nil
}
