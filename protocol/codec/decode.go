// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"io"
)

// ErrMaxLengthExceeded represents an error for an invalid length value.
var ErrMaxLengthExceeded = errors.New("max length value exceeded")

// maxBlobLength bounds a single 32-bit-length field so a malformed frame
// cannot trigger an arbitrary allocation.
const maxBlobLength = 64 << 20

func DecodeByte(r io.Reader) (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func DecodeUint16(r io.Reader) (uint16, error) {
	var num [2]byte
	_, err := io.ReadFull(r, num[:])
	if err != nil {
		return 0, err
	}

	return uint16(num[1]) | uint16(num[0])<<8, nil
}

func DecodeUint32(r io.Reader) (uint32, error) {
	var num [4]byte
	_, err := io.ReadFull(r, num[:])
	if err != nil {
		return 0, err
	}

	return uint32(num[3]) | uint32(num[2])<<8 | uint32(num[1])<<16 | uint32(num[0])<<24, nil
}

func DecodeUint64(r io.Reader) (uint64, error) {
	var num [8]byte
	_, err := io.ReadFull(r, num[:])
	if err != nil {
		return 0, err
	}

	return uint64(num[7]) | uint64(num[6])<<8 | uint64(num[5])<<16 | uint64(num[4])<<24 |
		uint64(num[3])<<32 | uint64(num[2])<<40 | uint64(num[1])<<48 | uint64(num[0])<<56, nil
}

func DecodeBytes(r io.Reader) ([]byte, error) {
	fieldLength, err := DecodeUint16(r)
	if err != nil {
		return nil, err
	}
	field := make([]byte, fieldLength)
	_, err = io.ReadFull(r, field)
	if err != nil {
		return nil, err
	}

	return field, nil
}

// DecodeBlob is the 32-bit-length counterpart of DecodeBytes.
func DecodeBlob(r io.Reader) ([]byte, error) {
	fieldLength, err := DecodeUint32(r)
	if err != nil {
		return nil, err
	}
	if fieldLength > maxBlobLength {
		return nil, ErrMaxLengthExceeded
	}
	field := make([]byte, fieldLength)
	_, err = io.ReadFull(r, field)
	if err != nil {
		return nil, err
	}

	return field, nil
}

func DecodeString(r io.Reader) (string, error) {
	buf, err := DecodeBytes(r)
	return string(buf), err
}

func DecodeBool(r io.Reader) (bool, error) {
	b, err := DecodeByte(r)
	return b != 0, err
}
