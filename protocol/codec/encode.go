// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package codec

// Encode methods rewrite some of bigEndian methods
// to avoid unnecessary function calls and checks.

func EncodeBytes(field []byte) []byte {
	v := len(field)
	b := []byte{byte(v >> 8), byte(v)}
	return append(b, field...)
}

// EncodeBlob is the 32-bit-length variant for payloads that may exceed
// the uint16 range.
func EncodeBlob(field []byte) []byte {
	b := EncodeUint32(uint32(len(field)))
	return append(b, field...)
}

func EncodeUint16(num uint16) []byte {
	return []byte{byte(num >> 8), byte(num)}
}

func EncodeUint32(num uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(num >> 24)
	b[1] = byte(num >> 16)
	b[2] = byte(num >> 8)
	b[3] = byte(num)
	return b
}

func EncodeUint64(num uint64) []byte {
	b := make([]byte, 8)
	b[0] = byte(num >> 56)
	b[1] = byte(num >> 48)
	b[2] = byte(num >> 40)
	b[3] = byte(num >> 32)
	b[4] = byte(num >> 24)
	b[5] = byte(num >> 16)
	b[6] = byte(num >> 8)
	b[7] = byte(num)
	return b
}

func EncodeString(field string) []byte {
	return EncodeBytes([]byte(field))
}

func EncodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}
