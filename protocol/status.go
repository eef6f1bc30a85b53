// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

// Status is the outcome code of an administrative or publish request.
type Status byte

const (
	StatusCreated Status = iota
	StatusRemoved
	StatusExists
	StatusSent
	StatusConfigured
	StatusFailed
	StatusNotFound
	StatusUnknownCommand
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRemoved:
		return "removed"
	case StatusExists:
		return "exists"
	case StatusSent:
		return "sent"
	case StatusConfigured:
		return "configured"
	case StatusFailed:
		return "failed"
	case StatusNotFound:
		return "not_found"
	case StatusUnknownCommand:
		return "unknown_command"
	default:
		return "error"
	}
}
