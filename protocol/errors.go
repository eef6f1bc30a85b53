// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

import "errors"

// Routing errors. Only ErrNotFound is ever surfaced to the original
// publisher; the rest are absorbed or logged inside the router.
var (
	// ErrNotFound means the destination buffer does not exist.
	ErrNotFound = errors.New("destination queue not found")
	// ErrNoRecipients means a topic publish matched no subscriber. This
	// is routine for topics and not user-visible as a failure.
	ErrNoRecipients = errors.New("no matching recipients")
	// ErrDropOnDLX means a message with the drop preference failed to
	// deliver and was discarded. Terminal; never re-routed.
	ErrDropOnDLX = errors.New("message dropped by DLX rule")
	// ErrInternal covers faults in the broker's own state handling.
	ErrInternal = errors.New("internal routing error")
)

// Request errors, reported at the dispatch boundary.
var (
	// ErrRequestHandling means a handler faulted while executing.
	ErrRequestHandling = errors.New("request handling failed")
	// ErrDecode means the request bytes could not be decoded.
	ErrDecode = errors.New("request decode failed")
)
