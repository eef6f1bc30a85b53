// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package protocol

// SystemQueueProperties are broker-managed and not settable by clients.
type SystemQueueProperties struct {
	// IsSystem prevents deletion through administration requests.
	IsSystem bool
}

// UserQueueProperties are chosen at queue creation time.
type UserQueueProperties struct {
	// IsDLX marks the queue as a dead-letter sink. Messages routed into a
	// DLX are never dead-lettered again; if they expire here they are
	// dropped.
	IsDLX bool
	// DLX is the queue-level dead-letter target, used when a message's
	// preference is DLXQueue. When unset the default DLX is used instead.
	DLX *QueueID
}

// QueueProperties describe a buffer's behavior beyond its plain FIFO
// contract.
type QueueProperties struct {
	System SystemQueueProperties
	User   UserQueueProperties
}
