// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/courierq/courier/protocol"
)

// buffer is the unit managed by the store: a plain queue or a topic. The
// kind tag is matched directly instead of going through an interface.
type buffer struct {
	kind  protocol.BufferKind
	props protocol.QueueProperties

	// kind == KindQueue
	queue *Queue

	// kind == KindTopic
	tree      *TopicFilterTree
	mailboxes map[protocol.ClientID]*Queue
}

func newBuffer(kind protocol.BufferKind, props protocol.QueueProperties) *buffer {
	b := &buffer{kind: kind, props: props}
	switch kind {
	case protocol.KindQueue:
		b.queue = NewQueue()
	case protocol.KindTopic:
		b.tree = NewTopicFilterTree()
		b.mailboxes = make(map[protocol.ClientID]*Queue)
	}
	return b
}

// depth is the buffered message count: the queue length, or the summed
// mailbox lengths for a topic.
func (b *buffer) depth() int {
	if b.kind == protocol.KindQueue {
		return b.queue.Len()
	}
	total := 0
	for _, mb := range b.mailboxes {
		total += mb.Len()
	}
	return total
}

// QueueStore is the authoritative registry of all buffers, keyed by their
// root identifier. All access goes through its methods under its lock; no
// caller holds internal state outside a single call.
type QueueStore struct {
	mu      sync.RWMutex
	buffers map[protocol.QueueID]*buffer
	logger  *slog.Logger
}

// NewQueueStore creates an empty store.
func NewQueueStore(logger *slog.Logger) *QueueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueStore{
		buffers: make(map[protocol.QueueID]*buffer),
		logger:  logger,
	}
}

// Create registers a buffer under the given identifier, overwriting any
// existing one. For topic identifiers the subtopic components, when
// present, are registered as addressable names. Callers that must not
// reset an existing buffer use CreateIfAbsent instead.
func (s *QueueStore) Create(id protocol.QueueID, props protocol.QueueProperties) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.create(id, props)
}

// CreateIfAbsent registers a buffer only when none exists under the
// identifier yet. For an existing topic it still registers any new
// subtopic components. It reports whether a new buffer was created.
func (s *QueueStore) CreateIfAbsent(id protocol.QueueID, props protocol.QueueProperties) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buffers[id.Root()]; ok {
		if b.kind == protocol.KindTopic {
			s.registerNames(b, id)
		}
		return false
	}
	s.create(id, props)
	return true
}

func (s *QueueStore) create(id protocol.QueueID, props protocol.QueueProperties) {
	root := id.Root()
	b := newBuffer(id.Kind, props)
	s.buffers[root] = b
	if b.kind == protocol.KindTopic {
		s.registerNames(b, id)
	}
	s.logger.Info("buffer created",
		slog.String("queue", root.String()),
		slog.String("kind", id.Kind.String()),
		slog.Bool("is_dlx", props.User.IsDLX))
}

func (s *QueueStore) registerNames(b *buffer, id protocol.QueueID) {
	if id.Subtopic == "" {
		return
	}
	b.tree.CreateSubtopic(id.Subtopic)
	if id.Subsubtopic != "" {
		b.tree.CreateSubsubtopic(id.Subtopic, id.Subsubtopic)
	}
}

// Exists reports whether the identifier addresses an existing buffer. A
// topic identifier with subtopic components also requires those names to
// be registered.
func (s *QueueStore) Exists(id protocol.QueueID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists(id)
}

func (s *QueueStore) exists(id protocol.QueueID) bool {
	b, ok := s.buffers[id.Root()]
	if !ok {
		return false
	}
	if b.kind == protocol.KindTopic && id.Subtopic != "" {
		return b.tree.FilterNonempty(protocol.Lit(id.Subtopic), subsubLiteral(id))
	}
	return true
}

func subsubLiteral(id protocol.QueueID) protocol.TopicLiteral {
	if id.Subsubtopic == "" {
		return protocol.Any()
	}
	return protocol.Lit(id.Subsubtopic)
}

// Delete removes a buffer and reports whether it was removed. System
// buffers refuse deletion.
func (s *QueueStore) Delete(id protocol.QueueID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := id.Root()
	b, ok := s.buffers[root]
	if !ok {
		return false
	}
	if b.props.System.IsSystem {
		s.logger.Warn("refusing to delete system buffer", slog.String("queue", root.String()))
		return false
	}
	delete(s.buffers, root)
	s.logger.Info("buffer deleted", slog.String("queue", root.String()))
	return true
}

// Properties returns a buffer's property set.
func (s *QueueStore) Properties(id protocol.QueueID) (protocol.QueueProperties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buffers[id.Root()]
	if !ok {
		return protocol.QueueProperties{}, false
	}
	return b.props, true
}

// List returns one row per buffer for administrative display. Senders are
// transient and not tracked; receivers count registered topic mailboxes.
func (s *QueueStore) List() []protocol.QueueInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]protocol.QueueInfo, 0, len(s.buffers))
	for id, b := range s.buffers {
		info := protocol.QueueInfo{ID: id, Depth: b.depth()}
		if b.kind == protocol.KindTopic {
			info.Receivers = len(b.mailboxes)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID.String() < infos[j].ID.String() })
	return infos
}

// RegisterClient allocates receive resources for a client under a topic
// filter: a tree registration and a personal mailbox. It reports false
// when the filter addresses nothing. Plain-queue filters need no
// allocation and succeed when the queue exists.
func (s *QueueStore) RegisterClient(client protocol.ClientID, filter protocol.QueueFilter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[filter.Root()]
	if !ok {
		return false
	}
	if b.kind != protocol.KindTopic {
		return true
	}
	if !b.tree.Insert(client, filter.Sub1, filter.Sub2) {
		return false
	}
	if _, ok := b.mailboxes[client]; !ok {
		b.mailboxes[client] = NewQueue()
	}
	return true
}

// DeregisterClient releases a client's receive resources under a filter.
func (s *QueueStore) DeregisterClient(client protocol.ClientID, filter protocol.QueueFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[filter.Root()]
	if !ok || b.kind != protocol.KindTopic {
		return
	}
	b.tree.Remove(client)
	delete(b.mailboxes, client)
}

// Breakdown returns a topic buffer's addressable subtopic tree.
func (s *QueueStore) Breakdown(topic string) protocol.TopicBreakdownResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buffers[protocol.QueueID{Kind: protocol.KindTopic, Name: topic}]
	if !ok || b.kind != protocol.KindTopic {
		return protocol.TopicBreakdownResponse{}
	}
	return protocol.TopicBreakdownResponse{Found: true, Subtopics: b.tree.Subtopics()}
}

// Publisher resolves a scoped write handle for a destination. The handle
// hides the queue-vs-topic distinction from the router; each publish
// through it re-enters the store lock for exactly one operation.
func (s *QueueStore) Publisher(id protocol.QueueID) (*Publisher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists(id) {
		return nil, false
	}
	return &Publisher{store: s, id: id}, true
}

// Receiver resolves a scoped read handle for a client's filter.
func (s *QueueStore) Receiver(client protocol.ClientID, filter protocol.QueueFilter) (*Receiver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.buffers[filter.Root()]; !ok {
		return nil, false
	}
	return &Receiver{store: s, client: client, filter: filter}, true
}

// Publisher is a scoped write handle bound to one destination.
type Publisher struct {
	store *QueueStore
	id    protocol.QueueID
}

// Publish enqueues the message at the bound destination. For a topic the
// message fans out into every matching subscriber mailbox;
// protocol.ErrNoRecipients reports an empty fan-out set. Messages
// entering a DLX buffer are rewritten to the drop preference so they are
// never dead-lettered again.
func (p *Publisher) Publish(message protocol.Message) error {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[p.id.Root()]
	if !ok {
		return protocol.ErrNotFound
	}
	if b.props.User.IsDLX {
		message.RoutingKey.DLX = protocol.DLXPreference{Kind: protocol.DLXDrop}
	}

	switch b.kind {
	case protocol.KindQueue:
		b.queue.Push(message)
		return nil
	case protocol.KindTopic:
		clients := b.tree.Clients(p.id.Subtopic, p.id.Subsubtopic)
		if len(clients) == 0 {
			return protocol.ErrNoRecipients
		}
		for _, client := range clients {
			if mb, ok := b.mailboxes[client]; ok {
				mb.Push(message)
			}
		}
		return nil
	default:
		return protocol.ErrInternal
	}
}

// Receiver is a scoped read handle bound to one client and filter.
type Receiver struct {
	store  *QueueStore
	client protocol.ClientID
	filter protocol.QueueFilter
}

// Receive pops the next message from the plain queue or the client's
// personal topic mailbox. The boolean is false when nothing is buffered.
func (r *Receiver) Receive() (DequeuedMessage, bool) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[r.filter.Root()]
	if !ok {
		return DequeuedMessage{}, false
	}
	switch b.kind {
	case protocol.KindQueue:
		return b.queue.Pop()
	case protocol.KindTopic:
		mb, ok := b.mailboxes[r.client]
		if !ok {
			return DequeuedMessage{}, false
		}
		return mb.Pop()
	default:
		return DequeuedMessage{}, false
	}
}
