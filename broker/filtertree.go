// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"sort"

	"github.com/courierq/courier/protocol"
)

type clientSet map[protocol.ClientID]struct{}

func (s clientSet) add(c protocol.ClientID)    { s[c] = struct{}{} }
func (s clientSet) remove(c protocol.ClientID) { delete(s, c) }

// filterNode is the second level of the trie: subscribers that terminate
// here with a subsubtopic wildcard, plus a leaf set per subsubtopic name.
type filterNode struct {
	terminating clientSet
	leaves      map[string]clientSet
}

func newFilterNode() *filterNode {
	return &filterNode{
		terminating: make(clientSet),
		leaves:      make(map[string]clientSet),
	}
}

// TopicFilterTree stores subscribers under their subscription filter and
// resolves the fan-out set for concrete publish addresses. Addressable
// names must be pre-registered via CreateSubtopic/CreateSubsubtopic;
// inserting under an unregistered name fails rather than creating it.
//
// A client has at most one tracked filter. Inserting a second filter
// replaces the first, keeping the reverse index consistent with the
// subscriber sets.
//
// Not safe for concurrent use; the owning store's lock covers it.
type TopicFilterTree struct {
	// terminating holds subscribers whose filter wildcards the subtopic
	// level, matching every address in the topic.
	terminating clientSet
	subtopics   map[string]*filterNode
	filters     map[protocol.ClientID][2]protocol.TopicLiteral
}

// NewTopicFilterTree creates an empty tree.
func NewTopicFilterTree() *TopicFilterTree {
	return &TopicFilterTree{
		terminating: make(clientSet),
		subtopics:   make(map[string]*filterNode),
		filters:     make(map[protocol.ClientID][2]protocol.TopicLiteral),
	}
}

// CreateSubtopic registers an addressable subtopic name. Registering an
// existing name is a no-op.
func (t *TopicFilterTree) CreateSubtopic(name string) {
	if _, ok := t.subtopics[name]; !ok {
		t.subtopics[name] = newFilterNode()
	}
}

// CreateSubsubtopic registers an addressable name under an existing
// subtopic. It reports false when the subtopic was never created.
func (t *TopicFilterTree) CreateSubsubtopic(subtopic, name string) bool {
	node, ok := t.subtopics[subtopic]
	if !ok {
		return false
	}
	if _, ok := node.leaves[name]; !ok {
		node.leaves[name] = make(clientSet)
	}
	return true
}

// resolve walks the tree to the subscriber set a filter addresses. A
// wildcard short-circuits to the terminating set at its level.
func (t *TopicFilterTree) resolve(sub1, sub2 protocol.TopicLiteral) (clientSet, bool) {
	if sub1.Wildcard {
		return t.terminating, true
	}
	node, ok := t.subtopics[sub1.Name]
	if !ok {
		return nil, false
	}
	if sub2.Wildcard {
		return node.terminating, true
	}
	leaf, ok := node.leaves[sub2.Name]
	if !ok {
		return nil, false
	}
	return leaf, true
}

// Insert registers a client under a filter, replacing any filter it was
// registered under before. It reports false when the addressed subtopic
// or subsubtopic was never created.
func (t *TopicFilterTree) Insert(client protocol.ClientID, sub1, sub2 protocol.TopicLiteral) bool {
	set, ok := t.resolve(sub1, sub2)
	if !ok {
		return false
	}
	t.Remove(client)
	set.add(client)
	t.filters[client] = [2]protocol.TopicLiteral{sub1, sub2}
	return true
}

// Remove deregisters a client from its tracked filter. A client with no
// tracked filter is a no-op.
func (t *TopicFilterTree) Remove(client protocol.ClientID) bool {
	filter, ok := t.filters[client]
	if !ok {
		return false
	}
	delete(t.filters, client)
	if set, ok := t.resolve(filter[0], filter[1]); ok {
		set.remove(client)
	}
	return true
}

// Clients returns the complete fan-out set for a concrete publish
// address: the exact leaf, subscribers terminating at the subtopic with a
// wildcard, and subscribers terminating at the root.
func (t *TopicFilterTree) Clients(subtopic, subsubtopic string) []protocol.ClientID {
	out := make(clientSet)
	for c := range t.terminating {
		out.add(c)
	}
	if node, ok := t.subtopics[subtopic]; ok {
		for c := range node.terminating {
			out.add(c)
		}
		if leaf, ok := node.leaves[subsubtopic]; ok {
			for c := range leaf {
				out.add(c)
			}
		}
	}

	clients := make([]protocol.ClientID, 0, len(out))
	for c := range out {
		clients = append(clients, c)
	}
	return clients
}

// FilterNonempty reports whether a filter addresses at least one
// registered name at each concrete level.
func (t *TopicFilterTree) FilterNonempty(sub1, sub2 protocol.TopicLiteral) bool {
	if sub1.Wildcard {
		return true
	}
	node, ok := t.subtopics[sub1.Name]
	if !ok {
		return false
	}
	if sub2.Wildcard {
		return true
	}
	_, ok = node.leaves[sub2.Name]
	return ok
}

// Filter returns the client's tracked filter, if any.
func (t *TopicFilterTree) Filter(client protocol.ClientID) ([2]protocol.TopicLiteral, bool) {
	f, ok := t.filters[client]
	return f, ok
}

// Subtopics returns the registered name tree, sorted for stable listing.
func (t *TopicFilterTree) Subtopics() []protocol.SubtopicInfo {
	infos := make([]protocol.SubtopicInfo, 0, len(t.subtopics))
	for name, node := range t.subtopics {
		sub := protocol.SubtopicInfo{Name: name}
		for leaf := range node.leaves {
			sub.Subsubtopic = append(sub.Subsubtopic, leaf)
		}
		sort.Strings(sub.Subsubtopic)
		infos = append(infos, sub)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
