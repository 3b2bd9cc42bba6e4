// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// Notifier receives graph mutation events synchronously as entities are
// created and updated. The pipeline wires a stream.Emitter here; tests use
// NopNotifier.
type Notifier interface {
	Emit(stream.Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Emit implements Notifier.
func (NopNotifier) Emit(stream.Event) {}

// State is the aggregate in-memory graph for one analysis session. It is
// created empty, mutated in place by strictly sequential phases, and
// discarded on session reset. It is not safe for concurrent mutation.
type State struct {
	Papers        map[string]*types.Paper
	Authors       map[string]*types.Author
	Institutions  map[string]*types.Institution
	Authorships   map[string]*types.Authorship
	Relationships map[string]types.Relationship

	// MasterUID is the short uid of the seed paper.
	MasterUID string

	// StubThreshold is the minimum co-citation frequency before a
	// referenced/related work is promoted to a stub entity.
	StubThreshold int

	// index maps "namespace:value" to a short uid. Append-only within a
	// session; entries are re-pointed only during author merges.
	index map[string]string

	notify Notifier
}

// NewState builds an empty session state.
func NewState(stubThreshold int, n Notifier) *State {
	if n == nil {
		n = NopNotifier{}
	}
	return &State{
		Papers:        make(map[string]*types.Paper),
		Authors:       make(map[string]*types.Author),
		Institutions:  make(map[string]*types.Institution),
		Authorships:   make(map[string]*types.Authorship),
		Relationships: make(map[string]types.Relationship),
		StubThreshold: stubThreshold,
		index:         make(map[string]string),
		notify:        n,
	}
}

// Find looks up the internal id recorded for an external identifier.
// This index is the sole deduplication oracle: every entity processor
// consults it before minting a new id.
func (s *State) Find(ns Namespace, value string) (string, bool) {
	if value == "" {
		return "", false
	}
	uid, ok := s.index[string(ns)+":"+value]
	return uid, ok
}

// Record registers an external identifier for an internal id. First
// writer wins; a later write to the same key is a no-op. Every successful
// write is mirrored to the stream so consumers can keep an index copy.
func (s *State) Record(ns Namespace, value, uid string) {
	if value == "" || uid == "" {
		return
	}
	key := string(ns) + ":" + value
	if _, exists := s.index[key]; exists {
		return
	}
	s.index[key] = uid
	s.notify.Emit(stream.Event{
		Type:      stream.EventExternalIDSet,
		Namespace: string(ns),
		Value:     value,
		UID:       uid,
	})
}

// IndexSize returns the number of recorded external identifiers.
func (s *State) IndexSize() int { return len(s.index) }

// newUID mints an opaque short uid with a kind prefix ("p", "a", "i").
func (s *State) newUID(prefix string) string {
	for {
		uid := prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		switch prefix {
		case "p":
			if _, taken := s.Papers[uid]; !taken {
				return uid
			}
		case "a":
			if _, taken := s.Authors[uid]; !taken {
				return uid
			}
		default:
			if _, taken := s.Institutions[uid]; !taken {
				return uid
			}
		}
	}
}

// authorshipKey builds the composite key for the (paper, author) join.
func authorshipKey(paperUID, authorUID string) string {
	return paperUID + "|" + authorUID
}

// Snapshot is a frozen, point-in-time-consistent copy of a session's
// graph, suitable for export while the session continues.
type Snapshot struct {
	MasterUID     string
	Papers        []types.Paper
	Authors       []types.Author
	Institutions  []types.Institution
	Authorships   []types.Authorship
	Relationships []types.Relationship
	ExternalIDs   map[string]string
}

// Snapshot copies the current graph into a frozen value. Entities are
// sorted by uid so export output is deterministic.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		MasterUID:   s.MasterUID,
		ExternalIDs: make(map[string]string, len(s.index)),
	}

	for _, p := range s.Papers {
		cp := *p
		cp.Keywords = append([]string(nil), p.Keywords...)
		cp.RelationshipTags = make(map[string]bool, len(p.RelationshipTags))
		for tag := range p.RelationshipTags {
			cp.RelationshipTags[tag] = true
		}
		snap.Papers = append(snap.Papers, cp)
	}
	for _, a := range s.Authors {
		snap.Authors = append(snap.Authors, *a)
	}
	for _, i := range s.Institutions {
		snap.Institutions = append(snap.Institutions, *i)
	}
	for _, as := range s.Authorships {
		cp := *as
		cp.InstitutionUIDs = append([]string(nil), as.InstitutionUIDs...)
		snap.Authorships = append(snap.Authorships, cp)
	}
	for _, r := range s.Relationships {
		snap.Relationships = append(snap.Relationships, r)
	}
	for k, v := range s.index {
		snap.ExternalIDs[k] = v
	}

	sort.Slice(snap.Papers, func(i, j int) bool { return snap.Papers[i].ShortUID < snap.Papers[j].ShortUID })
	sort.Slice(snap.Authors, func(i, j int) bool { return snap.Authors[i].ShortUID < snap.Authors[j].ShortUID })
	sort.Slice(snap.Institutions, func(i, j int) bool { return snap.Institutions[i].ShortUID < snap.Institutions[j].ShortUID })
	sort.Slice(snap.Authorships, func(i, j int) bool {
		ki := authorshipKey(snap.Authorships[i].PaperUID, snap.Authorships[i].AuthorUID)
		kj := authorshipKey(snap.Authorships[j].PaperUID, snap.Authorships[j].AuthorUID)
		return ki < kj
	})
	sort.Slice(snap.Relationships, func(i, j int) bool {
		return snap.Relationships[i].Key() < snap.Relationships[j].Key()
	})

	return snap
}

// StubPaperUIDs returns the uids of every paper still marked as a stub,
// sorted for deterministic batch fetching.
func (s *State) StubPaperUIDs() []string {
	var uids []string
	for uid, p := range s.Papers {
		if p.IsStub {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// StubAuthorUIDs returns the uids of every author still marked as a stub,
// sorted for deterministic reconciliation order.
func (s *State) StubAuthorUIDs() []string {
	var uids []string
	for uid, a := range s.Authors {
		if a.IsStub {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// OpenAlexIDForPaper returns the bare OpenAlex id recorded for a paper,
// if any. Linear over the index, which is fine at session scale.
func (s *State) OpenAlexIDForPaper(uid string) (string, bool) {
	prefix := string(NSOpenAlex) + ":"
	for key, mapped := range s.index {
		if mapped == uid && strings.HasPrefix(key, prefix) {
			return strings.TrimPrefix(key, prefix), true
		}
	}
	return "", false
}

// DOIForPaper returns the bare DOI recorded for a paper, if any.
func (s *State) DOIForPaper(uid string) (string, bool) {
	prefix := string(NSDOI) + ":"
	for key, mapped := range s.index {
		if mapped == uid && strings.HasPrefix(key, prefix) {
			return strings.TrimPrefix(key, prefix), true
		}
	}
	return "", false
}

// PapersByAuthor returns the paper uids an author is credited on, sorted.
func (s *State) PapersByAuthor(authorUID string) []string {
	var uids []string
	for _, as := range s.Authorships {
		if as.AuthorUID == authorUID {
			uids = append(uids, as.PaperUID)
		}
	}
	sort.Strings(uids)
	return uids
}

// MergeAuthors re-points every authorship of the loser authors to the
// winner and deletes the losers. Index entries naming a loser are
// re-pointed to the winner; this is the only mutation of existing index
// entries in a session.
func (s *State) MergeAuthors(winnerUID string, loserUIDs []string) {
	losers := make(map[string]bool, len(loserUIDs))
	for _, uid := range loserUIDs {
		if uid != winnerUID {
			losers[uid] = true
		}
	}
	if len(losers) == 0 {
		return
	}

	for key, as := range s.Authorships {
		if !losers[as.AuthorUID] {
			continue
		}
		delete(s.Authorships, key)
		moved := *as
		moved.AuthorUID = winnerUID
		newKey := authorshipKey(moved.PaperUID, winnerUID)
		if _, exists := s.Authorships[newKey]; !exists {
			s.Authorships[newKey] = &moved
		}
	}

	for key, uid := range s.index {
		if losers[uid] {
			s.index[key] = winnerUID
		}
	}

	var deleted []string
	for uid := range losers {
		delete(s.Authors, uid)
		deleted = append(deleted, uid)
	}
	sort.Strings(deleted)

	s.notify.Emit(stream.Event{
		Type:      stream.EventAuthorsMerged,
		WinnerUID: winnerUID,
		LoserUIDs: deleted,
	})
}
