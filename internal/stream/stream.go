// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream carries graph mutation events from the engine to the
// consumer (the presentation layer). Entity deltas are coalesced and
// flushed on a fixed interval rather than pushed one at a time, so heavy
// fan-out phases cannot overwhelm the consumer; control messages (reset,
// status, fatal errors, completion) bypass the queue.
//
// A consumer that folds every event from a reset reconstructs the full
// graph state without re-deriving anything.
package stream

import (
	"sync"
	"time"

	"github.com/pdiddy/citegraph/pkg/types"
)

// EventType discriminates the event union.
type EventType string

const (
	EventReset             EventType = "reset"
	EventPaperAdded        EventType = "paper_added"
	EventAuthorAdded       EventType = "author_added"
	EventInstitutionAdded  EventType = "institution_added"
	EventAuthorshipAdded   EventType = "authorship_added"
	EventRelationshipAdded EventType = "relationship_added"
	EventExternalIDSet     EventType = "external_id_set"
	EventEntityUpdated     EventType = "entity_updated"
	EventAuthorsMerged     EventType = "authors_merged"
	EventStatus            EventType = "status"
	EventProgress          EventType = "progress"
	EventFatalError        EventType = "fatal_error"
	EventDone              EventType = "done"
)

// Event is one graph mutation or control message. Exactly the fields for
// its Type are set; the rest are zero.
type Event struct {
	Type EventType `json:"type"`

	Paper        *types.Paper        `json:"paper,omitempty"`
	Author       *types.Author       `json:"author,omitempty"`
	Institution  *types.Institution  `json:"institution,omitempty"`
	Authorship   *types.Authorship   `json:"authorship,omitempty"`
	Relationship *types.Relationship `json:"relationship,omitempty"`

	// External-id registration: Namespace:Value now resolves to UID.
	Namespace string `json:"namespace,omitempty"`
	Value     string `json:"value,omitempty"`
	UID       string `json:"uid,omitempty"`

	// Entity update: Kind is "paper", "author", or "institution"; the
	// matching entity pointer above carries the post-update record.
	Kind string `json:"kind,omitempty"`

	// Author merge: every authorship of LoserUIDs was re-pointed to
	// WinnerUID and the losers were deleted.
	WinnerUID string   `json:"winner_uid,omitempty"`
	LoserUIDs []string `json:"loser_uids,omitempty"`

	// Status / fatal error / progress.
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// immediate reports whether the event bypasses delta coalescing.
func (e Event) immediate() bool {
	switch e.Type {
	case EventReset, EventStatus, EventFatalError, EventDone:
		return true
	}
	return false
}

// Emitter queues entity deltas and flushes them as batches on a fixed
// interval. Immediate events flush any pending deltas first so the
// consumer always observes events in emission order.
//
// The consumer reads batches from Events(). The channel is buffered;
// a consumer that stops reading eventually blocks the engine, which is
// acceptable for an in-process presentation layer.
type Emitter struct {
	mu      sync.Mutex
	pending []Event

	sendMu sync.Mutex
	closed bool
	out    chan []Event

	stop chan struct{}
	once sync.Once
}

// NewEmitter starts an emitter flushing every interval.
func NewEmitter(interval time.Duration) *Emitter {
	e := &Emitter{
		out:  make(chan []Event, 256),
		stop: make(chan struct{}),
	}
	go e.run(interval)
	return e
}

// Events returns the batch channel. Closed after Close.
func (e *Emitter) Events() <-chan []Event { return e.out }

// Emit enqueues a delta, or flushes immediately for control events.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	e.pending = append(e.pending, ev)
	if !ev.immediate() {
		e.mu.Unlock()
		return
	}
	batch := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.send(batch)
}

// Flush pushes any pending deltas to the consumer now.
func (e *Emitter) Flush() {
	e.mu.Lock()
	batch := e.pending
	e.pending = nil
	e.mu.Unlock()
	e.send(batch)
}

// Close flushes remaining deltas, stops the ticker, and closes the batch
// channel. Safe to call more than once.
func (e *Emitter) Close() {
	e.once.Do(func() {
		close(e.stop)
		e.Flush()
		e.sendMu.Lock()
		e.closed = true
		close(e.out)
		e.sendMu.Unlock()
	})
}

func (e *Emitter) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.Flush()
		}
	}
}

func (e *Emitter) send(batch []Event) {
	if len(batch) == 0 {
		return
	}
	e.sendMu.Lock()
	defer e.sendMu.Unlock()
	if e.closed {
		return
	}
	e.out <- batch
}
