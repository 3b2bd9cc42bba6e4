// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// AddRelationship appends a directed edge between two papers, tagged with
// discovery provenance. Every insertion is guarded by the composite
// (source, type, target) key, so re-discovering an edge via a different
// phase is a silent no-op. Returns whether the edge was new.
func (s *State) AddRelationship(sourceUID, targetUID string, typ types.RelationshipType, tag string) bool {
	if sourceUID == "" || targetUID == "" || sourceUID == targetUID {
		return false
	}

	rel := types.Relationship{
		SourceUID: sourceUID,
		TargetUID: targetUID,
		Type:      typ,
		Tag:       tag,
	}
	key := rel.Key()
	if _, exists := s.Relationships[key]; exists {
		return false
	}

	s.Relationships[key] = rel
	s.notify.Emit(stream.Event{Type: stream.EventRelationshipAdded, Relationship: &rel})
	return true
}

// TagPaper records a provenance tag on a paper and mirrors the update to
// the stream.
func (s *State) TagPaper(uid, tag string) {
	paper, ok := s.Papers[uid]
	if !ok || paper.HasTag(tag) {
		return
	}
	paper.AddTag(tag)
	s.notify.Emit(stream.Event{Type: stream.EventEntityUpdated, Kind: "paper", Paper: clonePaper(paper)})
}
