// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

func TestAddRelationshipDedup(t *testing.T) {
	rec := &recorder{}
	st := NewState(3, rec)

	assert.True(t, st.AddRelationship("p-a", "p-b", types.RelCites, "1st_degree"))
	// Same edge rediscovered with a different tag is a no-op.
	assert.False(t, st.AddRelationship("p-a", "p-b", types.RelCites, "semantic_scholar"))
	// Different type between the same papers is a distinct edge.
	assert.True(t, st.AddRelationship("p-a", "p-b", types.RelSimilar, "similar"))
	// Opposite direction is a distinct edge.
	assert.True(t, st.AddRelationship("p-b", "p-a", types.RelCites, "2nd_degree"))

	assert.Len(t, st.Relationships, 3)
	assert.Len(t, rec.ofType(stream.EventRelationshipAdded), 3)

	// The first writer's tag survives.
	key := types.Relationship{SourceUID: "p-a", TargetUID: "p-b", Type: types.RelCites}.Key()
	assert.Equal(t, "1st_degree", st.Relationships[key].Tag)
}

func TestAddRelationshipRejectsDegenerate(t *testing.T) {
	st := NewState(3, nil)

	assert.False(t, st.AddRelationship("p-a", "p-a", types.RelCites, "x"))
	assert.False(t, st.AddRelationship("", "p-b", types.RelCites, "x"))
	assert.False(t, st.AddRelationship("p-a", "", types.RelCites, "x"))
	assert.Empty(t, st.Relationships)
}

func TestTagPaper(t *testing.T) {
	rec := &recorder{}
	st := NewState(3, rec)
	uid := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "T"}, false)

	st.TagPaper(uid, "1st_degree")
	st.TagPaper(uid, "1st_degree")
	st.TagPaper("p-missing", "1st_degree")

	require.True(t, st.Papers[uid].HasTag("1st_degree"))
	// One paper_added plus exactly one update for the single new tag.
	assert.Len(t, rec.ofType(stream.EventEntityUpdated), 1)
}
