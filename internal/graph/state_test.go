// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
	"github.com/pdiddy/citegraph/internal/stream"
	"github.com/pdiddy/citegraph/pkg/types"
)

// recorder collects emitted events for assertions.
type recorder struct {
	events []stream.Event
}

func (r *recorder) Emit(ev stream.Event) { r.events = append(r.events, ev) }

func (r *recorder) ofType(t stream.EventType) []stream.Event {
	var out []stream.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func TestRecordFirstWriterWins(t *testing.T) {
	rec := &recorder{}
	st := NewState(3, rec)

	st.Record(NSDOI, "10.1/x", "p-aaa")
	st.Record(NSDOI, "10.1/x", "p-bbb")

	uid, ok := st.Find(NSDOI, "10.1/x")
	require.True(t, ok)
	assert.Equal(t, "p-aaa", uid)

	// Only the first write reaches the stream.
	assert.Len(t, rec.ofType(stream.EventExternalIDSet), 1)
}

func TestFindEmptyValue(t *testing.T) {
	st := NewState(3, nil)
	st.Record(NSDOI, "", "p-aaa")

	_, ok := st.Find(NSDOI, "")
	assert.False(t, ok)
	assert.Equal(t, 0, st.IndexSize())
}

func TestIdempotentResolution(t *testing.T) {
	st := NewState(3, nil)

	// First seen via DOI only, then again with both identifiers, then via
	// the OpenAlex id only. All three must resolve to one paper.
	uid1 := st.ProcessOpenAlexWork(&openalex.Work{
		DOI:   "https://doi.org/10.1234/ABC",
		Title: "Graph Methods",
	}, true)
	uid2 := st.ProcessOpenAlexWork(&openalex.Work{
		ID:    "https://openalex.org/W100",
		DOI:   "10.1234/abc",
		Title: "Graph Methods",
	}, true)
	uid3 := st.ProcessOpenAlexWork(&openalex.Work{
		ID: "W100",
	}, true)

	assert.Equal(t, uid1, uid2)
	assert.Equal(t, uid1, uid3)
	assert.Len(t, st.Papers, 1)
}

func TestCrossProviderResolutionByDOI(t *testing.T) {
	st := NewState(3, nil)

	oaUID := st.ProcessOpenAlexWork(&openalex.Work{
		ID:    "W100",
		DOI:   "10.1234/abc",
		Title: "Graph Methods",
	}, false)

	s2UID := st.ProcessSemanticPaper(&semanticscholar.Paper{
		PaperID: "s2hash100",
		Title:   "Graph Methods",
		ExternalIDs: semanticscholar.ExternalIDs{
			DOI:      "10.1234/ABC",
			CorpusID: 42,
		},
	}, true)

	require.Equal(t, oaUID, s2UID)
	assert.Len(t, st.Papers, 1)

	// The merge registered the provider-native ids on the same paper.
	uid, ok := st.Find(NSSemanticScholar, "s2hash100")
	require.True(t, ok)
	assert.Equal(t, oaUID, uid)
	uid, ok = st.Find(NSS2Corpus, "42")
	require.True(t, ok)
	assert.Equal(t, oaUID, uid)
}

func TestMergeAuthors(t *testing.T) {
	rec := &recorder{}
	st := NewState(3, rec)

	winner := st.ProcessOpenAlexAuthor(openalex.Author{
		ID:          "A1",
		DisplayName: "John Smith",
	})
	loser := st.ProcessSemanticAuthor(semanticscholar.Author{
		AuthorID: "s2a9",
		Name:     "J. Smith",
	})
	require.NotEqual(t, winner, loser)

	paperUID := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "T"}, true)
	st.Authorships[authorshipKey(paperUID, loser)] = &types.Authorship{
		PaperUID:  paperUID,
		AuthorUID: loser,
	}

	st.MergeAuthors(winner, []string{loser})

	// Loser deleted, authorship re-pointed, index re-pointed.
	_, exists := st.Authors[loser]
	assert.False(t, exists)
	_, exists = st.Authorships[authorshipKey(paperUID, winner)]
	assert.True(t, exists)
	uid, ok := st.Find(NSS2Author, "s2a9")
	require.True(t, ok)
	assert.Equal(t, winner, uid)

	merged := rec.ofType(stream.EventAuthorsMerged)
	require.Len(t, merged, 1)
	assert.Equal(t, winner, merged[0].WinnerUID)
	assert.Equal(t, []string{loser}, merged[0].LoserUIDs)
}

func TestMergeAuthorsSkipsExistingJoin(t *testing.T) {
	st := NewState(3, nil)

	winner := st.ProcessOpenAlexAuthor(openalex.Author{ID: "A1", DisplayName: "John Smith"})
	loser := st.ProcessSemanticAuthor(semanticscholar.Author{AuthorID: "s2a9", Name: "J. Smith"})

	paperUID := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "T"}, true)
	st.Authorships[authorshipKey(paperUID, winner)] = &types.Authorship{PaperUID: paperUID, AuthorUID: winner, Position: 0}
	st.Authorships[authorshipKey(paperUID, loser)] = &types.Authorship{PaperUID: paperUID, AuthorUID: loser, Position: 3}

	st.MergeAuthors(winner, []string{loser})

	// The winner already had a join on this paper; the loser's join folds
	// away instead of clobbering it.
	require.Len(t, st.Authorships, 1)
	assert.Equal(t, 0, st.Authorships[authorshipKey(paperUID, winner)].Position)
}

func TestMergeAuthorsWinnerInLoserList(t *testing.T) {
	st := NewState(3, nil)

	winner := st.ProcessOpenAlexAuthor(openalex.Author{ID: "A1", DisplayName: "John Smith"})
	st.MergeAuthors(winner, []string{winner})

	_, exists := st.Authors[winner]
	assert.True(t, exists)
}

func TestSnapshotIsFrozen(t *testing.T) {
	st := NewState(3, nil)
	uid := st.ProcessOpenAlexWork(&openalex.Work{
		ID:       "W1",
		Title:    "Before",
		Keywords: []openalex.Keyword{{DisplayName: "graphs"}},
	}, false)
	st.TagPaper(uid, "1st_degree")

	snap := st.Snapshot()
	require.Len(t, snap.Papers, 1)

	// Later mutation must not leak into the snapshot.
	st.Papers[uid].Keywords[0] = "mutated"
	st.TagPaper(uid, "similar")

	assert.Equal(t, []string{"graphs"}, snap.Papers[0].Keywords)
	assert.False(t, snap.Papers[0].RelationshipTags["similar"])
}

func TestStubUIDsSorted(t *testing.T) {
	st := NewState(3, nil)
	st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "A"}, true)
	st.ProcessOpenAlexWork(&openalex.Work{ID: "W2", Title: "B"}, true)
	st.ProcessOpenAlexWork(&openalex.Work{ID: "W3", Title: "C"}, false)

	stubs := st.StubPaperUIDs()
	require.Len(t, stubs, 2)
	assert.True(t, stubs[0] < stubs[1])
}

func TestOpenAlexIDForPaper(t *testing.T) {
	st := NewState(3, nil)
	uid := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", DOI: "10.1/x", Title: "A"}, false)

	oaID, ok := st.OpenAlexIDForPaper(uid)
	require.True(t, ok)
	assert.Equal(t, "W1", oaID)

	doi, ok := st.DOIForPaper(uid)
	require.True(t, ok)
	assert.Equal(t, "10.1/x", doi)

	_, ok = st.OpenAlexIDForPaper("p-unknown")
	assert.False(t, ok)
}
