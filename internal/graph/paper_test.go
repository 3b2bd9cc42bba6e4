// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/internal/semanticscholar"
	"github.com/pdiddy/citegraph/pkg/types"
)

func TestMergePaperFields(t *testing.T) {
	tests := []struct {
		name string
		dst  types.Paper
		src  types.Paper
		want types.Paper
	}{
		{
			name: "empty fields are filled",
			dst:  types.Paper{Title: "Kept"},
			src:  types.Paper{Title: "Ignored", Abstract: "New abstract", PublicationYear: 2021},
			want: types.Paper{Title: "Kept", Abstract: "New abstract", PublicationYear: 2021},
		},
		{
			name: "populated fields survive empty source",
			dst:  types.Paper{Title: "Kept", Abstract: "Kept abstract", Language: "en"},
			src:  types.Paper{},
			want: types.Paper{Title: "Kept", Abstract: "Kept abstract", Language: "en"},
		},
		{
			name: "larger citation count wins",
			dst:  types.Paper{CitedByCount: 10},
			src:  types.Paper{CitedByCount: 17},
			want: types.Paper{CitedByCount: 17},
		},
		{
			name: "smaller citation count does not regress",
			dst:  types.Paper{CitedByCount: 17},
			src:  types.Paper{CitedByCount: 3},
			want: types.Paper{CitedByCount: 17},
		},
		{
			name: "keywords fill only when absent",
			dst:  types.Paper{Keywords: []string{"graphs"}},
			src:  types.Paper{Keywords: []string{"networks", "citations"}},
			want: types.Paper{Keywords: []string{"graphs"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := tt.dst
			mergePaperFields(&dst, &tt.src)
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestStubEnrichedWithoutPromotion(t *testing.T) {
	st := NewState(3, nil)

	uid := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1"}, true)
	require.True(t, st.Papers[uid].IsStub)
	require.Empty(t, st.Papers[uid].Title)

	// A later discovery record carries the title. The stub absorbs it but
	// stays a stub.
	st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "Found Title", CitedByCount: 5}, true)

	paper := st.Papers[uid]
	assert.True(t, paper.IsStub)
	assert.Equal(t, "Found Title", paper.Title)
	assert.Equal(t, 5, paper.CitedByCount)
}

func TestFullIngestionPromotesStub(t *testing.T) {
	st := NewState(3, nil)

	uid := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "Thin"}, true)
	require.True(t, st.Papers[uid].IsStub)

	st.ProcessOpenAlexWork(&openalex.Work{
		ID:    "W1",
		Title: "Thin",
		Authorships: []openalex.Authorship{
			{Author: openalex.Author{ID: "A1", DisplayName: "Jane Doe"}},
		},
	}, false)

	paper := st.Papers[uid]
	assert.False(t, paper.IsStub)
	assert.Len(t, st.Authorships, 1)
}

func TestFullIngestionNeverRegressesToStub(t *testing.T) {
	st := NewState(3, nil)

	uid := st.ProcessOpenAlexWork(&openalex.Work{ID: "W1", Title: "Full"}, false)
	require.False(t, st.Papers[uid].IsStub)

	st.ProcessOpenAlexWork(&openalex.Work{ID: "W1"}, true)
	assert.False(t, st.Papers[uid].IsStub)
}

func TestStubIngestionSkipsAuthorships(t *testing.T) {
	st := NewState(3, nil)

	st.ProcessOpenAlexWork(&openalex.Work{
		ID: "W1",
		Authorships: []openalex.Authorship{
			{Author: openalex.Author{ID: "A1", DisplayName: "Jane Doe"}},
		},
	}, true)

	assert.Empty(t, st.Authorships)
	assert.Empty(t, st.Authors)
}

func TestSemanticAuthorsAttachAsStubs(t *testing.T) {
	st := NewState(3, nil)

	uid := st.ProcessSemanticPaper(&semanticscholar.Paper{
		PaperID: "s2x",
		Title:   "T",
		Authors: []semanticscholar.Author{
			{AuthorID: "s2a1", Name: "J. Smith"},
			{AuthorID: "s2a2", Name: "A. Jones"},
		},
	}, true)

	assert.Len(t, st.Authors, 2)
	assert.Len(t, st.Authorships, 2)
	for _, a := range st.Authors {
		assert.True(t, a.IsStub)
	}
	assert.True(t, st.Papers[uid].IsStub)
}

func TestOpenAlexAuthorResolvesByORCID(t *testing.T) {
	st := NewState(3, nil)

	uid1 := st.ProcessOpenAlexAuthor(openalex.Author{
		ID:          "A1",
		DisplayName: "Jane Doe",
		ORCID:       "https://orcid.org/0000-0001-0000-0001",
	})
	// Same person under a different OpenAlex id, matched through ORCID.
	uid2 := st.ProcessOpenAlexAuthor(openalex.Author{
		ID:          "A2",
		DisplayName: "Jane Doe",
		ORCID:       "0000-0001-0000-0001",
	})

	assert.Equal(t, uid1, uid2)
	assert.Len(t, st.Authors, 1)
}

func TestInstitutionResolution(t *testing.T) {
	st := NewState(3, nil)

	uid1 := st.ProcessInstitution(openalex.Institution{
		ID:          "I1",
		ROR:         "https://ror.org/02y3ad647",
		DisplayName: "University of Testing",
	})
	uid2 := st.ProcessInstitution(openalex.Institution{ROR: "02y3ad647"})

	require.Equal(t, uid1, uid2)
	assert.Equal(t, "University of Testing", st.Institutions[uid1].DisplayName)
	assert.Equal(t, "02y3ad647", st.Institutions[uid1].RORID)
}

func TestAbstractExtractedOnIngestion(t *testing.T) {
	st := NewState(3, nil)

	uid := st.ProcessOpenAlexWork(&openalex.Work{
		ID: "W1",
		AbstractInvertedIndex: map[string][]int{
			"networks": {1},
			"Citation": {0},
			"matter":   {2},
		},
	}, false)

	assert.Equal(t, "Citation networks matter", st.Papers[uid].Abstract)
}
