// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/graph"
	"github.com/pdiddy/citegraph/internal/openalex"
	"github.com/pdiddy/citegraph/pkg/types"
)

// seedMaster ingests the master paper as a full record. A seed that
// resolves to nothing is fatal — there is no session without a master.
func (s *Session) seedMaster(ctx context.Context, seed Seed) error {
	id := seed.Identifier
	if id == "" {
		if seed.Title == "" {
			return fmt.Errorf("seed requires an identifier or a title")
		}
		candidates, err := s.oa.SearchByTitle(ctx, seed.Title)
		if err != nil {
			return fmt.Errorf("resolving seed title: %w", err)
		}
		if len(candidates) == 0 {
			return fmt.Errorf("no works match title %q", seed.Title)
		}
		id = graph.NormalizeOpenAlexID(candidates[0].ID)
	}

	work, err := s.oa.FetchWork(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching master paper: %w", err)
	}
	if work == nil {
		return fmt.Errorf("master paper %s not found", id)
	}

	s.st.MasterUID = s.st.ProcessOpenAlexWork(work, false)
	s.log.Info("master paper seeded",
		zap.String("uid", s.st.MasterUID),
		zap.String("title", work.BestTitle()))
	return nil
}

// firstDegreePhase ingests every work citing the master as a full paper,
// tags it, and adds the cites edge. While iterating it accumulates
// frequency counts of the citing papers' own references and related
// works for the stub promotion phase.
func (s *Session) firstDegreePhase(ctx context.Context) (refCounts, relCounts map[string]int, err error) {
	masterOAID, ok := s.st.OpenAlexIDForPaper(s.st.MasterUID)
	if !ok {
		return nil, nil, fmt.Errorf("master paper has no OpenAlex id")
	}

	works, err := s.oa.FetchCitingWorks(ctx, []string{masterOAID})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching first-degree citations: %w", err)
	}

	refCounts = make(map[string]int)
	relCounts = make(map[string]int)

	for i := range works {
		work := &works[i]
		uid := s.st.ProcessOpenAlexWork(work, false)
		s.st.TagPaper(uid, types.TagFirstDegree)
		s.st.AddRelationship(uid, s.st.MasterUID, types.RelCites, types.TagFirstDegree)
		s.firstDegree[graph.NormalizeOpenAlexID(work.ID)] = uid

		for _, ref := range work.ReferencedWorks {
			refCounts[graph.NormalizeOpenAlexID(ref)]++
		}
		for _, rel := range work.RelatedWorks {
			relCounts[graph.NormalizeOpenAlexID(rel)]++
		}

		s.progress(string(PhaseLoading), i+1, len(works))
	}

	delete(refCounts, masterOAID)
	delete(relCounts, masterOAID)

	s.log.Info("first-degree fetch complete",
		zap.Int("citing_works", len(works)),
		zap.Int("distinct_references", len(refCounts)),
		zap.Int("distinct_related", len(relCounts)))
	return refCounts, relCounts, nil
}

// stubPromotionPhase promotes frequently shared references and related
// works to stub papers linked to the master. Works seen fewer times than
// the threshold are dropped — the long tail of rarely shared references
// would otherwise explode the stub set.
func (s *Session) stubPromotionPhase(ctx context.Context, refCounts, relCounts map[string]int) error {
	refIDs := idsAtThreshold(refCounts, s.st.StubThreshold)
	relIDs := idsAtThreshold(relCounts, s.st.StubThreshold)
	if len(refIDs) == 0 && len(relIDs) == 0 {
		return nil
	}

	if err := s.createStubs(ctx, refIDs, types.TagReferencedByFirstDeg); err != nil {
		return err
	}
	return s.createStubs(ctx, relIDs, types.TagSimilar)
}

// createStubs batch-fetches minimal records and links each resulting stub
// to the master with a similar edge carrying the discovery tag.
func (s *Session) createStubs(ctx context.Context, oaIDs []string, tag string) error {
	if len(oaIDs) == 0 {
		return nil
	}

	works, err := s.oa.FetchWorksBatch(ctx, oaIDs, openalex.FieldsStubCreation)
	if err != nil {
		return fmt.Errorf("batch-fetching %d stub candidates: %w", len(oaIDs), err)
	}

	for i := range works {
		uid := s.st.ProcessOpenAlexWork(&works[i], true)
		s.st.TagPaper(uid, tag)
		s.st.AddRelationship(s.st.MasterUID, uid, types.RelSimilar, tag)
	}

	s.log.Info("stubs promoted", zap.String("tag", tag), zap.Int("count", len(works)))
	return nil
}

// crossProviderPhase enriches the graph with Semantic Scholar's view of
// the master's citation neighborhood. Results are matched through the
// identifier index (DOI first, then the provider-native id); unmatched
// results become new stubs.
func (s *Session) crossProviderPhase(ctx context.Context) error {
	doi, ok := s.st.DOIForPaper(s.st.MasterUID)
	if !ok {
		s.log.Info("master has no DOI, skipping cross-provider enrichment")
		return nil
	}

	nb, err := s.s2.FetchByDOI(ctx, doi)
	if err != nil {
		return fmt.Errorf("fetching Semantic Scholar neighborhood: %w", err)
	}
	if nb == nil {
		s.log.Info("master DOI unknown to Semantic Scholar", zap.String("doi", doi))
		return nil
	}

	for i := range nb.Citations {
		uid := s.st.ProcessSemanticPaper(&nb.Citations[i], true)
		s.st.AddRelationship(uid, s.st.MasterUID, types.RelCites, "semantic_scholar")
	}
	for i := range nb.References {
		uid := s.st.ProcessSemanticPaper(&nb.References[i], true)
		s.st.AddRelationship(s.st.MasterUID, uid, types.RelCites, "semantic_scholar")
	}

	s.log.Info("cross-provider enrichment complete",
		zap.Int("citations", len(nb.Citations)),
		zap.Int("references", len(nb.References)))
	return nil
}

// hydrateMasterPhase re-fetches the master's full record and merges it,
// covering fields the original seed call did not request or the provider
// filled in later.
func (s *Session) hydrateMasterPhase(ctx context.Context) error {
	masterOAID, ok := s.st.OpenAlexIDForPaper(s.st.MasterUID)
	if !ok {
		return nil
	}
	work, err := s.oa.FetchWork(ctx, masterOAID)
	if err != nil {
		return fmt.Errorf("re-fetching master paper: %w", err)
	}
	if work == nil {
		return nil
	}
	s.st.ProcessOpenAlexWork(work, false)
	return nil
}

// secondDegreePhase batch-queries the works citing any first-degree
// paper. Each new result becomes a full paper tagged 2nd_degree; an edge
// back to a first-degree paper is added only when that citation is
// confirmed by the result's own reference list.
func (s *Session) secondDegreePhase(ctx context.Context) error {
	if len(s.firstDegree) == 0 {
		return nil
	}

	ids := make([]string, 0, len(s.firstDegree))
	for oaID := range s.firstDegree {
		ids = append(ids, oaID)
	}
	sort.Strings(ids)

	works, err := s.oa.FetchCitingWorks(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetching second-degree citations: %w", err)
	}

	added := 0
	for i := range works {
		work := &works[i]
		oaID := graph.NormalizeOpenAlexID(work.ID)
		if _, isFirstDegree := s.firstDegree[oaID]; isFirstDegree {
			continue
		}

		uid := s.st.ProcessOpenAlexWork(work, false)
		if uid == s.st.MasterUID {
			continue
		}
		s.st.TagPaper(uid, types.TagSecondDegree)

		for _, ref := range work.ReferencedWorks {
			if fdUID, ok := s.firstDegree[graph.NormalizeOpenAlexID(ref)]; ok {
				if s.st.AddRelationship(uid, fdUID, types.RelCites, types.TagSecondDegree) {
					added++
				}
			}
		}

		s.progress(string(PhaseExtending), i+1, len(works))
	}

	s.log.Info("second-degree extension complete",
		zap.Int("works", len(works)), zap.Int("confirmed_edges", added))
	return nil
}

// stubHydrationPhase batch-fetches full records for every paper still
// marked as a stub, promoting each and attaching its authorships. Stubs
// without any OpenAlex id fall back to their DOI; stubs with neither stay
// stubs.
func (s *Session) stubHydrationPhase(ctx context.Context) error {
	stubUIDs := s.st.StubPaperUIDs()
	if len(stubUIDs) == 0 {
		return nil
	}

	var oaIDs, dois []string
	for _, uid := range stubUIDs {
		if oaID, ok := s.st.OpenAlexIDForPaper(uid); ok {
			oaIDs = append(oaIDs, oaID)
			continue
		}
		if doi, ok := s.st.DOIForPaper(uid); ok {
			dois = append(dois, doi)
		}
	}

	hydrated := 0
	if len(oaIDs) > 0 {
		works, err := s.oa.FetchWorksBatch(ctx, oaIDs, openalex.FieldsFullIngestion)
		if err != nil {
			return fmt.Errorf("hydrating stubs by OpenAlex id: %w", err)
		}
		for i := range works {
			s.st.ProcessOpenAlexWork(&works[i], false)
			hydrated++
		}
	}
	if len(dois) > 0 {
		works, err := s.oa.FetchWorksByDOI(ctx, dois, openalex.FieldsFullIngestion)
		if err != nil {
			return fmt.Errorf("hydrating stubs by DOI: %w", err)
		}
		for i := range works {
			s.st.ProcessOpenAlexWork(&works[i], false)
			hydrated++
		}
	}

	s.log.Info("stub hydration complete",
		zap.Int("stubs", len(stubUIDs)), zap.Int("hydrated", hydrated))
	return nil
}

// idsAtThreshold returns the ids whose count meets the threshold, sorted.
func idsAtThreshold(counts map[string]int, threshold int) []string {
	var ids []string
	for id, n := range counts {
		if n >= threshold {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
