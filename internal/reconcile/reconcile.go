// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges stub authors discovered through Semantic
// Scholar into canonical authors known to OpenAlex. Semantic Scholar
// yields authors as plain names with no cross-provider identity, so the
// merge is a batch fuzzy-matching pass over the papers the stubs are
// credited on.
package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/pdiddy/citegraph/internal/graph"
	"github.com/pdiddy/citegraph/internal/openalex"
)

// Matching thresholds, carried over from observed tuning. The last-name
// gate rejects candidates whose surnames clearly differ before full-name
// similarity is considered; the initial boost compensates "J. Smith" vs
// "John Smith" style abbreviations.
const (
	lastNameGate    = 0.9
	acceptThreshold = 0.85
	initialBoost    = 1.15
)

// Fetcher is the slice of the OpenAlex client reconciliation needs.
type Fetcher interface {
	FetchWorksByDOI(ctx context.Context, dois []string, fs openalex.FieldSet) ([]openalex.Work, error)
}

type candidate struct {
	name  string
	orcid string
}

type match struct {
	stubUID string
	score   float64
}

// Run merges stub authors into canonical OpenAlex identities:
//
//  1. Collect all stub authors and the DOIs of papers they are credited on.
//  2. Batch-fetch those DOIs from OpenAlex with an authorship-only field
//     selection.
//  3. Score every (stub name, candidate name) pair on each shared paper;
//     matches above the acceptance threshold are grouped by OpenAlex
//     author id.
//  4. Per OpenAlex author id, at most one author survives: an already
//     canonical author if one exists, otherwise the first matched stub.
//     Losers' authorships are re-pointed to the winner and the losers are
//     deleted.
//
// Returns the number of merged (deleted) stub authors.
func Run(ctx context.Context, st *graph.State, fetcher Fetcher, log *zap.Logger) (int, error) {
	stubUIDs := st.StubAuthorUIDs()
	if len(stubUIDs) == 0 {
		return 0, nil
	}
	stubSet := make(map[string]bool, len(stubUIDs))
	for _, uid := range stubUIDs {
		stubSet[uid] = true
	}

	// DOIs of every paper a stub author is credited on.
	doiSet := make(map[string]bool)
	for _, stubUID := range stubUIDs {
		for _, paperUID := range st.PapersByAuthor(stubUID) {
			if doi, ok := st.DOIForPaper(paperUID); ok {
				doiSet[doi] = true
			}
		}
	}
	if len(doiSet) == 0 {
		return 0, nil
	}
	dois := make([]string, 0, len(doiSet))
	for doi := range doiSet {
		dois = append(dois, doi)
	}
	sort.Strings(dois)

	works, err := fetcher.FetchWorksByDOI(ctx, dois, openalex.FieldsAuthorReconciliation)
	if err != nil {
		return 0, err
	}

	matchesByID := make(map[string][]match)
	candidates := make(map[string]candidate)

	for i := range works {
		work := &works[i]
		paperUID, ok := st.Find(graph.NSDOI, graph.NormalizeDOI(work.DOI))
		if !ok {
			continue
		}

		stubsOnPaper := stubAuthorsOnPaper(st, paperUID, stubSet)
		if len(stubsOnPaper) == 0 {
			continue
		}

		for _, as := range work.Authorships {
			oaID := graph.NormalizeOpenAlexID(as.Author.ID)
			if oaID == "" {
				continue
			}
			if _, seen := candidates[oaID]; !seen {
				candidates[oaID] = candidate{
					name:  as.Author.DisplayName,
					orcid: graph.NormalizeORCID(as.Author.ORCID),
				}
			}
			for _, stubUID := range stubsOnPaper {
				stub := st.Authors[stubUID]
				if stub == nil {
					continue
				}
				score := MatchScore(stub.CleanName, as.Author.DisplayName)
				if score > acceptThreshold {
					matchesByID[oaID] = append(matchesByID[oaID], match{stubUID: stubUID, score: score})
				}
			}
		}
	}

	merged := 0
	oaIDs := make([]string, 0, len(matchesByID))
	for oaID := range matchesByID {
		oaIDs = append(oaIDs, oaID)
	}
	sort.Strings(oaIDs)

	for _, oaID := range oaIDs {
		matches := matchesByID[oaID]
		cand := candidates[oaID]

		// An author already indexed under this OpenAlex id is canonical
		// and wins outright; otherwise the first matched stub wins.
		winnerUID, haveCanonical := st.Find(graph.NSOpenAlexAuthor, oaID)
		if !haveCanonical {
			winnerUID = matches[0].stubUID
		}

		winner := st.Authors[winnerUID]
		if winner == nil {
			continue
		}
		if name := graph.CleanName(cand.name); name != "" {
			winner.CleanName = name
		}
		if winner.ORCID == "" && cand.orcid != "" {
			winner.ORCID = cand.orcid
		}
		winner.IsStub = false
		st.Record(graph.NSOpenAlexAuthor, oaID, winnerUID)
		st.Record(graph.NSORCID, cand.orcid, winnerUID)

		var losers []string
		seen := map[string]bool{winnerUID: true}
		for _, m := range matches {
			if !seen[m.stubUID] {
				seen[m.stubUID] = true
				losers = append(losers, m.stubUID)
			}
		}
		if len(losers) > 0 {
			st.MergeAuthors(winnerUID, losers)
			merged += len(losers)
		}

		log.Debug("reconciled author",
			zap.String("openalex_author", oaID),
			zap.String("winner", winnerUID),
			zap.Int("merged", len(losers)))
	}

	log.Info("author reconciliation finished",
		zap.Int("stub_authors", len(stubUIDs)),
		zap.Int("dois_checked", len(dois)),
		zap.Int("merged", merged))
	return merged, nil
}

// stubAuthorsOnPaper returns the stub authors credited on a paper, sorted.
func stubAuthorsOnPaper(st *graph.State, paperUID string, stubSet map[string]bool) []string {
	var uids []string
	for _, as := range st.Authorships {
		if as.PaperUID == paperUID && stubSet[as.AuthorUID] {
			uids = append(uids, as.AuthorUID)
		}
	}
	sort.Strings(uids)
	return uids
}

// MatchScore scores the similarity of a stub author name against a
// candidate's canonical name in [0, 1]:
//
//   - identical normalized names score 1.0;
//   - last-name similarity below the gate scores 0;
//   - otherwise the score is full-name similarity, boosted by 15% (capped
//     at 1.0) when the stub abbreviates the first name to an initial that
//     matches the candidate's.
func MatchScore(stubName, candidateName string) float64 {
	a := normalizeName(stubName)
	b := normalizeName(candidateName)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	if similarity(lastToken(a), lastToken(b)) < lastNameGate {
		return 0
	}

	score := similarity(a, b)
	if initialMatches(a, b) {
		score *= initialBoost
		if score > 1.0 {
			score = 1.0
		}
	}
	return score
}

// normalizeName lowercases a name and strips periods.
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, ".", "")
	return strings.Join(strings.Fields(name), " ")
}

// similarity is normalized Levenshtein similarity in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}

// lastToken returns the final whitespace-separated token of a name.
func lastToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// initialMatches reports whether the stub's first name is a single-letter
// initial matching the candidate's first-name initial.
func initialMatches(stub, candidate string) bool {
	sf := strings.Fields(stub)
	cf := strings.Fields(candidate)
	if len(sf) < 2 || len(cf) < 2 {
		return false
	}
	return len(sf[0]) == 1 && strings.HasPrefix(cf[0], sf[0])
}
